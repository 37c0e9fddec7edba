package config

import (
	"testing"

	"github.com/moontrade/threadid/pkg/slots"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() func() {
	policy, limit, capacity, shards := SlotPolicy, SlotLimit, FreePoolCapacity, RegistryShards
	return func() {
		SlotPolicy, SlotLimit, FreePoolCapacity, RegistryShards = policy, limit, capacity, shards
	}
}

func TestBind(t *testing.T) {
	defer snapshot()()

	v := viper.New()
	v.Set("slot_policy", "smallest-first")
	v.Set("slot_limit", 128)
	v.Set("registry_shards", 8)
	require.NoError(t, Bind(v))

	assert.Equal(t, slots.SmallestFirst, SlotPolicy)
	assert.Equal(t, uint(128), SlotLimit)
	assert.Equal(t, 8, RegistryShards)
	assert.Len(t, SlotOptions(), 3)

	a := slots.New(SlotOptions()...)
	assert.Equal(t, slots.SmallestFirst, a.Policy())
}

func TestBind_Defaults(t *testing.T) {
	defer snapshot()()

	before := RegistryShards
	require.NoError(t, Bind(viper.New()))
	assert.Equal(t, slots.AnyFree, SlotPolicy)
	assert.Equal(t, before, RegistryShards)
	assert.Len(t, SlotOptions(), 2)
}

func TestBind_Invalid(t *testing.T) {
	defer snapshot()()

	v := viper.New()
	v.Set("slot_policy", "largest")
	assert.Error(t, Bind(v))

	v = viper.New()
	v.Set("registry_shards", 0)
	assert.Error(t, Bind(v))
}
