package config

import (
	"runtime"

	"github.com/moontrade/threadid/pkg/slots"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var (
	// SlotPolicy selects which released live id the allocator reuses first.
	SlotPolicy = slots.AnyFree
	// SlotLimit bounds live ids to [0, SlotLimit). Zero means unbounded.
	SlotLimit uint = 0
	// FreePoolCapacity preallocates the allocator's free pool.
	FreePoolCapacity = runtime.GOMAXPROCS(0) * 4
	// RegistryShards is the number of shards in the goroutine registry.
	// Rounded up to a power of two.
	RegistryShards = runtime.GOMAXPROCS(0) * 4
	// NameLookup, when set, names threads attached without WithName. It
	// receives the goroutine id and reports false when there is no name.
	NameLookup func(goroutineID uint64) (string, bool)
)

// SlotOptions returns the allocator options described by the variables above.
func SlotOptions() []slots.Option {
	opts := []slots.Option{
		slots.WithPolicy(SlotPolicy),
		slots.WithCapacity(FreePoolCapacity),
	}
	if SlotLimit > 0 {
		opts = append(opts, slots.WithLimit(SlotLimit))
	}
	return opts
}

// Bind reads overrides from v. Keys: slot_policy, slot_limit,
// free_pool_capacity, registry_shards. Unset keys keep their defaults.
func Bind(v *viper.Viper) error {
	if v.IsSet("slot_policy") {
		p, err := slots.ParsePolicy(v.GetString("slot_policy"))
		if err != nil {
			return errors.Wrap(err, "config: slot_policy")
		}
		SlotPolicy = p
	}
	if v.IsSet("slot_limit") {
		SlotLimit = v.GetUint("slot_limit")
	}
	if v.IsSet("free_pool_capacity") {
		FreePoolCapacity = v.GetInt("free_pool_capacity")
	}
	if v.IsSet("registry_shards") {
		n := v.GetInt("registry_shards")
		if n < 1 {
			return errors.Errorf("config: registry_shards must be positive, got %d", n)
		}
		RegistryShards = n
	}
	return nil
}
