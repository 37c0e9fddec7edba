package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/moontrade/threadid/config"
	"github.com/moontrade/threadid/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tebeka/atexit"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	verbose bool
	jsonOut bool

	settings = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "threadid",
	Short: "Inspect thread id allocation",
	Long: `threadid spawns attached goroutines and reports how live, unique and
debug thread ids are handed out.

Settings come from flags, a config file, THREADID_* environment variables
or a .env file in the working directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Root().PersistentFlags())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (yaml, json or toml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&jsonOut, "json", false, "Output in JSON format")
	flags.String("slot-policy", config.SlotPolicy.String(), "Live id reuse policy: any-free or smallest-first")
	flags.Uint("slot-limit", config.SlotLimit, "Upper bound on live ids, 0 for none")
	flags.Int("registry-shards", config.RegistryShards, "Goroutine registry shards")
}

func execute() {
	atexit.Register(func() { _ = logger.Sync() })
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// bindFlags maps dashed flag names onto the config keys config.Bind reads.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		switch f.Name {
		case "config", "verbose", "json":
			return
		}
		if err == nil {
			err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		}
	})
	return err
}

func setup(flags *pflag.FlagSet) error {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	l, err := logger.NewDevelopment(level)
	if err != nil {
		return errors.Wrap(err, "logger")
	}
	logger.SetLogger(l)
	logger.SetLevel(level)

	// A missing .env is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "load .env")
	}
	settings.SetEnvPrefix("THREADID")
	settings.AutomaticEnv()
	if err := bindFlags(settings, flags); err != nil {
		return errors.Wrap(err, "flags")
	}
	if cfgFile != "" {
		settings.SetConfigFile(cfgFile)
		if err := settings.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config %s", cfgFile)
		}
	}
	if err := config.Bind(settings); err != nil {
		return err
	}
	logger.Debug("configured slot_policy=%s slot_limit=%d registry_shards=%d",
		config.SlotPolicy, config.SlotLimit, config.RegistryShards)
	return nil
}

func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
