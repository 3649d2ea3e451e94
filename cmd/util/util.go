package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvds/lib/common"
	"github.com/ValentinKolb/kvds/lib/db"
	"github.com/ValentinKolb/kvds/lib/store/lstore"
	"github.com/joho/godotenv"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds the flags that locate and tune a store to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "db-dir"
	cmd.PersistentFlags().String(key, common.DefaultDBDir, WrapString("Base directory of all stores. A relative path is resolved against the working directory"))

	key = "name"
	cmd.PersistentFlags().String(key, "default", WrapString("Name of the store. The store lives in <db-dir>/<name>"))

	key = "engine"
	cmd.PersistentFlags().String(key, string(db.ImplPebble), WrapString("The storage engine to use (pebble, bolt)"))

	key = "iteration-pool-size"
	cmd.PersistentFlags().Int64(key, common.DefaultIterationPoolSize/1024, WrapString("Process wide memory budget for key enumerations and batches (in KB)"))

	key = "iteration-budget"
	cmd.PersistentFlags().Int64(key, common.DefaultIterationBudget/1024, WrapString("Budget a single enumeration or batch leases from the pool (in KB)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "info", WrapString("Log level (trace, debug, info, warn, error)"))

	key = "log-format"
	cmd.PersistentFlags().String(key, "console", WrapString("Log format (console, json)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("kvds")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetStoreConfig reads the store configuration from viper
func GetStoreConfig() common.StoreConfig {
	return common.StoreConfig{
		DBDir:             viper.GetString("db-dir"),
		Engine:            db.Implementation(strings.ToLower(viper.GetString("engine"))),
		IterationPoolSize: viper.GetInt64("iteration-pool-size") * 1024,
		IterationBudget:   viper.GetInt64("iteration-budget") * 1024,
		LogLevel:          viper.GetString("log-level"),
		LogFormat:         viper.GetString("log-format"),
	}
}

// GetStoreName retrieves the configured store name
func GetStoreName() string {
	return viper.GetString("name")
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetupStore binds the flags of cmd, validates the configuration, initializes the loggers
// and creates an Uninitialized store with the configured name.
func SetupStore(cmd *cobra.Command) (*lstore.Store, common.StoreConfig, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, common.StoreConfig{}, err
	}

	config := GetStoreConfig()
	if err := config.Validate(); err != nil {
		return nil, config, err
	}
	if err := common.InitLoggers(config.LogLevel, config.LogFormat); err != nil {
		return nil, config, err
	}

	registry := metrics.NewRegistry()
	s, err := lstore.NewStore(GetStoreName(), config,
		lstore.WithMetrics(registry),
		lstore.WithIterationPool(lstore.NewIterationPool(config.IterationPoolSize, registry)),
	)
	if err != nil {
		return nil, config, err
	}
	return s, config, nil
}

// OpenStore is SetupStore followed by Init
func OpenStore(cmd *cobra.Command) (*lstore.Store, common.StoreConfig, error) {
	s, config, err := SetupStore(cmd)
	if err != nil {
		return nil, config, err
	}
	if err := s.Init(); err != nil {
		return nil, config, fmt.Errorf("opening store %q: %w", s.Name(), err)
	}
	return s, config, nil
}
