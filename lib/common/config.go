package common

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ValentinKolb/kvds/lib/db"
)

// Defaults for the store configuration
const (
	DefaultDBDir             = "database"
	DefaultIterationPoolSize = 4 * 1024 * 1024 // process wide budget for enumerations and batches
	DefaultIterationBudget   = 512 * 1024      // budget a single enumeration or batch acquires
)

// --------------------------------------------------------------------------
// Store configuration struct
// --------------------------------------------------------------------------

// StoreConfig holds everything a store needs to locate and open its engine.
type StoreConfig struct {
	// DBDir is the base directory. Every store lives in DBDir/<name>.
	// A relative DBDir is resolved against the working directory.
	DBDir string

	// Engine selects the engine implementation (pebble, bolt)
	Engine db.Implementation

	// Iteration pool settings (in bytes)
	IterationPoolSize int64
	IterationBudget   int64

	// Logging configuration
	LogLevel  string
	LogFormat string
}

// DefaultStoreConfig returns the configuration used when nothing else is set.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		DBDir:             DefaultDBDir,
		Engine:            db.ImplPebble,
		IterationPoolSize: DefaultIterationPoolSize,
		IterationBudget:   DefaultIterationBudget,
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// Validate checks the configuration for values no store can be opened with.
func (c *StoreConfig) Validate() error {
	if strings.TrimSpace(c.DBDir) == "" {
		return fmt.Errorf("db-dir must not be empty")
	}
	switch c.Engine {
	case db.ImplPebble, db.ImplBolt:
	default:
		return fmt.Errorf("invalid engine %q (expected one of: %s, %s)", c.Engine, db.ImplPebble, db.ImplBolt)
	}
	if c.IterationPoolSize <= 0 || c.IterationBudget <= 0 {
		return fmt.Errorf("iteration pool size and budget must be positive")
	}
	if c.IterationBudget > c.IterationPoolSize {
		return fmt.Errorf("iteration budget (%d) must not exceed the pool size (%d)", c.IterationBudget, c.IterationPoolSize)
	}
	return nil
}

// ResolveDir returns the directory of the store with the given name.
// An absolute DBDir is used as-is, a relative one is joined onto workDir.
func (c *StoreConfig) ResolveDir(workDir, name string) string {
	if filepath.IsAbs(c.DBDir) {
		return filepath.Join(c.DBDir, name)
	}
	return filepath.Join(workDir, c.DBDir, name)
}

// String returns a formatted string representation of the configuration
func (c *StoreConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Storage
	addSection("Storage")
	addField("Database Directory", c.DBDir)
	addField("Engine", string(c.Engine))

	// Engine tuning
	opts := db.DefaultOptions()
	addSection("Engine Tuning")
	addField("Compression", fmt.Sprintf("%t", opts.Compression))
	addField("Paranoid Checks", fmt.Sprintf("%t", opts.ParanoidChecks))
	addField("Verify Checksums", fmt.Sprintf("%t", opts.VerifyChecksums))
	addField("Block Size", fmt.Sprintf("%d KB", opts.BlockSize/1024))
	addField("Write Buffer Size", fmt.Sprintf("%d KB", opts.WriteBufferSize/1024))
	addField("Max Open Files", fmt.Sprintf("%d", opts.MaxOpenFiles))
	addField("Cache Size", fmt.Sprintf("%d KB", opts.CacheSize/1024))

	// Iteration pool
	addSection("Iteration Pool")
	addField("Pool Size", fmt.Sprintf("%d KB", c.IterationPoolSize/1024))
	addField("Budget per Lease", fmt.Sprintf("%d KB", c.IterationBudget/1024))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)
	addField("Log Format", c.LogFormat)

	return sb.String()
}
