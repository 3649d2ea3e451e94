package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// --------------------------------------------------------------------------
// Shared output (swappable at runtime)
// --------------------------------------------------------------------------

var (
	outputMu sync.RWMutex
	output   io.Writer = newConsoleWriter(os.Stdout)
)

// DefaultLogLevel is in effect until InitLoggers is called
const DefaultLogLevel = zerolog.InfoLevel

func init() {
	zerolog.SetGlobalLevel(DefaultLogLevel)
}

// dynamicWriter forwards every write to the current shared output. Loggers created with
// CreateLogger hold a dynamicWriter, so package level loggers pick up InitLoggers and
// SetOutput calls made after they were created.
type dynamicWriter struct{}

func (dynamicWriter) Write(p []byte) (int, error) {
	outputMu.RLock()
	w := output
	outputMu.RUnlock()
	return w.Write(p)
}

// SetOutput redirects all loggers to w and returns the previous output. Useful in tests.
func SetOutput(w io.Writer) io.Writer {
	outputMu.Lock()
	defer outputMu.Unlock()
	prev := output
	output = w
	return prev
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// CreateLogger returns a logger tagged with the given package name.
func CreateLogger(pkgName string) zerolog.Logger {
	return zerolog.New(dynamicWriter{}).With().
		Timestamp().
		Str("component", pkgName).
		Logger()
}

// newConsoleWriter formats records as `time | LEVEL | component | message key=value ...`
func newConsoleWriter(out io.Writer) zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{
		Out:           out,
		NoColor:       true,
		TimeFormat:    time.DateTime,
		PartsOrder:    []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, "component", zerolog.MessageFieldName},
		FieldsExclude: []string{"component"},
	}

	cw.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-5s |", i))
	}
	cw.FormatPartValueByName = func(i interface{}, name string) string {
		if name == "component" {
			return fmt.Sprintf("%-15s |", i)
		}
		return fmt.Sprintf("%s", i)
	}
	return cw
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level (debug, info, warn, error, trace) to a zerolog.Level
func ParseLogLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warning", "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level: %s. must be one of trace, debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers sets the global log level and output format of all loggers.
// Supported formats are "console" (default) and "json".
func InitLoggers(level, format string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)

	if strings.EqualFold(format, "json") {
		SetOutput(os.Stdout)
	} else {
		SetOutput(newConsoleWriter(os.Stdout))
	}
	return nil
}
