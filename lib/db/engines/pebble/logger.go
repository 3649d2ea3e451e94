package pebble

import "fmt"

// engineLogger routes pebble's internal logging into the component logger.
// Pebble is chatty at info level (flushes, compactions), so those go to debug.
type engineLogger struct{}

func (engineLogger) Infof(format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}

func (engineLogger) Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Error().Msg(msg)
	panic(msg)
}
