// Package engines maps engine implementation names to their providers.
package engines

import (
	"fmt"

	"github.com/ValentinKolb/kvds/lib/db"
	"github.com/ValentinKolb/kvds/lib/db/engines/bolt"
	"github.com/ValentinKolb/kvds/lib/db/engines/pebble"
)

// Lookup returns the provider for the given implementation.
func Lookup(impl db.Implementation) (db.Provider, error) {
	switch impl {
	case db.ImplPebble:
		return pebble.NewProvider(), nil
	case db.ImplBolt:
		return bolt.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unknown engine implementation: %q", impl)
	}
}
