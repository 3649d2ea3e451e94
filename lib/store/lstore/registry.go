package lstore

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// locations maps the absolute directory of every Open store in this process to that store.
// A store running DestroyDB holds the claim on the destroyed directory until the erase ends.
var locations = xsync.NewMapOf[string, *Store]()

// claimLocation registers s as the owner of path. It returns false if another store
// already owns it.
func claimLocation(path string, s *Store) bool {
	owner, loaded := locations.LoadOrStore(path, s)
	return !loaded || owner == s
}

// releaseLocation removes the claim of s on path. Claims of other stores are left alone.
func releaseLocation(path string, s *Store) {
	locations.Compute(path, func(owner *Store, loaded bool) (*Store, bool) {
		if !loaded || owner != s {
			return owner, !loaded
		}
		return nil, true
	})
}

// OpenLocations returns the directories of all stores currently open (or being destroyed)
// in this process.
func OpenLocations() []string {
	paths := make([]string, 0, locations.Size())
	locations.Range(func(path string, _ *Store) bool {
		paths = append(paths, path)
		return true
	})
	return paths
}
