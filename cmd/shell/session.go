package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/kvds/cmd/kv"
	"github.com/ValentinKolb/kvds/lib/common"
	"github.com/ValentinKolb/kvds/lib/store/lstore"
	"github.com/rcrowley/go-metrics"
)

const helpText = `
kvds shell - interactive access to a kvds store

Commands:
  .help                 Show this help
  .open <name>          Open the store <db-dir>/<name> (closes the current one)
  .close                Close the current store
  .destroy <path>       Erase all data at path (must not be open)
  .stats                Print configuration, key count and metrics
  .exit                 Leave the shell

  PUT <key> <value>     Set the value for a key
  GET <key>             Read the value for a key
  DELETE <key>          Delete a key
  KEYS                  List all keys in ascending order
  BATCH <k=v> [k=v...]  Write all pairs atomically
`

// session is the state of one shell: the configuration and the currently open store
type session struct {
	config   common.StoreConfig
	opts     []lstore.Option
	registry metrics.Registry
	store    *lstore.Store
	out      io.Writer
}

// newSession creates a session without an open store. All stores opened by the session
// share one iteration pool and one metrics registry.
func newSession(config common.StoreConfig, out io.Writer, opts ...lstore.Option) *session {
	registry := metrics.NewRegistry()
	base := []lstore.Option{
		lstore.WithMetrics(registry),
		lstore.WithIterationPool(lstore.NewIterationPool(config.IterationPoolSize, registry)),
	}
	return &session{
		config:   config,
		opts:     append(base, opts...),
		registry: registry,
		out:      out,
	}
}

// prompt returns the prompt for the current state
func (s *session) prompt() string {
	if s.store != nil {
		return fmt.Sprintf("kvds:%s> ", s.store.Name())
	}
	return "kvds> "
}

// execute runs one line of input. It returns true if the shell should exit.
func (s *session) execute(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToUpper(parts[0])

	// Special dot commands
	if strings.HasPrefix(cmd, ".") {
		switch strings.ToLower(cmd) {
		case ".help":
			fmt.Fprint(s.out, helpText)
		case ".open":
			if len(parts) != 2 {
				fmt.Fprintln(s.out, "Error: Missing name argument")
				return false
			}
			s.open(parts[1])
		case ".close":
			if s.store == nil {
				fmt.Fprintln(s.out, "No store open")
				return false
			}
			s.close()
		case ".destroy":
			if len(parts) != 2 {
				fmt.Fprintln(s.out, "Error: Missing path argument")
				return false
			}
			s.destroy(parts[1])
		case ".stats":
			s.stats()
		case ".exit":
			s.shutdown()
			return true
		default:
			fmt.Fprintf(s.out, "Unknown command: %s\n", parts[0])
		}
		return false
	}

	if s.store == nil {
		fmt.Fprintln(s.out, "Error: No store open (use .open <name>)")
		return false
	}

	switch cmd {
	case "PUT":
		if len(parts) < 3 {
			fmt.Fprintln(s.out, "Error: PUT requires key and value")
			return false
		}
		// the value is the rest of the line
		value := strings.Join(parts[2:], " ")
		if _, err := s.store.Put([]byte(parts[1]), []byte(value)); err != nil {
			fmt.Fprintf(s.out, "Error: %s\n", err)
			return false
		}
		fmt.Fprintln(s.out, "Value stored")

	case "GET":
		if len(parts) != 2 {
			fmt.Fprintln(s.out, "Error: GET requires a key")
			return false
		}
		value, found, err := s.store.Get([]byte(parts[1]))
		if err != nil {
			fmt.Fprintf(s.out, "Error: %s\n", err)
			return false
		}
		if !found {
			fmt.Fprintln(s.out, "Key not found")
			return false
		}
		fmt.Fprintf(s.out, "%s\n", value)

	case "DELETE":
		if len(parts) != 2 {
			fmt.Fprintln(s.out, "Error: DELETE requires a key")
			return false
		}
		if err := s.store.Delete([]byte(parts[1])); err != nil {
			fmt.Fprintf(s.out, "Error: %s\n", err)
			return false
		}
		fmt.Fprintln(s.out, "Key deleted")

	case "KEYS":
		keys, err := s.store.Keys()
		if err != nil {
			fmt.Fprintf(s.out, "Error: %s\n", err)
			return false
		}
		for _, key := range keys.Sorted() {
			fmt.Fprintln(s.out, string(key))
		}
		fmt.Fprintf(s.out, "(%d keys)\n", keys.Len())

	case "BATCH":
		rows, err := kv.ParseAssignments(parts[1:])
		if err != nil {
			fmt.Fprintf(s.out, "Error: %s\n", err)
			return false
		}
		if len(rows) == 0 {
			fmt.Fprintln(s.out, "Error: BATCH requires at least one key=value pair")
			return false
		}
		if err := s.store.UpdateBatch(rows); err != nil {
			fmt.Fprintf(s.out, "Error: %s\n", err)
			return false
		}
		fmt.Fprintf(s.out, "Batch of %d entries written\n", len(rows))

	default:
		fmt.Fprintf(s.out, "Unknown command: %s\n", parts[0])
	}
	return false
}

func (s *session) open(name string) {
	s.close()

	st, err := lstore.NewStore(name, s.config, s.opts...)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", err)
		return
	}
	if err := st.Init(); err != nil {
		fmt.Fprintf(s.out, "Error opening store: %s\n", err)
		return
	}
	s.store = st
	fmt.Fprintf(s.out, "Store %s opened at %s\n", name, st.Path())
}

func (s *session) close() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		fmt.Fprintf(s.out, "Error closing store: %s\n", err)
	} else {
		fmt.Fprintf(s.out, "Store %s closed\n", s.store.Name())
	}
	s.store = nil
}

func (s *session) destroy(path string) {
	st := s.store
	if st == nil {
		// an uninitialized store is enough to reach the engine provider
		var err error
		if st, err = lstore.NewStore("", s.config, s.opts...); err != nil {
			fmt.Fprintf(s.out, "Error: %s\n", err)
			return
		}
	}
	if err := st.DestroyDB(path); err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", err)
		return
	}
	fmt.Fprintf(s.out, "Destroyed %s\n", path)
}

func (s *session) stats() {
	fmt.Fprintln(s.out, s.config.String())
	if s.store != nil {
		keys, err := s.store.Keys()
		if err != nil {
			fmt.Fprintf(s.out, "Error: %s\n", err)
			return
		}
		fmt.Fprintf(s.out, "Store: %s (%s)\n", s.store.Name(), s.store.Path())
		fmt.Fprintf(s.out, "Keys: %d\n", keys.Len())
		fmt.Fprintf(s.out, "Last used: %s\n", s.store.LastUsed().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(s.out, "Metrics:")
	metrics.WriteOnce(s.registry, s.out)
}

// shutdown closes the open store
func (s *session) shutdown() {
	s.close()
}
