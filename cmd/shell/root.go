package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ValentinKolb/kvds/cmd/util"
	"github.com/ValentinKolb/kvds/lib/common"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

// Command completer for readline
var completer = readline.NewPrefixCompleter(
	readline.PcItem(".help"),
	readline.PcItem(".open"),
	readline.PcItem(".close"),
	readline.PcItem(".destroy"),
	readline.PcItem(".stats"),
	readline.PcItem(".exit"),
	readline.PcItem("PUT"),
	readline.PcItem("GET"),
	readline.PcItem("DELETE"),
	readline.PcItem("KEYS"),
	readline.PcItem("BATCH"),
)

// ShellCmd starts an interactive shell on a kvds store
var ShellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive shell for a kvds store",
	Long: util.WrapString(`Starts an interactive shell. The store configured with --name is opened
right away, other stores can be opened with .open <name>. Enter .help for usage hints.`),
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	util.SetupStoreFlags(ShellCmd)
}

func runShell(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	config := util.GetStoreConfig()
	if err := config.Validate(); err != nil {
		return err
	}
	if err := common.InitLoggers(config.LogLevel, config.LogFormat); err != nil {
		return err
	}

	// Setup readline with history support
	historyFile := filepath.Join(os.TempDir(), ".kvds_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "kvds> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	s := newSession(config, rl.Stdout())
	defer s.shutdown()

	fmt.Fprintln(rl.Stdout(), "Enter .help for usage hints.")
	if name := util.GetStoreName(); name != "" {
		s.open(name)
	}

	for {
		rl.SetPrompt(s.prompt())

		// Read command
		line, readErr := rl.Readline()
		if readErr != nil {
			if errors.Is(readErr, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if errors.Is(readErr, io.EOF) {
				fmt.Fprintln(rl.Stdout(), "Goodbye!")
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %s\n", readErr)
			continue
		}

		if s.execute(line) {
			return nil
		}
	}
}
