package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/kvds/cmd/db"
	"github.com/ValentinKolb/kvds/cmd/kv"
	"github.com/ValentinKolb/kvds/cmd/shell"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvds",
		Short: "concurrency-safe embedded key-value store",
		Long: fmt.Sprintf(`kvds (v%s)

A persistent key-value store library written in Go. It wraps an embedded,
ordered storage engine (pebble or bbolt) and makes it safe to use from many
goroutines at once, with an explicit open/close lifecycle and atomic batches.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvds",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvds v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(db.DatabaseCommands)
	RootCmd.AddCommand(shell.ShellCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
