package db

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/kvds/cmd/util"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
)

var (
	// DatabaseCommands represents the command group for whole-database operations
	DatabaseCommands = &cobra.Command{
		Use:   "db",
		Short: "Manage the on-disk databases of kvds stores",
	}

	destroyCmd = &cobra.Command{
		Use:   "destroy [path]",
		Short: "Erases all data of a database",
		Long: util.WrapString(`Erases all data persisted at path. Without a path the directory of the
configured store (<db-dir>/<name>) is destroyed. Failures are reported in the log but do not fail the command.`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, config, err := util.SetupStore(cmd)
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				path = config.ResolveDir(wd, s.Name())
			}

			if err := s.DestroyDB(path); err != nil {
				return err
			}
			fmt.Printf("destroyed %s\n", path)
			return nil
		},
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Opens the store, counts its keys and prints configuration and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, config, err := util.OpenStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			keys, err := s.Keys()
			if err != nil {
				return err
			}

			fmt.Println("Configuration:")
			fmt.Println(config.String())
			fmt.Printf("Store: %s\n", s.Name())
			fmt.Printf("Path: %s\n", s.Path())
			fmt.Printf("Keys: %d\n", keys.Len())
			fmt.Println()
			fmt.Println("Metrics:")
			metrics.WriteOnce(s.Metrics(), os.Stdout)
			return nil
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	util.SetupStoreFlags(DatabaseCommands)

	DatabaseCommands.AddCommand(destroyCmd)
	DatabaseCommands.AddCommand(statsCmd)
}
