package kv

import (
	"github.com/ValentinKolb/kvds/cmd/util"
	"github.com/ValentinKolb/kvds/lib/common"
	"github.com/ValentinKolb/kvds/lib/store/lstore"
	"github.com/spf13/cobra"
)

var (
	localStore  *lstore.Store
	storeConfig common.StoreConfig

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  openStore,
		PersistentPostRunE: closeStore,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common store flags to the KV command
	util.SetupStoreFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(putCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(keysCmd)
	KeyValueCommands.AddCommand(batchCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// openStore opens the configured store
func openStore(cmd *cobra.Command, _ []string) (err error) {
	localStore, storeConfig, err = util.OpenStore(cmd)
	return err
}

// closeStore closes the store opened by openStore
func closeStore(_ *cobra.Command, _ []string) error {
	if localStore == nil {
		return nil
	}
	return localStore.Close()
}
