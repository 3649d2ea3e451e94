package kv

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if _, err := localStore.Put([]byte(key), []byte(value)); err != nil {
				return err
			} else {
				fmt.Println("put successfully")
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if resp, ok, err := localStore.Get([]byte(key)); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
			}
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := localStore.Delete([]byte(key)); err != nil {
				return err
			} else {
				fmt.Println("delete successfully")
			}
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists all keys of the store in ascending order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := localStore.Keys()
			if err != nil {
				return err
			}
			for _, key := range keys.Sorted() {
				fmt.Println(string(key))
			}
			fmt.Printf("(%d keys)\n", keys.Len())
			return nil
		},
	}
	batchCmd = &cobra.Command{
		Use:   "batch [key=value]...",
		Short: "Writes all key value pairs atomically",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := ParseAssignments(args)
			if err != nil {
				return err
			}
			if err := localStore.UpdateBatch(rows); err != nil {
				return err
			} else {
				fmt.Printf("batch of %d entries written successfully\n", len(rows))
			}
			return nil
		},
	}
)

// ParseAssignments parses arguments of the form key=value. The value may contain '='.
func ParseAssignments(args []string) (map[string][]byte, error) {
	rows := make(map[string][]byte, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected key=value)", arg)
		}
		rows[key] = []byte(value)
	}
	return rows, nil
}
