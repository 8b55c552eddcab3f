package kv

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if err := rpcStore.Set(key, []byte(value)); err != nil {
				return err
			} else {
				fmt.Println("set successfully")
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
			if resp, ok, err := rpcStore.Get(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%q, found=%v, resp=%s\n", key, ok, resp)
			}
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if found, err := rpcStore.Has(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%q, found=%t\n", key, found)
			}
			return nil
		},
	}
	rangeCmd = &cobra.Command{
		Use:   "range [start] [end]",
		Short: "Lists all key value pairs of [start, end) in key order",
		Long: `Lists all key value pairs of [start, end) in key order.
Keys are written quoted, so the separator of composite keys shows as \x00.
Escape sequences in start and end are interpreted the same way (e.g. "USER\x00").`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := unquote(args[0])
			if err != nil {
				return err
			}
			end, err := unquote(args[1])
			if err != nil {
				return err
			}
			entries, err := rpcStore.Range(start, end)
			if err != nil {
				return err
			}
			for _, kv := range entries {
				fmt.Printf("%q\t%s\n", kv.Key, kv.Value)
			}
			fmt.Printf("%s entries\n", humanize.Comma(int64(len(entries))))
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints the world state statistics of the shard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := rpcStore.GetDBInfo()
			if err != nil {
				return err
			}
			fmt.Printf("%-12s%s\n", "engine", info.DbType)
			fmt.Printf("%-12s%s\n", "keys", humanize.Comma(int64(info.Keys)))
			fmt.Printf("%-12s%s\n", "size", humanize.Bytes(uint64(info.SizeBytes)))
			fmt.Printf("%-12s%v\n", "features", info.SupportedFeatures)
			return nil
		},
	}
)

// unquote interprets Go escape sequences in a key given on the command line.
func unquote(s string) (string, error) {
	u, err := strconv.Unquote(`"` + s + `"`)
	if err != nil {
		return "", fmt.Errorf("invalid key %s: %w", s, err)
	}
	return u, nil
}
