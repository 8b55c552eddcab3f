package cmd

import (
	"fmt"
	"os"

	"github.com/gridledger/electric/cmd/app"
	"github.com/gridledger/electric/cmd/chaincode"
	"github.com/gridledger/electric/cmd/kv"
	"github.com/gridledger/electric/cmd/serve"
	"github.com/gridledger/electric/cmd/usage"
	"github.com/gridledger/electric/cmd/user"
	"github.com/gridledger/electric/cmd/util"
	"github.com/gridledger/electric/cmd/wallet"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "electric",
		Short: "electricity usage ledger",
		Long: fmt.Sprintf(`electric (v%s)

Records the electricity usage of registered users on a permissioned ledger.
The ledger is either a Hyperledger Fabric channel running the electric
chaincode, or a set of ledger nodes that replicate the world state with RAFT.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of electric",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("electric v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(user.UserCommands)
	RootCmd.AddCommand(usage.UsageCommands)
	RootCmd.AddCommand(app.AppCmd)
	RootCmd.AddCommand(chaincode.ChaincodeCmd)
	RootCmd.AddCommand(wallet.WalletCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
