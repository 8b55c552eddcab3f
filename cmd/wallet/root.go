package wallet

import (
	"fmt"
	"os"

	"github.com/gridledger/electric/cmd/util"
	"github.com/gridledger/electric/lib/wallet"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	w *wallet.Wallet

	// WalletCommands represents the wallet command group
	WalletCommands = &cobra.Command{
		Use:               "wallet",
		Short:             "Manage the identities of the client modules",
		PersistentPreRunE: openWallet,
	}

	importCmd = &cobra.Command{
		Use:   "import [label] [certificate.pem] [key.pem]",
		Short: "Stores an X.509 identity under label",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cert, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			key, err := os.ReadFile(args[2])
			if err != nil {
				return err
			}
			id := wallet.NewX509Identity(viper.GetString("msp-id"), string(cert), string(key))
			if err := w.Put(args[0], id); err != nil {
				return err
			}
			fmt.Printf("imported %s (%s) into %s\n", args[0], id.MspID, w.Dir())
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists the labels of all identities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			labels, err := w.List()
			if err != nil {
				return err
			}
			for _, label := range labels {
				fmt.Println(label)
			}
			return nil
		},
	}
	showCmd = &cobra.Command{
		Use:   "show [label]",
		Short: "Prints an identity without its private key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := w.Get(args[0])
			if err != nil {
				return err
			}
			id.Credentials.PrivateKey = ""
			return util.PrintJSON(id)
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [label]",
		Short: "Deletes an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return w.Remove(args[0])
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitClientConfig)

	WalletCommands.PersistentFlags().String("wallet", "wallet", util.WrapString("Directory of the identity wallet"))
	importCmd.Flags().String("msp-id", "Org1MSP", util.WrapString("MSP id of the identity"))

	WalletCommands.AddCommand(importCmd)
	WalletCommands.AddCommand(listCmd)
	WalletCommands.AddCommand(showCmd)
	WalletCommands.AddCommand(removeCmd)
}

func openWallet(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	var err error
	w, err = wallet.New(viper.GetString("wallet"))
	return err
}
