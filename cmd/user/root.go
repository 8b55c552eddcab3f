package user

import (
	"context"

	"github.com/gridledger/electric/cmd/util"
	"github.com/gridledger/electric/lib/electric"
	"github.com/spf13/cobra"
)

var (
	clients *util.Clients

	// UserCommands represents the user command group
	UserCommands = &cobra.Command{
		Use:                "user",
		Short:              "Register and query users",
		PersistentPreRunE:  setupClients,
		PersistentPostRunE: closeClients,
	}

	registeredCmd = &cobra.Command{
		Use:   "registered",
		Short: "Checks that the user identity is enrolled in the wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := clients.Users.CheckUserRegistered(cmd.Context())
			if err != nil {
				return err
			}
			return util.PrintJSON(res)
		},
	}
	createCmd = &cobra.Command{
		Use:   "create [userId] [userName]",
		Short: "Registers a user, replacing an existing user with the same id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := clients.Users.CreateUser(cmd.Context(), electric.UserInput{UserID: args[0], UserName: args[1]})
			if err != nil {
				return err
			}
			return util.PrintJSON(res)
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [userId]",
		Short: "Reads a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := clients.Users.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return util.PrintJSON(res)
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := clients.Users.GetAllUsers(cmd.Context())
			if err != nil {
				return err
			}
			return util.PrintJSON(res)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitClientConfig)
	util.SetupGatewayFlags(UserCommands)

	UserCommands.AddCommand(registeredCmd)
	UserCommands.AddCommand(createCmd)
	UserCommands.AddCommand(getCmd)
	UserCommands.AddCommand(listCmd)
}

// setupClients connects the client modules. Only the user module has to be
// usable here.
func setupClients(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	var err error
	clients, err = util.GetClients(context.Background())
	if clients == nil {
		return err
	}
	return nil
}

func closeClients(_ *cobra.Command, _ []string) error {
	return clients.Close()
}
