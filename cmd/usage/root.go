package usage

import (
	"context"
	"fmt"
	"math"

	"github.com/gridledger/electric/cmd/util"
	"github.com/gridledger/electric/lib/electric"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	clients *util.Clients

	// UsageCommands represents the usage command group
	UsageCommands = &cobra.Command{
		Use:                "usage",
		Short:              "Record and query electricity usage",
		PersistentPreRunE:  setupClients,
		PersistentPostRunE: closeClients,
	}

	createCmd = &cobra.Command{
		Use:   "create [userId]",
		Short: "Records one measurement of a user",
		Long: `Records one measurement of a user. The record is keyed by --time if it is
a unix millisecond timestamp, by the current time otherwise. Missing
measurements are recorded as "0".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := clients.Usage.CreateUsage(cmd.Context(), electric.UsageInput{
				UserID:    args[0],
				Time:      viper.GetString("time"),
				Voltage:   viper.GetString("voltage"),
				Current:   viper.GetString("current"),
				Power:     viper.GetString("power"),
				Frequency: viper.GetString("frequency"),
				Energy:    viper.GetString("energy"),
			})
			if err != nil {
				return err
			}
			// the snapshot after the write is taken before the command exits
			clients.Wait()
			return util.PrintJSON(res)
		},
	}
	listCmd = &cobra.Command{
		Use:   "list [userId]",
		Short: "Lists the usage of one user, or of all users if no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				res *electric.UsageListResult
				err error
			)
			from, to := viper.GetInt64("from"), viper.GetInt64("to")
			switch {
			case len(args) == 0 && (from != 0 || to != 0):
				return fmt.Errorf("--from and --to need a user id")
			case len(args) == 0:
				res, err = clients.Usage.GetAllUsage(cmd.Context())
			case from != 0 || to != 0:
				if to == 0 {
					to = math.MaxInt64
				}
				res, err = clients.Usage.GetUsageWindow(cmd.Context(), args[0], from, to)
			default:
				res, err = clients.Usage.GetUsageForUser(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return util.PrintJSON(res)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitClientConfig)
	util.SetupGatewayFlags(UsageCommands)

	f := createCmd.Flags()
	f.String("time", "", util.WrapString("Time of the measurement in unix milliseconds (default now)"))
	f.String("voltage", "", util.WrapString("Voltage"))
	f.String("current", "", util.WrapString("Current"))
	f.String("power", "", util.WrapString("Power"))
	f.String("frequency", "", util.WrapString("Frequency"))
	f.String("energy", "", util.WrapString("Energy"))

	listCmd.Flags().Int64("from", 0, util.WrapString("Only records taken at or after this unix millisecond time"))
	listCmd.Flags().Int64("to", 0, util.WrapString("Only records taken before this unix millisecond time (default no bound)"))

	UsageCommands.AddCommand(createCmd)
	UsageCommands.AddCommand(listCmd)
	UsageCommands.AddCommand(benchCmd)
}

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
