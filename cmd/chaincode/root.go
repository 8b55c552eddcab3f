package chaincode

import (
	"fmt"

	"github.com/gridledger/electric/cmd/util"
	"github.com/gridledger/electric/lib/contract/fabric"
	"github.com/hyperledger/fabric-chaincode-go/v2/shim"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ChaincodeCmd runs the contract as Fabric chaincode
var ChaincodeCmd = &cobra.Command{
	Use:   "chaincode",
	Short: "Run the electric contract as Fabric chaincode",
	Long: `Run the electric contract as Fabric chaincode. By default the process
connects to the peer that launched it. With --address it runs as an external
chaincode service (chaincode as a service) and waits for the peer to connect.
The environment variables CHAINCODE_ID and CHAINCODE_SERVER_ADDRESS set by the
Fabric tooling are honored.`,
	Args: cobra.NoArgs,
	RunE: run,
}

func init() {
	cobra.OnInitialize(util.InitClientConfig)

	key := "address"
	ChaincodeCmd.Flags().String(key, "", util.WrapString("Listen address of the chaincode service (e.g. 0.0.0.0:9999), launched by the peer if empty"))
	key = "id"
	ChaincodeCmd.Flags().String(key, "", util.WrapString("Package id of the chaincode service"))
}

func run(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	_ = viper.BindEnv("address", "CHAINCODE_SERVER_ADDRESS")
	_ = viper.BindEnv("id", "CHAINCODE_ID")

	cc, err := fabric.NewChaincode()
	if err != nil {
		return fmt.Errorf("failed to create chaincode: %w", err)
	}

	address := viper.GetString("address")
	if address == "" {
		return cc.Start()
	}

	server := &shim.ChaincodeServer{
		CCID:     viper.GetString("id"),
		Address:  address,
		CC:       cc,
		TLSProps: shim.TLSProperties{Disabled: true},
	}
	return server.Start()
}
