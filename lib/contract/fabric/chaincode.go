package fabric

import (
	"strings"

	"github.com/gridledger/electric/lib/contract"
	"github.com/hyperledger/fabric-contract-api-go/v2/contractapi"
)

// ElectricContract is the electric contract as Fabric chaincode. Every
// transaction runs the shared contract implementation against the stub of
// the transaction context and returns the JSON result as a string.
type ElectricContract struct {
	contractapi.Contract
}

// NewChaincode builds the chaincode that serves ElectricContract.
func NewChaincode() (*contractapi.ContractChaincode, error) {
	cc := new(ElectricContract)
	cc.Name = contract.Name
	cc.Info.Title = "electric"
	cc.Info.Version = "1.0.0"

	chaincode, err := contractapi.NewChaincode(cc)
	if err != nil {
		return nil, err
	}
	chaincode.DefaultContract = cc.GetName()
	return chaincode, nil
}

// TxName returns the chaincode transaction name of a contract function,
// e.g. "createUser" becomes "CreateUser".
func TxName(fn string) string {
	if fn == "" {
		return fn
	}
	return strings.ToUpper(fn[:1]) + fn[1:]
}

func invoke(ctx contractapi.TransactionContextInterface, fn string, args ...string) (string, error) {
	payload, err := contract.Invoke(NewStub(ctx.GetStub()), fn, args)
	if err != nil {
		return "", contract.Tag(err)
	}
	return string(payload), nil
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

func (c *ElectricContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	_, err := invoke(ctx, contract.FnInitLedger)
	return err
}

func (c *ElectricContract) CreateUser(ctx contractapi.TransactionContextInterface, userID, userName string) (string, error) {
	return invoke(ctx, contract.FnCreateUser, userID, userName)
}

func (c *ElectricContract) QueryUser(ctx contractapi.TransactionContextInterface, userID string) (string, error) {
	return invoke(ctx, contract.FnQueryUser, userID)
}

func (c *ElectricContract) QueryAllUsers(ctx contractapi.TransactionContextInterface, startKey, endKey string) (string, error) {
	return invoke(ctx, contract.FnQueryAllUsers, startKey, endKey)
}

func (c *ElectricContract) CreateUsage(ctx contractapi.TransactionContextInterface,
	usageKey, userID, time, voltage, current, power, frequency, energy string) (string, error) {
	return invoke(ctx, contract.FnCreateUsage, usageKey, userID, time, voltage, current, power, frequency, energy)
}

func (c *ElectricContract) QueryAllUsage(ctx contractapi.TransactionContextInterface, startKey, endKey string) (string, error) {
	return invoke(ctx, contract.FnQueryAllUsage, startKey, endKey)
}

func (c *ElectricContract) QueryUsageForUser(ctx contractapi.TransactionContextInterface, startKey, endKey string) (string, error) {
	return invoke(ctx, contract.FnQueryUsageForUser, startKey, endKey)
}
