package fabric

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gridledger/electric/lib/contract"
	chaincode "github.com/gridledger/electric/lib/contract/fabric"
	"github.com/gridledger/electric/lib/gateway"
	"github.com/gridledger/electric/lib/wallet"
	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	gatewaypb "github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"github.com/lni/dragonboat/v4/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

var log = logger.GetLogger("gateway")

// Options configure the connection to a Fabric peer.
type Options struct {
	// PeerEndpoint is the gRPC address of the gateway peer, host:port
	PeerEndpoint string
	// ServerName overrides the TLS server name of the peer (empty = host of PeerEndpoint)
	ServerName string
	// TLSCACertPath is the PEM file of the peer's TLS CA. Plain text gRPC is used if empty.
	TLSCACertPath string

	Channel   string
	Chaincode string

	EvaluateTimeout     time.Duration
	EndorseTimeout      time.Duration
	SubmitTimeout       time.Duration
	CommitStatusTimeout time.Duration
}

// DefaultOptions returns the options of the Fabric test network.
func DefaultOptions() Options {
	return Options{
		PeerEndpoint:        "localhost:7051",
		ServerName:          "peer0.org1.example.com",
		Channel:             "mychannel",
		Chaincode:           contract.Name,
		EvaluateTimeout:     5 * time.Second,
		EndorseTimeout:      15 * time.Second,
		SubmitTimeout:       5 * time.Second,
		CommitStatusTimeout: time.Minute,
	}
}

func (o Options) validate() error {
	switch {
	case o.PeerEndpoint == "":
		return errors.New("peer endpoint is required")
	case o.Channel == "":
		return errors.New("channel is required")
	case o.Chaincode == "":
		return errors.New("chaincode name is required")
	}
	return nil
}

type connector struct {
	opts Options
}

// NewConnector returns a connector to the contract deployed on a Fabric network.
func NewConnector(opts Options) gateway.Connector {
	return &connector{opts: opts}
}

func (c *connector) Connect(ctx context.Context, label string, id *wallet.Identity) (gateway.Contract, error) {
	if err := c.opts.validate(); err != nil {
		return nil, err
	}
	if id == nil {
		return nil, fmt.Errorf("%w: %q", wallet.ErrIdentityNotFound, label)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	signerID, sign, err := newSigner(id)
	if err != nil {
		return nil, fmt.Errorf("identity %q: %w", label, err)
	}

	conn, err := newGrpcConnection(c.opts)
	if err != nil {
		return nil, err
	}

	gw, err := client.Connect(
		signerID,
		client.WithSign(sign),
		client.WithClientConnection(conn),
		client.WithEvaluateTimeout(c.opts.EvaluateTimeout),
		client.WithEndorseTimeout(c.opts.EndorseTimeout),
		client.WithSubmitTimeout(c.opts.SubmitTimeout),
		client.WithCommitStatusTimeout(c.opts.CommitStatusTimeout),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to gateway %s: %w", c.opts.PeerEndpoint, err)
	}

	log.Infof("connected %q (%s) to %s, channel %s, chaincode %s",
		label, id.MspID, c.opts.PeerEndpoint, c.opts.Channel, c.opts.Chaincode)

	return &fabricContract{
		conn:     conn,
		gw:       gw,
		contract: gw.GetNetwork(c.opts.Channel).GetContract(c.opts.Chaincode),
	}, nil
}

// newSigner creates the X.509 identity and signing function of a wallet identity.
func newSigner(id *wallet.Identity) (*identity.X509Identity, identity.Sign, error) {
	if id.Type != "" && id.Type != wallet.X509Type {
		return nil, nil, fmt.Errorf("unsupported identity type %q", id.Type)
	}

	cert, err := identity.CertificateFromPEM([]byte(id.Credentials.Certificate))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid certificate: %w", err)
	}
	signerID, err := identity.NewX509Identity(id.MspID, cert)
	if err != nil {
		return nil, nil, err
	}

	key, err := identity.PrivateKeyFromPEM([]byte(id.Credentials.PrivateKey))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid private key: %w", err)
	}
	sign, err := identity.NewPrivateKeySign(key)
	if err != nil {
		return nil, nil, err
	}
	return signerID, sign, nil
}

// newGrpcConnection creates the gRPC client connection to the gateway peer.
func newGrpcConnection(opts Options) (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()
	if opts.TLSCACertPath != "" {
		pem, err := os.ReadFile(opts.TLSCACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read TLS CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificate found in %s", opts.TLSCACertPath)
		}
		creds = credentials.NewClientTLSFromCert(pool, opts.ServerName)
	}

	conn, err := grpc.NewClient(opts.PeerEndpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to %s: %w", opts.PeerEndpoint, err)
	}
	return conn, nil
}

type fabricContract struct {
	conn     *grpc.ClientConn
	gw       *client.Gateway
	contract *client.Contract
}

func (f *fabricContract) Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error) {
	proposal, err := f.contract.NewProposal(chaincode.TxName(fn), client.WithArguments(args...))
	if err != nil {
		return nil, err
	}
	result, err := proposal.EvaluateWithContext(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return result, nil
}

// Submit endorses the transaction, sends it to the orderer and waits until it is committed.
func (f *fabricContract) Submit(ctx context.Context, fn string, args ...string) ([]byte, error) {
	proposal, err := f.contract.NewProposal(chaincode.TxName(fn), client.WithArguments(args...))
	if err != nil {
		return nil, err
	}
	tx, err := proposal.EndorseWithContext(ctx)
	if err != nil {
		return nil, translate(err)
	}
	commit, err := tx.SubmitWithContext(ctx)
	if err != nil {
		return nil, translate(err)
	}
	st, err := commit.StatusWithContext(ctx)
	if err != nil {
		return nil, translate(err)
	}
	if !st.Successful {
		return nil, fmt.Errorf("transaction %s failed to commit with status code %d", st.TransactionID, int32(st.Code))
	}
	return tx.Result(), nil
}

func (f *fabricContract) Close() error {
	f.gw.Close()
	return f.conn.Close()
}

// translate recovers the contract error code from a gateway error. The
// chaincode tags its errors, the tag may sit in the error or in the details
// reported by the endorsing peers.
func translate(err error) error {
	msgs := []string{err.Error()}
	if st, ok := status.FromError(err); ok {
		for _, d := range st.Details() {
			if detail, ok := d.(*gatewaypb.ErrorDetail); ok {
				msgs = append(msgs, detail.GetMessage())
			}
		}
	}
	for _, m := range msgs {
		if ce, ok := contract.Untag(m); ok {
			return fmt.Errorf("%w (%v)", ce, err)
		}
	}
	return err
}
