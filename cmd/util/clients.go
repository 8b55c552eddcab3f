package util

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gridledger/electric/lib/db"
	"github.com/gridledger/electric/lib/db/engines/level"
	"github.com/gridledger/electric/lib/electric"
	"github.com/gridledger/electric/lib/gateway"
	"github.com/gridledger/electric/lib/gateway/fabric"
	"github.com/gridledger/electric/lib/gateway/local"
	"github.com/gridledger/electric/lib/notifier"
	"github.com/gridledger/electric/lib/store"
	"github.com/gridledger/electric/lib/store/lstore"
	"github.com/gridledger/electric/lib/wallet"
	"github.com/gridledger/electric/rpc/client"
	"github.com/gridledger/electric/rpc/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Gateways the client modules can reach the ledger through.
const (
	GatewayRPC      = "rpc"
	GatewayFabric   = "fabric"
	GatewayEmbedded = "embedded"
)

// SetupGatewayFlags adds the flags of the client modules to a command: the
// rpc connection, the wallet, the gateway and the notifier.
func SetupGatewayFlags(cmd *cobra.Command) {
	SetupRPCClientFlags(cmd)

	f := cmd.PersistentFlags()
	f.Int("shard", 100, WrapString("ID of the ledger shard to connect to (rpc gateway)"))

	f.String("gateway", GatewayRPC, WrapString("How to reach the contract: rpc (ledger node), fabric (Fabric peer) or embedded (in-process ledger)"))
	f.String("wallet", "wallet", WrapString("Directory of the identity wallet"))
	f.String("user-identity", electric.UserIdentity, WrapString("Wallet label used by the user module"))
	f.String("usage-identity", electric.UsageIdentity, WrapString("Wallet label used by the usage module"))
	f.String("embedded-dir", "", WrapString("Directory of the world state of the embedded ledger, in memory if empty"))

	defaults := fabric.DefaultOptions()
	f.String("fabric-peer", defaults.PeerEndpoint, WrapString("gRPC endpoint of the Fabric gateway peer"))
	f.String("fabric-server-name", defaults.ServerName, WrapString("TLS server name of the Fabric peer"))
	f.String("fabric-tls-ca", "", WrapString("PEM file of the TLS CA of the Fabric peer, plain text gRPC if empty"))
	f.String("fabric-channel", defaults.Channel, WrapString("Fabric channel name"))
	f.String("fabric-chaincode", defaults.Chaincode, WrapString("Fabric chaincode name"))

	f.String("notify-source", "none", WrapString("Source of the snapshot taken after every usage write: none, peer (peer channel getinfo) or ledger (ledger info)"))
	f.String("notify-file", notifier.DefaultFile, WrapString("File the snapshots are appended to, disabled if empty"))
	f.String("mqtt-broker", "", WrapString("MQTT broker (host:port) the snapshots are published to, disabled if empty"))
	f.String("mqtt-client-id", "electric", WrapString("MQTT client id"))
	f.String("mqtt-username", "", WrapString("MQTT username"))
	f.String("mqtt-password", "", WrapString("MQTT password"))
	f.String("mqtt-topic-prefix", "electric", WrapString("Prefix of the MQTT topic"))
}

// Clients holds the client modules and everything they own.
type Clients struct {
	Users *electric.UserModule
	Usage *electric.UsageModule

	manager  *gateway.Manager
	notifier *notifier.Notifier
	closers  []func() error
}

// Close flushes pending snapshots and closes the gateway sessions.
func (c *Clients) Close() error {
	errs := []error{c.notifier.Close()}
	if c.manager != nil {
		errs = append(errs, c.manager.Close())
	}
	for _, fn := range c.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// Wait blocks until the snapshots of earlier writes have been handled.
func (c *Clients) Wait() {
	c.notifier.Wait()
}

// GetClients builds and initializes the client modules from the configuration.
// A module that fails to initialize stays unusable; the returned error joins
// the initialization failures while Clients is still valid.
func GetClients(ctx context.Context) (*Clients, error) {
	ids, err := wallet.New(viper.GetString("wallet"))
	if err != nil {
		return nil, err
	}

	c := &Clients{}
	connector, ledger, err := c.connector()
	if err != nil {
		return nil, err
	}
	if c.notifier, err = c.newNotifier(ledger); err != nil {
		_ = c.Close()
		return nil, err
	}

	timeout := time.Duration(viper.GetInt("timeout")) * time.Second
	c.manager = gateway.NewManager(ids, connector)
	c.Users = electric.NewUserModule(c.manager.Session(viper.GetString("user-identity")), timeout)
	c.Usage = electric.NewUsageModule(c.manager.Session(viper.GetString("usage-identity")), timeout, c.notifier)

	return c, errors.Join(c.Users.Initialize(ctx), c.Usage.Initialize(ctx))
}

// connector returns the gateway connector and, where the ledger is reachable
// as a store, that store for the ledger snapshot source.
func (c *Clients) connector() (gateway.Connector, func() (store.IStore, error), error) {
	switch gw := viper.GetString("gateway"); gw {
	case GatewayRPC:
		s, err := GetSerializer()
		if err != nil {
			return nil, nil, err
		}
		if _, err := GetTransport(); err != nil {
			return nil, nil, err
		}
		config := GetClientConfig()
		newTransport := func() transport.IRPCClientTransport {
			t, _ := GetTransport()
			return t
		}
		ledger := func() (store.IStore, error) {
			t := newTransport()
			c.closers = append(c.closers, t.Close)
			return client.NewRPCStore(GetShardID(), *config, t, s)
		}
		return client.NewContractConnector(GetShardID(), *config, newTransport, s), ledger, nil

	case GatewayFabric:
		opts := fabric.DefaultOptions()
		opts.PeerEndpoint = viper.GetString("fabric-peer")
		opts.ServerName = viper.GetString("fabric-server-name")
		opts.TLSCACertPath = viper.GetString("fabric-tls-ca")
		opts.Channel = viper.GetString("fabric-channel")
		opts.Chaincode = viper.GetString("fabric-chaincode")
		return fabric.NewConnector(opts), nil, nil

	case GatewayEmbedded:
		factory := func() db.KVDB { return level.NewInMemory() }
		if dir := viper.GetString("embedded-dir"); dir != "" {
			factory = func() db.KVDB {
				kvdb, err := level.NewLevelDB(&level.Options{Path: filepath.Join(dir, "ledger"), Sync: true})
				if err != nil {
					panic(fmt.Sprintf("failed to open embedded ledger in %s: %v", dir, err))
				}
				return kvdb
			}
		}
		s := lstore.NewLocalStore(factory)
		ledger := func() (store.IStore, error) { return s, nil }
		return local.NewConnector(s), ledger, nil

	default:
		return nil, nil, fmt.Errorf("invalid gateway %s (expected one of: %s, %s, %s)", gw, GatewayRPC, GatewayFabric, GatewayEmbedded)
	}
}

// newNotifier returns nil if no snapshots are configured.
func (c *Clients) newNotifier(ledger func() (store.IStore, error)) (*notifier.Notifier, error) {
	var source notifier.Source
	switch src := viper.GetString("notify-source"); src {
	case "none", "":
		return nil, nil
	case "peer":
		source = notifier.NewChannelInfoSource(viper.GetString("fabric-channel"))
	case "ledger":
		if ledger == nil {
			return nil, fmt.Errorf("the ledger snapshot source is not available with the %s gateway", viper.GetString("gateway"))
		}
		s, err := ledger()
		if err != nil {
			return nil, err
		}
		source = &notifier.LedgerSource{Store: s}
	default:
		return nil, fmt.Errorf("invalid notify source %s (expected one of: none, peer, ledger)", src)
	}

	var sinks []notifier.Sink
	if path := viper.GetString("notify-file"); path != "" {
		sinks = append(sinks, notifier.NewFileSink(path))
	}
	if broker := viper.GetString("mqtt-broker"); broker != "" {
		sink, err := notifier.NewMQTTSink(notifier.MQTTOptions{
			Broker:      broker,
			ClientID:    viper.GetString("mqtt-client-id"),
			Username:    viper.GetString("mqtt-username"),
			Password:    viper.GetString("mqtt-password"),
			TopicPrefix: viper.GetString("mqtt-topic-prefix"),
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	return notifier.New(source, notifier.DefaultTimeout, sinks...), nil
}
