package client

import (
	"context"

	"github.com/gridledger/electric/lib/gateway"
	"github.com/gridledger/electric/lib/wallet"
	"github.com/gridledger/electric/rpc/common"
	"github.com/gridledger/electric/rpc/serializer"
	"github.com/gridledger/electric/rpc/transport"
)

// NewContractConnector creates a gateway connector that runs contract
// transactions on the ledger shard shardId of a ledger node.
// Every Connect opens its own transport from newTransport.
func NewContractConnector(
	shardId uint64,
	config common.ClientConfig,
	newTransport func() transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) gateway.Connector {
	return &contractConnector{
		shardId:      shardId,
		config:       config,
		newTransport: newTransport,
		serializer:   serializer,
	}
}

type contractConnector struct {
	shardId      uint64
	config       common.ClientConfig
	newTransport func() transport.IRPCClientTransport
	serializer   serializer.IRPCSerializer
}

func (c *contractConnector) Connect(ctx context.Context, label string, _ *wallet.Identity) (gateway.Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := c.newTransport()
	if err := t.Connect(c.config); err != nil {
		return nil, err
	}

	Logger.Debugf("connected contract client %q to shard %d", label, c.shardId)
	return &rpcContract{
		rpcClientAdapter: rpcClientAdapter{
			shardId:    c.shardId,
			config:     c.config,
			transport:  t,
			serializer: c.serializer,
		},
		creator: label,
	}, nil
}

type rpcContract struct {
	rpcClientAdapter
	creator string
}

func (r *rpcContract) Submit(ctx context.Context, fn string, args ...string) ([]byte, error) {
	resp, err := r.invoke(ctx, common.NewSubmitRequest(r.creator, fn, args))
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

func (r *rpcContract) Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error) {
	resp, err := r.invoke(ctx, common.NewEvaluateRequest(r.creator, fn, args))
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

func (r *rpcContract) Close() error {
	return r.transport.Close()
}
