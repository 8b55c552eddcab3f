package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gridledger/electric/lib/db"
	"github.com/gridledger/electric/lib/store"
	"github.com/gridledger/electric/rpc/common"
	"github.com/gridledger/electric/rpc/serializer"
	"github.com/gridledger/electric/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It returns a store.IStore and an error
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC store
	s := rpcStore{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC store
	return &s, nil
}

type rpcStore struct {
	rpcClientAdapter
}

func (i *rpcStore) call(req *common.Message) (*common.Message, error) {
	ctx, cancel := i.timeoutCtx(context.Background())
	defer cancel()
	return i.invoke(ctx, req)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Set(key string, value []byte) (err error) {
	_, err = i.call(common.NewSetRequest(key, value))
	return err
}

func (i *rpcStore) Get(key string) (value []byte, loaded bool, err error) {
	resp, err := i.call(common.NewGetRequest(key))
	if err != nil {
		return nil, false, err
	}
	return resp.Value, resp.Ok, nil
}

func (i *rpcStore) Has(key string) (loaded bool, err error) {
	resp, err := i.call(common.NewHasRequest(key))
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcStore) Range(start, end string) ([]store.KV, error) {
	resp, err := i.call(common.NewRangeRequest(start, end))
	if err != nil {
		return nil, err
	}
	if resp.Entries == nil {
		return []store.KV{}, nil
	}
	return resp.Entries, nil
}

func (i *rpcStore) GetDBInfo() (info db.DatabaseInfo, err error) {
	resp, err := i.call(common.NewInfoRequest())
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	if err := json.Unmarshal(resp.Value, &info); err != nil {
		return db.DatabaseInfo{}, fmt.Errorf("RPC - invalid database info: %w", err)
	}
	return info, nil
}
