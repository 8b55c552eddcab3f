package server

import (
	"encoding/json"
	"fmt"
	"github.com/gridledger/electric/lib/store"
	"github.com/gridledger/electric/rpc/common"
)

// NewIStoreServerAdapter creates an adapter that answers key value messages
// against the world state of a shard.
func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	// Check for nil store
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTKVSet:
		err := s.Set(req.Key, req.Value)
		return common.NewSetResponse(err)
	case common.MsgTKVGet:
		val, ok, err := s.Get(req.Key)
		return common.NewGetResponse(val, ok, err)
	case common.MsgTKVHas:
		ok, err := s.Has(req.Key)
		return common.NewHasResponse(ok, err)
	case common.MsgTKVRange:
		entries, err := s.Range(req.Key, req.EndKey)
		if entries == nil && err == nil {
			entries = []store.KV{}
		}
		return common.NewRangeResponse(entries, err)
	case common.MsgTKVInfo:
		info, err := s.GetDBInfo()
		if err != nil {
			return common.NewInfoResponse(nil, err)
		}
		raw, err := json.Marshal(info)
		return common.NewInfoResponse(raw, err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
