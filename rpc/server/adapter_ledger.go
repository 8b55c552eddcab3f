package server

import (
	"github.com/gridledger/electric/lib/contract"
	"github.com/gridledger/electric/lib/store"
	"github.com/gridledger/electric/rpc/common"
)

// NewLedgerServerAdapter creates an adapter that runs contract transactions
// against the world state of a shard. Submitted transactions may write,
// evaluated transactions run on a read only view. Key value messages are
// answered like NewIStoreServerAdapter does, so a ledger shard can also be
// inspected with the kv commands.
func NewLedgerServerAdapter() IRPCServerAdapter {
	return &ledgerServerAdapterImpl{
		kv: NewIStoreServerAdapter(),
	}
}

type ledgerServerAdapterImpl struct {
	kv IRPCServerAdapter
}

func (adapter *ledgerServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	switch req.MsgType {
	case common.MsgTSubmit:
		Logger.Debugf("submit %s by %q", req.Fn, req.Creator)
		payload, err := contract.Invoke(contract.NewStoreStub(s), req.Fn, req.Args)
		return transactionResponse(req.MsgType, payload, err)
	case common.MsgTEvaluate:
		Logger.Debugf("evaluate %s by %q", req.Fn, req.Creator)
		payload, err := contract.Invoke(contract.ReadOnly(contract.NewStoreStub(s)), req.Fn, req.Args)
		return transactionResponse(req.MsgType, payload, err)
	default:
		return adapter.kv.Handle(req, s)
	}
}

func transactionResponse(msgType common.MessageType, payload []byte, err error) *common.Message {
	if err != nil {
		return common.NewTransactionResponse(msgType, nil, contract.CodeOf(err).String(), err)
	}
	return common.NewTransactionResponse(msgType, payload, "", nil)
}
