// Package client implements the RPC clients of a ledger node.
//
// Key Components:
//
//   - NewRPCStore: creates a store.IStore whose operations run on a shard of a
//     remote ledger node. Used by the kv commands and the ledger info source
//     of the notifier.
//
//   - NewContractConnector: creates a gateway.Connector whose contracts submit
//     and evaluate transactions on a shard of a ledger node. Contract failures
//     come back as *contract.Error with their original code.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:8080"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	connector := client.NewContractConnector(100, config, tcp.NewTCPClientTransport, serializer.NewBinarySerializer())
//	session := gateway.NewSession(w, "appUser", connector)
//	contract, err := session.Initialize(ctx)
//
// Performance Considerations:
//
//   - Increasing ConnectionsPerEndpoint allows more requests in flight when
//     many goroutines share one client.
//
//   - The binary serializer provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	All clients are safe for concurrent use.
package client
