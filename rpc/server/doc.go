// Package server implements the RPC server of a ledger node.
// It hosts any number of shards, each holding one world state, and routes
// incoming requests to the adapter of the addressed shard.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a store.IStore.
//
//   - NewIStoreServerAdapter: Adapter answering key value requests (set, get, has,
//     range, info) directly against the world state.
//
//   - NewLedgerServerAdapter: Adapter running contract transactions. Submitted
//     transactions run against the store, evaluated transactions run against a
//     read only view of it. Contract error codes travel back in Message.Code.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Type: common.ShardTypeLocal},
//	  },
//	  StateDir:      "/var/lib/electric",
//	  TimeoutSecond: 5,
//	  Transport:     common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//	  LogLevel:      "info",
//	}
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(), serializer.NewBinarySerializer())
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Shard types:
//
//   - ShardTypeLocal: the world state lives in a leveldb database of this node,
//     on disk below StateDir or in memory if StateDir is empty.
//
//   - ShardTypeRaft: the world state is replicated with Raft. RTTMillisecond,
//     SnapshotEntries, CompactionOverhead, DataDir, ReplicaID and ClusterMembers
//     must be configured.
//
// If MetricsEndpoint is set the server also exposes its metrics in the
// Prometheus text format under /metrics.
package server
