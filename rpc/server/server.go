package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gridledger/electric/lib/db"
	"github.com/gridledger/electric/lib/db/engines/level"
	"github.com/gridledger/electric/lib/store"
	"github.com/gridledger/electric/lib/store/dstore"
	"github.com/gridledger/electric/lib/store/lstore"
	"github.com/gridledger/electric/rpc/common"
	"github.com/gridledger/electric/rpc/serializer"
	"github.com/gridledger/electric/rpc/transport"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the store holding the world state of the shard and the adapter
// that handles requests for the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

// RPCServer serves the ledger shards of one node.
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
	nodeHost   *dragonboat.NodeHost
}

// handle decodes a request, lets the adapter of the addressed shard answer it
// and encodes the response.
func (s *RPCServer) handle(shardId uint64, req []byte) []byte {
	var msg common.Message
	var respMsg *common.Message

	shard, ok := s.shards.Load(shardId)
	if !ok {
		respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
	} else if err := s.serializer.Deserialize(req, &msg); err != nil {
		respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		respMsg = shard.Adapter.Handle(&msg, shard.Store)
	}

	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize response: %v", err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

// localDBFactory returns the world state factory of a local shard.
// Without a StateDir the world state lives in memory.
func (s *RPCServer) localDBFactory(shardId uint64) (store.DBFactory, error) {
	if s.config.StateDir == "" {
		return func() db.KVDB { return level.NewInMemory() }, nil
	}

	path := filepath.Join(s.config.StateDir, fmt.Sprintf("shard-%d", shardId))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state dir of shard %d: %w", shardId, err)
	}
	kvdb, err := level.NewLevelDB(&level.Options{Path: path, Sync: s.config.StateSync})
	if err != nil {
		return nil, fmt.Errorf("failed to open world state of shard %d: %w", shardId, err)
	}
	return func() db.KVDB { return kvdb }, nil
}

func (s *RPCServer) init() error {

	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}

	// Create the Dragonboat NodeHost
	if s.config.HasRaftShard() {
		// Only create the NodeHost if we have raft shards
		if _, ok := s.config.ClusterMembers[s.config.ReplicaID]; !ok {
			return fmt.Errorf("replica %d is not a cluster member", s.config.ReplicaID)
		}
		nodeHost, err := dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
		s.nodeHost = nodeHost
	}

	// Configure the timeout for the distributed store
	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	/*
		Note: A single RPC Server can serve any number of local and raft shards.
		Every shard holds one world state and answers both contract transactions
		and key value requests against it.
	*/

	for _, shardConfig := range s.config.Shards {
		var shardStore store.IStore

		switch shardConfig.Type {
		case common.ShardTypeLocal:
			factory, err := s.localDBFactory(shardConfig.ShardID)
			if err != nil {
				return err
			}
			shardStore = lstore.NewLocalStore(factory)
			Logger.Infof("created local ledger for shard %d", shardConfig.ShardID)

		case common.ShardTypeRaft:
			// The raft log is the durable copy, the state machine replays it into memory.
			factory := func() db.KVDB { return level.NewInMemory() }
			if err := s.nodeHost.StartConcurrentReplica(s.config.ClusterMembers, false, dstore.CreateStateMaschineFactory(factory), s.config.ToDragonboatConfig(shardConfig.ShardID)); err != nil {
				return fmt.Errorf("failed to start shard %d: %w", shardConfig.ShardID, err)
			}
			shardStore = dstore.NewDistributedStore(s.nodeHost, shardConfig.ShardID, timeout)
			Logger.Infof("started raft ledger for shard %d", shardConfig.ShardID)

		default:
			return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
		}

		s.shards.Store(shardConfig.ShardID, serverShard{
			Store:   shardStore,
			Adapter: NewLedgerServerAdapter(),
		})
	}

	Logger.Infof("ledger setup completed successfully")

	s.transport.RegisterHandler(s.handle)

	return nil
}

// serveMetrics exposes the process metrics in the Prometheus text format.
func (s *RPCServer) serveMetrics() {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	Logger.Infof("serving metrics on %s/metrics", s.config.MetricsEndpoint)
	if err := http.ListenAndServe(s.config.MetricsEndpoint, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		Logger.Errorf("metrics endpoint stopped: %v", err)
	}
}

// Serve starts the RPC server
// This function will also initialize the server plus the shards and start the transport layer
func (s *RPCServer) Serve() error {
	Logger.Infof("starting RPC server\n%s", s.config.String())

	if err := s.init(); err != nil {
		return err
	}
	if s.config.MetricsEndpoint != "" {
		go s.serveMetrics()
	}
	defer func() {
		if s.nodeHost != nil {
			s.nodeHost.Close()
		}
	}()
	return s.transport.Listen(s.config)
}
