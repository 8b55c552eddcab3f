package level

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"github.com/gridledger/electric/lib/db"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
	"io"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	magicNum     = "LEVELDB\x00" // Snapshot format identifier
	levelVersion = 1             // Snapshot format version

	dataPrefix byte = 'd' // all documents live below this prefix
	metaPrefix byte = 'm' // engine metadata, never visible through the KVDB interface
)

var writeIdxKey = []byte{metaPrefix, 'w'}

// --------------------------------------------------------------------------
// Core structure
// --------------------------------------------------------------------------

// levelImpl implements db.KVDB on top of a goleveldb database
type levelImpl struct {
	ldb       *leveldb.DB
	path      string
	currIndex atomic.Uint64
}

// Options configures the engine during initialization
type Options struct {
	Path               string // directory of the database (empty = in memory)
	BlockCacheCapacity int    // leveldb block cache in bytes (0 = leveldb default)
	WriteBuffer        int    // leveldb write buffer in bytes (0 = leveldb default)
	Sync               bool   // fsync every write
}

// DefaultOptions returns options for an in-memory database
func DefaultOptions() *Options {
	return &Options{}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewLevelDB opens (or creates) a database with the given options.
// With an empty Path the database is held in memory.
func NewLevelDB(opts *Options) (db.KVDB, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	o := &opt.Options{
		ErrorIfExist:       false,
		BlockCacheCapacity: opts.BlockCacheCapacity,
		WriteBuffer:        opts.WriteBuffer,
		NoSync:             !opts.Sync,
	}

	var (
		ldb *leveldb.DB
		err error
	)
	if opts.Path == "" {
		ldb, err = leveldb.Open(storage.NewMemStorage(), o)
	} else {
		ldb, err = leveldb.OpenFile(opts.Path, o)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb: %w", err)
	}

	impl := &levelImpl{ldb: ldb, path: opts.Path}

	// restore the write index of an existing database
	raw, err := ldb.Get(writeIdxKey, nil)
	if err == nil && len(raw) == 8 {
		impl.currIndex.Store(binary.BigEndian.Uint64(raw))
	} else if err != nil && err != leveldb.ErrNotFound {
		_ = ldb.Close()
		return nil, fmt.Errorf("failed to read write index: %w", err)
	}

	return impl, nil
}

// NewInMemory creates an empty in-memory database.
// It panics if leveldb cannot be opened on memory storage.
func NewInMemory() db.KVDB {
	kvdb, err := NewLevelDB(nil)
	if err != nil {
		panic(err)
	}
	return kvdb
}

// --------------------------------------------------------------------------
// Key Helper Functions
// --------------------------------------------------------------------------

func dataKey(key string) []byte {
	b := make([]byte, 1+len(key))
	b[0] = dataPrefix
	copy(b[1:], key)
	return b
}

// dataRange returns the leveldb range for [start, end) inside the data prefix
func dataRange(start, end string) *util.Range {
	r := &util.Range{Start: dataKey(start)}
	if end == "" {
		r.Limit = []byte{dataPrefix + 1}
	} else {
		r.Limit = dataKey(end)
	}
	return r
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry with the given key and value.
// The document and the new write index are written in one batch.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (l *levelImpl) Set(key string, value []byte, writeIdx uint64) {
	l.SetWriteIdx(writeIdx)

	batch := new(leveldb.Batch)
	batch.Put(dataKey(key), value)
	batch.Put(writeIdxKey, encodeIdx(l.currIndex.Load()))

	// a lost write would make this replica diverge from the others
	if err := l.ldb.Write(batch, nil); err != nil {
		panic(fmt.Errorf("leveldb write failed for key %q: %w", key, err))
	}
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves the value for an exact key.
func (l *levelImpl) Get(key string) ([]byte, bool) {
	value, err := l.ldb.Get(dataKey(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		panic(fmt.Errorf("leveldb read failed for key %q: %w", key, err))
	}
	return value, true
}

// Has checks whether a key exists in the database.
func (l *levelImpl) Has(key string) bool {
	ok, err := l.ldb.Has(dataKey(key), nil)
	if err != nil {
		panic(fmt.Errorf("leveldb read failed for key %q: %w", key, err))
	}
	return ok
}

// Range returns an iterator over all entries with start <= key < end.
func (l *levelImpl) Range(start, end string) db.Iterator {
	return &iterator{it: l.ldb.NewIterator(dataRange(start, end), nil)}
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save writes a consistent snapshot of all entries to w.
//
// Format: magic, version, write index, then a sequence of
// (1, keyLen, key, valueLen, value) records terminated by a single 0 byte.
func (l *levelImpl) Save(w io.Writer) error {
	snap, err := l.ldb.GetSnapshot()
	if err != nil {
		return err
	}
	defer snap.Release()

	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer

	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(levelVersion)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, l.currIndex.Load()); err != nil {
		return err
	}

	it := snap.NewIterator(dataRange("", ""), nil)
	defer it.Release()
	for it.Next() {
		key := it.Key()[1:]
		value := it.Value()

		if err := bw.WriteByte(1); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(key))); err != nil {
			return err
		}
		if _, err := bw.Write(key); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(value))); err != nil {
			return err
		}
		if _, err := bw.Write(value); err != nil {
			return err
		}
	}
	if err := it.Error(); err != nil {
		return err
	}

	if err := bw.WriteByte(0); err != nil {
		return err
	}
	return bw.Flush()
}

// Load replaces the content of the database with a snapshot produced by Save.
func (l *levelImpl) Load(r io.Reader) error {
	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer

	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}
	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}
	if int(version) != levelVersion {
		return fmt.Errorf("unsupported version: %d (expected %d)", version, levelVersion)
	}

	var writeIdx uint64
	if err := binary.Read(br, binary.LittleEndian, &writeIdx); err != nil {
		return err
	}

	batch := new(leveldb.Batch)

	// drop all existing documents
	it := l.ldb.NewIterator(dataRange("", ""), nil)
	for it.Next() {
		batch.Delete(append([]byte(nil), it.Key()...))
	}
	it.Release()
	if err := it.Error(); err != nil {
		return err
	}

	for {
		marker, err := br.ReadByte()
		if err != nil {
			return err
		}
		if marker == 0 {
			break
		}

		var keyLen uint32
		if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
			return err
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(br, key); err != nil {
			return err
		}

		var valueLen uint32
		if err := binary.Read(br, binary.LittleEndian, &valueLen); err != nil {
			return err
		}
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(br, value); err != nil {
			return err
		}

		batch.Put(dataKey(string(key)), value)
	}

	batch.Put(writeIdxKey, encodeIdx(writeIdx))
	if err := l.ldb.Write(batch, nil); err != nil {
		return err
	}

	// Load resets the logical clock to the snapshot
	l.currIndex.Store(writeIdx)
	return nil
}

// --------------------------------------------------------------------------
// Info and Features
// --------------------------------------------------------------------------

// GetInfo returns information about the database.
// The key count is exact, SizeBytes is the larger of leveldb's on-disk
// estimate and the summed length of all keys and values.
func (l *levelImpl) GetInfo() db.DatabaseInfo {
	keys := 0
	payload := 0
	it := l.ldb.NewIterator(dataRange("", ""), nil)
	for it.Next() {
		keys++
		payload += len(it.Key()) - 1 + len(it.Value())
	}
	it.Release()

	sizeBytes := payload
	if sizes, err := l.ldb.SizeOf([]util.Range{*dataRange("", "")}); err == nil {
		if onDisk := int(sizes.Sum()); onDisk > sizeBytes {
			sizeBytes = onDisk
		}
	}

	openedTables, _ := l.ldb.GetProperty("leveldb.openedtables")
	cachedBlock, _ := l.ldb.GetProperty("leveldb.cachedblock")

	meta := &struct {
		CurrentWriteIndex uint64 `json:"current_write_index"`
		InMemory          bool   `json:"in_memory"`
		Path              string `json:"path,omitempty"`
		OpenedTables      string `json:"opened_tables"`
		CachedBlock       string `json:"cached_block"`
	}{
		CurrentWriteIndex: l.currIndex.Load(),
		InMemory:          l.path == "",
		Path:              l.path,
		OpenedTables:      openedTables,
		CachedBlock:       cachedBlock,
	}

	return db.DatabaseInfo{
		SizeBytes: sizeBytes,
		Keys:      keys,
		DbType:    db.ImplLevel,
		SupportedFeatures: []db.Feature{
			db.FeatureSet, db.FeatureGet, db.FeatureHas,
			db.FeatureRange, db.FeatureSave, db.FeatureLoad,
		},
		Metadata: meta,
	}
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (l *levelImpl) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeatureSet |
		db.FeatureGet |
		db.FeatureHas |
		db.FeatureRange |
		db.FeatureSave |
		db.FeatureLoad
	return supportedFeatures&feature == feature
}

// Close closes the underlying leveldb database
func (l *levelImpl) Close() error {
	return l.ldb.Close()
}

// --------------------------------------------------------------------------
// Index Management
// --------------------------------------------------------------------------

// SetWriteIdx updates the current index if the new index is greater.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (l *levelImpl) SetWriteIdx(newIdx uint64) {
	for {
		currIdx := l.currIndex.Load()
		if newIdx <= currIdx {
			return
		}
		if l.currIndex.CompareAndSwap(currIdx, newIdx) {
			return
		}
	}
}

// WriteIdx returns the current index of the database
func (l *levelImpl) WriteIdx() uint64 {
	return l.currIndex.Load()
}

func encodeIdx(idx uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, idx)
	return b
}
