package level

import (
	"fmt"
	"github.com/gridledger/electric/lib/db"
	dbtesting "github.com/gridledger/electric/lib/db/testing"
	"path/filepath"
	"testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "LevelDB", func() db.KVDB {
		return NewInMemory()
	})
}

func TestOnDisk(t *testing.T) {
	dir := t.TempDir()
	n := 0
	dbtesting.RunKVDBTests(t, "LevelDB(disk)", func() db.KVDB {
		n++
		kvdb, err := NewLevelDB(&Options{Path: filepath.Join(dir, fmt.Sprintf("db-%d", n))})
		if err != nil {
			panic(err)
		}
		return kvdb
	})
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger")

	kvdb, err := NewLevelDB(&Options{Path: path, Sync: true})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	kvdb.Set("USER\x00alice", []byte(`{"userId":"alice"}`), 42)
	if err := kvdb.Close(); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}

	kvdb, err = NewLevelDB(&Options{Path: path})
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	defer kvdb.Close()

	if idx := kvdb.WriteIdx(); idx != 42 {
		t.Errorf("expected write index 42 after reopen, got %d", idx)
	}
	if v, ok := kvdb.Get("USER\x00alice"); !ok || string(v) != `{"userId":"alice"}` {
		t.Errorf("expected document to survive reopen, got %q (found=%v)", v, ok)
	}

	// the write index is stored outside the document namespace
	it := kvdb.Range("", "")
	defer it.Release()
	count := 0
	for it.Next() {
		count++
	}
	if count != 1 {
		t.Errorf("expected exactly one document in range, got %d", count)
	}
}

func TestInfo(t *testing.T) {
	kvdb := NewInMemory()
	defer kvdb.Close()

	kvdb.Set("a", []byte("12345"), 1)
	kvdb.Set("b", []byte("678"), 2)

	info := kvdb.GetInfo()
	if info.DbType != db.ImplLevel {
		t.Errorf("expected db type %s, got %s", db.ImplLevel, info.DbType)
	}
	if info.Keys != 2 {
		t.Errorf("expected 2 keys, got %d", info.Keys)
	}
	if info.SizeBytes < 10 {
		t.Errorf("expected at least 10 bytes, got %d", info.SizeBytes)
	}
	if !kvdb.SupportsFeature(db.FeatureRange | db.FeatureSave) {
		t.Errorf("expected range and save support")
	}
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "LevelDB", func() db.KVDB {
		return NewInMemory()
	})
}

func TestReadFailuresAreNotMissingKeys(t *testing.T) {
	kvdb := NewInMemory()
	if v, ok := kvdb.Get("USER\x00nobody"); ok || v != nil {
		t.Fatalf("expected missing key, got %q", v)
	}
	if kvdb.Has("USER\x00nobody") {
		t.Fatalf("expected Has to report a missing key")
	}
	if err := kvdb.Close(); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}

	for name, read := range map[string]func(){
		"Get": func() { kvdb.Get("USER\x00nobody") },
		"Has": func() { kvdb.Has("USER\x00nobody") },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s on a closed database must panic instead of reporting a missing key", name)
				}
			}()
			read()
		}()
	}
}
