package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/gridledger/electric/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("RangeOrder", func(t *testing.T) {
			testRangeOrder(t, factory())
		})

		t.Run("RangeBounds", func(t *testing.T) {
			testRangeBounds(t, factory())
		})

		t.Run("RangeCompositeKeys", func(t *testing.T) {
			testRangeCompositeKeys(t, factory())
		})

		t.Run("RangeSnapshot", func(t *testing.T) {
			testRangeSnapshot(t, factory())
		})

		t.Run("WriteIdx", func(t *testing.T) {
			testWriteIdx(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("LoadReplaces", func(t *testing.T) {
			testLoadReplaces(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ConcurrentUsage", func(t *testing.T) {
			testConcurrentUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// collect drains an iterator into parallel key and value slices
func collect(t testing.TB, it db.Iterator) ([]string, [][]byte) {
	defer it.Release()
	var keys []string
	var values [][]byte
	for it.Next() {
		keys = append(keys, it.Key())
		values = append(values, it.Value())
	}
	if err := it.Error(); err != nil {
		t.Errorf("Unexpected iterator error: %v", err)
	}
	return keys, values
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	database.Set(testKey, testValue1, 1)

	result, exists := database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	// overwrite is unconditional
	database.Set(testKey, testValue2, 2)

	result, exists = database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, exists = database.Get("nonexistent-key")
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	retrievedValue, _ := database.Get(testKey)
	retrievedValue[0] = 'X'

	originalValue, _ := database.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureHas)

	testKey := "has-exists-test-key"

	if database.Has(testKey) {
		t.Errorf("Expected Has to return false for nonexistent key")
	}

	database.Set(testKey, []byte("has-exists-test-value"), 1)

	if !database.Has(testKey) {
		t.Errorf("Expected Has to return true after Set")
	}

	if database.Has(testKey + "-other") {
		t.Errorf("Expected Has to return false for a key that only shares a prefix")
	}
}

func testRangeOrder(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureRange)

	// insert in reverse order, iteration must still be ascending
	for i := 99; i >= 0; i-- {
		database.Set(fmt.Sprintf("k%03d", i), []byte(fmt.Sprintf("v%03d", i)), uint64(100-i))
	}

	keys, values := collect(t, database.Range("", ""))
	if len(keys) != 100 {
		t.Fatalf("Expected 100 entries, got %d", len(keys))
	}
	for i := range keys {
		if keys[i] != fmt.Sprintf("k%03d", i) {
			t.Errorf("Entry %d: expected key k%03d, got %s", i, i, keys[i])
		}
		if string(values[i]) != fmt.Sprintf("v%03d", i) {
			t.Errorf("Entry %d: expected value v%03d, got %s", i, i, values[i])
		}
	}
}

func testRangeBounds(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureRange)

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		database.Set(k, []byte(k), 1)
	}

	tests := []struct {
		name       string
		start, end string
		expected   []string
	}{
		{"half-open", "b", "d", []string{"b", "c"}},
		{"unbounded-end", "c", "", []string{"c", "d", "e"}},
		{"from-beginning", "", "c", []string{"a", "b"}},
		{"start-equals-end", "c", "c", nil},
		{"start-after-end", "d", "b", nil},
		{"between-keys", "bb", "cc", []string{"c"}},
		{"past-last", "f", "z", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			keys, _ := collect(t, database.Range(tc.start, tc.end))
			if !equalKeys(keys, tc.expected) {
				t.Errorf("Range(%q, %q): expected %v, got %v", tc.start, tc.end, tc.expected, keys)
			}
		})
	}
}

func testRangeCompositeKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureRange)

	const sep = "\x00"
	const maxRune = "\U0010FFFF"

	keys := []string{
		"USAGE" + sep + "u1" + sep + "00000000000000000002",
		"USAGE" + sep + "u1" + sep + "00000000000000000010",
		"USAGE" + sep + "u10" + sep + "00000000000000000001",
		"USAGE" + sep + "u2" + sep + "00000000000000000001",
		"USER" + sep + "u1",
		"USER" + sep + "u2",
	}
	for i, k := range keys {
		database.Set(k, []byte{byte(i)}, uint64(i+1))
	}

	// the namespace of user u1 must not include user u10
	prefix := "USAGE" + sep + "u1" + sep
	got, _ := collect(t, database.Range(prefix, prefix+maxRune))
	if !equalKeys(got, keys[:2]) {
		t.Errorf("Expected %q, got %q", keys[:2], got)
	}

	// type namespaces are disjoint
	prefix = "USER" + sep
	got, _ = collect(t, database.Range(prefix, prefix+maxRune))
	if !equalKeys(got, keys[4:]) {
		t.Errorf("Expected %q, got %q", keys[4:], got)
	}

	prefix = "USAGE" + sep
	got, _ = collect(t, database.Range(prefix, prefix+maxRune))
	if !equalKeys(got, keys[:4]) {
		t.Errorf("Expected %q, got %q", keys[:4], got)
	}
}

func testRangeSnapshot(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureRange)

	database.Set("a", []byte("1"), 1)
	database.Set("b", []byte("2"), 2)

	it := database.Range("", "")
	database.Set("c", []byte("3"), 3)

	keys, _ := collect(t, it)
	if !equalKeys(keys, []string{"a", "b"}) {
		t.Errorf("Iterator should not observe writes after its creation, got %v", keys)
	}
}

func testWriteIdx(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)

	database.Set("a", []byte("1"), 5)
	if idx := database.WriteIdx(); idx != 5 {
		t.Errorf("Expected write index 5, got %d", idx)
	}

	// stale index is ignored
	database.Set("b", []byte("2"), 3)
	if idx := database.WriteIdx(); idx != 5 {
		t.Errorf("Expected write index to stay at 5, got %d", idx)
	}

	database.SetWriteIdx(10)
	if idx := database.WriteIdx(); idx != 10 {
		t.Errorf("Expected write index 10, got %d", idx)
	}

	database.SetWriteIdx(7)
	if idx := database.WriteIdx(); idx != 10 {
		t.Errorf("Expected write index to stay at 10, got %d", idx)
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	database := factory()
	database2 := factory()

	// close the databases after the test
	defer database.Close()
	defer database2.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureSave|db.FeatureLoad)

	numEntries := 1000
	originalKeys := make([]string, numEntries)
	originalValues := make([][]byte, numEntries)

	for i := 0; i < numEntries; i++ {
		key := fmt.Sprintf("save-load-test-key-%d", i)
		value := []byte(fmt.Sprintf("save-load-test-value-%d", i))
		originalKeys[i] = key
		originalValues[i] = value

		database.Set(key, value, uint64(i+1))
	}

	var buf bytes.Buffer
	if err := database.Save(&buf); err != nil {
		t.Fatalf("Unexpected error during Save: %v", err)
	}

	if err := database2.Load(&buf); err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}

	if database2.WriteIdx() != uint64(numEntries) {
		t.Errorf("Expected write index %d after Load, got %d", numEntries, database2.WriteIdx())
	}

	for i := 0; i < numEntries; i++ {
		actualValue, exists := database2.Get(originalKeys[i])
		if !exists {
			t.Errorf("Key %s not found after Load", originalKeys[i])
			continue
		}
		if !bytes.Equal(actualValue, originalValues[i]) {
			t.Errorf("Value mismatch for key %s: expected %s, got %s", originalKeys[i], originalValues[i], actualValue)
		}
	}

	// the source database is untouched by Save
	for i := 0; i < numEntries; i++ {
		actualValue, exists := database.Get(originalKeys[i])
		if !exists || !bytes.Equal(actualValue, originalValues[i]) {
			t.Errorf("Value mismatch in original database for key %s", originalKeys[i])
		}
	}
}

func testLoadReplaces(t *testing.T, factory DBFactory) {
	source := factory()
	target := factory()
	defer source.Close()
	defer target.Close()

	requireFeature(t, source, db.FeatureSet|db.FeatureSave|db.FeatureLoad|db.FeatureRange)

	source.Set("kept", []byte("new"), 1)
	target.Set("kept", []byte("old"), 1)
	target.Set("stale", []byte("gone"), 2)

	var buf bytes.Buffer
	if err := source.Save(&buf); err != nil {
		t.Fatalf("Unexpected error during Save: %v", err)
	}
	if err := target.Load(&buf); err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}

	keys, values := collect(t, target.Range("", ""))
	if !equalKeys(keys, []string{"kept"}) {
		t.Fatalf("Expected only [kept] after Load, got %v", keys)
	}
	if string(values[0]) != "new" {
		t.Errorf("Expected value new, got %s", values[0])
	}

	if err := target.Load(bytes.NewReader([]byte("garbage"))); err == nil {
		t.Errorf("Expected error when loading an invalid snapshot")
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	emptyKeyValue := []byte("value for empty key")
	database.Set("", emptyKeyValue, 1)

	result, exists := database.Get("")
	if !exists {
		t.Errorf("Empty key not found after Set")
	} else if !bytes.Equal(result, emptyKeyValue) {
		t.Errorf("Value mismatch for empty key")
	}

	database.Set("empty-value-key", []byte{}, 2)
	result, exists = database.Get("empty-value-key")
	if !exists {
		t.Errorf("Key for empty value not found after Set")
	} else if len(result) != 0 {
		t.Errorf("Empty value resulted in non-empty value: %v", result)
	}

	database.Set("nil-value-key", nil, 3)
	result, exists = database.Get("nil-value-key")
	if !exists {
		t.Errorf("Key for nil value not found after Set")
	} else if len(result) != 0 {
		t.Errorf("Nil value resulted in non-empty value: %v", result)
	}

	unicodeKey := "USER\x00Jürgen\U0001F600"
	database.Set(unicodeKey, []byte("unicode"), 4)
	if _, exists = database.Get(unicodeKey); !exists {
		t.Errorf("Unicode key not found after Set")
	}

	largeKey := string(make([]byte, 1000))
	database.Set(largeKey, []byte("value for large key"), 5)
	if _, exists = database.Get(largeKey); !exists {
		t.Errorf("Large key not found after Set")
	}

	largeValue := make([]byte, 4*1024*1024)
	for i := range largeValue {
		largeValue[i] = byte(i % 256)
	}
	database.Set("large-value-key", largeValue, 6)

	result, exists = database.Get("large-value-key")
	if !exists {
		t.Errorf("Key for large value not found after Set")
	} else if !bytes.Equal(result, largeValue) {
		t.Errorf("Large value mismatch: got %d bytes, expected %d", len(result), len(largeValue))
	}
}

func testConcurrentUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureRange)

	numWorkers := 8
	perWorker := 250

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("w%02d-%04d", workerId, i)
				database.Set(key, []byte(key), uint64(workerId*perWorker+i+1))
				database.Get(key)
				if i%50 == 0 {
					it := database.Range(fmt.Sprintf("w%02d-", workerId), fmt.Sprintf("w%02d.", workerId))
					for it.Next() {
					}
					it.Release()
				}
			}
		}(w)
	}
	wg.Wait()

	keys, values := collect(t, database.Range("", ""))
	if len(keys) != numWorkers*perWorker {
		t.Fatalf("Expected %d entries, got %d", numWorkers*perWorker, len(keys))
	}
	for i := range keys {
		if i > 0 && keys[i-1] >= keys[i] {
			t.Errorf("Keys out of order: %q >= %q", keys[i-1], keys[i])
		}
		if string(values[i]) != keys[i] {
			t.Errorf("Value mismatch for key %s: got %s", keys[i], values[i])
		}
	}

	info := database.GetInfo()
	if info.Keys != numWorkers*perWorker {
		t.Errorf("Expected GetInfo to report %d keys, got %d", numWorkers*perWorker, info.Keys)
	}
}
