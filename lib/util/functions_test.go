package util

import "testing"

func TestHashString(t *testing.T) {
	if HashString("node-1", 0) != HashString("node-1", 0) {
		t.Errorf("hash must be deterministic")
	}
	if HashString("node-1", 0) == HashString("node-2", 0) {
		t.Errorf("expected different hashes for different names")
	}
	if HashString("node-1", 0) == HashString("node-1", 1) {
		t.Errorf("expected the seed to change the hash")
	}
	// FNV-1a of the empty string is the offset basis
	if HashString("", 0) != 14695981039346656037 {
		t.Errorf("unexpected hash of the empty string: %d", HashString("", 0))
	}
}
