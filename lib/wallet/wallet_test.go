package wallet

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestPutGet(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "wallet"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	id := NewX509Identity("Org1MSP", "CERT", "KEY")
	if err := w.Put("appUser", id); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := w.Get("appUser")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !reflect.DeepEqual(got, id) {
		t.Errorf("Get() = %+v, want %+v", got, id)
	}

	if _, err := os.Stat(filepath.Join(w.Dir(), "appUser.id")); err != nil {
		t.Errorf("expected identity file: %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	w, _ := New(t.TempDir())
	_, err := w.Get("usageAppUser")
	if !errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}
	ok, err := w.Has("usageAppUser")
	if err != nil || ok {
		t.Errorf("Has() = %v, %v, want false, nil", ok, err)
	}
}

func TestListAndRemove(t *testing.T) {
	w, _ := New(t.TempDir())
	for _, label := range []string{"usageAppUser", "appUser", "admin"} {
		if err := w.Put(label, NewX509Identity("Org1MSP", "C", "K")); err != nil {
			t.Fatalf("Put(%s) failed: %v", label, err)
		}
	}
	// unrelated files are ignored
	os.WriteFile(filepath.Join(w.Dir(), "README"), []byte("x"), 0o600)

	labels, err := w.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"admin", "appUser", "usageAppUser"}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("List() = %v, want %v", labels, want)
	}

	if err := w.Remove("admin"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := w.Remove("admin"); err != nil {
		t.Errorf("removing twice should not fail: %v", err)
	}
	if ok, _ := w.Has("admin"); ok {
		t.Errorf("identity still present after Remove")
	}
}

func TestInvalidLabel(t *testing.T) {
	w, _ := New(t.TempDir())
	for _, label := range []string{"", "..", "a/b", `a\b`} {
		if _, err := w.Get(label); !errors.Is(err, ErrInvalidLabel) {
			t.Errorf("Get(%q): expected ErrInvalidLabel, got %v", label, err)
		}
	}
}

func TestCorruptIdentity(t *testing.T) {
	w, _ := New(t.TempDir())
	os.WriteFile(filepath.Join(w.Dir(), "bad.id"), []byte("{"), 0o600)
	if _, err := w.Get("bad"); err == nil || errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("expected a decode error, got %v", err)
	}
}
