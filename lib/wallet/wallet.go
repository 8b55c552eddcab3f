package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("wallet")

const (
	// fileExt is the extension of identity files inside the wallet directory
	fileExt = ".id"

	// X509Type is the identity type of certificate based identities
	X509Type = "X.509"
)

var (
	ErrIdentityNotFound = errors.New("identity not found in wallet")
	ErrInvalidLabel     = errors.New("invalid identity label")
)

// Credentials hold the PEM encoded certificate and private key of an identity.
type Credentials struct {
	Certificate string `json:"certificate"`
	PrivateKey  string `json:"privateKey"`
}

// Identity is one credential bundle of the wallet.
type Identity struct {
	Credentials Credentials `json:"credentials"`
	MspID       string      `json:"mspId"`
	Type        string      `json:"type"`
	Version     int         `json:"version"`
}

// NewX509Identity creates a certificate based identity of the organization mspID.
func NewX509Identity(mspID, certPEM, keyPEM string) *Identity {
	return &Identity{
		Credentials: Credentials{Certificate: certPEM, PrivateKey: keyPEM},
		MspID:       mspID,
		Type:        X509Type,
		Version:     1,
	}
}

// Wallet stores identities as <label>.id JSON files in one directory,
// the same layout the Fabric SDKs use for file system wallets.
type Wallet struct {
	dir string
}

// New opens the wallet in dir, creating the directory if needed.
func New(dir string) (*Wallet, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create wallet directory: %w", err)
	}
	return &Wallet{dir: dir}, nil
}

// Dir returns the directory of the wallet.
func (w *Wallet) Dir() string {
	return w.dir
}

func (w *Wallet) path(label string) (string, error) {
	if label == "" || strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return filepath.Join(w.dir, label+fileExt), nil
}

// Get returns the identity stored under label or ErrIdentityNotFound.
func (w *Wallet) Get(label string) (*Identity, error) {
	p, err := w.path(label)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrIdentityNotFound, label)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity %q: %w", label, err)
	}

	id := &Identity{}
	if err := json.Unmarshal(raw, id); err != nil {
		return nil, fmt.Errorf("identity %q is corrupt: %w", label, err)
	}
	return id, nil
}

// Has reports whether an identity is stored under label.
func (w *Wallet) Has(label string) (bool, error) {
	p, err := w.path(label)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Put stores id under label, replacing an existing identity.
// The file is written to a temporary name first and then renamed.
func (w *Wallet) Put(label string, id *Identity) error {
	p, err := w.path(label)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode identity %q: %w", label, err)
	}

	tmp, err := os.CreateTemp(w.dir, label+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to store identity %q: %w", label, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to store identity %q: %w", label, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to store identity %q: %w", label, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to store identity %q: %w", label, err)
	}

	log.Infof("stored identity %q (%s)", label, id.MspID)
	return nil
}

// Remove deletes the identity stored under label. Removing a missing identity is not an error.
func (w *Wallet) Remove(label string) error {
	p, err := w.path(label)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove identity %q: %w", label, err)
	}
	return nil
}

// List returns the sorted labels of all stored identities.
func (w *Wallet) List() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet: %w", err)
	}
	labels := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		labels = append(labels, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(labels)
	return labels, nil
}
