package fabric

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/gridledger/electric/lib/contract"
	"github.com/gridledger/electric/lib/wallet"
)

// testIdentity creates a self signed X.509 identity.
func testIdentity(t *testing.T) *wallet.Identity {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "appUser"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})
	return wallet.NewX509Identity("Org1MSP", string(certPEM), string(keyPEM))
}

func TestNewSigner(t *testing.T) {
	id := testIdentity(t)
	signerID, sign, err := newSigner(id)
	if err != nil {
		t.Fatalf("newSigner failed: %v", err)
	}
	if signerID.MspID() != "Org1MSP" {
		t.Errorf("expected Org1MSP, got %s", signerID.MspID())
	}
	digest := make([]byte, 32)
	if _, err := sign(digest); err != nil {
		t.Errorf("sign failed: %v", err)
	}

	bad := *id
	bad.Credentials.PrivateKey = "garbage"
	if _, _, err := newSigner(&bad); err == nil {
		t.Errorf("expected an error for an invalid key")
	}
	bad = *id
	bad.Type = "HSM-X.509"
	if _, _, err := newSigner(&bad); err == nil {
		t.Errorf("expected an error for an unsupported type")
	}
}

func TestConnectValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := NewConnector(Options{}).Connect(ctx, "appUser", testIdentity(t)); err == nil {
		t.Errorf("expected an error without peer endpoint")
	}
	if _, err := NewConnector(DefaultOptions()).Connect(ctx, "appUser", nil); !errors.Is(err, wallet.ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}
	opts := DefaultOptions()
	opts.TLSCACertPath = "/does/not/exist.pem"
	if _, err := NewConnector(opts).Connect(ctx, "appUser", testIdentity(t)); err == nil {
		t.Errorf("expected an error for a missing TLS CA")
	}
}

func TestUnreachablePeer(t *testing.T) {
	opts := DefaultOptions()
	opts.PeerEndpoint = "127.0.0.1:1"
	c, err := NewConnector(opts).Connect(context.Background(), "appUser", testIdentity(t))
	if err != nil {
		t.Fatalf("Connect should not dial eagerly: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := c.Evaluate(ctx, contract.FnQueryUser, "USER0001"); err == nil {
		t.Errorf("expected evaluate against an unreachable peer to fail")
	}
}

func TestTranslate(t *testing.T) {
	err := translate(errors.New("evaluate call to endorser returned error: chaincode response 500, NotFound: USER9999 does not exist"))
	if !contract.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
	plain := errors.New("connection refused")
	if translate(plain) != plain {
		t.Errorf("untagged errors must pass through")
	}
}
