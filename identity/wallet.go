// Package identity manages the local credential wallet and the one-time
// enrollment of identities against the network's certificate authority.
// Enrollment is operator tooling, run out of band of the request path.
package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"verichain/internal/errs"
)

// CredentialPair holds the PEM-encoded certificate and private key.
type CredentialPair struct {
	Certificate string `json:"certificate"`
	PrivateKey  string `json:"privateKey"`
}

// Credential is one wallet entry: an X.509 identity usable to open gateway
// sessions. The on-disk layout is one JSON object per alias.
type Credential struct {
	Credentials CredentialPair `json:"credentials"`
	MSPID       string         `json:"mspId"`
	Type        string         `json:"type"`
}

// CredentialTypeX509 is the only credential type the wallet stores.
const CredentialTypeX509 = "X.509"

// Wallet is a file-based identity store keyed by alias. Every gateway
// connection reads from it, so writes are atomic (write to a temp file in the
// same directory, then rename) to keep readers from ever observing a
// half-written credential.
type Wallet struct {
	dir string
}

// NewWallet opens (creating if needed) a wallet rooted at dir.
func NewWallet(dir string) (*Wallet, error) {
	if dir == "" {
		return nil, errs.Validationf("wallet directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create wallet directory %s: %w", dir, err)
	}
	return &Wallet{dir: dir}, nil
}

func (w *Wallet) path(alias string) string {
	return filepath.Join(w.dir, alias+".id")
}

// Exists reports whether an identity is stored under alias.
func (w *Wallet) Exists(alias string) bool {
	_, err := os.Stat(w.path(alias))
	return err == nil
}

// Get loads the credential stored under alias.
func (w *Wallet) Get(alias string) (*Credential, error) {
	raw, err := os.ReadFile(w.path(alias))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFoundf("identity %q is not in the wallet", alias)
		}
		return nil, fmt.Errorf("failed to read identity %q: %w", alias, err)
	}
	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("corrupt identity %q: %w", alias, err)
	}
	return &cred, nil
}

// Put stores the credential under alias, replacing any prior entry.
func (w *Wallet) Put(alias string, cred *Credential) error {
	if alias == "" {
		return errs.Validationf("identity alias is required")
	}
	if cred.Type == "" {
		cred.Type = CredentialTypeX509
	}
	raw, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal identity %q: %w", alias, err)
	}

	tmp, err := os.CreateTemp(w.dir, "."+alias+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for identity %q: %w", alias, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write identity %q: %w", alias, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush identity %q: %w", alias, err)
	}
	if err := os.Rename(tmpName, w.path(alias)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit identity %q: %w", alias, err)
	}
	return nil
}

// List returns the aliases currently stored, in directory order.
func (w *Wallet) List() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet: %w", err)
	}
	var aliases []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".id") {
			continue
		}
		aliases = append(aliases, strings.TrimSuffix(name, ".id"))
	}
	return aliases, nil
}
