package identity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"log"
	"math/big"
	"os"
	"time"

	"verichain/internal/errs"
)

// Enroller issues X.509 credentials signed by the network's certificate
// authority material and persists them into the wallet. EnrollAdmin must run
// before RegisterAndEnrollUser; both are idempotent bootstrap steps.
type Enroller struct {
	wallet *Wallet
	mspID  string
	logger *log.Logger

	caCert *x509.Certificate
	caKey  *ecdsa.PrivateKey
}

// NewEnroller loads the CA signing material from the given PEM files.
func NewEnroller(wallet *Wallet, mspID, caCertPath, caKeyPath string, logger *log.Logger) (*Enroller, error) {
	caCert, err := readCertificate(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load CA certificate: %w", err)
	}
	caKey, err := readECKey(caKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load CA key: %w", err)
	}
	return &Enroller{
		wallet: wallet,
		mspID:  mspID,
		logger: logger,
		caCert: caCert,
		caKey:  caKey,
	}, nil
}

// EnrollAdmin enrolls the admin identity under alias. A no-op when the alias
// is already present in the wallet.
func (e *Enroller) EnrollAdmin(alias string) error {
	if e.wallet.Exists(alias) {
		e.logger.Printf("An identity for %q already exists in the wallet", alias)
		return nil
	}
	cred, err := e.issue(alias, "admin", nil)
	if err != nil {
		return fmt.Errorf("failed to enroll admin %q: %w", alias, err)
	}
	if err := e.wallet.Put(alias, cred); err != nil {
		return err
	}
	e.logger.Printf("Successfully enrolled admin %q and imported it into the wallet", alias)
	return nil
}

// RegisterAndEnrollUser registers a named application user under the admin's
// authority and enrolls it, persisting the credential under alias. Fails with
// a precondition error when the admin identity is absent.
func (e *Enroller) RegisterAndEnrollUser(adminAlias, alias, affiliation string) error {
	if e.wallet.Exists(alias) {
		e.logger.Printf("An identity for %q already exists in the wallet", alias)
		return nil
	}
	if !e.wallet.Exists(adminAlias) {
		return fmt.Errorf("%w: enroll the admin identity %q before registering users",
			errs.ErrPrecondition, adminAlias)
	}

	var ous []string
	if affiliation != "" {
		ous = []string{affiliation}
	}
	cred, err := e.issue(alias, "client", ous)
	if err != nil {
		return fmt.Errorf("failed to enroll user %q: %w", alias, err)
	}
	if err := e.wallet.Put(alias, cred); err != nil {
		return err
	}
	e.logger.Printf("Successfully registered and enrolled %q and imported it into the wallet", alias)
	return nil
}

// issue generates a fresh EC key pair and a CA-signed certificate for the
// subject, returning them PEM-encoded as a wallet credential.
func (e *Enroller) issue(commonName, role string, extraOUs []string) (*Credential, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("key generation failed: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("serial generation failed: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:         commonName,
			OrganizationalUnit: append([]string{role}, extraOUs...),
		},
		NotBefore:   time.Now().Add(-5 * time.Minute),
		NotAfter:    time.Now().AddDate(1, 0, 0),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, e.caCert, &key.PublicKey, e.caKey)
	if err != nil {
		return nil, fmt.Errorf("certificate signing failed: %w", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("key encoding failed: %w", err)
	}

	return &Credential{
		Credentials: CredentialPair{
			Certificate: string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})),
			PrivateKey:  string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})),
		},
		MSPID: e.mspID,
		Type:  CredentialTypeX509,
	}, nil
}

func readCertificate(path string) (*x509.Certificate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}
	return x509.ParseCertificate(block.Bytes)
}

func readECKey(path string) (*ecdsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("CA key in %s is not an EC key", path)
	}
	return key, nil
}
