package identity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"verichain/internal/errs"
)

// writeTestCA generates a self-signed CA and writes its cert and key PEMs
// into dir, returning their paths.
func writeTestCA(t *testing.T, dir string) (certPath, keyPath string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().AddDate(1, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	certPath = filepath.Join(dir, "ca.pem")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	require.NoError(t, os.WriteFile(certPath, certPEM, 0o600))

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	keyPath = filepath.Join(dir, "ca-key.pem")
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	require.NoError(t, os.WriteFile(keyPath, keyPEM, 0o600))

	return certPath, keyPath
}

func newTestEnroller(t *testing.T) (*Enroller, *Wallet) {
	t.Helper()

	dir := t.TempDir()
	certPath, keyPath := writeTestCA(t, dir)

	wallet, err := NewWallet(filepath.Join(dir, "wallet"))
	require.NoError(t, err)

	logger := log.New(os.Stdout, "[ENROLL-TEST] ", log.LstdFlags)
	enroller, err := NewEnroller(wallet, "Org1MSP", certPath, keyPath, logger)
	require.NoError(t, err)
	return enroller, wallet
}

func TestEnrollAdmin(t *testing.T) {
	enroller, wallet := newTestEnroller(t)

	require.NoError(t, enroller.EnrollAdmin("admin"))
	require.True(t, wallet.Exists("admin"))

	cred, err := wallet.Get("admin")
	require.NoError(t, err)
	require.Equal(t, "Org1MSP", cred.MSPID)
	require.Equal(t, CredentialTypeX509, cred.Type)

	// The issued certificate chains to the CA and names the admin.
	block, _ := pem.Decode([]byte(cred.Credentials.Certificate))
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	require.Equal(t, "admin", cert.Subject.CommonName)

	keyBlock, _ := pem.Decode([]byte(cred.Credentials.PrivateKey))
	require.NotNil(t, keyBlock)
	_, err = x509.ParseECPrivateKey(keyBlock.Bytes)
	require.NoError(t, err)
}

func TestEnrollAdminIdempotent(t *testing.T) {
	enroller, wallet := newTestEnroller(t)

	require.NoError(t, enroller.EnrollAdmin("admin"))
	first, err := wallet.Get("admin")
	require.NoError(t, err)

	// A second enrollment is a no-op, the stored credential is untouched.
	require.NoError(t, enroller.EnrollAdmin("admin"))
	second, err := wallet.Get("admin")
	require.NoError(t, err)
	require.Equal(t, first.Credentials, second.Credentials)
}

func TestRegisterUserRequiresAdmin(t *testing.T) {
	enroller, wallet := newTestEnroller(t)

	err := enroller.RegisterAndEnrollUser("admin", "appUser", "org1.department1")
	require.ErrorIs(t, err, errs.ErrPrecondition)
	require.False(t, wallet.Exists("appUser"))
}

func TestRegisterAndEnrollUser(t *testing.T) {
	enroller, wallet := newTestEnroller(t)

	require.NoError(t, enroller.EnrollAdmin("admin"))
	require.NoError(t, enroller.RegisterAndEnrollUser("admin", "appUser", "org1.department1"))
	require.True(t, wallet.Exists("appUser"))

	cred, err := wallet.Get("appUser")
	require.NoError(t, err)
	block, _ := pem.Decode([]byte(cred.Credentials.Certificate))
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	require.Equal(t, "appUser", cert.Subject.CommonName)
	require.Contains(t, cert.Subject.OrganizationalUnit, "org1.department1")
}
