package client

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"verichain/config"
	"verichain/identity"
	"verichain/ledger/client/chainmaker"
	"verichain/ledger/client/local"
	"verichain/ledger/types"
)

// Backend names the supported ledger backends.
type Backend string

const (
	ChainMaker Backend = "chainmaker"
	Local      Backend = "local"
)

// LoadBackendConfig loads backend-specific configuration for the selected
// backend, resolved relative to the common config file's directory.
func LoadBackendConfig(backend string, configDir string) (any, error) {
	switch Backend(backend) {
	case ChainMaker, "":
		return chainmaker.LoadChainMakerConfig(filepath.Join(configDir, "clients", "chainmaker.yml"))
	case Local:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", backend)
	}
}

// NewConnector builds the Connector for the configured backend. Every
// Connect call opens a fresh session; submissions through it are retried on
// transient failures up to the configured limit.
func NewConnector(cfg *config.LedgerConfig, wallet *identity.Wallet, logger *log.Logger) (Connector, error) {
	interval := time.Duration(cfg.RetryInterval) * time.Millisecond

	switch Backend(cfg.Backend) {
	case ChainMaker, "":
		return ConnectorFunc(func(ctx context.Context) (LedgerClient, error) {
			c, err := chainmaker.NewClient(cfg, wallet, logger)
			if err != nil {
				return nil, err
			}
			return &retryingClient{inner: c, attempts: cfg.RetryLimit, interval: interval}, nil
		}), nil
	case Local:
		backend := local.NewBackend(logger)
		return ConnectorFunc(func(ctx context.Context) (LedgerClient, error) {
			sess, err := backend.Connect(ctx)
			if err != nil {
				return nil, err
			}
			return &retryingClient{inner: sess, attempts: cfg.RetryLimit, interval: interval}, nil
		}), nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", cfg.Backend)
	}
}

// NewConnectorFromFile builds a Connector from the gateway configuration file,
// loading the backend-specific profile next to it.
func NewConnectorFromFile(configPath string, logger *log.Logger) (Connector, error) {
	cfg, err := config.LoadLedgerConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger config from file '%s': %w", configPath, err)
	}

	chainSpecific, err := LoadBackendConfig(cfg.Backend, filepath.Dir(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load backend-specific config: %w", err)
	}
	cfg.ChainSpecific = chainSpecific

	var wallet *identity.Wallet
	if cfg.WalletDir != "" {
		wallet, err = identity.NewWallet(cfg.WalletDir)
		if err != nil {
			return nil, err
		}
	}
	return NewConnector(cfg, wallet, logger)
}

// retryingClient applies the bounded-retry contract to submissions: transient
// ordering or transport errors are retried with backoff, application-level
// rejections are returned immediately.
type retryingClient struct {
	inner    LedgerClient
	attempts int
	interval time.Duration
}

func (r *retryingClient) SubmitVerification(ctx context.Context, sub types.Submission) (*types.Proof, error) {
	var proof *types.Proof
	err := withRetry(ctx, r.attempts, r.interval, func() error {
		var opErr error
		proof, opErr = r.inner.SubmitVerification(ctx, sub)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return proof, nil
}

func (r *retryingClient) GetVerification(ctx context.Context, docID string) (*types.VerificationRecord, error) {
	return r.inner.GetVerification(ctx, docID)
}

func (r *retryingClient) Close() error { return r.inner.Close() }
