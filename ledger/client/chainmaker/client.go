package chainmaker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"chainmaker.org/chainmaker/pb-go/v2/common"
	sdk "chainmaker.org/chainmaker/sdk-go/v2"

	"verichain/config"
	"verichain/identity"
	"verichain/internal/errs"
	"verichain/ledger/types"
)

// Client is one gateway session against a ChainMaker network, bound to the
// document-verification contract. Sessions are opened per invocation and must
// be closed by the caller on every exit path.
type Client struct {
	sdkClient *sdk.ChainClient
	cfg       *config.LedgerConfig
	chainCfg  *ChainMakerConfig
	timeout   time.Duration
	logger    *log.Logger
}

// NewClient opens a gateway session using the identity stored in the wallet
// under the configured alias. A missing identity or a malformed network
// profile fails with a connection error.
func NewClient(cfg *config.LedgerConfig, wallet *identity.Wallet, logger *log.Logger) (*Client, error) {
	chainCfg, ok := cfg.ChainSpecific.(*ChainMakerConfig)
	if !ok {
		return nil, fmt.Errorf("%w: invalid ChainMaker configuration type", errs.ErrConnection)
	}

	cred, err := wallet.Get(cfg.IdentityAlias)
	if err != nil {
		return nil, fmt.Errorf("%w: identity %q unavailable: %v", errs.ErrConnection, cfg.IdentityAlias, err)
	}

	certBytes := []byte(cred.Credentials.Certificate)
	keyBytes := []byte(cred.Credentials.PrivateKey)

	clientOptions := []sdk.ChainClientOption{
		sdk.WithChainClientOrgId(chainCfg.OrgID),
		sdk.WithChainClientChainId(chainCfg.ChainID),
		sdk.WithUserKeyBytes(keyBytes),
		sdk.WithUserCrtBytes(certBytes),
		sdk.WithUserSignKeyBytes(keyBytes),
		sdk.WithUserSignCrtBytes(certBytes),
	}

	for _, nodeCfg := range chainCfg.Nodes {
		if nodeCfg.UseTLS && len(nodeCfg.CaPaths) == 0 {
			return nil, fmt.Errorf("%w: node %s has TLS enabled but no CaPaths provided",
				errs.ErrConnection, nodeCfg.Address)
		}
		sdkNodeConfig := sdk.NewNodeConfig(
			sdk.WithNodeAddr(nodeCfg.Address),
			sdk.WithNodeConnCnt(nodeCfg.ConnCount),
			sdk.WithNodeUseTLS(nodeCfg.UseTLS),
			sdk.WithNodeCAPaths(nodeCfg.CaPaths),
			sdk.WithNodeTLSHostName(nodeCfg.TLSHostName),
		)
		clientOptions = append(clientOptions, sdk.AddChainClientNodeConfig(sdkNodeConfig))
	}

	if cfg.RetryLimit > 0 {
		clientOptions = append(clientOptions, sdk.WithRetryLimit(cfg.RetryLimit))
	}
	if cfg.RetryInterval > 0 {
		clientOptions = append(clientOptions, sdk.WithRetryInterval(cfg.RetryInterval))
	}

	sdkClient, err := sdk.NewChainClient(clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open gateway session: %v", errs.ErrConnection, err)
	}

	if err := sdkClient.EnableCertHash(); err != nil {
		logger.Printf("Warning: failed to enable cert hash: %v", err)
	}

	return &Client{
		sdkClient: sdkClient,
		cfg:       cfg,
		chainCfg:  chainCfg,
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		logger:    logger,
	}, nil
}

// Close releases the gateway session.
func (c *Client) Close() error {
	if err := c.sdkClient.Stop(); err != nil {
		return fmt.Errorf("failed to stop ChainMaker SDK client: %w", err)
	}
	return nil
}

type invokeResult struct {
	resp *common.TxResponse
	err  error
}

// SubmitVerification submits a verifyDocument transaction and waits for the
// network to order it. Transport failures and timeouts surface as transient
// errors; a contract-level rejection is terminal.
func (c *Client) SubmitVerification(ctx context.Context, sub types.Submission) (*types.Proof, error) {
	kvs := []*common.KeyValuePair{
		{Key: c.chainCfg.ParamKeyDocID, Value: []byte(sub.DocID)},
		{Key: c.chainCfg.ParamKeyOwnerID, Value: []byte(sub.OwnerID)},
		{Key: c.chainCfg.ParamKeyDocHash, Value: []byte(sub.DocHash)},
		{Key: c.chainCfg.ParamKeyVerifiedBy, Value: []byte(sub.VerifiedBy)},
		{Key: c.chainCfg.ParamKeyTimestamp, Value: []byte(sub.Timestamp)},
		{Key: c.chainCfg.ParamKeyComments, Value: []byte(sub.Comments)},
		{Key: c.chainCfg.ParamKeyPayload, Value: []byte(sub.PayloadB64)},
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resultCh := make(chan invokeResult, 1)
	go func() {
		resp, err := c.sdkClient.InvokeContract(
			c.chainCfg.ContractName, c.chainCfg.VerifyMethodName, "", kvs, -1, true)
		resultCh <- invokeResult{resp: resp, err: err}
	}()

	var res invokeResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: verifyDocument for %s did not complete: %v",
			errs.ErrTransient, sub.DocID, ctx.Err())
	case res = <-resultCh:
	}

	if res.err != nil {
		return nil, fmt.Errorf("%w: SDK invoke failed: %v", errs.ErrTransient, res.err)
	}
	if res.resp.Code != common.TxStatusCode_SUCCESS {
		return nil, fmt.Errorf("%w: %s (code: %d)", errs.ErrLedgerRejection, res.resp.Message, res.resp.Code)
	}
	if res.resp.ContractResult == nil || len(res.resp.ContractResult.Result) == 0 {
		return nil, fmt.Errorf("%w: empty contract result (tx: %s)", errs.ErrLedgerRejection, res.resp.TxId)
	}

	var record types.VerificationRecord
	if err := json.Unmarshal(res.resp.ContractResult.Result, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification record (tx: %s): %w", res.resp.TxId, err)
	}
	if record.DocHash != sub.DocHash {
		return nil, fmt.Errorf("%w: contract returned hash %q for sent hash %q",
			errs.ErrLedgerRejection, record.DocHash, sub.DocHash)
	}

	return &types.Proof{
		TransactionID: res.resp.TxId,
		BlockHeight:   res.resp.TxBlockHeight,
		Timestamp:     record.Timestamp,
	}, nil
}

// GetVerification evaluates getDocumentStatus against a single peer. No
// consensus round is involved.
func (c *Client) GetVerification(ctx context.Context, docID string) (*types.VerificationRecord, error) {
	kvs := []*common.KeyValuePair{
		{Key: c.chainCfg.ParamKeyDocID, Value: []byte(docID)},
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resultCh := make(chan invokeResult, 1)
	go func() {
		resp, err := c.sdkClient.QueryContract(
			c.chainCfg.ContractName, c.chainCfg.GetStatusMethodName, kvs, -1)
		resultCh <- invokeResult{resp: resp, err: err}
	}()

	var res invokeResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: getDocumentStatus for %s did not complete: %v",
			errs.ErrTransient, docID, ctx.Err())
	case res = <-resultCh:
	}

	if res.err != nil {
		return nil, fmt.Errorf("%w: SDK query failed: %v", errs.ErrTransient, res.err)
	}
	if res.resp.Code != common.TxStatusCode_SUCCESS {
		return nil, errs.NotFoundf("document %s has not been verified: %s", docID, res.resp.Message)
	}
	if res.resp.ContractResult == nil || len(res.resp.ContractResult.Result) == 0 {
		return nil, errs.NotFoundf("document %s has not been verified", docID)
	}

	var record types.VerificationRecord
	if err := json.Unmarshal(res.resp.ContractResult.Result, &record); err != nil {
		return nil, fmt.Errorf("corrupt verification record for %s: %w", docID, err)
	}
	return &record, nil
}
