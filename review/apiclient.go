package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"verichain/internal/errs"
)

// SubmitRequest is one ledger submission handed to the verification API.
type SubmitRequest struct {
	DocID      string
	OwnerID    string
	VerifiedBy string
	Comments   string
	DocHash    string
	FileName   string
	File       []byte
}

// SubmitResult is the verification API's receipt for a committed submission.
type SubmitResult struct {
	DocID   string `json:"docId"`
	DocHash string `json:"docHash"`
	TxID    string `json:"txId"`
	Block   uint64 `json:"blockHeight"`
}

// VerifySubmitter sends document payloads to the verification API server,
// which holds the privileged ledger identity. The review service never talks
// to the ledger directly.
type VerifySubmitter interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
}

// HTTPSubmitter is the production VerifySubmitter, speaking multipart HTTP to
// the verification API server.
type HTTPSubmitter struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

// NewHTTPSubmitter creates a submitter against the given base URL.
func NewHTTPSubmitter(baseURL string, timeout time.Duration, logger *log.Logger) *HTTPSubmitter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSubmitter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Submit posts the file and metadata to /api/upload and decodes the receipt.
func (s *HTTPSubmitter) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := map[string]string{
		"docId":      req.DocID,
		"ownerId":    req.OwnerID,
		"verifiedBy": req.VerifiedBy,
		"comments":   req.Comments,
		"docHash":    req.DocHash,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to build multipart request: %w", err)
		}
	}

	part, err := mw.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart request: %w", err)
	}
	if _, err := part.Write(req.File); err != nil {
		return nil, fmt.Errorf("failed to build multipart request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: verification API unreachable: %v", errs.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Printf("Verification API rejected submission for %s: HTTP %d: %s", req.DocID, resp.StatusCode, payload)
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: verification API returned HTTP %d", errs.ErrTransient, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: verification API returned HTTP %d: %s", errs.ErrLedgerRejection, resp.StatusCode, payload)
	}

	var result SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode verification API response: %w", err)
	}
	if result.TxID == "" {
		return nil, fmt.Errorf("%w: verification API returned no transaction id", errs.ErrLedgerRejection)
	}
	return &result, nil
}

var _ VerifySubmitter = (*HTTPSubmitter)(nil)
