package core

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"verichain/internal/errs"
	"verichain/ledger/client"
	"verichain/ledger/types"
)

// Service implements the verification API operations on top of the ledger.
//
// Every operation opens its own gateway session and closes it before
// returning. Nothing here holds a session across requests, so a wedged
// ledger connection can never poison later calls.
type Service struct {
	connector client.Connector
	tempDir   string
	logger    *log.Logger
}

// NewService creates the verification service. tempDir receives uploaded
// payloads while they are hashed and encoded; it is created if missing.
func NewService(connector client.Connector, tempDir string, logger *log.Logger) (*Service, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory '%s': %w", tempDir, err)
	}
	return &Service{
		connector: connector,
		tempDir:   tempDir,
		logger:    logger,
	}, nil
}

// UploadRequest carries one document submission. DocHash is optional: when
// the caller already anchored the document to a digest of its own (hash over
// location plus metadata), that digest is recorded; otherwise the server
// hashes the payload content.
type UploadRequest struct {
	DocID      string
	OwnerID    string
	VerifiedBy string
	Comments   string
	DocHash    string
	FileName   string
	File       io.Reader
}

// UploadResult reports the outcome of a successful submission.
type UploadResult struct {
	DocID   string             `json:"docId"`
	DocHash string             `json:"docHash"`
	TxID    string             `json:"txId"`
	Block   uint64             `json:"blockHeight"`
	Status  types.RecordStatus `json:"status"`
}

// Upload validates the request, stages the payload, and submits a
// verification transaction. Validation failures are reported before any
// ledger session is opened.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.DocID == "" {
		return nil, errs.Validationf("docId is required")
	}
	if req.OwnerID == "" {
		return nil, errs.Validationf("ownerId is required")
	}
	if req.File == nil {
		return nil, errs.Validationf("file is required")
	}
	if req.VerifiedBy == "" {
		req.VerifiedBy = req.OwnerID
	}

	payload, contentHash, err := s.stagePayload(req.File)
	if err != nil {
		return nil, err
	}
	docHash := req.DocHash
	if docHash == "" {
		docHash = contentHash
	}

	session, err := s.connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open ledger session: %v", errs.ErrConnection, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			s.logger.Printf("Warning: failed to close ledger session: %v", cerr)
		}
	}()

	sub := types.Submission{
		DocID:      req.DocID,
		OwnerID:    req.OwnerID,
		DocHash:    docHash,
		VerifiedBy: req.VerifiedBy,
		Timestamp:  strconv.FormatInt(time.Now().UnixMilli(), 10),
		Comments:   req.Comments,
		PayloadB64: base64.StdEncoding.EncodeToString(payload),
	}

	proof, err := session.SubmitVerification(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.logger.Printf("Document %s verified on ledger, TxID: %s, Block: %d", req.DocID, proof.TransactionID, proof.BlockHeight)

	return &UploadResult{
		DocID:   req.DocID,
		DocHash: docHash,
		TxID:    proof.TransactionID,
		Block:   proof.BlockHeight,
		Status:  types.StatusVerified,
	}, nil
}

// View returns the ledger record for a document.
func (s *Service) View(ctx context.Context, docID string) (*types.VerificationRecord, error) {
	if docID == "" {
		return nil, errs.Validationf("docId is required")
	}

	session, err := s.connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open ledger session: %v", errs.ErrConnection, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			s.logger.Printf("Warning: failed to close ledger session: %v", cerr)
		}
	}()

	return session.GetVerification(ctx, docID)
}

// Download returns the decoded payload anchored with a document, if any.
func (s *Service) Download(ctx context.Context, docID string) ([]byte, error) {
	record, err := s.View(ctx, docID)
	if err != nil {
		return nil, err
	}
	if record.PayloadB64 == "" {
		return nil, errs.NotFoundf("document %s has no anchored payload", docID)
	}
	data, err := base64.StdEncoding.DecodeString(record.PayloadB64)
	if err != nil {
		return nil, fmt.Errorf("stored payload for %s is not valid base64: %w", docID, err)
	}
	return data, nil
}

// stagePayload spools the upload through the temp directory, hashing as it
// copies, and returns the full payload plus its hex SHA-256.
func (s *Service) stagePayload(r io.Reader) ([]byte, string, error) {
	tmp, err := os.CreateTemp(s.tempDir, "upload-*")
	if err != nil {
		return nil, "", fmt.Errorf("failed to stage upload: %w", err)
	}
	defer func() {
		tmp.Close()
		if rerr := os.Remove(tmp.Name()); rerr != nil {
			s.logger.Printf("Warning: failed to remove temp file %s: %v", tmp.Name(), rerr)
		}
	}()

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), r); err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("failed to rewind staged upload: %w", err)
	}
	payload, err := io.ReadAll(tmp)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read staged upload: %w", err)
	}

	return payload, hex.EncodeToString(hasher.Sum(nil)), nil
}
