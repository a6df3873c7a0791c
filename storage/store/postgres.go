package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"verichain/internal/errs"
	"verichain/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id                   TEXT PRIMARY KEY,
	owner_id             TEXT NOT NULL,
	name                 TEXT NOT NULL,
	doc_type             TEXT NOT NULL DEFAULT '',
	upload_date          TIMESTAMPTZ NOT NULL,
	file_location        TEXT NOT NULL DEFAULT '',
	status               TEXT NOT NULL DEFAULT 'pending',
	reviewer_id          TEXT NOT NULL DEFAULT '',
	reviewer_name        TEXT NOT NULL DEFAULT '',
	review_started_at    TIMESTAMPTZ,
	last_updated_at      TIMESTAMPTZ,
	reviewed_by          TEXT NOT NULL DEFAULT '',
	review_date          TIMESTAMPTZ,
	rejection_reason     TEXT NOT NULL DEFAULT '',
	status_change_reason TEXT NOT NULL DEFAULT '',
	tx_id                TEXT NOT NULL DEFAULT '',
	tx_timestamp         BIGINT NOT NULL DEFAULT 0,
	verified_by          TEXT NOT NULL DEFAULT '',
	doc_hash             TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS document_status_logs (
	id              BIGSERIAL PRIMARY KEY,
	document_id     TEXT NOT NULL,
	previous_status TEXT NOT NULL,
	new_status      TEXT NOT NULL,
	reason          TEXT NOT NULL DEFAULT '',
	changed_by      TEXT NOT NULL,
	changed_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_status_logs_document ON document_status_logs (document_id, changed_at);

CREATE TABLE IF NOT EXISTS notifications (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	type          TEXT NOT NULL,
	title         TEXT NOT NULL,
	message       TEXT NOT NULL,
	document_id   TEXT NOT NULL DEFAULT '',
	document_name TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL,
	read          BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at);
`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgresStore connects the pool, applies the schema and returns the
// store.
func NewPostgresStore(ctx context.Context, dsn string, minConns, maxConns int, logger *log.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}
	poolCfg.MinConns = int32(minConns)
	poolCfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() { s.pool.Close() }

const documentColumns = `id, owner_id, name, doc_type, upload_date, file_location, status,
	reviewer_id, reviewer_name, review_started_at, last_updated_at,
	reviewed_by, review_date, rejection_reason, status_change_reason,
	tx_id, tx_timestamp, verified_by, doc_hash`

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	var txID, verifiedBy, docHash string
	var txTimestamp int64
	err := row.Scan(
		&d.ID, &d.OwnerID, &d.Name, &d.Type, &d.UploadDate, &d.FileLocation, &d.Status,
		&d.ReviewState.ReviewerID, &d.ReviewState.ReviewerName,
		&d.ReviewState.ReviewStartedAt, &d.ReviewState.LastUpdatedAt,
		&d.ReviewedBy, &d.ReviewDate, &d.RejectionReason, &d.StatusChangeReason,
		&txID, &txTimestamp, &verifiedBy, &docHash,
	)
	if err != nil {
		return nil, err
	}
	d.ReviewState.Status = d.Status
	if txID != "" || docHash != "" {
		d.Verification = &models.BlockchainVerification{
			TransactionID: txID,
			Timestamp:     txTimestamp,
			VerifiedBy:    verifiedBy,
			DocHash:       docHash,
		}
	}
	return &d, nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.Status == "" {
		doc.Status = models.StatusPending
	}
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now().UTC()
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (id, owner_id, name, doc_type, upload_date, file_location, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.OwnerID, doc.Name, doc.Type, doc.UploadDate, doc.FileLocation, doc.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document %s: %w", doc.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFoundf("document %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	return doc, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, status models.DocumentStatus) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY upload_date`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// ClaimForReview is the single conditional update that arbitrates between
// racing reviewers: the WHERE clause only matches a pending row, so exactly
// one concurrent claim can flip it.
func (s *PostgresStore) ClaimForReview(ctx context.Context, docID string, actor models.Actor, now time.Time) (*models.Document, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET status = $1, reviewer_id = $2, reviewer_name = $3,
		    review_started_at = $4, last_updated_at = $4
		WHERE id = $5 AND status = $6`,
		models.StatusUnderReview, actor.ID, actor.Name, now, docID, models.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim document %s: %w", docID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetDocument(ctx, docID); getErr != nil {
			return nil, getErr
		}
		return nil, errs.Conflictf("document %s is not pending review", docID)
	}
	return s.GetDocument(ctx, docID)
}

func (s *PostgresStore) ReleaseClaim(ctx context.Context, docID, reviewerID string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET status = $1, reviewer_id = '', reviewer_name = '',
		    review_started_at = NULL, last_updated_at = $2
		WHERE id = $3 AND status = $4 AND reviewer_id = $5`,
		models.StatusPending, now, docID, models.StatusUnderReview, reviewerID,
	)
	if err != nil {
		return fmt.Errorf("failed to release document %s: %w", docID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetDocument(ctx, docID); getErr != nil {
			return getErr
		}
		return errs.Conflictf("document %s is not under review by %s", docID, reviewerID)
	}
	return nil
}

func (s *PostgresStore) MarkVerified(ctx context.Context, docID, reviewerID string, v models.BlockchainVerification, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET status = $1, reviewed_by = $2, review_date = $3, last_updated_at = $3,
		    tx_id = $4, tx_timestamp = $5, verified_by = $6, doc_hash = $7
		WHERE id = $8 AND status = $9 AND reviewer_id = $2`,
		models.StatusVerified, reviewerID, now,
		v.TransactionID, v.Timestamp, v.VerifiedBy, v.DocHash,
		docID, models.StatusUnderReview,
	)
	if err != nil {
		return fmt.Errorf("failed to mark document %s verified: %w", docID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetDocument(ctx, docID); getErr != nil {
			return getErr
		}
		return errs.Conflictf("document %s is not under review by %s", docID, reviewerID)
	}
	return nil
}

func (s *PostgresStore) MarkRejected(ctx context.Context, docID, reviewerID, reason string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET status = $1, reviewed_by = $2, review_date = $3, last_updated_at = $3,
		    rejection_reason = $4
		WHERE id = $5 AND status = $6 AND reviewer_id = $2`,
		models.StatusRejected, reviewerID, now, reason, docID, models.StatusUnderReview,
	)
	if err != nil {
		return fmt.Errorf("failed to mark document %s rejected: %w", docID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetDocument(ctx, docID); getErr != nil {
			return getErr
		}
		return errs.Conflictf("document %s is not under review by %s", docID, reviewerID)
	}
	return nil
}

func (s *PostgresStore) OverrideStatus(ctx context.Context, docID string, newStatus models.DocumentStatus, actor models.Actor, reason string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET status = $1, status_change_reason = $2, reviewed_by = $3,
		    review_date = $4, last_updated_at = $4
		WHERE id = $5 AND status <> $6`,
		newStatus, reason, actor.ID, now, docID, models.StatusUnderReview,
	)
	if err != nil {
		return fmt.Errorf("failed to override status of document %s: %w", docID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetDocument(ctx, docID); getErr != nil {
			return getErr
		}
		return errs.Conflictf("document %s is actively claimed; release the review first", docID)
	}
	return nil
}

func (s *PostgresStore) AppendStatusLog(ctx context.Context, entry *models.StatusLogEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO document_status_logs (document_id, previous_status, new_status, reason, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.DocumentID, entry.PreviousStatus, entry.NewStatus, entry.Reason, entry.ChangedBy, entry.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append status log for %s: %w", entry.DocumentID, err)
	}
	return nil
}

func (s *PostgresStore) ListStatusLog(ctx context.Context, docID string) ([]models.StatusLogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT document_id, previous_status, new_status, reason, changed_by, changed_at
		FROM document_status_logs WHERE document_id = $1 ORDER BY changed_at`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to list status log for %s: %w", docID, err)
	}
	defer rows.Close()

	var entries []models.StatusLogEntry
	for rows.Next() {
		var e models.StatusLogEntry
		if err := rows.Scan(&e.DocumentID, &e.PreviousStatus, &e.NewStatus, &e.Reason, &e.ChangedBy, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) FindUnanchored(ctx context.Context) ([]models.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE status = $1 AND tx_id = ''`,
		models.StatusVerified)
	if err != nil {
		return nil, fmt.Errorf("failed to query unanchored documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	createdAt, err := time.Parse(time.RFC3339Nano, n.CreatedAt)
	if err != nil {
		createdAt = time.Now().UTC()
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, document_id, document_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		n.NotificationID, n.UserID, n.Type, n.Title, n.Message, n.DocumentID, n.DocumentName, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification %s: %w", n.NotificationID, err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
