package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"riskgate/internal/validation/models"
	id "riskgate/pkg/domain"
	"riskgate/pkg/platform/sentinel"
)

// Schema creates the validation_requests table. Applied by deployment
// tooling and by the integration test suite.
const Schema = `
CREATE TABLE IF NOT EXISTS validation_requests (
	id               UUID PRIMARY KEY,
	correlation_id   TEXT NOT NULL UNIQUE,
	client_id        TEXT NOT NULL,
	agency_id        TEXT NOT NULL,
	identity_number  TEXT NOT NULL,
	email            TEXT NOT NULL,
	phone            TEXT NOT NULL,
	name             TEXT NOT NULL,
	surname          TEXT NOT NULL,
	document_hashes  JSONB NOT NULL DEFAULT '[]',
	doc_quality      INT,
	risk_score       INT NOT NULL DEFAULT 0,
	risk_tier        TEXT NOT NULL DEFAULT '',
	fraud_flags      JSONB NOT NULL DEFAULT '[]',
	requires_review  BOOLEAN NOT NULL DEFAULT FALSE,
	status           TEXT NOT NULL,
	rejection_reason TEXT NOT NULL DEFAULT '',
	assigned_limits  JSONB,
	assigned_reviewer TEXT NOT NULL DEFAULT '',
	reviewer_notes   TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL,
	expires_at       TIMESTAMPTZ,
	action_log       JSONB NOT NULL DEFAULT '[]',
	version          INT NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_validation_requests_status ON validation_requests (status);
CREATE INDEX IF NOT EXISTS idx_validation_requests_tier ON validation_requests (risk_tier);
CREATE INDEX IF NOT EXISTS idx_validation_requests_identity ON validation_requests (identity_number) WHERE status <> 'REJECTED';
CREATE INDEX IF NOT EXISTS idx_validation_requests_email_created ON validation_requests (email, created_at);
`

const requestColumns = `
	id, correlation_id, client_id, agency_id, identity_number, email, phone,
	name, surname, document_hashes, doc_quality, risk_score, risk_tier,
	fraud_flags, requires_review, status, rejection_reason, assigned_limits,
	assigned_reviewer, reviewer_notes, created_at, expires_at, action_log, version`

// Postgres persists request records in PostgreSQL via pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, req *models.Request) error {
	docHashes, fraudFlags, actionLog, assignedLimits, err := marshalJSONFields(req)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO validation_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, 1)
	`
	_, err = s.pool.Exec(ctx, query,
		uuid.UUID(req.ID), req.CorrelationID, req.ClientID, req.AgencyID,
		req.IdentityNumber, req.Email, req.Phone, req.Name, req.Surname,
		docHashes, req.DocQuality, req.RiskScore, string(req.RiskTier),
		fraudFlags, req.RequiresManualReview, string(req.Status),
		req.RejectionReason, assignedLimits, req.AssignedReviewer,
		req.ReviewerNotes, req.CreatedAt, nullableTime(req.ExpiresAt), actionLog,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert request: %w", err)
	}
	req.Version = 1
	return nil
}

func (s *Postgres) Update(ctx context.Context, req *models.Request, expectedVersion int) error {
	current, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if current.Status != req.Status && !models.CanTransition(current.Status, req.Status) {
		return sentinel.ErrInvalidState
	}

	docHashes, fraudFlags, actionLog, assignedLimits, err := marshalJSONFields(req)
	if err != nil {
		return err
	}

	query := `
		UPDATE validation_requests SET
			risk_score = $1, risk_tier = $2, fraud_flags = $3,
			requires_review = $4, status = $5, rejection_reason = $6,
			assigned_limits = $7, assigned_reviewer = $8, reviewer_notes = $9,
			expires_at = $10, action_log = $11, document_hashes = $12,
			doc_quality = $13, version = version + 1
		WHERE id = $14 AND version = $15
	`
	tag, err := s.pool.Exec(ctx, query,
		req.RiskScore, string(req.RiskTier), fraudFlags,
		req.RequiresManualReview, string(req.Status), req.RejectionReason,
		assignedLimits, req.AssignedReviewer, req.ReviewerNotes,
		nullableTime(req.ExpiresAt), actionLog, docHashes, req.DocQuality,
		uuid.UUID(req.ID), expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Row exists (checked above) but the version moved underneath us.
		return sentinel.ErrConflict
	}
	req.Version = expectedVersion + 1
	return nil
}

func (s *Postgres) GetByID(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM validation_requests WHERE id = $1`
	return s.queryOne(ctx, query, uuid.UUID(requestID))
}

func (s *Postgres) GetByCorrelationID(ctx context.Context, correlationID string) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM validation_requests WHERE correlation_id = $1`
	return s.queryOne(ctx, query, correlationID)
}

func (s *Postgres) ListByStatus(ctx context.Context, status models.Status, page Page) ([]*models.Request, error) {
	page = page.normalize()
	query := `SELECT ` + requestColumns + `
		FROM validation_requests WHERE status = $1
		ORDER BY created_at DESC OFFSET $2 LIMIT $3`
	return s.queryMany(ctx, query, string(status), page.Offset, page.Limit)
}

func (s *Postgres) ListByRiskTier(ctx context.Context, tier models.RiskTier, page Page) ([]*models.Request, error) {
	page = page.normalize()
	query := `SELECT ` + requestColumns + `
		FROM validation_requests WHERE risk_tier = $1
		ORDER BY created_at DESC OFFSET $2 LIMIT $3`
	return s.queryMany(ctx, query, string(tier), page.Offset, page.Limit)
}

func (s *Postgres) ListByAgencyStatus(ctx context.Context, agencyID string, status models.Status, page Page) ([]*models.Request, error) {
	page = page.normalize()
	query := `SELECT ` + requestColumns + `
		FROM validation_requests WHERE agency_id = $1 AND status = $2
		ORDER BY created_at DESC OFFSET $3 LIMIT $4`
	return s.queryMany(ctx, query, agencyID, string(status), page.Offset, page.Limit)
}

func (s *Postgres) Search(ctx context.Context, q Query) ([]*models.Request, error) {
	page := q.Page.normalize()
	query := `SELECT ` + requestColumns + `
		FROM validation_requests
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR risk_tier = $2)
		  AND ($3 = '' OR agency_id = $3)
		  AND ($4 = '' OR client_id = $4)
		  AND ($5 = '' OR name ILIKE '%' || $5 || '%'
		       OR surname ILIKE '%' || $5 || '%'
		       OR identity_number ILIKE '%' || $5 || '%')
		ORDER BY created_at DESC OFFSET $6 LIMIT $7`
	return s.queryMany(ctx, query,
		string(q.Status), string(q.RiskTier), q.AgencyID, q.ClientID, q.Text,
		page.Offset, page.Limit,
	)
}

func (s *Postgres) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM validation_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	return counts, rows.Err()
}

func (s *Postgres) CountByRiskTier(ctx context.Context) (map[models.RiskTier]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT risk_tier, COUNT(*) FROM validation_requests
		WHERE risk_tier <> '' GROUP BY risk_tier`)
	if err != nil {
		return nil, fmt.Errorf("count by tier: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.RiskTier]int)
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, fmt.Errorf("scan tier count: %w", err)
		}
		counts[models.RiskTier(tier)] = n
	}
	return counts, rows.Err()
}

func (s *Postgres) CountCreatedAfter(ctx context.Context, after time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM validation_requests WHERE created_at > $1`, after,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count created after: %w", err)
	}
	return n, nil
}

func (s *Postgres) CountByEmailCreatedAfter(ctx context.Context, email string, after time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM validation_requests
		WHERE LOWER(email) = LOWER($1) AND created_at > $2`, email, after,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by email: %w", err)
	}
	return n, nil
}

func (s *Postgres) ExistsActiveIdentity(ctx context.Context, identityNumber, excludeCorrelationID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM validation_requests
			WHERE identity_number = $1 AND status <> 'REJECTED' AND correlation_id <> $2
		)`, identityNumber, excludeCorrelationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check identity usage: %w", err)
	}
	return exists, nil
}

func (s *Postgres) ListExpiredPending(ctx context.Context, now time.Time) ([]*models.Request, error) {
	query := `SELECT ` + requestColumns + `
		FROM validation_requests
		WHERE status NOT IN ('APPROVED', 'REJECTED', 'EXPIRED')
		  AND expires_at IS NOT NULL AND expires_at < $1
		ORDER BY created_at`
	return s.queryMany(ctx, query, now)
}

func (s *Postgres) queryOne(ctx context.Context, query string, args ...any) (*models.Request, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query request: %w", err)
		}
		return nil, sentinel.ErrNotFound
	}
	return scanRequest(rows)
}

func (s *Postgres) queryMany(ctx context.Context, query string, args ...any) ([]*models.Request, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (*models.Request, error) {
	var (
		req            models.Request
		requestID      uuid.UUID
		docHashes      []byte
		fraudFlags     []byte
		actionLog      []byte
		assignedLimits []byte
		tier, status   string
		expiresAt      *time.Time
	)
	err := row.Scan(
		&requestID, &req.CorrelationID, &req.ClientID, &req.AgencyID,
		&req.IdentityNumber, &req.Email, &req.Phone, &req.Name, &req.Surname,
		&docHashes, &req.DocQuality, &req.RiskScore, &tier, &fraudFlags,
		&req.RequiresManualReview, &status, &req.RejectionReason,
		&assignedLimits, &req.AssignedReviewer, &req.ReviewerNotes,
		&req.CreatedAt, &expiresAt, &actionLog, &req.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("scan request: %w", err)
	}

	req.ID = id.RequestID(requestID)
	req.RiskTier = models.RiskTier(tier)
	req.Status = models.Status(status)
	if expiresAt != nil {
		req.ExpiresAt = *expiresAt
	}
	if err := json.Unmarshal(docHashes, &req.DocumentHashes); err != nil {
		return nil, fmt.Errorf("unmarshal document hashes: %w", err)
	}
	if err := json.Unmarshal(fraudFlags, &req.FraudFlags); err != nil {
		return nil, fmt.Errorf("unmarshal fraud flags: %w", err)
	}
	if err := json.Unmarshal(actionLog, &req.ActionLog); err != nil {
		return nil, fmt.Errorf("unmarshal action log: %w", err)
	}
	if len(assignedLimits) > 0 {
		req.AssignedLimits = &models.TransactionLimits{}
		if err := json.Unmarshal(assignedLimits, req.AssignedLimits); err != nil {
			return nil, fmt.Errorf("unmarshal limits: %w", err)
		}
	}
	return &req, nil
}

func marshalJSONFields(req *models.Request) (docHashes, fraudFlags, actionLog, assignedLimits []byte, err error) {
	if docHashes, err = json.Marshal(emptySlice(req.DocumentHashes)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal document hashes: %w", err)
	}
	if fraudFlags, err = json.Marshal(emptySlice(req.FraudFlags)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal fraud flags: %w", err)
	}
	log := req.ActionLog
	if log == nil {
		log = []models.ActionEntry{}
	}
	if actionLog, err = json.Marshal(log); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal action log: %w", err)
	}
	if req.AssignedLimits != nil {
		if assignedLimits, err = json.Marshal(req.AssignedLimits); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal limits: %w", err)
		}
	}
	return docHashes, fraudFlags, actionLog, assignedLimits, nil
}

func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
