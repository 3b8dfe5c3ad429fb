package decision

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"sentinelle/internal/policy"
	"sentinelle/pkg/sentinel"
)

// PostgresStore persists decision records in PostgreSQL. This store is pure
// I/O; the review transition itself stays in the service-provided ReviewFunc.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed decision store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	modelVersions, err := json.Marshal(record.ModelVersions)
	if err != nil {
		return fmt.Errorf("marshal model versions: %w", err)
	}
	explanations, err := json.Marshal(record.Explanations)
	if err != nil {
		return fmt.Errorf("marshal explanations: %w", err)
	}
	payload, err := json.Marshal(record.RequestPayload)
	if err != nil {
		return fmt.Errorf("marshal request payload: %w", err)
	}

	query := `
		INSERT INTO decisions (decision_id, client_id_hash, risk_score, fraud_score, decision, policy_rule, model_versions, explanations, request_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		record.DecisionID,
		record.ClientIDHash,
		record.RiskScore,
		record.FraudScore,
		string(record.Decision),
		record.PolicyRule,
		modelVersions,
		explanations,
		payload,
		record.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, decisionID string) (*Record, error) {
	query := `
		SELECT decision_id, client_id_hash, risk_score, fraud_score, decision, policy_rule, model_versions, explanations, request_payload, created_at
		FROM decisions
		WHERE decision_id = $1
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, decisionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get decision: %w", err)
	}

	record.Reviews, err = s.listReviews(ctx, s.db, decisionID)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// AppendReview locks the decision row, runs fn against the current decision,
// and commits the entry append together with the decision overwrite. Two
// concurrent reviews of the same record serialize on the row lock.
//
// The appended entry is returned from this call's own scope: the re-read
// behind the commit can already contain later entries from reviews that were
// blocked on the row lock.
func (s *PostgresStore) AppendReview(ctx context.Context, decisionID string, fn ReviewFunc) (*Record, ReviewEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, ReviewEntry{}, fmt.Errorf("begin review: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT decision FROM decisions WHERE decision_id = $1 FOR UPDATE`,
		decisionID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ReviewEntry{}, sentinel.ErrNotFound
		}
		return nil, ReviewEntry{}, fmt.Errorf("lock decision: %w", err)
	}

	entry := fn(policy.Decision(current))

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reviews (decision_id, reviewer_id, human_decision, comment, previous_decision, final_decision, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		decisionID,
		entry.ReviewerID,
		string(entry.HumanDecision),
		entry.Comment,
		string(entry.PreviousDecision),
		string(entry.FinalDecision),
		entry.CreatedAt,
	)
	if err != nil {
		return nil, ReviewEntry{}, fmt.Errorf("insert review: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE decisions SET decision = $2 WHERE decision_id = $1`,
		decisionID, string(entry.FinalDecision),
	)
	if err != nil {
		return nil, ReviewEntry{}, fmt.Errorf("update decision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, ReviewEntry{}, fmt.Errorf("commit review: %w", err)
	}

	record, err := s.Get(ctx, decisionID)
	if err != nil {
		return nil, ReviewEntry{}, err
	}
	return record, entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record        Record
		decisionValue string
		modelVersions []byte
		explanations  []byte
		payload       []byte
	)
	err := row.Scan(
		&record.DecisionID,
		&record.ClientIDHash,
		&record.RiskScore,
		&record.FraudScore,
		&decisionValue,
		&record.PolicyRule,
		&modelVersions,
		&explanations,
		&payload,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Decision = policy.Decision(decisionValue)
	if err := json.Unmarshal(modelVersions, &record.ModelVersions); err != nil {
		return nil, fmt.Errorf("unmarshal model versions: %w", err)
	}
	if err := json.Unmarshal(explanations, &record.Explanations); err != nil {
		return nil, fmt.Errorf("unmarshal explanations: %w", err)
	}
	if err := json.Unmarshal(payload, &record.RequestPayload); err != nil {
		return nil, fmt.Errorf("unmarshal request payload: %w", err)
	}
	return &record, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) listReviews(ctx context.Context, q queryer, decisionID string) ([]ReviewEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT reviewer_id, human_decision, comment, previous_decision, final_decision, created_at
		FROM reviews
		WHERE decision_id = $1
		ORDER BY created_at, id
	`, decisionID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var entries []ReviewEntry
	for rows.Next() {
		var (
			entry    ReviewEntry
			human    string
			previous string
			final    string
		)
		if err := rows.Scan(&entry.ReviewerID, &human, &entry.Comment, &previous, &final, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		entry.HumanDecision = HumanDecision(human)
		entry.PreviousDecision = policy.Decision(previous)
		entry.FinalDecision = policy.Decision(final)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return entries, nil
}
