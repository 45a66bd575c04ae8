package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gurukulx/internal/domain"
)

// DocumentStore persists every server-side collection as one JSONB document
// per record: profiles and accounts keyed by user name, assignments, doubts,
// and feedback keyed by ID.
type DocumentStore struct {
	pool *pgxpool.Pool
}

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

func (s *DocumentStore) LoadProfile(ctx context.Context, name string) (domain.Profile, error) {
	var p domain.Profile
	if err := s.loadDoc(ctx, "profiles", "name", name, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, domain.ErrProfileNotFound
		}
		return domain.Profile{}, err
	}
	return p, nil
}

func (s *DocumentStore) SaveProfile(ctx context.Context, p domain.Profile) error {
	return s.saveDoc(ctx, "profiles", "name", p.Name, p)
}

func (s *DocumentStore) GetAccount(ctx context.Context, name string) (domain.Account, error) {
	var a domain.Account
	if err := s.loadDoc(ctx, "accounts", "name", name, &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		return domain.Account{}, err
	}
	return a, nil
}

func (s *DocumentStore) SaveAccount(ctx context.Context, a domain.Account) error {
	return s.saveDoc(ctx, "accounts", "name", a.Name, a)
}

func (s *DocumentStore) ListAssignments(ctx context.Context, class string) ([]domain.Assignment, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM assignments ORDER BY data->>'createdAt'`)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		var a domain.Assignment
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("unmarshal assignment: %w", err)
		}
		if class == "" || a.Class == "" || a.Class == class {
			out = append(out, a)
		}
	}
	return out, rows.Err()
}

func (s *DocumentStore) GetAssignment(ctx context.Context, id string) (domain.Assignment, error) {
	var a domain.Assignment
	if err := s.loadDoc(ctx, "assignments", "id", id, &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Assignment{}, domain.ErrAssignmentNotFound
		}
		return domain.Assignment{}, err
	}
	return a, nil
}

func (s *DocumentStore) SaveAssignment(ctx context.Context, a domain.Assignment) error {
	return s.saveDoc(ctx, "assignments", "id", a.ID, a)
}

func (s *DocumentStore) ListDoubts(ctx context.Context, studentName string) ([]domain.Doubt, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM doubts ORDER BY data->>'createdAt'`)
	if err != nil {
		return nil, fmt.Errorf("list doubts: %w", err)
	}
	defer rows.Close()

	var out []domain.Doubt
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan doubt: %w", err)
		}
		var d domain.Doubt
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("unmarshal doubt: %w", err)
		}
		if studentName == "" || d.StudentName == studentName {
			out = append(out, d)
		}
	}
	return out, rows.Err()
}

func (s *DocumentStore) GetDoubt(ctx context.Context, id string) (domain.Doubt, error) {
	var d domain.Doubt
	if err := s.loadDoc(ctx, "doubts", "id", id, &d); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Doubt{}, domain.ErrDoubtNotFound
		}
		return domain.Doubt{}, err
	}
	return d, nil
}

func (s *DocumentStore) SaveDoubt(ctx context.Context, d domain.Doubt) error {
	return s.saveDoc(ctx, "doubts", "id", d.ID, d)
}

func (s *DocumentStore) SaveFeedback(ctx context.Context, f domain.Feedback) error {
	return s.saveDoc(ctx, "feedback", "id", f.ID, f)
}

func (s *DocumentStore) ListFeedback(ctx context.Context) ([]domain.Feedback, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM feedback ORDER BY data->>'createdAt'`)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []domain.Feedback
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		var f domain.Feedback
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("unmarshal feedback: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *DocumentStore) loadDoc(ctx context.Context, table, keyCol, key string, out any) error {
	var raw []byte
	query := fmt.Sprintf(`SELECT data FROM %s WHERE %s=$1`, table, keyCol)
	if err := s.pool.QueryRow(ctx, query, key).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("load %s: %w", table, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", table, err)
	}
	return nil
}

func (s *DocumentStore) saveDoc(ctx context.Context, table, keyCol, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", table, err)
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (%s, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (%s) DO UPDATE SET data = EXCLUDED.data`,
		table, keyCol, keyCol,
	)
	if _, err := s.pool.Exec(ctx, query, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}
	return nil
}
