package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/khrees2412/coldreach/pkg/models"
)

// UserRepository stores sender profiles
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, position, company, portfolio, created_at, updated_at`

// CreateUser inserts user, assigning a fresh ID when none is set
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	portfolio, err := encodePortfolio(user.Portfolio)
	if err != nil {
		return err
	}

	query := `INSERT INTO users (id, name, email, position, company, portfolio) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.Position, user.Company, portfolio)
	return err
}

// GetUser returns the user with id, or nil when absent
func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail returns the user with email, or nil when absent
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// ListUsers returns every user in creation order
func (r *UserRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	portfolio, err := encodePortfolio(user.Portfolio)
	if err != nil {
		return err
	}

	query := `UPDATE users SET name=?, email=?, position=?, company=?, portfolio=?, updated_at=? WHERE id=?`
	result, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.Position, user.Company,
		portfolio, time.Now().UTC(), user.ID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var portfolio string
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Position, &user.Company,
		&portfolio, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(portfolio), &user.Portfolio); err != nil {
		return nil, fmt.Errorf("decode portfolio for user %s: %w", user.ID, err)
	}
	return user, nil
}

func encodePortfolio(items []models.PortfolioItem) (string, error) {
	if items == nil {
		items = []models.PortfolioItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode portfolio: %w", err)
	}
	return string(data), nil
}

// DraftRepository stores generated emails and their tracker status
type DraftRepository struct {
	db *sql.DB
}

func NewDraftRepository(db *sql.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

const draftColumns = `id, user_id, source_url, job, email, status, notes, created_at, updated_at`

func (r *DraftRepository) CreateDraft(ctx context.Context, draft *models.EmailDraft) error {
	job, err := json.Marshal(draft.Job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if draft.Status == "" {
		draft.Status = models.StatusDraft
	}

	query := `INSERT INTO email_drafts (user_id, source_url, job, email, status, notes) VALUES (?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, draft.UserID, draft.SourceURL, string(job),
		draft.Email, string(draft.Status), draft.Notes)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	draft.ID = id
	return nil
}

// GetDraft returns the draft owned by userID, or nil when absent
func (r *DraftRepository) GetDraft(ctx context.Context, userID string, id int64) (*models.EmailDraft, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+draftColumns+` FROM email_drafts WHERE user_id = ? AND id = ?`, userID, id)
	draft, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return draft, err
}

// ListDrafts returns userID's drafts in creation order. An empty status lists all.
func (r *DraftRepository) ListDrafts(ctx context.Context, userID string, status models.Status) ([]*models.EmailDraft, error) {
	query := `SELECT ` + draftColumns + ` FROM email_drafts WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drafts := []*models.EmailDraft{}
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}

func (r *DraftRepository) UpdateDraftStatus(ctx context.Context, userID string, id int64, status models.Status, notes string) error {
	query := `UPDATE email_drafts SET status=?, notes=?, updated_at=? WHERE user_id=? AND id=?`
	result, err := r.db.ExecContext(ctx, query, string(status), notes, time.Now().UTC(), userID, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DraftRepository) DeleteDraft(ctx context.Context, userID string, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM email_drafts WHERE user_id=? AND id=?`, userID, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus returns the number of userID's drafts per status
func (r *DraftRepository) CountByStatus(ctx context.Context, userID string) (map[models.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM email_drafts WHERE user_id = ? GROUP BY status`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[models.Status(status)] = count
	}
	return counts, rows.Err()
}

func scanDraft(row scanner) (*models.EmailDraft, error) {
	draft := &models.EmailDraft{}
	var job, status string
	err := row.Scan(&draft.ID, &draft.UserID, &draft.SourceURL, &job, &draft.Email,
		&status, &draft.Notes, &draft.CreatedAt, &draft.UpdatedAt)
	if err != nil {
		return nil, err
	}
	draft.Status = models.Status(status)
	if err := json.Unmarshal([]byte(job), &draft.Job); err != nil {
		return nil, fmt.Errorf("decode job for draft %d: %w", draft.ID, err)
	}
	return draft, nil
}
