package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contactbook/internal/crud"
	"contactbook/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

const contactColumns = "id, first_name, last_name, phone_number, email, address, owner_id, created_by, updated_by, created_at, updated_at, deleted_at"

type PostgresContactRepository struct {
	db *pgxpool.Pool
}

func NewPostgresContactRepository(db *pgxpool.Pool) *PostgresContactRepository {
	return &PostgresContactRepository{db: db}
}

func (r *PostgresContactRepository) Create(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	c := *contact
	c.ID = uuid.New()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.DeletedAt = nil

	_, err := r.db.Exec(ctx, `INSERT INTO contacts (`+contactColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.FirstName, c.LastName, c.PhoneNumber, c.Email, c.Address, c.Owner, c.CreatedBy, c.UpdatedBy, c.CreatedAt, c.UpdatedAt, c.DeletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert contact: %w", err)
	}
	return &c, nil
}

func (r *PostgresContactRepository) Find(ctx context.Context, filter ContactFilter) ([]*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts`
	var conds []string
	var args []any

	if !filter.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	var visible []string
	if filter.Owner != nil {
		args = append(args, *filter.Owner)
		visible = append(visible, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if len(filter.IDs) > 0 {
		args = append(args, filter.IDs)
		visible = append(visible, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if len(visible) > 0 {
		conds = append(conds, "("+strings.Join(visible, " OR ")+")")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contacts: %w", err)
	}
	return contacts, nil
}

func (r *PostgresContactRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND deleted_at IS NULL`, id)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *PostgresContactRepository) Update(ctx context.Context, id uuid.UUID, patch crud.Payload) (*model.Contact, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	merged, err := crud.MergePatch(*existing, patch)
	if err != nil {
		return nil, err
	}
	// id, creation metadata and delete marker never change through a patch
	merged.ID = existing.ID
	merged.CreatedBy = existing.CreatedBy
	merged.CreatedAt = existing.CreatedAt
	merged.DeletedAt = existing.DeletedAt
	merged.UpdatedAt = time.Now().UTC()

	_, err = r.db.Exec(ctx, `UPDATE contacts SET first_name = $2, last_name = $3, phone_number = $4, email = $5, address = $6, owner_id = $7, updated_by = $8, updated_at = $9 WHERE id = $1`,
		merged.ID, merged.FirstName, merged.LastName, merged.PhoneNumber, merged.Email, merged.Address, merged.Owner, merged.UpdatedBy, merged.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return &merged, nil
}

// Delete is a soft delete: the row stays in place with deleted_at stamped.
func (r *PostgresContactRepository) Delete(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	_, err = r.db.Exec(ctx, `UPDATE contacts SET deleted_at = $2, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return nil, fmt.Errorf("failed to delete contact: %w", err)
	}
	existing.DeletedAt = &now
	existing.UpdatedAt = now
	return existing, nil
}

func scanContact(row pgx.Row) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.PhoneNumber, &c.Email, &c.Address, &c.Owner, &c.CreatedBy, &c.UpdatedBy, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan contact: %w", err)
	}
	return &c, nil
}

const userColumns = "id, username, email, password_hash, role, created_by, updated_by, created_at, updated_at, deleted_at"

type PostgresUserRepository struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	u := *user
	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.DeletedAt = nil
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	_, err := r.db.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedBy, u.UpdatedBy, u.CreatedAt, u.UpdatedAt, u.DeletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepository) Find(ctx context.Context, filter UserFilter) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var conds []string
	var args []any
	if !filter.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 AND deleted_at IS NULL`, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepository) ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id FROM users WHERE id = ANY($1) AND deleted_at IS NULL`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query user ids: %w", err)
	}
	defer rows.Close()

	var existing []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		existing = append(existing, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user ids: %w", err)
	}
	return existing, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, id uuid.UUID, patch crud.Payload) (*model.User, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	merged, err := crud.MergePatch(*existing, patch)
	if err != nil {
		return nil, err
	}
	merged.ID = existing.ID
	merged.PasswordHash = existing.PasswordHash
	merged.CreatedBy = existing.CreatedBy
	merged.CreatedAt = existing.CreatedAt
	merged.DeletedAt = existing.DeletedAt
	merged.UpdatedAt = time.Now().UTC()

	_, err = r.db.Exec(ctx, `UPDATE users SET username = $2, email = $3, role = $4, updated_by = $5, updated_at = $6 WHERE id = $1`,
		merged.ID, merged.Username, merged.Email, merged.Role, merged.UpdatedBy, merged.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &merged, nil
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id uuid.UUID) (*model.User, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	_, err = r.db.Exec(ctx, `UPDATE users SET deleted_at = $2, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	existing.DeletedAt = &now
	existing.UpdatedAt = now
	return existing, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedBy, &u.UpdatedBy, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

const shareColumns = "id, contact_id, user_id, shared_by, created_at"

type PostgresShareRepository struct {
	db *pgxpool.Pool
}

func NewPostgresShareRepository(db *pgxpool.Pool) *PostgresShareRepository {
	return &PostgresShareRepository{db: db}
}

func (r *PostgresShareRepository) ListByContact(ctx context.Context, contactID uuid.UUID) ([]*model.ContactShare, error) {
	return r.list(ctx, `SELECT `+shareColumns+` FROM contact_shares WHERE contact_id = $1`, contactID)
}

func (r *PostgresShareRepository) ListByContacts(ctx context.Context, contactIDs []uuid.UUID) ([]*model.ContactShare, error) {
	if len(contactIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+shareColumns+` FROM contact_shares WHERE contact_id = ANY($1)`, contactIDs)
}

func (r *PostgresShareRepository) SharedContactIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT contact_id FROM contact_shares WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shared contact ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan shared contact id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shared contact ids: %w", err)
	}
	return ids, nil
}

func (r *PostgresShareRepository) Exists(ctx context.Context, contactID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contact_shares WHERE contact_id = $1 AND user_id = $2)`, contactID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check share existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresShareRepository) InsertMany(ctx context.Context, shares []*model.ContactShare) error {
	if len(shares) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for _, s := range shares {
		id := s.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		createdAt := s.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		batch.Queue(`INSERT INTO contact_shares (`+shareColumns+`) VALUES ($1, $2, $3, $4, $5)`,
			id, s.ContactID, s.UserID, s.SharedBy, createdAt)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert shares: %w", err)
	}
	return nil
}

func (r *PostgresShareRepository) DeleteByContactUsers(ctx context.Context, contactID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `DELETE FROM contact_shares WHERE contact_id = $1 AND user_id = ANY($2)`, contactID, userIDs)
	if err != nil {
		return fmt.Errorf("failed to delete shares: %w", err)
	}
	return nil
}

func (r *PostgresShareRepository) DeleteByContact(ctx context.Context, contactID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM contact_shares WHERE contact_id = $1`, contactID)
	if err != nil {
		return fmt.Errorf("failed to delete contact shares: %w", err)
	}
	return nil
}

func (r *PostgresShareRepository) list(ctx context.Context, query string, args ...any) ([]*model.ContactShare, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shares: %w", err)
	}
	defer rows.Close()

	var shares []*model.ContactShare
	for rows.Next() {
		var s model.ContactShare
		if err := rows.Scan(&s.ID, &s.ContactID, &s.UserID, &s.SharedBy, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		shares = append(shares, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shares: %w", err)
	}
	return shares, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
