package repository

import (
	"context"
	"errors"
	"time"

	"challengr-backend/internal/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Credential holds the identity-service view of a user. Profile facts live
// in the record store mirror; these fields are the fallback when the mirror
// is absent.
type Credential struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// IdentityGateway manages credentials: creation, verification, password
// changes and deletion. Passwords are stored as bcrypt hashes.
type IdentityGateway struct {
	db *pgxpool.Pool
}

// NewIdentityGateway creates a new identity gateway
func NewIdentityGateway(db *pgxpool.Pool) *IdentityGateway {
	return &IdentityGateway{db: db}
}

// CreateCredential registers a new email/password credential and returns the
// issued identity id
func (g *IdentityGateway) CreateCredential(ctx context.Context, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Auth("create-credential", err)
	}

	id := uuid.New().String()
	query := `
		INSERT INTO credentials (id, email, password_hash)
		VALUES ($1, $2, $3)
	`
	if _, err := g.db.Exec(ctx, query, id, email, string(hash)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", apperr.Auth("create-credential", errors.New("email already registered"))
		}
		return "", apperr.Auth("create-credential", err)
	}
	return id, nil
}

// Verify checks an email/password pair and returns the identity id on
// success. Wrong credentials come back as an AuthError.
func (g *IdentityGateway) Verify(ctx context.Context, email, password string) (string, error) {
	query := `SELECT id, password_hash FROM credentials WHERE email = $1`
	var id, hash string
	err := g.db.QueryRow(ctx, query, email).Scan(&id, &hash)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", apperr.Auth("verify", errors.New("invalid credentials"))
		}
		return "", apperr.Auth("verify", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", apperr.Auth("verify", errors.New("invalid credentials"))
	}
	return id, nil
}

// UpdatePassword replaces the stored password hash for an identity
func (g *IdentityGateway) UpdatePassword(ctx context.Context, id, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Auth("update-password", err)
	}
	query := `UPDATE credentials SET password_hash = $1 WHERE id = $2`
	result, err := g.db.Exec(ctx, query, string(hash), id)
	if err != nil {
		return apperr.Auth("update-password", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.Auth("update-password", errors.New("no such identity"))
	}
	return nil
}

// SetDisplayName sets the human-facing display name on the identity record
func (g *IdentityGateway) SetDisplayName(ctx context.Context, id, name string) error {
	query := `UPDATE credentials SET display_name = $1 WHERE id = $2`
	result, err := g.db.Exec(ctx, query, name, id)
	if err != nil {
		return apperr.Auth("set-display-name", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.Auth("set-display-name", errors.New("no such identity"))
	}
	return nil
}

// Lookup retrieves the identity-service fields for an id
func (g *IdentityGateway) Lookup(ctx context.Context, id string) (*Credential, error) {
	query := `SELECT id, email, display_name, created_at FROM credentials WHERE id = $1`
	var cred Credential
	err := g.db.QueryRow(ctx, query, id).Scan(&cred.ID, &cred.Email, &cred.DisplayName, &cred.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.Auth("lookup", errors.New("no such identity"))
		}
		return nil, apperr.Auth("lookup", err)
	}
	return &cred, nil
}

// DeleteCredential removes an identity. After this the email can no longer
// authenticate.
func (g *IdentityGateway) DeleteCredential(ctx context.Context, id string) error {
	query := `DELETE FROM credentials WHERE id = $1`
	result, err := g.db.Exec(ctx, query, id)
	if err != nil {
		return apperr.Auth("delete-credential", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.Auth("delete-credential", errors.New("no such identity"))
	}
	return nil
}
