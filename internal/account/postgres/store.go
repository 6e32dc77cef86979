// Package postgres stores accounts and the admin registry in Postgres.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"sso-service/internal/account"
	"sso-service/internal/db"

	"github.com/google/uuid"
)

// Store implements account.Store and account.AdminRegistry.
type Store struct {
	db *db.DB
}

var (
	_ account.Store         = (*Store)(nil)
	_ account.AdminRegistry = (*Store)(nil)
)

func NewStore(db *db.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindIDByExternalID(ctx context.Context, externalID string) (string, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT id
		FROM public.users
		WHERE external_id = $1
	`, externalID).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return "", account.ErrNotFound
	}
	if err != nil {
		return "", wrap("find by external id", err)
	}

	return id.String(), nil
}

func (s *Store) FindIDByEmail(ctx context.Context, email string) (string, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT id
		FROM public.users
		WHERE LOWER(email) = LOWER($1)
		  AND external_id IS NULL
		ORDER BY created_at
		LIMIT 1
	`, email).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return "", account.ErrNotFound
	}
	if err != nil {
		return "", wrap("find by email", err)
	}

	return id.String(), nil
}

func (s *Store) Insert(ctx context.Context, a *account.Account) (string, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO public.users (
			external_id, username, email, given_name, family_name,
			credential_hash, hash_version, locale, timezone, city, country,
			suspended, confirmed
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`,
		nullable(a.ExternalID),
		a.Username,
		a.Email,
		a.GivenName,
		a.FamilyName,
		a.CredentialHash,
		a.HashVersion,
		a.Locale,
		a.Timezone,
		a.City,
		a.Country,
		a.Suspended,
		a.Confirmed,
	).Scan(&id)

	if err != nil {
		return "", wrap("insert", err)
	}

	return id.String(), nil
}

func (s *Store) UpdateSoftFields(ctx context.Context, id string, f account.SoftFields) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE public.users
		SET username = $2,
		    email = $3,
		    given_name = $4,
		    family_name = $5,
		    updated_at = NOW()
		WHERE id = $1
	`, id, f.Username, f.Email, f.GivenName, f.FamilyName)
	if err != nil {
		return false, wrap("update soft fields", err)
	}

	return affectedOne(res, "update soft fields")
}

func (s *Store) LinkExternalID(ctx context.Context, id string, externalID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE public.users
		SET external_id = $2,
		    updated_at = NOW()
		WHERE id = $1
		  AND external_id IS NULL
	`, id, externalID)
	if err != nil {
		return false, wrap("link external id", err)
	}

	return affectedOne(res, "link external id")
}

func (s *Store) Get(ctx context.Context, id string) (*account.Account, error) {
	var (
		a          account.Account
		externalID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, external_id, username, email, given_name, family_name,
		       credential_hash, hash_version, locale, timezone, city, country,
		       suspended, confirmed, created_at, updated_at
		FROM public.users
		WHERE id = $1
	`, id).Scan(
		&a.ID, &externalID, &a.Username, &a.Email, &a.GivenName, &a.FamilyName,
		&a.CredentialHash, &a.HashVersion, &a.Locale, &a.Timezone, &a.City, &a.Country,
		&a.Suspended, &a.Confirmed, &a.CreatedAt, &a.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, wrap("get", err)
	}

	a.ExternalID = externalID.String
	return &a, nil
}

func (s *Store) AddAdmin(ctx context.Context, accountID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO public.site_admins (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, accountID)
	if err != nil {
		return false, wrap("add admin", err)
	}

	return affectedOne(res, "add admin")
}

func (s *Store) IsAdmin(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM public.site_admins WHERE user_id = $1
		)
	`, accountID).Scan(&exists)
	if err != nil {
		return false, wrap("is admin", err)
	}

	return exists, nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id
		FROM public.site_admins
		ORDER BY position
	`)
	if err != nil {
		return nil, wrap("list admins", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("list admins", err)
		}
		ids = append(ids, id.String())
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list admins", err)
	}

	return ids, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func affectedOne(res sql.Result, op string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap(op, err)
	}
	return n == 1, nil
}
