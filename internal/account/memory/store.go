// Package memory is an in-process account store for development and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"sso-service/internal/account"

	"github.com/google/uuid"
)

// Store implements account.Store and account.AdminRegistry in memory.
// The uniqueness of external ids is enforced the same way the database
// constraint does it.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account
	order    []string
	byExtID  map[string]string
	admins   []string
	isAdmin  map[string]bool
	now      func() time.Time
}

var (
	_ account.Store         = (*Store)(nil)
	_ account.AdminRegistry = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*account.Account),
		byExtID:  make(map[string]string),
		isAdmin:  make(map[string]bool),
		now:      time.Now,
	}
}

func (s *Store) FindIDByExternalID(ctx context.Context, externalID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byExtID[externalID]
	if !ok {
		return "", account.ErrNotFound
	}
	return id, nil
}

func (s *Store) FindIDByEmail(ctx context.Context, email string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		row := s.accounts[id]
		if row.ExternalID == "" && strings.EqualFold(row.Email, email) {
			return id, nil
		}
	}
	return "", account.ErrNotFound
}

func (s *Store) Insert(ctx context.Context, a *account.Account) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ExternalID != "" {
		if _, exists := s.byExtID[a.ExternalID]; exists {
			return "", &account.PersistenceError{
				Op:  "insert",
				Err: fmt.Errorf("%w: %s", account.ErrDuplicateExternalID, a.ExternalID),
			}
		}
	}

	// Store a copy to avoid external modifications
	row := *a
	row.ID = uuid.NewString()
	now := s.now()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now

	s.accounts[row.ID] = &row
	s.order = append(s.order, row.ID)
	if row.ExternalID != "" {
		s.byExtID[row.ExternalID] = row.ID
	}
	return row.ID, nil
}

func (s *Store) UpdateSoftFields(ctx context.Context, id string, f account.SoftFields) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.accounts[id]
	if !ok {
		return false, nil
	}
	row.Username = f.Username
	row.Email = f.Email
	row.GivenName = f.GivenName
	row.FamilyName = f.FamilyName
	row.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) LinkExternalID(ctx context.Context, id string, externalID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.accounts[id]
	if !ok || row.ExternalID != "" {
		return false, nil
	}
	if _, taken := s.byExtID[externalID]; taken {
		return false, &account.PersistenceError{
			Op:  "link external id",
			Err: fmt.Errorf("%w: %s", account.ErrDuplicateExternalID, externalID),
		}
	}
	row.ExternalID = externalID
	row.UpdatedAt = s.now()
	s.byExtID[externalID] = id
	return true, nil
}

func (s *Store) Get(ctx context.Context, id string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	out := *row
	return &out, nil
}

// Count returns the number of stored accounts.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

func (s *Store) AddAdmin(ctx context.Context, accountID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isAdmin[accountID] {
		return false, nil
	}
	s.isAdmin[accountID] = true
	s.admins = append(s.admins, accountID)
	return true, nil
}

func (s *Store) IsAdmin(ctx context.Context, accountID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAdmin[accountID], nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.admins))
	copy(out, s.admins)
	return out, nil
}
