// Package storetest provides in-memory implementations of the service
// store interfaces.  They follow the MySQL repositories' error contract
// (repository.ErrNotFound, ErrDuplicate, ErrInUse) so service and
// handler tests run without a database.
package storetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
)

func now() time.Time { return time.Now().UTC().Truncate(time.Second) }

type Users struct {
	mu   sync.Mutex
	rows map[uint64]model.User
	next uint64
}

func NewUsers() *Users { return &Users{rows: map[uint64]model.User{}} }

func (s *Users) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.Email == u.Email {
			return errors.Join(repository.ErrEmailExists, repository.ErrDuplicate)
		}
		if r.Username == u.Username {
			return errors.Join(repository.ErrUsernameExists, repository.ErrDuplicate)
		}
	}
	s.next++
	u.ID = s.next
	u.CreatedAt, u.UpdatedAt = now(), now()
	s.rows[u.ID] = *u
	return nil
}

func (s *Users) find(match func(model.User) bool) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if match(r) {
			return r, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	return s.find(func(u model.User) bool { return u.Email == email })
}

func (s *Users) GetByUsername(_ context.Context, username string) (model.User, error) {
	return s.find(func(u model.User) bool { return u.Username == username })
}

func (s *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	return s.find(func(u model.User) bool { return u.ID == id })
}

func (s *Users) MarkVerified(_ context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[id]
	if !ok || u.IsVerified {
		return false, nil
	}
	u.IsVerified = true
	s.rows[id] = u
	return true, nil
}

func (s *Users) UpdatePassword(_ context.Context, id uint64, hash string) error {
	return s.Update(id, func(u *model.User) { u.PasswordHash = hash })
}

// Update edits a stored user in place, for test setup.
func (s *Users) Update(id uint64, fn func(*model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = now()
	s.rows[id] = u
	return nil
}

type tokenRow struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

type Tokens struct {
	mu   sync.Mutex
	rows map[string]tokenRow
}

func NewTokens() *Tokens { return &Tokens{rows: map[string]tokenRow{}} }

func (s *Tokens) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[tokenHash]; ok {
		return repository.ErrDuplicate
	}
	s.rows[tokenHash] = tokenRow{userID: userID, exp: exp}
	return nil
}

func (s *Tokens) live(hash string) (tokenRow, bool) {
	r, ok := s.rows[hash]
	return r, ok && !r.revoked && time.Now().Before(r.exp)
}

func (s *Tokens) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.live(tokenHash)
	if !ok {
		return 0, repository.ErrNotFound
	}
	return r.userID, nil
}

func (s *Tokens) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.live(tokenHash)
	if !ok {
		return repository.ErrNotFound
	}
	r.revoked = true
	s.rows[tokenHash] = r
	return nil
}

func (s *Tokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, r := range s.rows {
		if r.userID == userID {
			r.revoked = true
			s.rows[h] = r
		}
	}
	return nil
}
