// memory - потокобезопасное хранилище в памяти процесса.
// Используется при storage.driver=memory и в тестах сервиса.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/unicauca/auth-service/internal/models"
	"github.com/unicauca/auth-service/internal/storage"
)

// Storage хранит учётные записи и refresh-токены под одним мьютексом,
// поэтому сохранение токена и массовый отзыв для аккаунта не пересекаются.
type Storage struct {
	mu sync.RWMutex

	nextID    int64
	accounts  map[int64]*models.Account
	byEmail   map[string]int64
	tokens    map[string]*models.RefreshToken
	byAccount map[int64]map[string]struct{}
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		accounts:  make(map[int64]*models.Account),
		byEmail:   make(map[string]int64),
		tokens:    make(map[string]*models.RefreshToken),
		byAccount: make(map[int64]map[string]struct{}),
	}
}

// SaveAccount создаёт учётную запись и проставляет ей ID.
func (s *Storage) SaveAccount(ctx context.Context, account *models.Account) error {
	const op = "storage.memory.SaveAccount"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	email := strings.ToLower(account.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	s.nextID++
	account.ID = s.nextID
	account.Email = email

	s.accounts[account.ID] = cloneAccount(account)
	s.byEmail[email] = account.ID

	return nil
}

// AccountByEmail находит учётную запись по email.
func (s *Storage) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.memory.AccountByEmail"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return cloneAccount(s.accounts[id]), nil
}

// AccountByID находит учётную запись по ID.
func (s *Storage) AccountByID(ctx context.Context, id int64) (*models.Account, error) {
	const op = "storage.memory.AccountByID"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return cloneAccount(a), nil
}

// DeleteAccount удаляет учётную запись вместе с её токенами.
func (s *Storage) DeleteAccount(ctx context.Context, id int64) error {
	const op = "storage.memory.DeleteAccount"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	for hash := range s.byAccount[id] {
		delete(s.tokens, hash)
	}
	delete(s.byAccount, id)
	delete(s.byEmail, a.Email)
	delete(s.accounts, id)

	return nil
}

// SaveRefreshToken сохраняет новый refresh-токен (только хэш).
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage.memory.SaveRefreshToken"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[token.TokenHash]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	if _, ok := s.accounts[token.AccountID]; !ok {
		return fmt.Errorf("%s: account %d: %w", op, token.AccountID, storage.ErrNotFound)
	}

	cp := *token
	cp.Token = ""
	s.tokens[token.TokenHash] = &cp

	set, ok := s.byAccount[token.AccountID]
	if !ok {
		set = make(map[string]struct{})
		s.byAccount[token.AccountID] = set
	}
	set[token.TokenHash] = struct{}{}

	return nil
}

// RefreshTokenByHash находит refresh-токен по хэшу.
func (s *Storage) RefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	const op = "storage.memory.RefreshTokenByHash"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[hash]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	cp := *t
	return &cp, nil
}

// RevokeRefreshToken помечает токен отозванным.
func (s *Storage) RevokeRefreshToken(ctx context.Context, hash string) (bool, error) {
	const op = "storage.memory.RevokeRefreshToken"

	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[hash]
	if !ok {
		return false, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if t.Revoked {
		return false, nil
	}
	t.Revoked = true

	return true, nil
}

// RevokeAllForAccount отзывает все токены аккаунта и возвращает хэши всех его токенов.
func (s *Storage) RevokeAllForAccount(ctx context.Context, accountID int64) ([]string, error) {
	const op = "storage.memory.RevokeAllForAccount"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var hashes []string
	for hash := range s.byAccount[accountID] {
		t := s.tokens[hash]
		if t == nil {
			continue
		}
		t.Revoked = true
		hashes = append(hashes, hash)
	}

	return hashes, nil
}

// DeleteExpiredTokens удаляет токены с expires_at <= now.
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.memory.DeleteExpiredTokens"

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, t := range s.tokens {
		if !t.ExpiredAt(now) {
			continue
		}
		delete(s.tokens, hash)
		if set := s.byAccount[t.AccountID]; set != nil {
			delete(set, hash)
		}
		n++
	}

	return n, nil
}

// Ping всегда успешен.
func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close ничего не освобождает.
func (s *Storage) Close() {}

func cloneAccount(a *models.Account) *models.Account {
	cp := *a
	cp.Roles = append([]models.Role(nil), a.Roles...)
	return &cp
}

var _ storage.Storage = (*Storage)(nil)
