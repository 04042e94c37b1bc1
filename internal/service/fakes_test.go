package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/storefront-auth/internal/domain"
	"github.com/prperemyshlev/storefront-auth/internal/notification"
	"github.com/prperemyshlev/storefront-auth/internal/repository"
)

// memStore is an in-memory credential store. Transactions run one at a time
// and WithinTx restores a snapshot when fn fails.
type memStore struct {
	txMu    sync.Mutex
	mu      sync.Mutex
	users   map[string]domain.User
	devices map[string]domain.Device
	tokens  map[string]domain.SpecialToken

	// trustErr, when set, fails the next device upsert.
	trustErr error
}

var _ repository.Transactor = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]domain.User{},
		devices: map[string]domain.Device{},
		tokens:  map[string]domain.SpecialToken{},
	}
}

func (m *memStore) repos() *repository.Repositories {
	return &repository.Repositories{
		User:         &memUsers{m},
		Device:       &memDevices{m},
		SpecialToken: &memTokens{m},
	}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	users, devices, tokens := cloneMap(m.users), cloneMap(m.devices), cloneMap(m.tokens)
	m.mu.Unlock()

	if err := fn(ctx, m.repos()); err != nil {
		m.mu.Lock()
		m.users, m.devices, m.tokens = users, devices, tokens
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memStore) tokenCount(provider domain.SpecialProvider) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tokens {
		if t.Provider == provider {
			n++
		}
	}
	return n
}

func (m *memStore) deviceFor(userID, ip string) (domain.Device, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.devices {
		if d.UserID == userID && d.IP == ip {
			return d, true
		}
	}
	return domain.Device{}, false
}

type memUsers struct{ m *memStore }

func (r *memUsers) Create(_ context.Context, user *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, u := range r.m.users {
		if eqPtr(u.Email, user.Email) || eqPtr(u.UserName, user.UserName) ||
			(eqPtr(u.PhoneNumber, user.PhoneNumber) && eqPtr(u.CountryCode, user.CountryCode)) {
			return repository.ErrDuplicateUser
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt
	r.m.users[user.ID] = *user
	return nil
}

func (r *memUsers) find(match func(domain.User) bool) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id })
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email != nil && *u.Email == email })
}

func (r *memUsers) GetByUserName(_ context.Context, userName string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.UserName != nil && *u.UserName == userName })
}

func (r *memUsers) GetByPhone(_ context.Context, phoneNumber, countryCode string) (*domain.User, error) {
	return r.find(func(u domain.User) bool {
		return u.PhoneNumber != nil && *u.PhoneNumber == phoneNumber &&
			u.CountryCode != nil && *u.CountryCode == countryCode
	})
}

func (r *memUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	r.m.users[id] = u
	return nil
}

func (r *memUsers) UpdateProfile(_ context.Context, user *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	u.DisplayName, u.Bio, u.Address, u.Birthday = user.DisplayName, user.Bio, user.Address, user.Birthday
	r.m.users[user.ID] = u
	return nil
}

type memDevices struct{ m *memStore }

func (r *memDevices) GetByID(_ context.Context, id string) (*domain.Device, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	d, ok := r.m.devices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *memDevices) GetByUserAndIP(_ context.Context, userID, ip string) (*domain.Device, error) {
	if d, ok := r.m.deviceFor(userID, ip); ok {
		return &d, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memDevices) Trust(_ context.Context, userID, ip, userAgent string) (*domain.Device, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if err := r.m.trustErr; err != nil {
		r.m.trustErr = nil
		return nil, err
	}

	now := time.Now()
	for id, d := range r.m.devices {
		if d.UserID == userID && d.IP == ip {
			d.Allow = true
			d.UpdatedAt = now
			r.m.devices[id] = d
			return &d, nil
		}
	}

	d := domain.Device{
		ID:        uuid.NewString(),
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		Allow:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.m.devices[d.ID] = d
	return &d, nil
}

type memTokens struct{ m *memStore }

func (r *memTokens) GetByID(_ context.Context, id string) (*domain.SpecialToken, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tokens[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *memTokens) Consume(_ context.Context, id string, provider domain.SpecialProvider) (*domain.SpecialToken, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tokens[id]
	if !ok || t.Provider != provider {
		return nil, repository.ErrNotFound
	}
	delete(r.m.tokens, id)
	return &t, nil
}

func (r *memTokens) deleteWhere(match func(domain.SpecialToken) bool) int64 {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, t := range r.m.tokens {
		if match(t) {
			delete(r.m.tokens, id)
			n++
		}
	}
	return n
}

func (r *memTokens) Replace(_ context.Context, token *domain.SpecialToken) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	sameOwner := func(t domain.SpecialToken) bool {
		if t.Provider != token.Provider {
			return false
		}
		if token.UserID != nil {
			return eqPtr(t.UserID, token.UserID)
		}
		return t.UserID == nil && eqPtr(t.PhoneNumber, token.PhoneNumber) && eqPtr(t.CountryCode, token.CountryCode)
	}
	for id, t := range r.m.tokens {
		if sameOwner(t) {
			delete(r.m.tokens, id)
		}
	}

	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	r.m.tokens[token.ID] = *token
	return nil
}

func (r *memTokens) DeleteExpired(_ context.Context) (int64, error) {
	now := time.Now()
	return r.deleteWhere(func(t domain.SpecialToken) bool { return t.ExpiresAt.Before(now) }), nil
}

func eqPtr(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

type sentMessage struct {
	to   string
	body string
}

// captureSink records messages instead of sending them
type captureSink struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (c *captureSink) Send(_ context.Context, phoneE164, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sentMessage{to: phoneE164, body: message})
	return nil
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *captureSink) last(t *testing.T) sentMessage {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatal("no message was sent")
	}
	return c.sent[len(c.sent)-1]
}

// lastCode extracts the OTP from the last message
func (c *captureSink) lastCode(t *testing.T) string {
	t.Helper()
	return strings.TrimPrefix(c.last(t).body, notification.OTPMessage(""))
}
