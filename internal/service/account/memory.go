package account

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryUsers keeps accounts in process, for local play and tests.
type MemoryUsers struct {
	mu     sync.RWMutex
	nextID int64
	byName map[string]*User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{byName: make(map[string]*User)}
}

func (m *MemoryUsers) CreateUser(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[user.Username]; ok {
		return fmt.Errorf("%w: %s", ErrUserExists, user.Username)
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	stored := *user
	m.byName[user.Username] = &stored
	return nil
}

func (m *MemoryUsers) GetUserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byName[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (m *MemoryUsers) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.byName {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryUsers) UpdateUser(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[user.Username]; !ok {
		return ErrUserNotFound
	}
	if user.Email != "" {
		for name, u := range m.byName {
			if name != user.Username && strings.EqualFold(u.Email, user.Email) {
				return ErrEmailTaken
			}
		}
	}
	stored := *user
	m.byName[user.Username] = &stored
	return nil
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// MemoryCache is the in-process stand-in for redis.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{value: fmt.Sprint(value)}
	if expiration > 0 {
		e.expires = m.now().Add(expiration)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return "", ErrKeyNotFound
	}
	return e.value, nil
}

func (m *MemoryCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}
