package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/novolabs/novo/internal/cache"
	"github.com/novolabs/novo/internal/types"
)

// NewMemoryStore returns a Store backed entirely by process memory.
func NewMemoryStore(pendingTTL time.Duration) *Store {
	return &Store{
		Sessions: &memorySessionStore{sessions: make(map[string]*types.Session)},
		Users:    &memoryUserStore{profiles: make(map[string]*types.UserProfile)},
		Pending:  &memoryPendingStore{calls: cache.New[types.PendingToolCall](pendingTTL)},
		driver:   "memory",
	}
}

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session
}

func (s *memorySessionStore) Create(ctx context.Context, session *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := cloneSession(session)
	s.sessions[session.ID] = &copied
	return nil
}

func (s *memorySessionStore) Get(ctx context.Context, id string) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := cloneSession(session)
	return &copied, nil
}

func (s *memorySessionStore) AppendMessage(ctx context.Context, id string, msg types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	session.Messages = append(session.Messages, msg)
	return nil
}

func (s *memorySessionStore) End(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	session.EndTime = &at
	return nil
}

func (s *memorySessionStore) List(ctx context.Context, limit int) ([]types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, cloneSession(session))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memoryUserStore struct {
	mu       sync.RWMutex
	profiles map[string]*types.UserProfile
}

func (s *memoryUserStore) Get(ctx context.Context, ip string) (*types.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[ip]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProfile(profile), nil
}

func (s *memoryUserStore) Put(ctx context.Context, profile *types.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.IPAddress] = cloneProfile(profile)
	return nil
}

func (s *memoryUserStore) List(ctx context.Context) ([]types.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.UserProfile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		out = append(out, *cloneProfile(profile))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out, nil
}

// cloneProfile copies the profile and its slices so an append on one side
// of the store boundary never writes into the other's backing array.
func cloneProfile(profile *types.UserProfile) *types.UserProfile {
	copied := *profile
	copied.Interests = append([]string(nil), profile.Interests...)
	copied.Notes = append([]string(nil), profile.Notes...)
	copied.History = append([]string(nil), profile.History...)
	return &copied
}

type memoryPendingStore struct {
	calls *cache.Cache[types.PendingToolCall]
}

func (s *memoryPendingStore) Put(ctx context.Context, call types.PendingToolCall) error {
	s.calls.Set(call.ToolCallID, call)
	return nil
}

func (s *memoryPendingStore) TakeAll(ctx context.Context) ([]types.PendingToolCall, error) {
	var out []types.PendingToolCall
	for _, key := range s.calls.Keys() {
		if call, ok := s.calls.Take(key); ok {
			out = append(out, call)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func cloneSession(s *types.Session) types.Session {
	copied := *s
	copied.Messages = append([]types.Message(nil), s.Messages...)
	if s.EndTime != nil {
		end := *s.EndTime
		copied.EndTime = &end
	}
	return copied
}
