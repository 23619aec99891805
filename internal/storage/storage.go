// Package storage persists sessions, user profiles and pending tool calls.
// Drivers: in-memory, Redis and PostgreSQL, selected at startup.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/novolabs/novo/internal/config"
	"github.com/novolabs/novo/internal/types"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("storage: not found")

// SessionStore manages conversation sessions.
type SessionStore interface {
	Create(ctx context.Context, session *types.Session) error
	Get(ctx context.Context, id string) (*types.Session, error)
	AppendMessage(ctx context.Context, id string, msg types.Message) error
	End(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, limit int) ([]types.Session, error)
}

// UserStore manages IP-keyed user profiles.
type UserStore interface {
	Get(ctx context.Context, ip string) (*types.UserProfile, error)
	Put(ctx context.Context, profile *types.UserProfile) error
	List(ctx context.Context) ([]types.UserProfile, error)
}

// PendingStore holds tool calls awaiting client pickup. Entries expire.
type PendingStore interface {
	Put(ctx context.Context, call types.PendingToolCall) error
	TakeAll(ctx context.Context) ([]types.PendingToolCall, error)
}

// Store bundles the three stores behind one handle.
type Store struct {
	Sessions SessionStore
	Users    UserStore
	Pending  PendingStore

	driver string
	close  func() error
}

// Driver returns the name of the selected backend.
func (s *Store) Driver() string {
	return s.driver
}

// Close releases the backing connection, if any.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open selects a driver from config: DATABASE_URL wins, then REDIS_URL,
// otherwise everything stays in process memory.
func Open(ctx context.Context, cfg config.Config) (*Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		return openPostgres(ctx, cfg)
	case cfg.RedisURL != "":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return &Store{
			Sessions: newRedisSessionStore(client, cfg.SessionTTL),
			Users:    newRedisUserStore(client),
			Pending:  newRedisPendingStore(client, cfg.PendingTTL),
			driver:   "redis",
			close:    client.Close,
		}, nil
	default:
		return NewMemoryStore(cfg.PendingTTL), nil
	}
}

// MatchCriteria are the fields compared by MatchProfiles.
type MatchCriteria struct {
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// MatchProfiles returns profiles agreeing with the criteria on at least two
// of email, name, location and phone. Comparison is case-insensitive.
func MatchProfiles(profiles []types.UserProfile, criteria MatchCriteria) []types.UserProfile {
	var matched []types.UserProfile
	for _, p := range profiles {
		score := 0
		if fieldEqual(p.Email, criteria.Email) {
			score++
		}
		if fieldEqual(p.Name, criteria.Name) {
			score++
		}
		if fieldEqual(p.Location, criteria.Location) {
			score++
		}
		if fieldEqual(p.Phone, criteria.Phone) {
			score++
		}
		if score >= 2 {
			matched = append(matched, p)
		}
	}
	return matched
}

// MergeProfiles folds src into dst, keeping dst's values where both are set
// and accumulating notes, history and visit counts.
func MergeProfiles(dst, src *types.UserProfile) {
	update := types.ProfileUpdate{
		Name:               src.Name,
		Email:              src.Email,
		Phone:              src.Phone,
		Birthday:           src.Birthday,
		Age:                src.Age,
		Occupation:         src.Occupation,
		Employer:           src.Employer,
		Location:           src.Location,
		RelationshipStatus: src.RelationshipStatus,
	}
	merged := *dst
	update.Apply(&merged)
	// dst's own values win on conflict.
	fromDst := types.ProfileUpdate{
		Name:               dst.Name,
		Email:              dst.Email,
		Phone:              dst.Phone,
		Birthday:           dst.Birthday,
		Age:                dst.Age,
		Occupation:         dst.Occupation,
		Employer:           dst.Employer,
		Location:           dst.Location,
		RelationshipStatus: dst.RelationshipStatus,
	}
	fromDst.Apply(&merged)

	merged.Interests = appendUnique(dst.Interests, src.Interests)
	merged.Notes = appendUnique(dst.Notes, src.Notes)
	merged.History = appendUnique(dst.History, src.History)
	merged.VisitCount = dst.VisitCount + src.VisitCount
	if src.FirstSeen.Before(dst.FirstSeen) && !src.FirstSeen.IsZero() {
		merged.FirstSeen = src.FirstSeen
	}
	if src.LastSeen.After(dst.LastSeen) {
		merged.LastSeen = src.LastSeen
	}
	merged.IdentityConfirmed = dst.IdentityConfirmed || src.IdentityConfirmed
	*dst = merged
}

func fieldEqual(a, b string) bool {
	a = strings.TrimSpace(strings.ToLower(a))
	b = strings.TrimSpace(strings.ToLower(b))
	return a != "" && a == b
}

func appendUnique(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	out := append([]string(nil), dst...)
	for _, v := range src {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}
