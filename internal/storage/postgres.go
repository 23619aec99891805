package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/novolabs/novo/internal/config"
	"github.com/novolabs/novo/internal/types"
)

// sessionModel maps to the sessions table. Messages are stored as a JSON
// column to keep the key-value shape of the record.
type sessionModel struct {
	ID        string `gorm:"primaryKey"`
	IPAddress string
	UserAgent string
	StartTime time.Time
	EndTime   *time.Time
	Messages  []byte
}

func (sessionModel) TableName() string {
	return "sessions"
}

type userModel struct {
	IPAddress string `gorm:"primaryKey"`
	Profile   []byte
	LastSeen  time.Time
}

func (userModel) TableName() string {
	return "user_profiles"
}

type pendingModel struct {
	ToolCallID string `gorm:"primaryKey"`
	Name       string
	Parameters string
	Timestamp  time.Time
	ExpiresAt  time.Time
}

func (pendingModel) TableName() string {
	return "pending_tool_calls"
}

func openPostgres(ctx context.Context, cfg config.Config) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&sessionModel{}, &userModel{}, &pendingModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{
		Sessions: &pgSessionStore{db: db},
		Users:    &pgUserStore{db: db},
		Pending:  &pgPendingStore{db: db, ttl: cfg.PendingTTL},
		driver:   "postgres",
		close:    sqlDB.Close,
	}, nil
}

type pgSessionStore struct {
	db *gorm.DB
}

func (s *pgSessionStore) Create(ctx context.Context, session *types.Session) error {
	record, err := sessionToModel(session)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *pgSessionStore) Get(ctx context.Context, id string) (*types.Session, error) {
	var record sessionModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if record.ID == "" {
		return nil, ErrNotFound
	}
	return sessionFromModel(record)
}

func (s *pgSessionStore) AppendMessage(ctx context.Context, id string, msg types.Message) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	session.Messages = append(session.Messages, msg)
	encoded, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}
	if err := s.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("id = ?", id).
		Update("messages", encoded).Error; err != nil {
		return fmt.Errorf("failed to update session messages: %w", err)
	}
	return nil
}

func (s *pgSessionStore) End(ctx context.Context, id string, at time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("id = ?", id).
		Update("end_time", at)
	if result.Error != nil {
		return fmt.Errorf("failed to end session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgSessionStore) List(ctx context.Context, limit int) ([]types.Session, error) {
	query := s.db.WithContext(ctx).Order("start_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []sessionModel
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	out := make([]types.Session, 0, len(records))
	for _, record := range records {
		session, err := sessionFromModel(record)
		if err != nil {
			continue
		}
		out = append(out, *session)
	}
	return out, nil
}

type pgUserStore struct {
	db *gorm.DB
}

func (s *pgUserStore) Get(ctx context.Context, ip string) (*types.UserProfile, error) {
	var record userModel
	if err := s.db.WithContext(ctx).Where("ip_address = ?", ip).Limit(1).Find(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	if record.IPAddress == "" {
		return nil, ErrNotFound
	}
	var profile types.UserProfile
	if err := json.Unmarshal(record.Profile, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

func (s *pgUserStore) Put(ctx context.Context, profile *types.UserProfile) error {
	encoded, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	record := userModel{IPAddress: profile.IPAddress, Profile: encoded, LastSeen: profile.LastSeen}
	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

func (s *pgUserStore) List(ctx context.Context) ([]types.UserProfile, error) {
	var records []userModel
	if err := s.db.WithContext(ctx).Order("last_seen DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	out := make([]types.UserProfile, 0, len(records))
	for _, record := range records {
		var profile types.UserProfile
		if err := json.Unmarshal(record.Profile, &profile); err != nil {
			continue
		}
		out = append(out, profile)
	}
	return out, nil
}

type pgPendingStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func (s *pgPendingStore) Put(ctx context.Context, call types.PendingToolCall) error {
	ttl := s.ttl
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	record := pendingModel{
		ToolCallID: call.ToolCallID,
		Name:       call.Name,
		Parameters: call.Parameters,
		Timestamp:  call.Timestamp,
		ExpiresAt:  time.Now().Add(ttl),
	}
	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return fmt.Errorf("failed to store pending call: %w", err)
	}
	return nil
}

func (s *pgPendingStore) TakeAll(ctx context.Context) ([]types.PendingToolCall, error) {
	now := time.Now()
	var records []pendingModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at > ?", now).Order("timestamp ASC").Find(&records).Error; err != nil {
			return fmt.Errorf("failed to query pending calls: %w", err)
		}
		// Delete only what was selected plus expired rows; a call stored
		// between the two statements must survive for the next poll.
		ids := make([]string, 0, len(records))
		for _, record := range records {
			ids = append(ids, record.ToolCallID)
		}
		del := tx.Where("expires_at <= ?", now)
		if len(ids) > 0 {
			del = del.Or("tool_call_id IN ?", ids)
		}
		if err := del.Delete(&pendingModel{}).Error; err != nil {
			return fmt.Errorf("failed to consume pending calls: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]types.PendingToolCall, 0, len(records))
	for _, record := range records {
		out = append(out, types.PendingToolCall{
			ToolCallID: record.ToolCallID,
			Name:       record.Name,
			Parameters: record.Parameters,
			Timestamp:  record.Timestamp,
		})
	}
	return out, nil
}

func sessionToModel(session *types.Session) (sessionModel, error) {
	encoded, err := json.Marshal(session.Messages)
	if err != nil {
		return sessionModel{}, fmt.Errorf("failed to encode messages: %w", err)
	}
	return sessionModel{
		ID:        session.ID,
		IPAddress: session.IPAddress,
		UserAgent: session.UserAgent,
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
		Messages:  encoded,
	}, nil
}

func sessionFromModel(record sessionModel) (*types.Session, error) {
	session := types.Session{
		ID:        record.ID,
		IPAddress: record.IPAddress,
		UserAgent: record.UserAgent,
		StartTime: record.StartTime,
		EndTime:   record.EndTime,
		Messages:  []types.Message{},
	}
	if len(record.Messages) > 0 {
		if err := json.Unmarshal(record.Messages, &session.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode messages: %w", err)
		}
	}
	return &session, nil
}
