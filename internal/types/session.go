// Package types holds the shared data model for the NoVo service.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one transcript line. Immutable once appended to a session.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one voice conversation, created when a connection opens and
// closed on disconnect.
type Session struct {
	ID        string     `json:"id"`
	IPAddress string     `json:"ipAddress"`
	UserAgent string     `json:"userAgent,omitempty"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Messages  []Message  `json:"messages"`
}

// NewSessionID returns a timestamp-prefixed session ID so stored keys sort
// by creation time.
func NewSessionID(now time.Time) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), suffix)
}
