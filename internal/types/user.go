package types

import "time"

// UserProfile is the per-visitor record. It is keyed by client IP address,
// which is a weak identity primitive (NAT, dynamic IPs and proxies collide
// or rotate); the match endpoint exists because duplicates accumulate.
type UserProfile struct {
	IPAddress          string    `json:"ipAddress"`
	Name               string    `json:"name,omitempty"`
	Email              string    `json:"email,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Birthday           string    `json:"birthday,omitempty"`
	Age                string    `json:"age,omitempty"`
	Occupation         string    `json:"occupation,omitempty"`
	Employer           string    `json:"employer,omitempty"`
	Location           string    `json:"location,omitempty"`
	RelationshipStatus string    `json:"relationshipStatus,omitempty"`
	Interests          []string  `json:"interests,omitempty"`
	Notes              []string  `json:"notes,omitempty"`
	History            []string  `json:"history,omitempty"`
	IdentityConfirmed  bool      `json:"identityConfirmed,omitempty"`
	FirstSeen          time.Time `json:"firstSeen"`
	LastSeen           time.Time `json:"lastSeen"`
	VisitCount         int       `json:"visitCount"`
}

// ProfileUpdate carries fields extracted from chat text. Zero-valued fields
// are left untouched on merge.
type ProfileUpdate struct {
	Name               string
	Email              string
	Phone              string
	Birthday           string
	Age                string
	Occupation         string
	Employer           string
	Location           string
	RelationshipStatus string
}

// Empty reports whether the update carries no fields.
func (u ProfileUpdate) Empty() bool {
	return u == ProfileUpdate{}
}

// Apply merges the update into the profile, overwriting only matched fields.
func (u ProfileUpdate) Apply(p *UserProfile) {
	if u.Name != "" {
		p.Name = u.Name
	}
	if u.Email != "" {
		p.Email = u.Email
	}
	if u.Phone != "" {
		p.Phone = u.Phone
	}
	if u.Birthday != "" {
		p.Birthday = u.Birthday
	}
	if u.Age != "" {
		p.Age = u.Age
	}
	if u.Occupation != "" {
		p.Occupation = u.Occupation
	}
	if u.Employer != "" {
		p.Employer = u.Employer
	}
	if u.Location != "" {
		p.Location = u.Location
	}
	if u.RelationshipStatus != "" {
		p.RelationshipStatus = u.RelationshipStatus
	}
}
