package models

import "time"

type ShareType string

const (
	ShareTypeJSON ShareType = "json"
	ShareTypeText ShareType = "text"
)

func (t ShareType) Valid() bool {
	return t == ShareTypeJSON || t == ShareTypeText
}

type Mode string

const (
	ModeVisualize Mode = "visualize"
	ModeTree      Mode = "tree"
	ModeFormatter Mode = "formatter"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeVisualize, ModeTree, ModeFormatter:
		return true
	}
	return false
}

type AccessType string

const (
	AccessEditor AccessType = "editor"
	AccessViewer AccessType = "viewer"
)

func (a AccessType) Valid() bool {
	return a == AccessEditor || a == AccessViewer
}

// Share is a persisted payload leased for a fixed TTL from CreatedAt.
type Share struct {
	Slug         string     `json:"slug"`
	Type         ShareType  `json:"type"`
	Content      string     `json:"content"`
	Mode         Mode       `json:"mode"`
	IsPrivate    bool       `json:"is_private"`
	AccessType   AccessType `json:"access_type"`
	PasswordHash *string    `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Expired reports whether the lease has run out at now.
func (s *Share) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && !now.Before(s.CreatedAt.Add(ttl))
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (s *Share) Clone() *Share {
	if s == nil {
		return nil
	}
	cp := *s
	if s.PasswordHash != nil {
		hash := *s.PasswordHash
		cp.PasswordHash = &hash
	}
	return &cp
}
