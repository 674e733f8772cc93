package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a time-boxed Veeva credential token tied to one configuration.
// Rows are insert-only: newer logins supersede older sessions instead of
// mutating them, and the newest non-expired active row is authoritative.
type Session struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ConfigurationID uuid.UUID `gorm:"type:uuid;not null;index"`
	Token           string    `gorm:"type:text;not null"`
	ExpiresAt       time.Time `gorm:"type:timestamptz;not null"`
	IsActive        bool      `gorm:"type:boolean;not null;default:true"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

// Valid reports whether the session can authenticate upstream calls at t.
func (s Session) Valid(t time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(t)
}
