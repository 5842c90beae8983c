package models

import "time"

// Session is a stored web session, used when sessions live in the application database.
type Session struct {
	ID        string `gorm:"primaryKey;size:64"`
	Data      []byte
	ExpiresAt *time.Time `gorm:"index"`
}

// TableName of Session.
func (Session) TableName() string {
	return "web_sessions"
}
