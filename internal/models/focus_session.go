package models

import "time"

// FocusSession is one hold of the potato, recorded for the accounting side.
// A session is created when heating starts and completed on a successful
// toss; cancelled or reclaimed sessions stay incomplete.
type FocusSession struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          string     `gorm:"size:36;not null;index" json:"user_id"`
	User            User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	RoomCode        string     `gorm:"size:20;index" json:"room_code"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int        `gorm:"not null;default:0" json:"duration_seconds"`
	WasCompleted    bool       `gorm:"not null;default:false" json:"was_completed"`
	JoulesEarned    int        `gorm:"not null;default:0" json:"joules_earned"`
}
