package models

import "time"

type User struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	Nickname           string    `gorm:"size:50;not null" json:"nickname"`
	TotalJoules        int       `gorm:"not null;default:0" json:"total_joules"`
	TotalPotatoesBaked int       `gorm:"not null;default:0" json:"total_potatoes_baked"`
	TotalTosses        int       `gorm:"not null;default:0" json:"total_tosses"`
	CurrentStreak      int       `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak      int       `gorm:"not null;default:0" json:"longest_streak"`
	LastActive         time.Time `json:"last_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
