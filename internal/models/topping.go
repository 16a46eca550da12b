package models

import "time"

// Topping is an earnable badge. Requirement types map onto the user stat
// counters: potatoes_baked, tosses, joules, streak.
type Topping struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description      string    `json:"description"`
	Icon             string    `gorm:"size:50" json:"icon"`
	RequirementType  string    `gorm:"size:50" json:"requirement_type"`
	RequirementValue int       `json:"requirement_value"`
	CreatedAt        time.Time `json:"created_at"`
}

type UserTopping struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_user_topping" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ToppingID uint      `gorm:"not null;uniqueIndex:idx_user_topping" json:"topping_id"`
	Topping   Topping   `gorm:"foreignKey:ToppingID;constraint:OnDelete:CASCADE" json:"topping"`
	EarnedAt  time.Time `json:"earned_at"`
}
