package services

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EthanBrewster/potatodoro/internal/models"
)

// One minute of focus earns ten Joules.
const joulesPerMinute = 10

// CalculateJoules converts a completed hold into accounting units,
// floor-rounded to whole minutes.
func CalculateJoules(elapsed time.Duration) int {
	if elapsed < 0 {
		return 0
	}
	return int(elapsed/time.Minute) * joulesPerMinute
}

// Accounting is the coordinator's view of the external accounting
// collaborator: persistent user stats, session history and badges.
type Accounting interface {
	UpsertUser(ctx context.Context, id, nickname string) error
	StartSession(ctx context.Context, userID, roomCode string) (uint, error)
	CompleteSession(ctx context.Context, sessionID uint, elapsed time.Duration, joules int) error
	RecordToss(ctx context.Context, userID string, joules int) ([]models.Topping, error)
	UserStats(ctx context.Context, userID string) (*models.User, error)
	UserToppings(ctx context.Context, userID string) ([]models.UserTopping, error)
}

type AccountingService struct {
	db *gorm.DB
}

func NewAccountingService(db *gorm.DB) *AccountingService {
	return &AccountingService{db: db}
}

func (s *AccountingService) UpsertUser(ctx context.Context, id, nickname string) error {
	user := models.User{
		ID:         id,
		Nickname:   nickname,
		LastActive: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"nickname":    nickname,
			"last_active": time.Now(),
		}),
	}).Create(&user).Error
}

func (s *AccountingService) StartSession(ctx context.Context, userID, roomCode string) (uint, error) {
	session := models.FocusSession{
		UserID:    userID,
		RoomCode:  roomCode,
		StartedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return 0, err
	}
	return session.ID, nil
}

func (s *AccountingService) CompleteSession(ctx context.Context, sessionID uint, elapsed time.Duration, joules int) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.FocusSession{}).
		Where("id = ? AND was_completed = ?", sessionID, false).
		Updates(map[string]interface{}{
			"ended_at":         now,
			"duration_seconds": int(elapsed.Seconds()),
			"was_completed":    true,
			"joules_earned":    joules,
		}).Error
}

// RecordToss increments the tosser's lifetime counters and awards any
// toppings whose threshold the new totals cross. Awards are idempotent via
// the unique (user, topping) index.
func (s *AccountingService) RecordToss(ctx context.Context, userID string, joules int) ([]models.Topping, error) {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"total_joules":         gorm.Expr("total_joules + ?", joules),
			"total_potatoes_baked": gorm.Expr("total_potatoes_baked + 1"),
			"total_tosses":         gorm.Expr("total_tosses + 1"),
			"last_active":          time.Now(),
		}).Error
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return s.awardToppings(ctx, &user)
}

func (s *AccountingService) awardToppings(ctx context.Context, user *models.User) ([]models.Topping, error) {
	var toppings []models.Topping
	if err := s.db.WithContext(ctx).Find(&toppings).Error; err != nil {
		return nil, err
	}

	var earned []models.Topping
	for _, t := range toppings {
		var progress int
		switch t.RequirementType {
		case "potatoes_baked":
			progress = user.TotalPotatoesBaked
		case "tosses":
			progress = user.TotalTosses
		case "joules":
			progress = user.TotalJoules
		case "streak":
			progress = user.LongestStreak
		default:
			continue
		}
		if progress < t.RequirementValue {
			continue
		}

		award := models.UserTopping{
			UserID:    user.ID,
			ToppingID: t.ID,
			EarnedAt:  time.Now(),
		}
		res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&award)
		if res.Error != nil {
			return earned, res.Error
		}
		if res.RowsAffected > 0 {
			earned = append(earned, t)
		}
	}
	return earned, nil
}

func (s *AccountingService) UserStats(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AccountingService) UserToppings(ctx context.Context, userID string) ([]models.UserTopping, error) {
	var earned []models.UserTopping
	if err := s.db.WithContext(ctx).Preload("Topping").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&earned).Error; err != nil {
		return nil, err
	}
	return earned, nil
}
