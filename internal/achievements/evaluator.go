package achievements

import (
	"errors"
	"log"
	"time"

	"github.com/slimtribe/slimtribe-api/internal/models"
	"gorm.io/gorm"
)

type Evaluator struct {
	db      *gorm.DB
	catalog []Rule
}

// NewEvaluator builds an evaluator over an explicit catalog. The catalog is
// read-mostly shared state loaded once at process start.
func NewEvaluator(db *gorm.DB, catalog []Rule) *Evaluator {
	return &Evaluator{db: db, catalog: catalog}
}

// Seed upserts the catalog into the achievements table. Safe to run on every
// startup; existing rows keep their IDs.
func Seed(db *gorm.DB, catalog []Rule) error {
	for _, rule := range catalog {
		achievement := models.Achievement{Name: rule.Name}
		err := db.Where(models.Achievement{Name: rule.Name}).
			Attrs(models.Achievement{
				Description: rule.Description,
				Points:      rule.Points,
				IsHidden:    rule.Hidden,
			}).
			FirstOrCreate(&achievement).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// Evaluate walks the catalog in order and awards every rule that matches the
// facts and is not already held. Returns the newly earned achievements.
// Already-unlocked rules are skipped, so repeated evaluation is idempotent.
func (e *Evaluator) Evaluate(userID uint, facts Facts) ([]models.Achievement, error) {
	var catalog []models.Achievement
	if err := e.db.Find(&catalog).Error; err != nil {
		return nil, err
	}
	byName := make(map[string]models.Achievement, len(catalog))
	for _, a := range catalog {
		byName[a.Name] = a
	}

	var held []models.UserAchievement
	if err := e.db.Where("user_id = ?", userID).Find(&held).Error; err != nil {
		return nil, err
	}
	heldIDs := make(map[uint]bool, len(held))
	for _, h := range held {
		heldIDs[h.AchievementID] = true
	}

	var earned []models.Achievement
	for _, rule := range e.catalog {
		achievement, ok := byName[rule.Name]
		if !ok {
			// Catalog row missing; seeding should have created it.
			log.Printf("achievement %q not seeded, skipping", rule.Name)
			continue
		}
		if heldIDs[achievement.ID] {
			continue
		}
		if rule.Predicate == nil || !rule.Predicate(facts) {
			continue
		}

		granted, err := e.Award(userID, achievement.ID)
		if err != nil {
			return nil, err
		}
		if granted {
			earned = append(earned, achievement)
		}
	}
	return earned, nil
}

// Award records one achievement grant. The (user_id, achievement_id)
// uniqueness index enforces at-most-one award per user per achievement; a
// duplicate attempt reports AlreadyHeld as (false, nil), not an error.
// AwardedAt is set at first grant and never updated.
func (e *Evaluator) Award(userID, achievementID uint) (bool, error) {
	var existing models.UserAchievement
	err := e.db.Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	grant := models.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		AwardedAt:     time.Now(),
	}
	if err := e.db.Create(&grant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
