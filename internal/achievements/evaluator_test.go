package achievements

import (
	"testing"
	"time"

	"github.com/slimtribe/slimtribe-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	db.AutoMigrate(
		&models.User{}, &models.WeightEntry{}, &models.TeamMember{},
		&models.Challenge{}, &models.ChallengeParticipant{},
		&models.Achievement{}, &models.UserAchievement{},
		&models.Post{}, &models.Message{},
	)
	return db
}

func TestSeedIdempotent(t *testing.T) {
	db := setupDB(t)
	catalog := Catalog()

	if err := Seed(db, catalog); err != nil {
		t.Fatalf("first Seed returned error: %v", err)
	}
	if err := Seed(db, catalog); err != nil {
		t.Fatalf("second Seed returned error: %v", err)
	}

	var count int64
	db.Model(&models.Achievement{}).Count(&count)
	if count != int64(len(catalog)) {
		t.Errorf("expected %d achievements, got %d", len(catalog), count)
	}
}

func TestAwardIdempotent(t *testing.T) {
	db := setupDB(t)
	if err := Seed(db, Catalog()); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}

	user := models.User{Email: "a@example.com"}
	db.Create(&user)

	var achievement models.Achievement
	db.First(&achievement)

	evaluator := NewEvaluator(db, Catalog())

	granted, err := evaluator.Award(user.ID, achievement.ID)
	if err != nil {
		t.Fatalf("first Award returned error: %v", err)
	}
	if !granted {
		t.Fatal("expected first award to be granted")
	}

	var first models.UserAchievement
	db.Where("user_id = ?", user.ID).First(&first)

	granted, err = evaluator.Award(user.ID, achievement.ID)
	if err != nil {
		t.Fatalf("second Award returned error: %v", err)
	}
	if granted {
		t.Error("expected AlreadyHeld no-op on duplicate award")
	}

	var count int64
	db.Model(&models.UserAchievement{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 ledger row, got %d", count)
	}

	var after models.UserAchievement
	db.Where("user_id = ?", user.ID).First(&after)
	if !after.AwardedAt.Equal(first.AwardedAt) {
		t.Errorf("AwardedAt changed: was %v, now %v", first.AwardedAt, after.AwardedAt)
	}
}

func TestAwardLosesInsertRace(t *testing.T) {
	db := setupDB(t)
	if err := Seed(db, Catalog()); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}

	user := models.User{Email: "racer@example.com"}
	db.Create(&user)

	var achievement models.Achievement
	db.First(&achievement)

	evaluator := NewEvaluator(db, Catalog())

	// Sneak a conflicting grant in between the existence probe and the
	// insert, the way a concurrent Award would.
	raced := false
	err := db.Callback().Create().Before("gorm:create").Register("race_grant", func(tx *gorm.DB) {
		if raced {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.UserAchievement); !ok {
			return
		}
		raced = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO user_achievements (created_at, updated_at, user_id, achievement_id, awarded_at) VALUES (?, ?, ?, ?, ?)",
			time.Now(), time.Now(), user.ID, achievement.ID, time.Now(),
		)
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	granted, err := evaluator.Award(user.ID, achievement.ID)
	if err != nil {
		t.Fatalf("Award returned error: %v", err)
	}
	if granted {
		t.Error("expected AlreadyHeld no-op for race loser")
	}
	if !raced {
		t.Fatal("conflicting grant was never inserted")
	}
	var count int64
	db.Model(&models.UserAchievement{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 ledger row, got %d", count)
	}
}

func TestEvaluate(t *testing.T) {
	db := setupDB(t)
	if err := Seed(db, Catalog()); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}

	user := models.User{Email: "b@example.com"}
	db.Create(&user)

	evaluator := NewEvaluator(db, Catalog())

	facts := Facts{TotalEntries: 1, TeamCount: 1}
	earned, err := evaluator.Evaluate(user.ID, facts)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(earned) != 2 {
		t.Fatalf("expected 2 achievements (First Step, Team Player), got %d", len(earned))
	}
	if earned[0].Name != "First Step" {
		t.Errorf("expected catalog order, got %q first", earned[0].Name)
	}

	t.Run("RepeatIsNoop", func(t *testing.T) {
		earned, err := evaluator.Evaluate(user.ID, facts)
		if err != nil {
			t.Fatalf("Evaluate returned error: %v", err)
		}
		if len(earned) != 0 {
			t.Errorf("expected no new achievements, got %d", len(earned))
		}
	})

	t.Run("HiddenRuleSamePath", func(t *testing.T) {
		facts := Facts{TotalEntries: 1, Donated: true}
		earned, err := evaluator.Evaluate(user.ID, facts)
		if err != nil {
			t.Fatalf("Evaluate returned error: %v", err)
		}
		if len(earned) != 1 || earned[0].Name != "Generous Heart" {
			t.Fatalf("expected hidden Generous Heart award, got %+v", earned)
		}
		if !earned[0].IsHidden {
			t.Error("expected the achievement to carry the hidden flag")
		}
	})
}

func TestGatherFacts(t *testing.T) {
	db := setupDB(t)

	user := models.User{Email: "c@example.com"}
	db.Create(&user)

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	// Three consecutive days ending today, plus an older entry.
	weights := []float64{210, 205, 202, 200}
	times := []time.Time{
		now.AddDate(0, 0, -20),
		now.AddDate(0, 0, -2),
		now.AddDate(0, 0, -1),
		now.Add(-6 * time.Hour), // 6am: early bird
	}
	for i := range weights {
		db.Create(&models.WeightEntry{UserID: user.ID, Weight: weights[i], RecordedAt: times[i]})
	}

	db.Create(&models.Post{AuthorID: user.ID, Body: "hello"})
	db.Create(&models.Message{SenderID: user.ID, RecipientID: user.ID + 1, Body: "hi"})

	facts, err := GatherFacts(db, user.ID, now)
	if err != nil {
		t.Fatalf("GatherFacts returned error: %v", err)
	}

	if facts.TotalEntries != 4 {
		t.Errorf("expected 4 entries, got %d", facts.TotalEntries)
	}
	if facts.DistinctLogDays != 4 {
		t.Errorf("expected 4 distinct days, got %d", facts.DistinctLogDays)
	}
	if facts.CurrentStreakDays != 3 {
		t.Errorf("expected 3-day streak, got %d", facts.CurrentStreakDays)
	}
	if facts.TotalLoss != 10 {
		t.Errorf("expected total loss 10, got %v", facts.TotalLoss)
	}
	if !facts.TenUnitMilestone {
		t.Error("expected ten-unit milestone flag")
	}
	if !facts.EarlyBirdLog {
		t.Error("expected early bird flag")
	}
	if facts.NightOwlLog {
		t.Error("did not expect night owl flag")
	}
	if facts.PostCount != 1 {
		t.Errorf("expected 1 post, got %d", facts.PostCount)
	}
	if facts.MessageCount != 1 {
		t.Errorf("expected 1 message, got %d", facts.MessageCount)
	}
}

func TestTenUnitThreshold(t *testing.T) {
	db := setupDB(t)
	user := models.User{Email: "ten@example.com"}
	db.Create(&user)

	now := time.Now()
	db.Create(&models.WeightEntry{UserID: user.ID, Weight: 200, RecordedAt: now.AddDate(0, 0, -2)})
	db.Create(&models.WeightEntry{UserID: user.ID, Weight: 190.5, RecordedAt: now.AddDate(0, 0, -1)})

	facts, err := GatherFacts(db, user.ID, now)
	if err != nil {
		t.Fatalf("GatherFacts returned error: %v", err)
	}
	if facts.TenUnitMilestone {
		t.Errorf("flag set at %v lost, below the ten-unit mark", facts.TotalLoss)
	}

	db.Create(&models.WeightEntry{UserID: user.ID, Weight: 190, RecordedAt: now})
	facts, err = GatherFacts(db, user.ID, now)
	if err != nil {
		t.Fatalf("GatherFacts returned error: %v", err)
	}
	if !facts.TenUnitMilestone {
		t.Errorf("flag not set at %v lost", facts.TotalLoss)
	}
}

func TestStreakLapsed(t *testing.T) {
	db := setupDB(t)

	user := models.User{Email: "d@example.com"}
	db.Create(&user)

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	db.Create(&models.WeightEntry{UserID: user.ID, Weight: 200, RecordedAt: now.AddDate(0, 0, -3)})

	facts, err := GatherFacts(db, user.ID, now)
	if err != nil {
		t.Fatalf("GatherFacts returned error: %v", err)
	}
	if facts.CurrentStreakDays != 0 {
		t.Errorf("expected lapsed streak to count 0, got %d", facts.CurrentStreakDays)
	}
}
