package challenges

import (
	"errors"
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
	db.AutoMigrate(&models.User{}, &models.WeightEntry{}, &models.Challenge{}, &models.ChallengeParticipant{})
	return db
}

func activeChallenge(t *testing.T, db *gorm.DB, typ models.ChallengeType, target float64) models.Challenge {
	t.Helper()
	challenge := models.Challenge{
		Name:        "Test Challenge",
		Type:        typ,
		Status:      models.StatusActive,
		StartDate:   time.Now().AddDate(0, 0, -14),
		EndDate:     time.Now().AddDate(0, 0, 14),
		TargetValue: target,
	}
	if err := db.Create(&challenge).Error; err != nil {
		t.Fatalf("failed to create challenge: %v", err)
	}
	return challenge
}

func TestCreateValidation(t *testing.T) {
	service := NewService(setupDB(t))

	t.Run("EndBeforeStart", func(t *testing.T) {
		challenge := models.Challenge{
			Type:      models.ChallengeTotalLoss,
			StartDate: time.Now(),
			EndDate:   time.Now().AddDate(0, 0, -1),
		}
		if err := service.Create(&challenge); !errors.Is(err, ErrInvalidChallenge) {
			t.Errorf("expected ErrInvalidChallenge, got %v", err)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		challenge := models.Challenge{
			Type:      "step_count",
			StartDate: time.Now(),
			EndDate:   time.Now().AddDate(0, 0, 7),
		}
		if err := service.Create(&challenge); !errors.Is(err, ErrInvalidChallenge) {
			t.Errorf("expected ErrInvalidChallenge, got %v", err)
		}
	})

	t.Run("Valid", func(t *testing.T) {
		challenge := models.Challenge{
			Type:      models.ChallengeTotalLoss,
			StartDate: time.Now().AddDate(0, 0, 1),
			EndDate:   time.Now().AddDate(0, 0, 8),
		}
		if err := service.Create(&challenge); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if challenge.Status != models.StatusUpcoming {
			t.Errorf("expected upcoming status, got %s", challenge.Status)
		}
	})
}

func TestJoin(t *testing.T) {
	db := setupDB(t)
	service := NewService(db)

	user := models.User{Email: "a@example.com"}
	db.Create(&user)

	challenge := activeChallenge(t, db, models.ChallengeTotalLoss, 5)

	if _, err := service.Join(challenge.ID, user.ID); err != nil {
		t.Fatalf("first Join returned error: %v", err)
	}

	t.Run("DuplicateJoin", func(t *testing.T) {
		if _, err := service.Join(challenge.ID, user.ID); !errors.Is(err, ErrAlreadyParticipating) {
			t.Errorf("expected ErrAlreadyParticipating, got %v", err)
		}
		var count int64
		db.Model(&models.ChallengeParticipant{}).Count(&count)
		if count != 1 {
			t.Errorf("expected 1 participant row, got %d", count)
		}
	})

	t.Run("MissingChallenge", func(t *testing.T) {
		if _, err := service.Join(9999, user.ID); !errors.Is(err, ErrChallengeNotFound) {
			t.Errorf("expected ErrChallengeNotFound, got %v", err)
		}
	})

	t.Run("CompletedChallenge", func(t *testing.T) {
		done := activeChallenge(t, db, models.ChallengeTotalLoss, 5)
		db.Model(&done).Update("status", models.StatusCompleted)
		if _, err := service.Join(done.ID, user.ID); !errors.Is(err, ErrChallengeClosed) {
			t.Errorf("expected ErrChallengeClosed, got %v", err)
		}
	})

	t.Run("CancelledChallenge", func(t *testing.T) {
		gone := activeChallenge(t, db, models.ChallengeTotalLoss, 5)
		db.Model(&gone).Update("status", models.StatusCancelled)
		if _, err := service.Join(gone.ID, user.ID); !errors.Is(err, ErrChallengeClosed) {
			t.Errorf("expected ErrChallengeClosed, got %v", err)
		}
	})
}

func TestJoinLosesInsertRace(t *testing.T) {
	db := setupDB(t)
	service := NewService(db)

	user := models.User{Email: "racer@example.com"}
	db.Create(&user)

	challenge := activeChallenge(t, db, models.ChallengeTotalLoss, 5)

	// Sneak a conflicting row in between the existence probe and the
	// insert, the way a concurrent Join would.
	raced := false
	err := db.Callback().Create().Before("gorm:create").Register("race_participant", func(tx *gorm.DB) {
		if raced {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.ChallengeParticipant); !ok {
			return
		}
		raced = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO challenge_participants (created_at, updated_at, challenge_id, user_id, progress, completed) VALUES (?, ?, ?, ?, 0, 0)",
			time.Now(), time.Now(), challenge.ID, user.ID,
		)
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	if _, err := service.Join(challenge.ID, user.ID); !errors.Is(err, ErrAlreadyParticipating) {
		t.Fatalf("expected ErrAlreadyParticipating, got %v", err)
	}
	if !raced {
		t.Fatal("conflicting row was never inserted")
	}
	var count int64
	db.Model(&models.ChallengeParticipant{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 participant row, got %d", count)
	}
}

func TestLeave(t *testing.T) {
	db := setupDB(t)
	service := NewService(db)

	user := models.User{Email: "b@example.com"}
	db.Create(&user)

	challenge := activeChallenge(t, db, models.ChallengeTotalLoss, 5)

	t.Run("WithoutJoin", func(t *testing.T) {
		if err := service.Leave(challenge.ID, user.ID); !errors.Is(err, ErrNotParticipating) {
			t.Errorf("expected ErrNotParticipating, got %v", err)
		}
	})

	t.Run("AfterJoin", func(t *testing.T) {
		if _, err := service.Join(challenge.ID, user.ID); err != nil {
			t.Fatalf("Join returned error: %v", err)
		}
		if err := service.Leave(challenge.ID, user.ID); err != nil {
			t.Fatalf("Leave returned error: %v", err)
		}
		var count int64
		db.Model(&models.ChallengeParticipant{}).Count(&count)
		if count != 0 {
			t.Errorf("expected participant row gone, got %d rows", count)
		}
	})

	t.Run("CompletedParticipantMayLeave", func(t *testing.T) {
		if _, err := service.Join(challenge.ID, user.ID); err != nil {
			t.Fatalf("Join returned error: %v", err)
		}
		db.Model(&models.ChallengeParticipant{}).
			Where("challenge_id = ? AND user_id = ?", challenge.ID, user.ID).
			Updates(map[string]interface{}{"completed": true, "completed_at": time.Now()})

		if err := service.Leave(challenge.ID, user.ID); err != nil {
			t.Fatalf("Leave after completion returned error: %v", err)
		}
	})
}

func TestUpdateChallengeProgress(t *testing.T) {
	db := setupDB(t)
	service := NewService(db)

	user := models.User{Email: "c@example.com"}
	db.Create(&user)

	challenge := activeChallenge(t, db, models.ChallengeTotalLoss, 5)
	if _, err := service.Join(challenge.ID, user.ID); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}

	start := challenge.StartDate
	db.Create(&models.WeightEntry{UserID: user.ID, Weight: 200, RecordedAt: start.AddDate(0, 0, 1)})
	db.Create(&models.WeightEntry{UserID: user.ID, Weight: 197, RecordedAt: start.AddDate(0, 0, 3)})

	now := time.Now()
	completed, err := service.UpdateChallengeProgress(challenge.ID, now)
	if err != nil {
		t.Fatalf("UpdateChallengeProgress returned error: %v", err)
	}
	if len(completed) != 0 {
		t.Errorf("expected no completions below target, got %d", len(completed))
	}

	var participant models.ChallengeParticipant
	db.Where("challenge_id = ? AND user_id = ?", challenge.ID, user.ID).First(&participant)
	if participant.Progress != 3 {
		t.Errorf("expected progress 3, got %v", participant.Progress)
	}

	// Cross the target.
	db.Create(&models.WeightEntry{UserID: user.ID, Weight: 194, RecordedAt: start.AddDate(0, 0, 5)})

	completed, err = service.UpdateChallengeProgress(challenge.ID, now)
	if err != nil {
		t.Fatalf("UpdateChallengeProgress returned error: %v", err)
	}
	if len(completed) != 1 {
		t.Fatalf("expected 1 newly completed participant, got %d", len(completed))
	}

	db.Where("challenge_id = ? AND user_id = ?", challenge.ID, user.ID).First(&participant)
	if !participant.Completed || participant.CompletedAt == nil {
		t.Fatal("expected participant marked completed with a timestamp")
	}
	firstCompletedAt := *participant.CompletedAt

	// Further progress must not reset CompletedAt or re-report completion.
	db.Create(&models.WeightEntry{UserID: user.ID, Weight: 190, RecordedAt: start.AddDate(0, 0, 6)})

	completed, err = service.UpdateChallengeProgress(challenge.ID, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("UpdateChallengeProgress returned error: %v", err)
	}
	if len(completed) != 0 {
		t.Errorf("expected no new completions, got %d", len(completed))
	}

	db.Where("challenge_id = ? AND user_id = ?", challenge.ID, user.ID).First(&participant)
	if participant.Progress != 10 {
		t.Errorf("expected progress 10, got %v", participant.Progress)
	}
	if !participant.CompletedAt.Equal(firstCompletedAt) {
		t.Errorf("CompletedAt changed: was %v, now %v", firstCompletedAt, participant.CompletedAt)
	}
}

func TestUpdateUserProgress(t *testing.T) {
	db := setupDB(t)
	service := NewService(db)

	user := models.User{Email: "d@example.com"}
	db.Create(&user)

	active := activeChallenge(t, db, models.ChallengeConsistency, 3)
	finished := activeChallenge(t, db, models.ChallengeConsistency, 3)
	db.Model(&finished).Update("status", models.StatusCompleted)

	if _, err := service.Join(active.ID, user.ID); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	db.Create(&models.ChallengeParticipant{ChallengeID: finished.ID, UserID: user.ID})

	start := active.StartDate
	for i := 0; i < 3; i++ {
		db.Create(&models.WeightEntry{UserID: user.ID, Weight: 200, RecordedAt: start.AddDate(0, 0, i+1)})
	}

	completed, err := service.UpdateUserProgress(user.ID, time.Now())
	if err != nil {
		t.Fatalf("UpdateUserProgress returned error: %v", err)
	}
	if len(completed) != 1 || completed[0].ChallengeID != active.ID {
		t.Fatalf("expected completion for the active challenge only, got %+v", completed)
	}

	// The finished challenge's participant must be untouched.
	var stale models.ChallengeParticipant
	db.Where("challenge_id = ?", finished.ID).First(&stale)
	if stale.Progress != 0 {
		t.Errorf("expected inactive participation untouched, got progress %v", stale.Progress)
	}
}

func TestLazyStatusSync(t *testing.T) {
	db := setupDB(t)
	service := NewService(db)

	challenge := models.Challenge{
		Type:        models.ChallengeTotalLoss,
		Status:      models.StatusUpcoming,
		StartDate:   time.Now().AddDate(0, 0, -1),
		EndDate:     time.Now().AddDate(0, 0, 7),
		TargetValue: 5,
	}
	db.Create(&challenge)

	if _, err := service.UpdateChallengeProgress(challenge.ID, time.Now()); err != nil {
		t.Fatalf("UpdateChallengeProgress returned error: %v", err)
	}

	var reloaded models.Challenge
	db.First(&reloaded, challenge.ID)
	if reloaded.Status != models.StatusActive {
		t.Errorf("expected stored status flipped to active, got %s", reloaded.Status)
	}
}
