package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/amoralabs/amora/pkg/logger"
)

const (
	// claimKeyPrefix marks one claim per user per calendar day
	claimKeyPrefix = "bonus:claim:"

	// streakKeyPrefix stores the rolling streak record per user
	streakKeyPrefix = "bonus:streak:"

	// claimTTL keeps claim markers long enough to survive clock skew
	// around midnight, then lets them expire
	claimTTL = 48 * time.Hour

	// streakTTL drops streak records after the streak is long broken
	streakTTL = 14 * 24 * time.Hour
)

// BonusStore tracks daily bonus claims in Redis. The claim marker is
// written with SETNX, so concurrent claims for the same user and day
// resolve to exactly one winner.
type BonusStore struct {
	client *redis.Client
	logger *logger.Logger
}

// NewBonusStore creates a new Redis-backed bonus claim store
func NewBonusStore(client *redis.Client, log *logger.Logger) *BonusStore {
	return &BonusStore{
		client: client,
		logger: log.WithField("component", "bonus_store"),
	}
}

// streakRecord is the per-user streak state
type streakRecord struct {
	LastDay string `json:"last_day"` // YYYY-MM-DD of the last claim
	Streak  int    `json:"streak"`
}

// Claim attempts to claim the daily bonus for the given day.
// Returns claimed=false if the user already claimed that day.
// The returned streak counts consecutive claim days including today.
func (s *BonusStore) Claim(ctx context.Context, userID uuid.UUID, day time.Time) (bool, int, error) {
	dayStr := day.UTC().Format("2006-01-02")
	claimKey := fmt.Sprintf("%s%s:%s", claimKeyPrefix, userID, dayStr)

	set, err := s.client.SetNX(ctx, claimKey, "1", claimTTL).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to set claim marker: %w", err)
	}

	if !set {
		rec, err := s.getStreak(ctx, userID)
		if err != nil {
			return false, 0, err
		}
		return false, rec.Streak, nil
	}

	streak, err := s.advanceStreak(ctx, userID, day)
	if err != nil {
		// The claim marker is already down; losing the streak record is
		// recoverable, losing the marker would allow double claims
		s.logger.Error("failed to update streak", "user_id", userID, "error", err)
		return true, 1, nil
	}

	return true, streak, nil
}

// Status reports whether the user already claimed on the given day and
// the current streak, without consuming the claim.
func (s *BonusStore) Status(ctx context.Context, userID uuid.UUID, day time.Time) (bool, int, error) {
	dayStr := day.UTC().Format("2006-01-02")
	claimKey := fmt.Sprintf("%s%s:%s", claimKeyPrefix, userID, dayStr)

	exists, err := s.client.Exists(ctx, claimKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check claim marker: %w", err)
	}

	rec, err := s.getStreak(ctx, userID)
	if err != nil {
		return false, 0, err
	}

	return exists > 0, rec.Streak, nil
}

// advanceStreak extends or resets the streak record for a fresh claim
func (s *BonusStore) advanceStreak(ctx context.Context, userID uuid.UUID, day time.Time) (int, error) {
	rec, err := s.getStreak(ctx, userID)
	if err != nil {
		return 0, err
	}

	today := day.UTC().Format("2006-01-02")
	yesterday := day.UTC().AddDate(0, 0, -1).Format("2006-01-02")

	switch rec.LastDay {
	case yesterday:
		rec.Streak++
	case today:
		// Already counted; keep as is
	default:
		rec.Streak = 1
	}
	rec.LastDay = today

	data, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal streak record: %w", err)
	}

	key := streakKeyPrefix + userID.String()
	if err := s.client.Set(ctx, key, data, streakTTL).Err(); err != nil {
		return 0, fmt.Errorf("failed to store streak record: %w", err)
	}

	return rec.Streak, nil
}

func (s *BonusStore) getStreak(ctx context.Context, userID uuid.UUID) (*streakRecord, error) {
	key := streakKeyPrefix + userID.String()

	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return &streakRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get streak record: %w", err)
	}

	var rec streakRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal streak record: %w", err)
	}
	return &rec, nil
}
