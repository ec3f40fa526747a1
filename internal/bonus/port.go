package bonus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ClaimStore tracks daily bonus claims and streaks.
//
// Claim must be atomic: when two requests race for the same user and
// day, exactly one observes claimed=true. The returned streak counts
// consecutive claim days including today.
type ClaimStore interface {
	Claim(ctx context.Context, userID uuid.UUID, day time.Time) (claimed bool, streak int, err error)

	// Status reports whether the user already claimed on the given day
	// and the current streak, without consuming the claim.
	Status(ctx context.Context, userID uuid.UUID, day time.Time) (claimed bool, streak int, err error)
}
