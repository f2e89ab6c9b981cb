// Package storage defines the turn-completion cache contract: the
// quest-completion timestamps consumed by the policy engine's cooldown
// checks on later turns.
package storage

import (
	"context"
	"time"
)

// CompletionStore remembers when a character last completed a quest.
type CompletionStore interface {
	// GetQuestCompletion returns the character's last completion
	// timestamp. The boolean reports whether a record exists.
	GetQuestCompletion(ctx context.Context, characterID string) (time.Time, bool, error)
	// StoreQuestCompletion records a completion, replacing any
	// earlier record for the character.
	StoreQuestCompletion(ctx context.Context, characterID string, completedAt time.Time) error
}
