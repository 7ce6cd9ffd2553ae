package engine

import (
	"errors"
	"fmt"
	"strings"

	"rexline/internal/domain"
)

// ErrUnknownActor means the caller's id does not resolve to a user.
var ErrUnknownActor = errors.New("unknown actor")

// ErrInvalidRole means a role change named a role outside the closed set.
var ErrInvalidRole = errors.New("invalid role")

// InvalidTransitionError names the attempted status edge. No part of the
// transition is applied when it is returned.
type InvalidTransitionError struct {
	From domain.Status
	To   domain.Status
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// InvalidPromotionError names the attempted tier edge. Promotions must
// advance by exactly one tier.
type InvalidPromotionError struct {
	From domain.Tier
	To   domain.Tier
}

func (e InvalidPromotionError) Error() string {
	return fmt.Sprintf("invalid promotion %s -> %s", e.From, e.To)
}

// IncompleteFieldsError lists exactly the content fields still empty that
// the target tier requires.
type IncompleteFieldsError struct {
	Missing []string
}

func (e IncompleteFieldsError) Error() string {
	return fmt.Sprintf("incomplete fields for promotion: %s", strings.Join(e.Missing, ", "))
}

// StaleStateError is an optimistic concurrency conflict: the stored status
// (or tier, for promotions) no longer matched the operation's precondition
// at commit time. The caller should re-fetch and decide whether to retry;
// the engine never retries on its own.
type StaleStateError struct {
	Expected string
}

func (e StaleStateError) Error() string {
	return fmt.Sprintf("stale state: report is no longer %s", e.Expected)
}
