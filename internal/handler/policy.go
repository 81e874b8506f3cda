package handler

import (
	"time"
)

// Verdict is the sanction decided for a detected bounce
type Verdict int

const (
	// VerdictIgnore means the departure is not treated as a bounce
	VerdictIgnore Verdict = iota
	// VerdictTemporary means a time-bounded ban
	VerdictTemporary
	// VerdictPermanent means a ban with no scheduled reversal
	VerdictPermanent
)

// PermanentThreshold is the offense count at which sanctions stop being
// time-bounded. The count includes the current offense.
const PermanentThreshold = 3

// Decide maps an observed departure to a verdict. elapsed is the time the
// member spent in the group, window the maximum stay that still counts as
// a bounce. offenseCount must already include the current offense.
// repeatFlagged lets a departure outside the window still count as a
// bounce; the verdict itself stays count-based.
func Decide(elapsed, window time.Duration, offenseCount int, repeatFlagged bool) Verdict {
	if elapsed > window && !repeatFlagged {
		return VerdictIgnore
	}
	if offenseCount >= PermanentThreshold {
		return VerdictPermanent
	}
	return VerdictTemporary
}

// RepeatDetector flags members whose join and leave churn inside a short
// interval warrants sanctioning even when the final stay outlasted the
// bounce window.
type RepeatDetector interface {
	Flagged(groupID, userID int64, now time.Time) bool
}

// noopRepeatDetector never flags. The churn heuristic needs gateway
// event history the bot does not collect yet.
type noopRepeatDetector struct{}

func (noopRepeatDetector) Flagged(int64, int64, time.Time) bool { return false }

// NewRepeatDetector returns the active repeat-churn detector
func NewRepeatDetector() RepeatDetector {
	return noopRepeatDetector{}
}
