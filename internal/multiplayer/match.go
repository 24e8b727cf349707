package multiplayer

import "time"

// MatchEndReason describes why a match ended.
type MatchEndReason int

const (
	MatchEndReasonCompleted  MatchEndReason = iota // A side reached the winning score
	MatchEndReasonDisconnect                       // Opponent disconnected and the local player quit
	MatchEndReasonAborted                          // Local player quit
	MatchEndReasonFailed                           // Session reported an invariant violation
)

func (r MatchEndReason) String() string {
	switch r {
	case MatchEndReasonCompleted:
		return "completed"
	case MatchEndReasonDisconnect:
		return "disconnect"
	case MatchEndReasonAborted:
		return "aborted"
	case MatchEndReasonFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MatchResult contains the outcome of a finished match.
type MatchResult struct {
	Mode       MatchMode
	Room       string // Empty for local matches
	Seat       string // Which paddle the local player drove: "both", "left" or "right"
	LeftScore  int
	RightScore int
	Winner     string // "left", "right" or empty
	Reason     MatchEndReason
	Frames     int
	Duration   time.Duration
}

// MatchResultSaver persists match results.
// This allows the pacing loop to save results without depending on the storage package.
type MatchResultSaver interface {
	SaveMatchResult(result MatchResult) error
}
