package multiplayer

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/netpong/internal/core"
)

// ErrPredictionThreshold means the session cannot advance yet. It is not a
// failure: the caller skips the frame and asks again on the next tick.
var ErrPredictionThreshold = errors.New("multiplayer: prediction threshold reached")

// Invariant violations. They end the match.
var (
	ErrInvalidHandle      = fmt.Errorf("multiplayer: invalid player handle: %w", core.ErrInvariant)
	ErrMismatchedChecksum = fmt.Errorf("multiplayer: mismatched checksum: %w", core.ErrInvariant)
	ErrMissingSave        = fmt.Errorf("multiplayer: requested save was not performed: %w", core.ErrInvariant)
)
