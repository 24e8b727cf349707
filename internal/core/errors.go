package core

import "errors"

// ErrInvariant marks a broken contract between the simulation and the session
// driving it. Errors wrapping it are never retried: the match is abandoned
// rather than risking silent divergence between peers.
var ErrInvariant = errors.New("invariant violation")
