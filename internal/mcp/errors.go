package mcp

import (
	"errors"
	"fmt"
)

// ErrClient is the base error for this package. Every failure the client
// reports matches it via errors.Is, with one of the specific kinds below
// layered on top.
var (
	ErrClient    = errors.New("mcp client error")
	ErrProtocol  = fmt.Errorf("%w: protocol", ErrClient)
	ErrRateLimit = fmt.Errorf("%w: rate limit", ErrClient)
	ErrTimeout   = fmt.Errorf("%w: timeout", ErrClient)
)
