// Package verification adapts proof-of-humanity challenge tokens to the
// submission flow. Tokens are opaque, single-use strings produced by an
// external challenge widget; this package never creates them.
package verification

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Token is a single-use proof-of-humanity credential.
type Token string

var (
	ErrNoToken         = errors.New("verification token unavailable")
	ErrChallengeFailed = errors.New("verification challenge failed")
	ErrTokenExpired    = errors.New("verification token expired")
	ErrBusInUse        = errors.New("event bus already has a verification subscriber")
)

// Supplier yields one token per call. A returned token must be attached to
// exactly one request.
type Supplier interface {
	Token(ctx context.Context) (Token, error)
}

// Static hands out a caller-provided token once.
type Static struct {
	mu    sync.Mutex
	token Token
	used  bool
}

func NewStatic(token string) *Static {
	return &Static{token: Token(strings.TrimSpace(token))}
}

func (s *Static) Token(ctx context.Context) (Token, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used || s.token == "" {
		return "", ErrNoToken
	}
	s.used = true
	return s.token, nil
}

var _ Supplier = (*Static)(nil)
