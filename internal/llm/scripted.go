// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned by Scripted once its replies run out.
var ErrScriptExhausted = errors.New("scripted generator has no more replies")

// Reply is one scripted completion or failure.
type Reply struct {
	Text string
	Err  error
}

// Scripted replays canned replies in order. It stands in for a real
// provider in tests and offline demos; it is safe for concurrent use.
type Scripted struct {
	name string

	mu       sync.Mutex
	replies  []Reply
	repeat   bool
	requests []Request
}

// NewScripted replays replies once each.
func NewScripted(name string, replies ...Reply) *Scripted {
	return &Scripted{name: name, replies: replies}
}

// Always returns a generator that answers every request with r.
func Always(name string, r Reply) *Scripted {
	return &Scripted{name: name, replies: []Reply{r}, repeat: true}
}

// Name returns the configured name.
func (s *Scripted) Name() string { return s.name }

// Generate returns the next reply.
func (s *Scripted) Generate(ctx context.Context, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.replies) == 0 {
		return "", ErrScriptExhausted
	}
	r := s.replies[0]
	if !s.repeat {
		s.replies = s.replies[1:]
	}
	return r.Text, r.Err
}

// Requests returns a copy of every request received.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Calls returns the number of requests received.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
