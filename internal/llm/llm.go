// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm talks to AI text generators. A Generator turns a
// role-tagged message list into one completion; Chain tries several
// generators in order so one provider's outage falls through to the next.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/research-intel/internal/httputil"
	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/metrics"
	"github.com/pdiddy/research-intel/pkg/types"
)

// Role tags a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a completion request. Zero Model, Temperature, or MaxTokens
// select the generator's defaults.
type Request struct {
	Messages    []Message
	Model       string
	Temperature float64
	MaxTokens   int
}

// Prompt builds a request from a system and a user message.
func Prompt(system, user string) Request {
	var msgs []Message
	if system != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: user})
	return Request{Messages: msgs}
}

// Generator produces a single text completion.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// ErrorType buckets generator failures for logs and metrics.
type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

// ClassifyError buckets err by its message.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorTransient
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "context length"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"), strings.Contains(e, "503"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}

// Chain is a Generator that tries each member in order and returns the
// first success.
type Chain struct {
	members []Generator
	metrics *metrics.Metrics
	log     logging.Logger
}

// NewChain builds a chain over members.
func NewChain(members []Generator, m *metrics.Metrics, log logging.Logger) *Chain {
	return &Chain{members: members, metrics: m, log: logging.OrNop(log).Named("llm")}
}

// Name lists member names joined by "|".
func (c *Chain) Name() string {
	names := make([]string, len(c.members))
	for i, g := range c.members {
		names[i] = g.Name()
	}
	return strings.Join(names, "|")
}

// Len returns the number of members.
func (c *Chain) Len() int { return len(c.members) }

// Generate returns the first member's successful completion. When every
// member fails the errors are joined.
func (c *Chain) Generate(ctx context.Context, req Request) (string, error) {
	if len(c.members) == 0 {
		return "", fmt.Errorf("no generators configured: %w", types.ErrMissingCredentials)
	}
	var errs []error
	for _, g := range c.members {
		start := time.Now()
		text, err := g.Generate(ctx, req)
		c.metrics.ObserveGenerator(g.Name(), time.Since(start), err)
		if err == nil {
			return text, nil
		}
		c.log.Warn("generator failed",
			logging.String("provider", g.Name()),
			logging.String("kind", string(ClassifyError(err))),
			logging.Err(err))
		errs = append(errs, fmt.Errorf("%s: %w", g.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", errors.Join(errs...)
}

// FromConfig builds the chain named by cfg.Provider ("groq", "gemini",
// or a comma-separated order). Providers without an API key are skipped;
// an empty chain is a missing-credentials error.
func FromConfig(cfg types.AIConfig, m *metrics.Metrics, log logging.Logger) (*Chain, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	var members []Generator
	for _, name := range strings.Split(cfg.Provider, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "groq":
			if cfg.GroqAPIKey != "" {
				members = append(members, &Groq{
					APIKey:      cfg.GroqAPIKey,
					Model:       cfg.GroqModel,
					Temperature: cfg.Temperature,
					MaxTokens:   cfg.MaxTokens,
					Client:      client,
					Limiter:     httputil.PerMinute(cfg.RequestsPerMinute),
				})
			}
		case "gemini":
			if cfg.GeminiAPIKey != "" {
				members = append(members, &Gemini{
					APIKey:      cfg.GeminiAPIKey,
					Model:       cfg.GeminiModel,
					Temperature: cfg.Temperature,
					MaxTokens:   cfg.MaxTokens,
					Client:      client,
					Limiter:     httputil.PerMinute(cfg.RequestsPerMinute),
				})
			}
		case "":
		default:
			return nil, fmt.Errorf("unknown generator provider %q", name)
		}
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("no generator API key for providers %q: %w", cfg.Provider, types.ErrMissingCredentials)
	}
	return NewChain(members, m, log), nil
}
