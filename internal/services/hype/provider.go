// Package hype produces the motivational one-liners shown by the hype button.
package hype

import (
	"context"
	"math/rand/v2"
	"strings"
)

// Provider returns a hype line, optionally tuned to the user's goal.
type Provider interface {
	Hype(ctx context.Context, goal string) (string, error)
}

// StaticProvider picks from a fixed list.
type StaticProvider struct {
	phrases []string
	pick    func(n int) int
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider uses Phrases when phrases is empty.
func NewStaticProvider(phrases []string) *StaticProvider {
	if len(phrases) == 0 {
		phrases = Phrases
	}
	return &StaticProvider{phrases: phrases, pick: rand.IntN}
}

// Hype ignores goal.
func (p *StaticProvider) Hype(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.phrases[p.pick(len(p.phrases))], nil
}

// normalize upper-cases a generated line and strips quotes the model likes to add.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.ToUpper(strings.TrimSpace(s))
}
