package game

import (
	"time"
)

// Submission is a player's declared plays for one turn. Explicit is false for
// submissions synthesized when the deadline fires.
type Submission struct {
	PlayerID string
	CardIDs  []int
	Explicit bool
}

// submissionCollector holds pending per-turn submissions and governs the
// collection deadline. All access happens under the owning engine's lock;
// closing is an atomic transition and nothing is recorded afterwards.
type submissionCollector struct {
	expected []string
	pending  map[string]Submission
	deadline time.Time
	closed   bool
}

func newSubmissionCollector(expected []string, deadline time.Time) *submissionCollector {
	return &submissionCollector{
		expected: expected,
		pending:  make(map[string]Submission, len(expected)),
		deadline: deadline,
	}
}

// record stores a submission, overwriting any prior submission from the same
// player this turn. Returns false once the window has closed.
func (c *submissionCollector) record(sub Submission) bool {
	if c.closed {
		return false
	}
	c.pending[sub.PlayerID] = sub
	return true
}

// allSubmitted reports whether every expected player has an explicit
// submission recorded.
func (c *submissionCollector) allSubmitted() bool {
	for _, id := range c.expected {
		if _, ok := c.pending[id]; !ok {
			return false
		}
	}
	return true
}

// shouldClose is the level-triggered window check, re-evaluated once per
// scheduler tick: every player submitted, or the deadline has been reached.
func (c *submissionCollector) shouldClose(now time.Time) bool {
	return c.allSubmitted() || !now.Before(c.deadline)
}

// close seals the window and returns one submission per expected player, in
// the fixed turn order. Players without a recorded submission receive a
// synthesized full pass.
func (c *submissionCollector) close() []Submission {
	c.closed = true
	subs := make([]Submission, 0, len(c.expected))
	for _, id := range c.expected {
		if sub, ok := c.pending[id]; ok {
			subs = append(subs, sub)
			continue
		}
		subs = append(subs, Submission{PlayerID: id, Explicit: false})
	}
	return subs
}
