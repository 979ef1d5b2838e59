package replay

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/direkt/game/engine"
)

// ErrMismatch is returned by Verify when re-simulation disagrees with the record
var ErrMismatch = errors.New("replay mismatch")

// Episode is one attempt at a level, from reset to a terminal outcome or abandonment.
// Outcome is engine.Playing for episodes abandoned by a reset.
type Episode struct {
	ID        string              `json:"id"`
	SessionID string              `json:"session_id,omitempty"`
	Level     string              `json:"level"`
	Attempt   int                 `json:"attempt,omitempty"`
	Config    *engine.LevelConfig `json:"config"`
	Actions   []engine.Action     `json:"actions"`
	Outcome   engine.Status       `json:"outcome"`
	Ticks     int                 `json:"ticks"`
	StartedAt time.Time           `json:"started_at"`
	EndedAt   time.Time           `json:"ended_at"`
}

// NewEpisodeID returns a fresh episode identifier
func NewEpisodeID() string {
	return uuid.NewString()
}

// Turns returns the number of actions taken
func (e *Episode) Turns() int {
	return len(e.Actions)
}

// VerifyResult is the outcome of re-simulating an episode
type VerifyResult struct {
	Outcome engine.Status   `json:"outcome"`
	Ticks   int             `json:"ticks"`
	Final   engine.Snapshot `json:"final"`
}

// Verify rebuilds the episode's level, replays its actions and checks that the
// recorded outcome and tick count are reproduced.
func Verify(ep *Episode) (*VerifyResult, error) {
	if ep == nil || ep.Config == nil {
		return nil, errors.New("episode has no level config")
	}
	level, err := engine.NewLevel(ep.Config)
	if err != nil {
		return nil, fmt.Errorf("episode %s: %w", ep.ID, err)
	}

	for i, a := range ep.Actions {
		if level.Status().Terminal() {
			return nil, fmt.Errorf("%w: episode %s ended after %d of %d actions", ErrMismatch, ep.ID, i, len(ep.Actions))
		}
		level.TakeAction(a)
	}

	res := &VerifyResult{Outcome: level.Status(), Ticks: level.Tick(), Final: level.Snapshot()}
	if res.Outcome != ep.Outcome {
		return res, fmt.Errorf("%w: episode %s recorded %s, replayed %s", ErrMismatch, ep.ID, ep.Outcome, res.Outcome)
	}
	if res.Ticks != ep.Ticks {
		return res, fmt.Errorf("%w: episode %s recorded %d ticks, replayed %d", ErrMismatch, ep.ID, ep.Ticks, res.Ticks)
	}
	return res, nil
}
