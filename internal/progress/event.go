// Package progress defines the event structures emitted by the pipeline while
// it works through sources.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart      Stage = "RUN_START"
	StageRunDone       Stage = "RUN_DONE"
	StageSourceStart   Stage = "SOURCE_START"
	StageSourceDone    Stage = "SOURCE_DONE"
	StageSourceError   Stage = "SOURCE_ERROR"
	StageDomainAttempt Stage = "DOMAIN_ATTEMPT"
)

// Event captures a single pipeline milestone.
type Event struct {
	// RunID identifies the pipeline run the event belongs to.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Source scopes source and domain events to a descriptor ID.
	Source string
	// Domain carries the mirror domain for domain attempt events.
	Domain string
	// Items is the extracted item count for source completions.
	Items int
	// Dur captures execution latency for source and run completions.
	Dur time.Duration
	// Note lets emitters attach low-volume context such as error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageSourceStart, StageSourceDone, StageSourceError:
		if e.Source == "" {
			return fmt.Errorf("%s requires a source", e.Stage)
		}
	case StageDomainAttempt:
		if e.Source == "" || e.Domain == "" {
			return errors.New("domain attempt requires source and domain")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
