package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validEvent(stage Stage) Event {
	return Event{
		RunID:  "run-1",
		TS:     time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		Stage:  stage,
		Source: "dramapulse",
		Domain: "https://dramapulse.example",
	}
}

// TestEventValidate covers the accept and reject paths per stage.
func TestEventValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr bool
	}{
		{"run start", func(e *Event) { e.Stage = StageRunStart; e.Source = "" }, false},
		{"run done", func(e *Event) { e.Stage = StageRunDone; e.Source = "" }, false},
		{"source start", func(e *Event) { e.Stage = StageSourceStart }, false},
		{"source done", func(e *Event) { e.Stage = StageSourceDone }, false},
		{"source error", func(e *Event) { e.Stage = StageSourceError }, false},
		{"domain attempt", func(e *Event) { e.Stage = StageDomainAttempt }, false},
		{"missing run id", func(e *Event) { e.RunID = "" }, true},
		{"missing timestamp", func(e *Event) { e.TS = time.Time{} }, true},
		{"source stage without source", func(e *Event) { e.Stage = StageSourceDone; e.Source = "" }, true},
		{"domain attempt without domain", func(e *Event) { e.Stage = StageDomainAttempt; e.Domain = "" }, true},
		{"unknown stage", func(e *Event) { e.Stage = "WAT" }, true},
		{"negative duration", func(e *Event) { e.Dur = -time.Second }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			evt := validEvent(StageSourceStart)
			tc.mutate(&evt)
			err := evt.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
