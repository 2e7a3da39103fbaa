package session

import (
	"testing"

	"leadagent_backend/internal/conversation/engine"
)

func TestEndReasonFollowsEngineCause(t *testing.T) {
	cases := []struct {
		name string
		res  engine.Result
		want string
	}{
		{"farewell", engine.Result{Ending: true, EndCause: engine.EndCauseFarewell}, "farewell"},
		{"turn ceiling", engine.Result{Ending: true, EndCause: engine.EndCauseTurnCeiling}, "turn_ceiling"},
		{"natural close", engine.Result{Ending: true, Advanced: true, EndCause: engine.EndCauseCompleted}, "completed"},
		{"no cause defaults to completed", engine.Result{Ending: true}, "completed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := endReason(tc.res); got != tc.want {
				t.Errorf("endReason = %q, want %q", got, tc.want)
			}
		})
	}
}
