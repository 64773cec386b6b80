package audit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/audit"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := map[domain.RunState][]domain.RunState{
		domain.RunDraft:   {domain.RunQueued},
		domain.RunQueued:  {domain.RunRunning, domain.RunFailed, domain.RunCanceled},
		domain.RunRunning: {domain.RunCompleted, domain.RunFailed, domain.RunCanceled},
		domain.RunFailed:  {domain.RunQueued},
	}
	states := []domain.RunState{
		domain.RunDraft, domain.RunQueued, domain.RunRunning,
		domain.RunCompleted, domain.RunFailed, domain.RunCanceled,
	}

	for _, from := range states {
		for _, to := range states {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, audit.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_TerminalStatesAreFinal(t *testing.T) {
	t.Parallel()

	for _, from := range []domain.RunState{domain.RunCompleted, domain.RunCanceled} {
		for _, to := range []domain.RunState{domain.RunQueued, domain.RunRunning, domain.RunFailed} {
			assert.False(t, audit.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}
