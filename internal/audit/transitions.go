package audit

import (
	"fmt"
	"slices"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

// allowedTransitions lists the states reachable from each state.
var allowedTransitions = map[domain.RunState][]domain.RunState{
	domain.RunDraft:   {domain.RunQueued},
	domain.RunQueued:  {domain.RunRunning, domain.RunFailed, domain.RunCanceled},
	domain.RunRunning: {domain.RunCompleted, domain.RunFailed, domain.RunCanceled},
	domain.RunFailed:  {domain.RunQueued},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to domain.RunState) bool {
	return slices.Contains(allowedTransitions[from], to)
}

// transition moves run to state `to`, stamping timestamps. It returns
// ErrInvalidTransition and leaves run untouched when the move is illegal.
func (s *Service) transition(run *domain.AuditRun, to domain.RunState) error {
	from := run.State
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	now := s.now()
	run.State = to
	run.UpdatedAt = now

	switch {
	case to == domain.RunQueued:
		run.FinishedAt = nil
	case to == domain.RunRunning:
		run.StartedAt = &now
		s.metrics.RunStarted()
	case to.IsTerminal():
		run.FinishedAt = &now
		if from == domain.RunRunning && run.StartedAt != nil {
			s.metrics.RunFinished(string(to), now.Sub(*run.StartedAt))
		}
	}
	s.metrics.RunTransition(string(to))
	return nil
}
