package brackets

import (
	"fmt"

	"github.com/Dosada05/killrace-tournament/models"
)

// DefaultPhase is reported whenever no phase row is active.
const DefaultPhase = models.PhaseEnrollment

var phaseOrder = []models.PhaseName{
	models.PhaseEnrollment,
	models.PhaseQualifier,
	models.PhaseSemifinals,
	models.PhaseFinals,
	models.PhaseCompleted,
}

// PhaseSnapshot carries the facts the transition preconditions are checked against.
type PhaseSnapshot struct {
	TeamsPerGroup       map[models.Group]int
	QualifiedPerGroup   map[models.Group]int
	SemifinalsCompleted int
	FinalsCompleted     bool
}

func IsValidPhase(p models.PhaseName) bool {
	for _, known := range phaseOrder {
		if p == known {
			return true
		}
	}
	return false
}

// NextPhase returns the phase that follows p; false for completed or unknown phases.
func NextPhase(p models.PhaseName) (models.PhaseName, bool) {
	for i, known := range phaseOrder {
		if known == p && i+1 < len(phaseOrder) {
			return phaseOrder[i+1], true
		}
	}
	return "", false
}

// ValidateTransition checks that to directly follows from and that its entry
// conditions hold for snap.
func ValidateTransition(from, to models.PhaseName, snap PhaseSnapshot) error {
	if !IsValidPhase(to) {
		return fmt.Errorf("%w: unknown phase %q", ErrInvalidPhaseTransition, to)
	}
	next, ok := NextPhase(from)
	if !ok || next != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPhaseTransition, from, to)
	}

	switch to {
	case models.PhaseQualifier:
		a, b := snap.TeamsPerGroup[models.GroupA], snap.TeamsPerGroup[models.GroupB]
		if a < 2 || b < 2 {
			return fmt.Errorf("%w: group A has %d, group B has %d", ErrNotEnoughTeams, a, b)
		}
	case models.PhaseSemifinals:
		a, b := snap.QualifiedPerGroup[models.GroupA], snap.QualifiedPerGroup[models.GroupB]
		if a < 2 || b < 2 {
			return fmt.Errorf("%w: group A has %d, group B has %d (2 per group required)", ErrNotEnoughQualifiedTeams, a, b)
		}
	case models.PhaseFinals:
		if snap.SemifinalsCompleted < 2 {
			return ErrSemifinalsIncomplete
		}
	case models.PhaseCompleted:
		if !snap.FinalsCompleted {
			return ErrFinalsIncomplete
		}
	}
	return nil
}

// Action is an operation gated by the active phase.
type Action string

const (
	ActionGenerateTeams      Action = "generate_teams"
	ActionEditTeams          Action = "edit_teams"
	ActionRecordQualifier    Action = "record_qualifier_result"
	ActionGenerateSemifinals Action = "generate_semifinals"
	ActionRecordSemifinal    Action = "record_semifinal_result"
	ActionGenerateFinals     Action = "generate_finals"
	ActionRecordFinals       Action = "record_finals_result"
)

var allowedActions = map[Action][]models.PhaseName{
	ActionGenerateTeams:      {models.PhaseEnrollment},
	ActionEditTeams:          {models.PhaseEnrollment, models.PhaseQualifier},
	ActionRecordQualifier:    {models.PhaseQualifier},
	ActionGenerateSemifinals: {models.PhaseQualifier, models.PhaseSemifinals},
	ActionRecordSemifinal:    {models.PhaseSemifinals},
	ActionGenerateFinals:     {models.PhaseSemifinals, models.PhaseFinals},
	ActionRecordFinals:       {models.PhaseFinals},
}

// CheckAction returns ErrActionNotAllowedInPhase when action cannot run in phase.
func CheckAction(action Action, phase models.PhaseName) error {
	for _, p := range allowedActions[action] {
		if p == phase {
			return nil
		}
	}
	return fmt.Errorf("%w: %s during %s", ErrActionNotAllowedInPhase, action, phase)
}
