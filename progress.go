package substr

import (
	"context"
	"fmt"
	"log/slog"
)

// Phase identifies a step of the build process.
type Phase uint8

const (
	// PhaseContainment finds strings contained verbatim in other strings.
	PhaseContainment Phase = iota + 1
	// PhaseOverlap chains strings through shared suffix/prefix bytes.
	PhaseOverlap
	// PhaseLoose appends strings no earlier phase placed.
	PhaseLoose
	// PhaseResolve gives contained strings positions inside their containers.
	PhaseResolve
	// PhaseDone is reported once after the last phase.
	PhaseDone
)

// phaseCount is the number of working phases (PhaseDone excluded).
const phaseCount = 4

// String returns the human-readable name of a phase.
func (p Phase) String() string {
	switch p {
	case PhaseContainment:
		return "containment"
	case PhaseOverlap:
		return "overlap"
	case PhaseLoose:
		return "loose"
	case PhaseResolve:
		return "resolve"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// ProgressFunc observes the build. It is called with each phase as the phase
// starts, then with PhaseDone. It must not call back into the Builder.
type ProgressFunc func(Phase)

// LogProgress returns a ProgressFunc that reports phases to logger at info level.
func LogProgress(logger *slog.Logger) ProgressFunc {
	return func(p Phase) {
		if p == PhaseDone {
			logger.LogAttrs(context.Background(), slog.LevelInfo, "build finished")
			return
		}
		logger.LogAttrs(context.Background(), slog.LevelInfo, "build phase",
			slog.String("phase", p.String()),
			slog.String("step", fmt.Sprintf("%d/%d", p, phaseCount)))
	}
}
