package tasks

import (
	"fmt"

	"github.com/desertthunder/squadify/internal/collab"
	"github.com/desertthunder/squadify/internal/models"
	"github.com/desertthunder/squadify/internal/squad"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	LoadSquad Phase = iota
	BuildCollab
	RecordRun
	LoadRun
	WriteOutput
)

func (p Phase) String() string {
	switch p {
	case LoadSquad:
		return "load_squad"
	case BuildCollab:
		return "build_collab"
	case RecordRun:
		return "record_run"
	case LoadRun:
		return "load_run"
	case WriteOutput:
		return "write_output"
	default:
		return ""
	}
}

func loadingSquadUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadSquad,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Loading squad from %s...", path),
	}
}

func loadedSquadUpdate(s *squad.Squad) ProgressUpdate {
	msg := fmt.Sprintf("Loaded %s (%d members)", s.Name, len(s.Playlists))
	if len(s.Skipped) > 0 {
		msg += fmt.Sprintf(", skipped %d", len(s.Skipped))
	}
	return ProgressUpdate{
		Phase:   LoadSquad,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    s,
	}
}

func buildingCollabUpdate(seed uint64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildCollab,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Building collab (seed %d)...", seed),
	}
}

func builtCollabUpdate(result *collab.Result) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildCollab,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Collab built: %d tracks", len(result.Entries)),
		Data:    result,
	}
}

func recordingRunUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordRun,
		Step:    0,
		Total:   1,
		Message: "Recording run...",
	}
}

func recordedRunUpdate(run *models.Run) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordRun,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Recorded run #%d (ID: %s)", run.Sequence(), run.ID()),
		Data:    run,
	}
}

func loadedRunUpdate(run *models.Run) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadRun,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Replaying run #%d of %s (seed %d)", run.Sequence(), run.Squad(), run.Seed()),
		Data:    run,
	}
}

func writeCompletedUpdate(step, total int, name, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteOutput,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s → %s", step, total, name, path),
	}
}

func writeFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteOutput,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
