package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
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
	MarkWatched Phase = iota
	DeleteItems
	FetchPage
	WriteExport
)

func (p Phase) String() string {
	switch p {
	case MarkWatched:
		return "mark_watched"
	case DeleteItems:
		return "delete_items"
	case FetchPage:
		return "fetch_page"
	case WriteExport:
		return "write_export"
	default:
		return ""
	}
}

func (p Phase) verb() string {
	switch p {
	case MarkWatched:
		return "Marking watched"
	case DeleteItems:
		return "Deleting"
	default:
		return "Processing"
	}
}

func itemDoneUpdate(phase Phase, step, total int, id uint) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s #%d", step, total, phase.verb(), id),
		Data:    id,
	}
}

func itemFailedUpdate(phase Phase, step, total int, id uint, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s #%d: %v", step, total, phase.verb(), id, err),
		Data:    id,
	}
}

func fetchPageUpdate(step int, offset int, total int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPage,
		Step:    step,
		Total:   int(total),
		Message: fmt.Sprintf("Fetching collection (offset %d of %d)...", offset, total),
	}
}

func writeExportUpdate(count int, format string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteExport,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Writing %d items as %s...", count, format),
	}
}
