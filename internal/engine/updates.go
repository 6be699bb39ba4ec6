package engine

import "fmt"

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or server layer for display.
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
	NormalizeRows Phase = iota
	FetchProjects
	ResolveProject
	FetchTasks
	Reconcile
	FetchTasklists
	SyncTasks
)

func (p Phase) String() string {
	switch p {
	case NormalizeRows:
		return "normalize_rows"
	case FetchProjects:
		return "fetch_projects"
	case ResolveProject:
		return "resolve_project"
	case FetchTasks:
		return "fetch_tasks"
	case Reconcile:
		return "reconcile"
	case FetchTasklists:
		return "fetch_tasklists"
	case SyncTasks:
		return "sync_tasks"
	default:
		return ""
	}
}

func normalizeUpdate(taskCount, tasklistCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   NormalizeRows,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Parsed %d tasks across %d tasklists", taskCount, tasklistCount),
	}
}

func fetchProjectsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProjects,
		Step:    1,
		Total:   1,
		Message: "Fetching active projects...",
	}
}

func resolvedProjectUpdate(name, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveProject,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolved project %q (ID: %s)", name, id),
		Data:    id,
	}
}

func fetchTasksUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTasks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching tasks for project %s...", id),
	}
}

func reconcileUpdate(matched, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Matched %d of %d tasks by name", matched, total),
	}
}

func fetchTasklistsUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTasklists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching tasklists for project %s...", id),
	}
}

func syncStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncTasks,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Dispatching %d task sync operations...", total),
	}
}

func syncSettledUpdate(succeeded, failed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncTasks,
		Step:    succeeded + failed,
		Total:   succeeded + failed,
		Message: fmt.Sprintf("Sync settled: %d succeeded, %d failed", succeeded, failed),
	}
}
