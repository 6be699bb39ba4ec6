// package engine implements the reconciliation and sync core.
//
// A run is a single stateless pass: raw spreadsheet rows are normalized into
// a local project tree, matched by name against the remote project's
// tasklists and tasks, and the minimal set of create/update calls is issued
// per task, concurrently, collecting a per-task outcome log. Operations emit
// progress updates via channels for non-blocking status reporting.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/schedsync/schedsync/internal/models"
	"github.com/schedsync/schedsync/internal/sheet"
	"github.com/schedsync/schedsync/internal/shared"
	"github.com/schedsync/schedsync/internal/zoho"
)

// API defines the vendor operations the engine depends on.
// This abstraction allows for easier testing and decoupling from the
// concrete [zoho.Client].
type API interface {
	ListProjects(ctx context.Context) ([]zoho.Project, error)
	ListTasks(ctx context.Context, projectID string) ([]zoho.Task, error)
	ListTasklists(ctx context.Context, projectID string) ([]zoho.Tasklist, error)
	CreateTask(ctx context.Context, projectID string, params zoho.TaskParams) (*zoho.Task, error)
	UpdateTask(ctx context.Context, projectID, taskID string, params zoho.TaskParams) (any, error)
}

// RunResult contains all data from a completed sync run.
type RunResult struct {
	RunID       string          `json:"runId"`
	ProjectID   string          `json:"projectId"`
	Project     *models.Project `json:"project"`
	RemoteTasks []zoho.Task     `json:"taskData"`
	Outcomes    []OutcomeRecord `json:"updateLogs"`
}

// Engine orchestrates a sync run against the vendor API.
type Engine struct {
	api         API
	log         *log.Logger
	callTimeout time.Duration
}

// NewEngine creates an Engine. The callTimeout bounds each individual vendor
// call during the sync phase; zero disables the bound.
func NewEngine(api API, logger *log.Logger, callTimeout time.Duration) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{api: api, log: logger, callTimeout: callTimeout}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run performs a full sheet → Zoho Projects sync pass.
//
// Failure modes: [shared.ErrInvalidSheet] for malformed rows,
// [shared.ErrProjectNotFound] when the sheet's project name matches no remote
// project, and upstream listing errors; all of these abort the run. Per-task
// sync failures never do — they land in the outcome log.
func (e *Engine) Run(ctx context.Context, rows [][]string, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: vendor API not initialized", shared.ErrAPIRequest)
	}

	project, err := sheet.Normalize(rows)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, normalizeUpdate(project.TaskCount(), len(project.Tasklists)))

	e.sendProgress(progress, fetchProjectsUpdate())
	remoteProjects, err := e.api.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projectID := ResolveProjectID(project.Name, remoteProjects)
	if projectID == "" {
		return nil, fmt.Errorf("%w: no remote project named %q", shared.ErrProjectNotFound, project.Name)
	}
	e.sendProgress(progress, resolvedProjectUpdate(project.Name, projectID))

	e.sendProgress(progress, fetchTasksUpdate(projectID))
	remoteTasks, err := e.api.ListTasks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	e.StampTasklistsFromTasks(project, remoteTasks)
	e.StampTaskIDs(project, remoteTasks)
	e.sendProgress(progress, reconcileUpdate(matchedTaskCount(project), project.TaskCount()))

	e.sendProgress(progress, fetchTasklistsUpdate(projectID))
	remoteTasklists, err := e.api.ListTasklists(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasklists: %w", err)
	}
	// Authoritative pass; overwrites whatever the task-embedded pass inferred.
	e.StampTasklistsFromListing(project, remoteTasklists)

	e.sendProgress(progress, syncStartUpdate(eligibleTaskCount(project)))
	outcomes := e.syncProject(ctx, project, projectID)

	succeeded, failed := 0, 0
	for _, rec := range outcomes {
		if rec.Status == StatusSuccess {
			succeeded++
		} else {
			failed++
		}
	}
	e.sendProgress(progress, syncSettledUpdate(succeeded, failed))

	result := &RunResult{
		RunID:       shared.GenerateID(),
		ProjectID:   projectID,
		Project:     project,
		RemoteTasks: remoteTasks,
		Outcomes:    outcomes,
	}

	e.log.Info("sync run complete", "run", result.RunID, "project", projectID, "succeeded", succeeded, "failed", failed)
	return result, nil
}

func matchedTaskCount(project *models.Project) int {
	n := 0
	for _, tl := range project.Tasklists {
		for _, task := range tl.Tasks {
			if task.RemoteID != "" {
				n++
			}
		}
	}
	return n
}

func eligibleTaskCount(project *models.Project) int {
	n := 0
	for _, tl := range project.Tasklists {
		for _, task := range tl.Tasks {
			if task.RemoteID != "" || task.TasklistRemoteID != "" {
				n++
			}
		}
	}
	return n
}
