package engine

import (
	"context"
	"math"
	"sync"

	"github.com/schedsync/schedsync/internal/models"
	"github.com/schedsync/schedsync/internal/zoho"
)

// OutcomeStatus classifies a single task's sync result.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "SUCCESS"
	StatusFailed  OutcomeStatus = "FAILED"
)

// CreationFailedID is reported as the task id when the create call itself
// failed and no remote id ever existed.
const CreationFailedID = "creation_failed"

// OutcomeRecord is the per-task entry of the sync outcome log. Records appear
// in completion order, not input order; consumers identify tasks by name/id.
type OutcomeRecord struct {
	Status   OutcomeStatus `json:"status"`
	TaskName string        `json:"taskName"`
	TaskID   string        `json:"id"`
	Response any           `json:"response,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Zoho custom-field slots the spreadsheet metadata columns map into.
const (
	slotIndicator    = "UDF_CHAR5"
	slotWorkTime     = "UDF_CHAR6"
	slotWorkTimeInt  = "UDF_CHAR7"
	slotKind         = "UDF_CHAR8"
	slotScope        = "UDF_CHAR9"
	slotGroup        = "UDF_CHAR10"
	slotTarget       = "UDF_CHAR11"
	slotDeviation    = "UDF_CHAR12"
)

// customFieldSlots maps present metadata fields into their custom-field
// slots. Returns nil when no field is set so the payload omits custom_fields.
func customFieldSlots(f models.CustomFields) map[string]string {
	if f.Empty() {
		return nil
	}

	slots := map[string]string{}
	set := func(slot string, value *string) {
		if value != nil {
			slots[slot] = *value
		}
	}
	set(slotKind, f.Kind)
	set(slotScope, f.Scope)
	set(slotGroup, f.Group)
	set(slotTarget, f.Target)
	set(slotDeviation, f.Deviation)
	set(slotIndicator, f.Indicator)
	set(slotWorkTime, f.WorkTime)
	set(slotWorkTimeInt, f.WorkTimeFromInterval)
	return slots
}

// roundedPercent coarsens a percentage to the nearest multiple of 10 before
// transmission. Deliberate: the vendor UI tracks progress in 10% steps.
func roundedPercent(pct *float64) *int {
	if pct == nil {
		return nil
	}
	rounded := int(math.Round(*pct/10)) * 10
	return &rounded
}

// syncProject dispatches one sync operation per eligible task, all launched
// concurrently, and waits for every one to settle before returning the
// aggregated outcome log. A task failure never affects sibling tasks.
//
// Tasks with neither a remote id nor a remote tasklist id could not be placed
// under any remote tasklist and are skipped without a log entry.
func (e *Engine) syncProject(ctx context.Context, project *models.Project, projectID string) []OutcomeRecord {
	results := make(chan OutcomeRecord)

	var wg sync.WaitGroup
	for _, tl := range project.Tasklists {
		for _, task := range tl.Tasks {
			if task.RemoteID == "" && task.TasklistRemoteID == "" {
				continue
			}
			wg.Add(1)
			go func(t *models.Task) {
				defer wg.Done()
				results <- e.syncTask(ctx, projectID, t)
			}(task)
		}
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := []OutcomeRecord{}
	for record := range results {
		if record.Status == StatusFailed {
			e.log.Warn("task sync failed", "task", record.TaskName, "id", record.TaskID, "error", record.Error)
		} else {
			e.log.Debug("task synced", "task", record.TaskName, "id", record.TaskID)
		}
		outcomes = append(outcomes, record)
	}

	return outcomes
}

// syncTask performs one task's update-only or create-then-update operation.
func (e *Engine) syncTask(ctx context.Context, projectID string, task *models.Task) OutcomeRecord {
	updateParams := zoho.TaskParams{
		PercentComplete: roundedPercent(task.Percentage),
		CustomFields:    customFieldSlots(task.Fields),
	}

	if task.RemoteID != "" {
		response, err := e.updateCall(ctx, projectID, task.RemoteID, updateParams)
		if err != nil {
			return failedOutcome(task.Name, task.RemoteID, err)
		}
		return OutcomeRecord{Status: StatusSuccess, TaskName: task.Name, TaskID: task.RemoteID, Response: response}
	}

	createParams := zoho.TaskParams{
		Name:         task.Name,
		TasklistID:   task.TasklistRemoteID,
		CustomFields: customFieldSlots(task.Fields),
	}

	created, err := e.createCall(ctx, projectID, createParams)
	if err != nil {
		return failedOutcome(task.Name, CreationFailedID, err)
	}

	response, err := e.updateCall(ctx, projectID, created.IDString, updateParams)
	if err != nil {
		return failedOutcome(task.Name, created.IDString, err)
	}

	return OutcomeRecord{
		Status:   StatusSuccess,
		TaskName: task.Name,
		TaskID:   created.IDString,
		Response: map[string]any{"create": created, "update": response},
	}
}

func (e *Engine) createCall(ctx context.Context, projectID string, params zoho.TaskParams) (*zoho.Task, error) {
	ctx, cancel := e.callContext(ctx)
	defer cancel()
	return e.api.CreateTask(ctx, projectID, params)
}

func (e *Engine) updateCall(ctx context.Context, projectID, taskID string, params zoho.TaskParams) (any, error) {
	ctx, cancel := e.callContext(ctx)
	defer cancel()
	return e.api.UpdateTask(ctx, projectID, taskID, params)
}

// callContext bounds a single vendor call so a hung request cannot stall the
// settle barrier indefinitely.
func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.callTimeout > 0 {
		return context.WithTimeout(ctx, e.callTimeout)
	}
	return context.WithCancel(ctx)
}

func failedOutcome(name, id string, err error) OutcomeRecord {
	return OutcomeRecord{Status: StatusFailed, TaskName: name, TaskID: id, Error: err.Error()}
}
