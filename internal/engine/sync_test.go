package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/schedsync/schedsync/internal/models"
	"github.com/schedsync/schedsync/internal/zoho"
)

// mockAPI is a thread-safe test double for the vendor API.
type mockAPI struct {
	mu sync.Mutex

	projects  []zoho.Project
	tasks     []zoho.Task
	tasklists []zoho.Tasklist

	listProjectsErr  error
	listTasksErr     error
	listTasklistsErr error

	createErrFor map[string]error // keyed by task name
	updateErrFor map[string]error // keyed by task id

	created    []zoho.TaskParams
	updated    map[string][]zoho.TaskParams
	nextTaskID int
}

func newMockAPI() *mockAPI {
	return &mockAPI{
		createErrFor: map[string]error{},
		updateErrFor: map[string]error{},
		updated:      map[string][]zoho.TaskParams{},
	}
}

func (m *mockAPI) ListProjects(ctx context.Context) ([]zoho.Project, error) {
	return m.projects, m.listProjectsErr
}

func (m *mockAPI) ListTasks(ctx context.Context, projectID string) ([]zoho.Task, error) {
	return m.tasks, m.listTasksErr
}

func (m *mockAPI) ListTasklists(ctx context.Context, projectID string) ([]zoho.Tasklist, error) {
	return m.tasklists, m.listTasklistsErr
}

func (m *mockAPI) CreateTask(ctx context.Context, projectID string, params zoho.TaskParams) (*zoho.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.createErrFor[params.Name]; ok {
		return nil, err
	}
	m.created = append(m.created, params)
	m.nextTaskID++
	return &zoho.Task{IDString: fmt.Sprintf("new-%d", m.nextTaskID), Name: params.Name}, nil
}

func (m *mockAPI) UpdateTask(ctx context.Context, projectID, taskID string, params zoho.TaskParams) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.updateErrFor[taskID]; ok {
		return nil, err
	}
	m.updated[taskID] = append(m.updated[taskID], params)
	return map[string]any{"task": taskID}, nil
}

func (m *mockAPI) updateCount(taskID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updated[taskID])
}

func pct(v float64) *float64 { return &v }

func singleTaskProject(task *models.Task) *models.Project {
	return &models.Project{
		Name:      "Test",
		Tasklists: []*models.Tasklist{{Name: "Stage", Tasks: []*models.Task{task}}},
	}
}

func outcomeByName(t *testing.T, outcomes []OutcomeRecord, name string) OutcomeRecord {
	t.Helper()
	for _, rec := range outcomes {
		if rec.TaskName == name {
			return rec
		}
	}
	t.Fatalf("no outcome record for task %q", name)
	return OutcomeRecord{}
}

func TestSyncDispatch(t *testing.T) {
	t.Run("matched task gets update only", func(t *testing.T) {
		api := newMockAPI()
		eng := NewEngine(api, nil, 0)

		task := &models.Task{Name: "Known", RemoteID: "42", TasklistRemoteID: "77", Percentage: pct(50)}
		outcomes := eng.syncProject(context.Background(), singleTaskProject(task), "p1")

		if len(outcomes) != 1 {
			t.Fatalf("outcomes = %d, want 1", len(outcomes))
		}
		if outcomes[0].Status != StatusSuccess {
			t.Errorf("status = %s, want SUCCESS", outcomes[0].Status)
		}
		if len(api.created) != 0 {
			t.Errorf("create calls = %d, want 0", len(api.created))
		}
		if api.updateCount("42") != 1 {
			t.Errorf("update calls for 42 = %d, want 1", api.updateCount("42"))
		}
	})

	t.Run("unmatched task under matched tasklist gets create then update", func(t *testing.T) {
		api := newMockAPI()
		eng := NewEngine(api, nil, 0)

		task := &models.Task{Name: "Fresh", TasklistRemoteID: "77", Percentage: pct(30)}
		outcomes := eng.syncProject(context.Background(), singleTaskProject(task), "p1")

		if len(api.created) != 1 {
			t.Fatalf("create calls = %d, want 1", len(api.created))
		}
		if api.created[0].Name != "Fresh" || api.created[0].TasklistID != "77" {
			t.Errorf("create params = %+v", api.created[0])
		}
		if api.updateCount("new-1") != 1 {
			t.Errorf("update calls for new-1 = %d, want 1", api.updateCount("new-1"))
		}
		if outcomes[0].Status != StatusSuccess || outcomes[0].TaskID != "new-1" {
			t.Errorf("outcome = %+v", outcomes[0])
		}
	})

	t.Run("task with no placement is silently skipped", func(t *testing.T) {
		api := newMockAPI()
		eng := NewEngine(api, nil, 0)

		task := &models.Task{Name: "Orphan", Percentage: pct(10)}
		outcomes := eng.syncProject(context.Background(), singleTaskProject(task), "p1")

		if len(outcomes) != 0 {
			t.Errorf("outcomes = %d, want 0 (no log entry for skipped tasks)", len(outcomes))
		}
		if len(api.created) != 0 || len(api.updated) != 0 {
			t.Error("skipped task must issue zero network calls")
		}
	})
}

func TestSyncPercentRounding(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{44, 40},
		{45, 50},
		{73, 70},
		{0, 0},
		{100, 100},
	}

	for _, tt := range tests {
		got := roundedPercent(pct(tt.in))
		if got == nil || *got != tt.want {
			t.Errorf("roundedPercent(%v) = %v, want %d", tt.in, got, tt.want)
		}
	}

	if roundedPercent(nil) != nil {
		t.Error("roundedPercent(nil) should stay nil")
	}
}

func TestSyncTransmitsRoundedPercent(t *testing.T) {
	api := newMockAPI()
	eng := NewEngine(api, nil, 0)

	task := &models.Task{Name: "Known", RemoteID: "42", Percentage: pct(44)}
	eng.syncProject(context.Background(), singleTaskProject(task), "p1")

	params := api.updated["42"][0]
	if params.PercentComplete == nil || *params.PercentComplete != 40 {
		t.Errorf("percent_complete = %v, want 40", params.PercentComplete)
	}
}

func TestSyncOmitsAbsentPercent(t *testing.T) {
	api := newMockAPI()
	eng := NewEngine(api, nil, 0)

	task := &models.Task{Name: "NoProgress", RemoteID: "42"}
	eng.syncProject(context.Background(), singleTaskProject(task), "p1")

	if api.updated["42"][0].PercentComplete != nil {
		t.Error("percent_complete should be omitted when percentage is absent")
	}
}

func TestSyncFailureIsolation(t *testing.T) {
	api := newMockAPI()
	api.updateErrFor["bad"] = fmt.Errorf("remote exploded")
	eng := NewEngine(api, nil, 0)

	project := &models.Project{
		Name: "Test",
		Tasklists: []*models.Tasklist{{
			Name: "Stage",
			Tasks: []*models.Task{
				{Name: "Doomed", RemoteID: "bad", Percentage: pct(10)},
				{Name: "Fine", RemoteID: "good", Percentage: pct(20)},
			},
		}},
	}

	outcomes := eng.syncProject(context.Background(), project, "p1")

	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}

	doomed := outcomeByName(t, outcomes, "Doomed")
	if doomed.Status != StatusFailed || doomed.Error == "" {
		t.Errorf("doomed outcome = %+v, want FAILED with error", doomed)
	}

	fine := outcomeByName(t, outcomes, "Fine")
	if fine.Status != StatusSuccess {
		t.Errorf("sibling outcome = %+v, want SUCCESS despite other task failing", fine)
	}
}

func TestSyncCreateFailure(t *testing.T) {
	t.Run("create call fails", func(t *testing.T) {
		api := newMockAPI()
		api.createErrFor["Fresh"] = fmt.Errorf("boom")
		eng := NewEngine(api, nil, 0)

		task := &models.Task{Name: "Fresh", TasklistRemoteID: "77"}
		outcomes := eng.syncProject(context.Background(), singleTaskProject(task), "p1")

		if outcomes[0].Status != StatusFailed {
			t.Errorf("status = %s, want FAILED", outcomes[0].Status)
		}
		if outcomes[0].TaskID != CreationFailedID {
			t.Errorf("id = %q, want %q", outcomes[0].TaskID, CreationFailedID)
		}
	})

	t.Run("create succeeds but followup update fails", func(t *testing.T) {
		api := newMockAPI()
		api.updateErrFor["new-1"] = fmt.Errorf("boom")
		eng := NewEngine(api, nil, 0)

		task := &models.Task{Name: "Fresh", TasklistRemoteID: "77"}
		outcomes := eng.syncProject(context.Background(), singleTaskProject(task), "p1")

		if outcomes[0].Status != StatusFailed {
			t.Errorf("status = %s, want FAILED", outcomes[0].Status)
		}
		if outcomes[0].TaskID != "new-1" {
			t.Errorf("id = %q, want the created id new-1", outcomes[0].TaskID)
		}
	})
}

func TestCustomFieldSlots(t *testing.T) {
	group := "G1"
	scope := "mechanical"
	kind := "czynność"
	indicator := "ok"

	fields := models.CustomFields{Group: &group, Scope: &scope, Kind: &kind, Indicator: &indicator}
	slots := customFieldSlots(fields)

	want := map[string]string{
		"UDF_CHAR10": "G1",
		"UDF_CHAR9":  "mechanical",
		"UDF_CHAR8":  "czynność",
		"UDF_CHAR5":  "ok",
	}

	if len(slots) != len(want) {
		t.Fatalf("slots = %v, want %v", slots, want)
	}
	for slot, value := range want {
		if slots[slot] != value {
			t.Errorf("slots[%s] = %q, want %q", slot, slots[slot], value)
		}
	}
}

func TestCustomFieldSlotsEmpty(t *testing.T) {
	if slots := customFieldSlots(models.CustomFields{}); slots != nil {
		t.Errorf("slots = %v, want nil so custom_fields is omitted from the payload", slots)
	}
}
