package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/schedsync/schedsync/internal/shared"
	"github.com/schedsync/schedsync/internal/zoho"
)

// sheetRows builds a plausible raw sheet: a header row, then the project name
// on the first data row alongside the opening stage.
func sheetRows() [][]string {
	return [][]string{
		{"Project", "Type", "Scope", "Name", "Group", "Progress"},
		{"Alpha Build", "etap", "", "1. Phase One", "", ""},
		{"", "czynność", "mechanical", "1.1 Pour footings", "G1", "0.5"},
		{"", "czynność", "mechanical", "1.2 Cure", "G1", "0.25"},
		{"", "etap", "", "2. Phase Two", "", ""},
		{"", "przedmiot", "", "2.1 Windows", "", "0.73"},
	}
}

func TestRunProjectNotFound(t *testing.T) {
	api := newMockAPI()
	api.projects = []zoho.Project{{IDString: "p9", Name: "Something Else"}}
	eng := NewEngine(api, nil, 0)

	_, err := eng.Run(context.Background(), sheetRows(), nil)
	if !errors.Is(err, shared.ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestRunNilAPI(t *testing.T) {
	eng := NewEngine(nil, nil, 0)

	_, err := eng.Run(context.Background(), sheetRows(), nil)
	if !errors.Is(err, shared.ErrAPIRequest) {
		t.Fatalf("err = %v, want ErrAPIRequest", err)
	}
}

func TestRunInvalidSheet(t *testing.T) {
	api := newMockAPI()
	eng := NewEngine(api, nil, 0)

	_, err := eng.Run(context.Background(), [][]string{{"only header"}}, nil)
	if !errors.Is(err, shared.ErrInvalidSheet) {
		t.Fatalf("err = %v, want ErrInvalidSheet", err)
	}
}

func TestRunEndToEnd(t *testing.T) {
	api := newMockAPI()
	api.projects = []zoho.Project{{IDString: "p1", Name: "Alpha Build", Status: "active"}}
	// Tasklist names carry the raw stage labels, numeric prefix included,
	// because that is how they were originally created remotely.
	api.tasks = []zoho.Task{
		{IDString: "t-100", Name: "Pour footings", Tasklist: zoho.TasklistRef{IDString: "tl-old", Name: "1. Phase One"}},
	}
	// Phase Two never materialized remotely, so its tasks have nowhere to go.
	api.tasklists = []zoho.Tasklist{{IDString: "tl-1", Name: "1. Phase One"}}

	eng := NewEngine(api, nil, 0)

	progress := make(chan ProgressUpdate, 64)
	result, err := eng.Run(context.Background(), sheetRows(), progress)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.ProjectID != "p1" {
		t.Errorf("project id = %q, want p1", result.ProjectID)
	}
	if result.RunID == "" {
		t.Error("run id should be populated")
	}
	if len(result.Project.Tasklists) != 2 {
		t.Fatalf("tasklists = %d, want 2", len(result.Project.Tasklists))
	}

	// Matched task updates in place; its unmatched sibling is created under
	// the authoritative tasklist id, not the one inferred from task data.
	if api.updateCount("t-100") != 1 {
		t.Errorf("update calls for t-100 = %d, want 1", api.updateCount("t-100"))
	}
	if len(api.created) != 1 {
		t.Fatalf("create calls = %d, want 1", len(api.created))
	}
	if api.created[0].Name != "Cure" || api.created[0].TasklistID != "tl-1" {
		t.Errorf("create params = %+v, want Cure under tl-1", api.created[0])
	}

	// Two eligible tasks, so exactly two log entries; Windows is skipped.
	if len(result.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(result.Outcomes))
	}
	for _, rec := range result.Outcomes {
		if rec.Status != StatusSuccess {
			t.Errorf("outcome %q = %s, want SUCCESS", rec.TaskName, rec.Status)
		}
		if rec.TaskName == "Windows" {
			t.Error("unplaceable task must not appear in the outcome log")
		}
	}

	if len(result.RemoteTasks) != 1 || result.RemoteTasks[0].IDString != "t-100" {
		t.Errorf("remote tasks = %+v", result.RemoteTasks)
	}

	// Progress reporting is best-effort but with a buffered channel every
	// phase should have landed at least once.
	close(progress)
	seen := map[Phase]bool{}
	for update := range progress {
		seen[update.Phase] = true
	}
	for _, phase := range []Phase{NormalizeRows, FetchProjects, ResolveProject, FetchTasks, Reconcile, FetchTasklists, SyncTasks} {
		if !seen[phase] {
			t.Errorf("no progress update for phase %s", phase)
		}
	}
}

func TestRunListTasksError(t *testing.T) {
	api := newMockAPI()
	api.projects = []zoho.Project{{IDString: "p1", Name: "Alpha Build"}}
	api.listTasksErr = errors.New("upstream down")
	eng := NewEngine(api, nil, 0)

	_, err := eng.Run(context.Background(), sheetRows(), nil)
	if err == nil || !errors.Is(err, api.listTasksErr) {
		t.Fatalf("err = %v, want wrapped listing error", err)
	}
}

func TestSendProgressNeverBlocks(t *testing.T) {
	eng := NewEngine(newMockAPI(), nil, 0)

	// Unbuffered channel with no reader: every send must fall through.
	blocked := make(chan ProgressUpdate)
	for i := 0; i < 5; i++ {
		eng.sendProgress(blocked, normalizeUpdate(1, 1))
	}

	eng.sendProgress(nil, normalizeUpdate(1, 1))
}
