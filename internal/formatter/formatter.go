// package formatter renders sync run results to various formats (CSV, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/schedsync/schedsync/internal/engine"
	"github.com/schedsync/schedsync/internal/shared"
)

// OutcomesToCSV converts an outcome log to CSV with columns: Status, Task, ID, Error
func OutcomesToCSV(outcomes []engine.OutcomeRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Status", "Task", "ID", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, rec := range outcomes {
		record := []string{
			string(rec.Status),
			rec.TaskName,
			rec.TaskID,
			rec.Error,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ResultToText converts a run result to a plain text summary.
func ResultToText(result *engine.RunResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Run: %s\n", result.RunID))
	buf.WriteString(fmt.Sprintf("Project: %s (%s)\n", result.Project.Name, result.ProjectID))
	buf.WriteString(fmt.Sprintf("Tasklists: %d, Tasks: %d\n\n", len(result.Project.Tasklists), result.Project.TaskCount()))

	succeeded, failed := 0, 0
	for _, rec := range result.Outcomes {
		if rec.Status == engine.StatusSuccess {
			succeeded++
			buf.WriteString(fmt.Sprintf("  ok   %s (%s)\n", rec.TaskName, rec.TaskID))
		} else {
			failed++
			buf.WriteString(fmt.Sprintf("  FAIL %s (%s): %s\n", rec.TaskName, rec.TaskID, rec.Error))
		}
	}

	buf.WriteString(fmt.Sprintf("\n%d succeeded, %d failed, %d total\n", succeeded, failed, len(result.Outcomes)))
	return buf.Bytes()
}

// WriteResultJSON writes the full run result as pretty JSON to the given path.
func WriteResultJSON(result *engine.RunResult, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("sync_%s.json", result.RunID)
	}

	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result file: %w", err)
	}

	return path, nil
}

// WriteOutcomeCSV writes the outcome log as CSV to the given path.
func WriteOutcomeCSV(outcomes []engine.OutcomeRecord, path string) (string, error) {
	if path == "" {
		path = "sync_outcomes.csv"
	}

	data, err := OutcomesToCSV(outcomes)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}
