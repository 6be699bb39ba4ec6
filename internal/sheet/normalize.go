package sheet

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/schedsync/schedsync/internal/models"
	"github.com/schedsync/schedsync/internal/shared"
)

// Column positions of the schedule workbook contract.
const (
	colProjectName = 0 // row 1 only
	colType        = 1
	colScope       = 2
	colName        = 3
	colGroup       = 4
	colProgress    = 5
	colTarget      = 6
	colDeviation   = 7
	colIndicator   = 8
	colWorkTime    = 9
	colWorkTimeInt = 10
)

// Row type discriminators. Matched exactly, as written in the sheet.
const (
	typeStage    = "etap"
	typeActivity = "czynność"
	typeItem     = "przedmiot"
)

// namePrefix matches a leading numeric outline prefix such as "10100.044)" or
// "5.2 -", with an optional closing parenthesis and a single trailing
// separator (dot, pipe or dash).
var namePrefix = regexp.MustCompile(`^\s*\d+(\.\d+)*\)?\s*[.|\-]?\s*`)

// CleanTaskName strips the numeric outline prefix from a task name. Empty
// names normalize to the empty string.
func CleanTaskName(name string) string {
	if name == "" {
		return ""
	}
	return namePrefix.ReplaceAllString(name, "")
}

// Normalize converts raw workbook rows into a [models.Project].
//
// Iteration starts at the project-name row itself, so a sheet whose second
// row doubles as a stage marker opens a tasklist there. Rows of unknown type,
// and activity rows appearing before any stage row, are ignored.
func Normalize(rows [][]string) (*models.Project, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: expected a header row and a project row", shared.ErrInvalidSheet)
	}

	project := &models.Project{Name: cell(rows[1], colProjectName)}

	var current *models.Tasklist
	localID := 0

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rowType := cell(row, colType)

		switch {
		case rowType == typeStage:
			if current != nil {
				project.Tasklists = append(project.Tasklists, current)
			}
			localID = 0
			current = &models.Tasklist{
				Name:     cell(row, colName),
				Progress: percentage(cell(row, colProgress)),
				Fields:   customFields(row),
			}

		case (rowType == typeActivity || rowType == typeItem) && current != nil:
			task := &models.Task{
				LocalID:    localID,
				Name:       CleanTaskName(cell(row, colName)),
				Percentage: percentage(cell(row, colProgress)),
				Fields:     customFields(row),
			}
			localID++
			current.Tasks = append(current.Tasks, task)
		}
	}

	if current != nil {
		project.Tasklists = append(project.Tasklists, current)
	}

	return project, nil
}

// customFields collects the optional metadata columns present on a row.
// The type column doubles as the "kind" custom field, mirroring the sheet.
func customFields(row []string) models.CustomFields {
	return models.CustomFields{
		Group:                optional(cell(row, colGroup)),
		Scope:                optional(cell(row, colScope)),
		Kind:                 optional(cell(row, colType)),
		Target:               optional(cell(row, colTarget)),
		Deviation:            optional(cell(row, colDeviation)),
		Indicator:            optional(cell(row, colIndicator)),
		WorkTime:             optional(cell(row, colWorkTime)),
		WorkTimeFromInterval: optional(cell(row, colWorkTimeInt)),
	}
}

// percentage converts a progress cell holding a fraction (e.g. "0.73") into a
// percentage value (73). Non-numeric cells yield nil rather than NaN.
func percentage(raw string) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	pct := f * 100
	return &pct
}

func optional(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

// cell returns the value at index i, tolerating short rows.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}
