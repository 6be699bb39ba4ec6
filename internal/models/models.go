// package models defines the local schedule model built from a spreadsheet
package models

// CustomFields holds the optional metadata columns carried by both stage and
// task rows. A nil field means the source cell was empty and the field is
// omitted from vendor payloads.
type CustomFields struct {
	Group                *string `json:"group,omitempty"`
	Scope                *string `json:"scope,omitempty"`
	Kind                 *string `json:"type,omitempty"`
	Target               *string `json:"target,omitempty"`
	Deviation            *string `json:"deviation,omitempty"`
	Indicator            *string `json:"indicator,omitempty"`
	WorkTime             *string `json:"workTime,omitempty"`
	WorkTimeFromInterval *string `json:"workTimeFromInterval,omitempty"`
}

// Empty reports whether no metadata field is set.
func (f CustomFields) Empty() bool {
	return f.Group == nil && f.Scope == nil && f.Kind == nil && f.Target == nil &&
		f.Deviation == nil && f.Indicator == nil && f.WorkTime == nil && f.WorkTimeFromInterval == nil
}

// Task is a unit of work under a tasklist, parsed from an activity/item row.
//
// RemoteID and TasklistRemoteID start empty ("not yet known") and are stamped
// in place by the reconciliation passes.
type Task struct {
	LocalID          int          `json:"myId"`
	RemoteID         string       `json:"id"`
	TasklistRemoteID string       `json:"tasklist_id"`
	Name             string       `json:"name"`
	Percentage       *float64     `json:"percentage,omitempty"`
	Fields           CustomFields `json:"fields"`
}

// Tasklist is a named grouping of tasks, parsed from a stage row.
type Tasklist struct {
	RemoteID string       `json:"id"`
	Name     string       `json:"name"`
	Progress *float64     `json:"progress,omitempty"`
	Fields   CustomFields `json:"fields"`
	Tasks    []*Task      `json:"tasks"`
}

// Project is the local schedule tree for a single sync run. The structure is
// immutable after normalization; only the remote-ID fields are mutated later.
type Project struct {
	Name      string      `json:"name"`
	Tasklists []*Tasklist `json:"tasklists"`
}

// TaskCount returns the total number of tasks across all tasklists.
func (p *Project) TaskCount() int {
	n := 0
	for _, tl := range p.Tasklists {
		n += len(tl.Tasks)
	}
	return n
}
