package engine

import (
	"github.com/schedsync/schedsync/internal/models"
	"github.com/schedsync/schedsync/internal/zoho"
)

// ResolveProjectID returns the id of the first remote project whose name
// matches, in remote listing order. Empty result means no match; there is no
// fallback project creation.
func ResolveProjectID(projectName string, remote []zoho.Project) string {
	for _, proj := range remote {
		if SameName(proj.Name, projectName) {
			return proj.IDString
		}
	}
	return ""
}

// StampTasklistsFromTasks stamps local tasklists with remote tasklist ids
// inferred from the tasklist each remote task is embedded in. Tasklists
// matched by several remote tasks are stamped redundantly; the operation is
// idempotent.
func (e *Engine) StampTasklistsFromTasks(project *models.Project, remoteTasks []zoho.Task) {
	for _, tl := range project.Tasklists {
		for _, task := range remoteTasks {
			if !SameName(task.Tasklist.Name, tl.Name) {
				continue
			}
			if tl.RemoteID != "" && tl.RemoteID != task.Tasklist.IDString {
				e.log.Debug("tasklist name collision", "tasklist", tl.Name, "kept", tl.RemoteID, "ignored", task.Tasklist.IDString)
				continue
			}
			stampTasklist(tl, task.Tasklist.IDString)
		}
	}
}

// StampTasklistsFromListing stamps local tasklists using the authoritative
// remote tasklist listing. Runs after [Engine.StampTasklistsFromTasks] and
// overwrites its results wherever the two disagree.
func (e *Engine) StampTasklistsFromListing(project *models.Project, remote []zoho.Tasklist) {
	for _, rtl := range remote {
		for _, tl := range project.Tasklists {
			if SameName(rtl.Name, tl.Name) {
				stampTasklist(tl, rtl.IDString)
			}
		}
	}
}

// StampTaskIDs stamps each local task with the id of the first remote task
// whose name matches, in remote listing order. Unmatched tasks keep an empty
// id, marking them for creation.
func (e *Engine) StampTaskIDs(project *models.Project, remoteTasks []zoho.Task) {
	for _, tl := range project.Tasklists {
		for _, task := range tl.Tasks {
			for _, remote := range remoteTasks {
				if SameName(remote.Name, task.Name) {
					task.RemoteID = remote.IDString
					break
				}
			}
		}
	}
}

// stampTasklist sets the tasklist's remote id and propagates it to every
// task it currently owns.
func stampTasklist(tl *models.Tasklist, id string) {
	tl.RemoteID = id
	for _, task := range tl.Tasks {
		task.TasklistRemoteID = id
	}
}
