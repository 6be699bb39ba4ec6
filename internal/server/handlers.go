package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/schedsync/schedsync/internal/engine"
	"github.com/schedsync/schedsync/internal/shared"
	"github.com/schedsync/schedsync/internal/sheet"
)

// maxUploadBytes caps the multipart form kept in memory per upload.
const maxUploadBytes = 32 << 20

// SyncRunner runs one sheet → remote sync pass. Implemented by [engine.Engine].
type SyncRunner interface {
	Run(ctx context.Context, rows [][]string, progress chan<- engine.ProgressUpdate) (*engine.RunResult, error)
}

// HealthHandler responds to liveness checks.
type HealthHandler struct{}

func (h *HealthHandler) Routes() []string { return []string{"/"} }

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "server is up"})
}

// SyncHandler accepts a spreadsheet upload and runs a sync pass against the
// remote project system.
//
// Responses: 200 with {message, taskData, updateLogs}; 400 for a malformed
// upload; 404 when the sheet's project name matches no remote project; 500
// for upstream failures. A run whose every task failed is still a 200 — the
// outcome log carries the failures.
type SyncHandler struct {
	engine       SyncRunner
	authenticate func(ctx context.Context) error
	log          *log.Logger
}

// NewSyncHandler creates a SyncHandler. authenticate is invoked before each
// run to refresh the vendor credential; nil skips that step.
func NewSyncHandler(runner SyncRunner, authenticate func(ctx context.Context) error, logger *log.Logger) *SyncHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SyncHandler{engine: runner, authenticate: authenticate, log: logger}
}

func (h *SyncHandler) Routes() []string { return []string{"/sync"} }

func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart file upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	h.log.Info("received upload", "file", header.Filename, "size", header.Size)

	rows, err := sheet.ReadRows(file)
	if err != nil {
		h.log.Error("failed to read workbook", "error", err)
		writeError(w, http.StatusBadRequest, "failed to process spreadsheet file")
		return
	}

	if h.authenticate != nil {
		if err := h.authenticate(r.Context()); err != nil {
			h.log.Error("vendor authentication failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to authenticate with project service")
			return
		}
	}

	result, err := h.engine.Run(r.Context(), rows, nil)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrProjectNotFound):
			writeError(w, http.StatusNotFound, "project ID not found for the given project name")
		case errors.Is(err, shared.ErrInvalidSheet):
			writeError(w, http.StatusBadRequest, "failed to process spreadsheet file")
		default:
			h.log.Error("sync run failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to sync schedule")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Tasks processed.",
		"runId":      result.RunID,
		"taskData":   result.RemoteTasks,
		"updateLogs": result.Outcomes,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := shared.MarshalJSON(payload, false)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
