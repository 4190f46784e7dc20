package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	domain "github.com/faultmesh/alarm-correlator/internal/domain/alarm"
	"github.com/faultmesh/alarm-correlator/internal/logger"
	"github.com/faultmesh/alarm-correlator/internal/observability/metrics"
)

// maxBodyBytes bounds an ingest request body.
const maxBodyBytes = 4 << 20

// AlarmSink abstracts the buffering layer the transport feeds into.
type AlarmSink interface {
	Append(ctx context.Context, record *domain.Record) error
}

// Handler provides the correlator HTTP endpoints: alarm ingestion,
// health and metrics.
type Handler struct {
	// sink receives validated alarm records.
	sink AlarmSink
}

// errSinkRequired is returned when the handler is built without a sink.
var errSinkRequired = errors.New("alarm sink is required")

// NewHandler wires the provided sink into an HTTP handler.
func NewHandler(sink AlarmSink) (*Handler, error) {
	if sink == nil {
		return nil, errSinkRequired
	}

	return &Handler{sink: sink}, nil
}

// Register mounts the correlator routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/alarms", h.handleIngest)
	mux.HandleFunc("/healthz", handleHealth)
	mux.Handle("/metrics", metrics.Handler())
}

// handleIngest accepts one canonical alarm record or a JSON array of
// them, validates required fields and appends each record to its
// tenant's buffer. The whole payload is validated before any record is
// buffered, so a malformed batch is rejected atomically.
func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "only POST is supported")

		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		metrics.IncIngestRequest(metrics.ResultRejected)
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())

		return
	}

	records, err := decodeRecords(body)
	if err != nil {
		metrics.IncIngestRequest(metrics.ResultRejected)
		writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	for _, record := range records {
		record.Severity = domain.NormalizeSeverity(string(record.Severity))

		if record.TenantID == "" {
			metrics.IncIngestRequest(metrics.ResultRejected)
			writeError(w, http.StatusBadRequest, "tenant_id is required")

			return
		}

		if record.EntityID == "" {
			metrics.IncIngestRequest(metrics.ResultRejected)
			writeError(w, http.StatusBadRequest, "entity_id is required")

			return
		}
	}

	for _, record := range records {
		if err := h.sink.Append(r.Context(), record); err != nil {
			metrics.IncIngestRequest(metrics.ResultRejected)
			logger.ErrorKV(r.Context(), "Failed to buffer alarm",
				"tenant_id", record.TenantID, "entity_id", record.EntityID, "error", err)
			writeError(w, http.StatusInternalServerError, "buffer alarm: "+err.Error())

			return
		}
	}

	metrics.IncIngestRequest(metrics.ResultAccepted)
	writeJSON(w, http.StatusAccepted, map[string]int{"accepted": len(records)})
}

// handleHealth reports process liveness.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "only GET is supported")

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeRecords parses a single record or an array of records.
func decodeRecords(body []byte) ([]*domain.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty request body")
	}

	if trimmed[0] == '[' {
		var records []*domain.Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, errors.New("malformed alarm array: " + err.Error())
		}

		if len(records) == 0 {
			return nil, errors.New("empty alarm array")
		}

		for _, record := range records {
			if record == nil {
				return nil, errors.New("null alarm in array")
			}
		}

		return records, nil
	}

	var record domain.Record
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return nil, errors.New("malformed alarm record: " + err.Error())
	}

	return []*domain.Record{&record}, nil
}

// writeJSON encodes v as the JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

// writeError encodes a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
