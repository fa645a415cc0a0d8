package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"guardops/internal/audit"
	"guardops/internal/auth"
	"guardops/internal/monitoring/application"
	"guardops/internal/observability/metrics"

	monitoring "guardops/internal/monitoring/domain"
)

const (
	timeLayout = time.RFC3339
	dateLayout = "2006-01-02"
)

// Handler provides monitoring agenda HTTP endpoints.
type Handler struct {
	agenda      *application.AgendaService
	recorder    *application.Recorder
	siteChecker auth.SiteTenantChecker
	auditLogger audit.Logger
	zone        *time.Location
}

// NewHandler constructs a handler.
func NewHandler(agenda *application.AgendaService, recorder *application.Recorder, siteChecker auth.SiteTenantChecker, auditLogger audit.Logger, zone *time.Location) (*Handler, error) {
	if agenda == nil {
		return nil, errors.New("monitoring handler: nil agenda service")
	}
	if recorder == nil {
		return nil, errors.New("monitoring handler: nil recorder")
	}
	if zone == nil {
		zone = time.UTC
	}
	return &Handler{
		agenda:      agenda,
		recorder:    recorder,
		siteChecker: siteChecker,
		auditLogger: auditLogger,
		zone:        zone,
	}, nil
}

// ServeHTTP handles /api/v1/monitoring and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/monitoring/agenda":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleAgenda(w, r)
	case "/api/v1/monitoring/kpis":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleKpis(w, r)
	case "/api/v1/monitoring/outcomes":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleRecordOutcome(w, r)
	case "/api/v1/monitoring/agenda/materialize":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleMaterialize(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleAgenda(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	day, err := h.parseDayQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	classified, err := h.agenda.ClassifiedAgenda(r.Context(), day, tenantID)
	if err != nil {
		metrics.ObserveAgendaRead(metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObserveAgendaRead(metrics.ResultSuccess, time.Since(started))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(classified)
}

func (h *Handler) handleKpis(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	day, err := h.parseDayQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	kpis, err := h.agenda.Kpis(r.Context(), day, tenantID)
	if err != nil {
		metrics.ObserveKpiRead(metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObserveKpiRead(metrics.ResultSuccess, time.Since(started))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(kpis)
}

type recordOutcomeRequest struct {
	SiteID        string `json:"site_id"`
	ScheduledHour string `json:"scheduled_hour"`
	Status        string `json:"status"`
	Notes         string `json:"notes,omitempty"`
}

func (h *Handler) handleRecordOutcome(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req recordOutcomeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.SiteID == "" {
		http.Error(w, "site_id is required", http.StatusBadRequest)
		return
	}
	scheduledHour, err := time.Parse(timeLayout, req.ScheduledHour)
	if err != nil {
		http.Error(w, "scheduled_hour must be RFC3339", http.StatusBadRequest)
		return
	}

	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := ensureSiteTenant(r, h.siteChecker, tenantID, req.SiteID); err != nil {
		respondTenantError(w, err)
		return
	}

	outcome, err := h.recorder.RecordOutcome(r.Context(), application.RecordOutcomeCommand{
		TenantID:      tenantID,
		SiteID:        req.SiteID,
		ScheduledHour: scheduledHour,
		Status:        req.Status,
		Notes:         req.Notes,
		Actor:         auth.SubjectFromContext(r.Context()),
	})
	if err != nil {
		metrics.ObserveOutcomeRecording(req.Status, metrics.ResultError, time.Since(started))
		if errors.Is(err, monitoring.ErrHourNotAligned) || errors.Is(err, monitoring.ErrInvalidStatus) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObserveOutcomeRecording(outcome.Status, metrics.ResultSuccess, time.Since(started))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(outcome)

	h.logAudit(r, tenantID, "outcome.record", "call_outcome", outcome.ID, outcome.SiteID, map[string]any{
		"scheduled_hour": outcome.ScheduledHour.Format(timeLayout),
		"status":         outcome.Status,
	})
}

type materializeRequest struct {
	SiteID string `json:"site_id"`
	Date   string `json:"date"`
}

type materializeResponse struct {
	SiteID  string `json:"site_id"`
	Date    string `json:"date"`
	Created int    `json:"created"`
}

func (h *Handler) handleMaterialize(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req materializeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.SiteID == "" {
		http.Error(w, "site_id is required", http.StatusBadRequest)
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, h.zone)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := ensureSiteTenant(r, h.siteChecker, tenantID, req.SiteID); err != nil {
		respondTenantError(w, err)
		return
	}

	created, err := h.recorder.MaterializeAgenda(r.Context(), tenantID, req.SiteID, date)
	if err != nil {
		metrics.ObserveMaterializeRun(metrics.ResultError, 0)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObserveMaterializeRun(metrics.ResultSuccess, created)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(materializeResponse{SiteID: req.SiteID, Date: req.Date, Created: created})

	h.logAudit(r, tenantID, "agenda.materialize", "call_agenda", req.Date, req.SiteID, map[string]any{
		"created": created,
	})
}

// parseDayQuery resolves the operational day selector. The day parameter
// accepts an RFC3339 instant or a plain date in the engine timezone and
// defaults to now.
func (h *Handler) parseDayQuery(r *http.Request) (time.Time, error) {
	value := r.URL.Query().Get("day")
	if value == "" {
		return time.Now().In(h.zone), nil
	}
	if parsed, err := time.Parse(timeLayout, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, value, h.zone)
	if err != nil {
		return time.Time{}, errors.New("day must be RFC3339 or YYYY-MM-DD")
	}
	// A bare date means the operational day that starts on that date.
	return parsed.Add(12 * time.Hour), nil
}

func (h *Handler) logAudit(r *http.Request, tenantID, action, resourceType, resourceID, siteID string, meta map[string]any) {
	if h.auditLogger == nil || tenantID == "" {
		return
	}
	encoded, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     tenantID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		SiteID:       siteID,
		Metadata:     encoded,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func ensureSiteTenant(r *http.Request, checker auth.SiteTenantChecker, tenantID, siteID string) error {
	if checker == nil || tenantID == "" || siteID == "" {
		return nil
	}
	return checker.EnsureSiteTenant(r.Context(), tenantID, siteID)
}

func respondTenantError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, auth.ErrTenantMismatch) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if errors.Is(err, auth.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "tenant check failed", http.StatusInternalServerError)
}
