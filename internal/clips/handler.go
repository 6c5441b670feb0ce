package clips

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"replay-clips/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// Handler exposes clip service HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and optional Metrics.
// Metrics may be nil to disable metric recording (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

// Routes registers the handler's endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/replays/{replay_id}", func(r chi.Router) {
		r.Put("/", h.RegisterReplay)
		r.Post("/attachments", h.RegisterAttachment)
		r.Post("/finish", h.FinishReplay)
	})
	r.Get("/organizations/{org_slug}/replays/{replay_slug}/clip", h.GetClip)
}

type registerReplayRequest struct {
	ProjectSlug string `json:"project_slug"`
	StartedAtMs int64  `json:"started_at_ms"`
	// DurationMs is omitted while the replay is still recording.
	DurationMs *int64 `json:"duration_ms"`
}

type finishReplayRequest struct {
	FinishedAtMs int64 `json:"finished_at_ms"`
}

// RegisterReplay handles PUT /replays/{replay_id}.
// Body: { "project_slug": "web", "started_at_ms": 1663865919000, "duration_ms": 84000 }.
func (h *Handler) RegisterReplay(w http.ResponseWriter, r *http.Request) {
	id, ok := h.replayIDParam(w, r, "replay_id")
	if !ok {
		return
	}

	var body registerReplayRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.log.Debug("invalid replay body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	rec := ReplayRecord{
		ID:               id,
		ProjectSlug:      body.ProjectSlug,
		StartTimestampMs: body.StartedAtMs,
		DurationMs:       DurationUnknown,
	}
	if body.DurationMs != nil {
		if *body.DurationMs < 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rec.DurationMs = *body.DurationMs
	}

	if err := h.svc.RegisterReplay(r.Context(), rec); err != nil {
		if errors.Is(err, ErrReplayFinished) {
			h.log.Info("replay rejected already finished", slog.String("replay_id", string(id)))
			w.WriteHeader(http.StatusConflict)
			return
		}
		h.log.Error("register replay failed", slog.String("replay_id", string(id)), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.log.Debug("replay registered",
		slog.String("replay_id", string(id)),
		slog.Int64("started_at_ms", rec.StartTimestampMs),
		slog.Int64("duration_ms", rec.DurationMs))
	w.WriteHeader(http.StatusCreated)
}

// RegisterAttachment handles POST /replays/{replay_id}/attachments.
// Body: { "sequence": 42, "timestamp_ms": 1663865981000, "kind": "frame", "payload": {...} }.
func (h *Handler) RegisterAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.replayIDParam(w, r, "replay_id")
	if !ok {
		return
	}

	var att Attachment
	if err := json.NewDecoder(r.Body).Decode(&att); err != nil {
		h.log.Debug("invalid attachment body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.svc.RegisterAttachment(r.Context(), id, att); err != nil {
		switch {
		case errors.Is(err, ErrReplayNotFound):
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, ErrReplayFinished):
			h.log.Info("attachment rejected replay finished",
				slog.String("replay_id", string(id)),
				slog.Int64("sequence", att.Sequence))
			w.WriteHeader(http.StatusConflict)
		default:
			h.log.Error("register attachment failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	h.log.Debug("attachment registered",
		slog.String("replay_id", string(id)),
		slog.Int64("sequence", att.Sequence))
	w.WriteHeader(http.StatusCreated)
	if h.metrics != nil {
		h.metrics.IncAttachmentsRegistered()
	}
}

// FinishReplay handles POST /replays/{replay_id}/finish.
func (h *Handler) FinishReplay(w http.ResponseWriter, r *http.Request) {
	id, ok := h.replayIDParam(w, r, "replay_id")
	if !ok {
		return
	}

	var body finishReplayRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.svc.FinishReplay(r.Context(), id, body.FinishedAtMs); err != nil {
		if errors.Is(err, ErrReplayNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.log.Error("finish replay failed", slog.String("replay_id", string(id)), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.log.Info("replay finished", slog.String("replay_id", string(id)))
	w.WriteHeader(http.StatusOK)
	if h.metrics != nil {
		h.metrics.IncReplaysFinished()
	}
}

// GetClip handles GET /organizations/{org_slug}/replays/{replay_slug}/clip.
// Query: event_timestamp_ms (required), route (repeated, outermost first), t_main.
//
// Responds 200 with the ready view, 202 with the placeholder, or the fetch
// error status with the error view.
func (h *Handler) GetClip(w http.ResponseWriter, r *http.Request) {
	orgSlug := chi.URLParam(r, "org_slug")
	if orgSlug == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	id, ok := h.replayIDParam(w, r, "replay_slug")
	if !ok {
		return
	}

	q := r.URL.Query()
	eventTs, err := strconv.ParseInt(q.Get("event_timestamp_ms"), 10, 64)
	if err != nil {
		h.log.Debug("invalid event timestamp", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	view := h.svc.Preview(r.Context(), PreviewParams{
		OrgSlug:          orgSlug,
		ReplayID:         id,
		EventTimestampMs: eventTs,
		Routes:           q["route"],
		OriginTag:        q.Get("t_main"),
	})

	status := http.StatusOK
	switch view.State {
	case ViewLoading:
		status = http.StatusAccepted
	case ViewError:
		status = view.Error.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
	}

	if h.metrics != nil {
		h.metrics.IncPreviews(string(view.State))
	}
	h.writeJSON(w, status, view)
}

func (h *Handler) replayIDParam(w http.ResponseWriter, r *http.Request, name string) (ReplayID, bool) {
	id, err := ParseReplaySlug(chi.URLParam(r, name))
	if err != nil {
		h.log.Debug("invalid replay id", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("encode response failed", slog.String("error", err.Error()))
	}
}
