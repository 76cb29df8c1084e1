package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/framesift/framesift-service/internal/domain/entity"
	"github.com/framesift/framesift-service/internal/domain/port"
	"github.com/framesift/framesift-service/internal/infra/youtube"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxRequestBodyBytes = 16 << 10

// ReportLocator turns a stored report key back into its public URL.
type ReportLocator interface {
	ReportURL(objectKey string) string
}

type Handler struct {
	jobs       port.JobRepository
	publisher  port.RequestPublisher
	reports    ReportLocator
	logger     *zap.Logger
	maxRetries int
}

func NewHandler(jobs port.JobRepository, publisher port.RequestPublisher, reports ReportLocator, logger *zap.Logger, maxRetries int) *Handler {
	return &Handler{
		jobs:       jobs,
		publisher:  publisher,
		reports:    reports,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

func (h *Handler) CreateCapture(w http.ResponseWriter, r *http.Request) {
	var req createCaptureRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	videoID, err := youtube.ParseVideoID(req.URL)
	if err != nil {
		if errors.Is(err, youtube.ErrInvalidVideoURL) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid url"})
		return
	}

	job := entity.NewCaptureJob(req.URL, h.maxRetries)
	job.VideoID = videoID
	if err := h.jobs.Create(r.Context(), job); err != nil {
		h.logger.Error("failed to create capture job", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not create job"})
		return
	}

	msg := entity.CaptureRequestMessage{
		JobID:           job.ID,
		VideoURL:        req.URL,
		MaxFrames:       req.MaxFrames,
		IntervalSeconds: req.IntervalSeconds,
		UserEmail:       req.Email,
	}
	data, _ := json.Marshal(msg)
	if err := h.publisher.PublishRequest(r.Context(), data); err != nil {
		h.logger.Error("failed to publish capture request",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not enqueue job"})
		return
	}

	h.logger.Info("capture job accepted",
		zap.String("job_id", job.ID.String()),
		zap.String("video_id", videoID),
	)
	writeJSON(w, http.StatusAccepted, h.captureView(job))
}

func (h *Handler) GetCapture(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookupJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.captureView(job))
}

func (h *Handler) GetCaptureReport(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookupJob(w, r)
	if !ok {
		return
	}

	if job.Status != entity.JobStatusCompleted || job.ReportKey == "" {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "report not ready"})
		return
	}
	http.Redirect(w, r, h.reports.ReportURL(job.ReportKey), http.StatusFound)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) lookupJob(w http.ResponseWriter, r *http.Request) (*entity.CaptureJob, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid job id"})
		return nil, false
	}

	job, err := h.jobs.FindByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return nil, false
	}
	return job, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
