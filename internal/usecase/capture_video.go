package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/framesift/framesift-service/internal/domain/entity"
	"github.com/framesift/framesift-service/internal/domain/port"
	"github.com/framesift/framesift-service/internal/infra/metrics"
	"github.com/framesift/framesift-service/internal/infra/youtube"
	"github.com/framesift/framesift-service/internal/report"
	"github.com/framesift/framesift-service/internal/selection"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type CaptureVideoUseCase struct {
	repo        port.JobRepository
	metadata    port.MetadataProvider
	transcripts port.TranscriptProvider
	resolver    port.FrameResolver
	reports     port.ReportStore
	publisher   port.StatusPublisher
	dlq         port.DLQPublisher
	notifier    port.FailureNotifier
	logger      *zap.Logger

	maxRetry        int
	defaultFrames   int
	defaultInterval int
}

type CaptureVideoConfig struct {
	MaxRetries             int
	DefaultMaxFrames       int
	DefaultIntervalSeconds int
}

func NewCaptureVideoUseCase(
	repo port.JobRepository,
	metadata port.MetadataProvider,
	transcripts port.TranscriptProvider,
	resolver port.FrameResolver,
	reports port.ReportStore,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg CaptureVideoConfig,
) *CaptureVideoUseCase {
	return &CaptureVideoUseCase{
		repo:            repo,
		metadata:        metadata,
		transcripts:     transcripts,
		resolver:        resolver,
		reports:         reports,
		publisher:       publisher,
		dlq:             dlq,
		notifier:        notifier,
		logger:          logger,
		maxRetry:        cfg.MaxRetries,
		defaultFrames:   cfg.DefaultMaxFrames,
		defaultInterval: cfg.DefaultIntervalSeconds,
	}
}

func (uc *CaptureVideoUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "CaptureVideoUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.CaptureRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("undecodable capture request, dead-lettering",
			zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_url", msg.VideoURL),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_url", msg.VideoURL))

	// The api inserts the row before publishing; a request enqueued by hand
	// has no row yet and gets one here.
	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewCaptureJob(msg.VideoURL, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("job insert failed", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("attempts exhausted, dead-lettering", zap.Int("attempt", job.Attempt))
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("job update failed", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.capturePipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *CaptureVideoUseCase) capturePipeline(
	ctx context.Context,
	job *entity.CaptureJob,
	msg entity.CaptureRequestMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	videoID, err := youtube.ParseVideoID(msg.VideoURL)
	if err != nil {
		// Retrying cannot make a malformed URL valid.
		log.Warn("rejecting unparseable video url", zap.Error(err))
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "parse_video_url: "+err.Error())
	}
	job.VideoID = videoID
	log = log.With(zap.String("video_id", videoID))

	// Fetch metadata
	metaStart := time.Now()
	ctx2, spanMeta := tracer.Start(ctx, "fetch_metadata")
	meta, err := uc.metadata.FetchMetadata(ctx2, videoID)
	if err != nil {
		spanMeta.End()
		log.Error("metadata fetch failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "fetch_metadata: "+err.Error(), log)
	}
	spanMeta.End()
	metrics.StageDuration.WithLabelValues("metadata").Observe(time.Since(metaStart).Seconds())

	// Fetch transcript; a video without captions still gets frames.
	trStart := time.Now()
	ctx3, spanTr := tracer.Start(ctx, "fetch_transcript")
	transcript, err := uc.transcripts.FetchTranscript(ctx3, videoID, meta.CaptionTracks)
	if err != nil {
		log.Warn("transcript fetch failed, continuing without transcript", zap.Error(err))
		transcript = nil
	}
	spanTr.End()
	metrics.StageDuration.WithLabelValues("transcript").Observe(time.Since(trStart).Seconds())

	// Rank timestamp candidates
	maxFrames := msg.MaxFrames
	if maxFrames <= 0 {
		maxFrames = uc.defaultFrames
	}
	interval := msg.IntervalSeconds
	if interval <= 0 {
		interval = uc.defaultInterval
	}

	selStart := time.Now()
	_, spanSel := tracer.Start(ctx, "select_candidates")
	candidates := selection.Select(meta.DurationSeconds, meta.Chapters, transcript, maxFrames, interval)
	spanSel.End()
	metrics.StageDuration.WithLabelValues("select").Observe(time.Since(selStart).Seconds())
	for _, c := range candidates {
		metrics.CandidatesSelectedTotal.WithLabelValues(string(c.Relevance)).Inc()
	}

	// Resolve frames; each candidate degrades independently.
	resStart := time.Now()
	ctx4, spanRes := tracer.Start(ctx, "resolve_frames")
	frames := uc.resolver.Resolve(ctx4, videoID, meta.StoryboardSpec, candidates)
	spanRes.End()
	metrics.StageDuration.WithLabelValues("resolve").Observe(time.Since(resStart).Seconds())

	fallbackCount := 0
	for _, frame := range frames {
		if frame.IsFallback {
			fallbackCount++
		}
	}

	// Render report
	renderStart := time.Now()
	_, spanRender := tracer.Start(ctx, "render_report")
	page, err := report.Render(meta, frames)
	spanRender.End()
	if err != nil {
		log.Error("report rendering failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "render_report: "+err.Error(), log)
	}
	metrics.StageDuration.WithLabelValues("render").Observe(time.Since(renderStart).Seconds())

	// Store report
	storeStart := time.Now()
	ctx5, spanStore := tracer.Start(ctx, "store_report")
	reportKey := fmt.Sprintf("%s/%s.html", videoID, job.ID.String())
	if _, err := uc.reports.StoreReport(ctx5, reportKey, page); err != nil {
		spanStore.End()
		log.Error("report upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "store_report: "+err.Error(), log)
	}
	spanStore.End()
	metrics.StageDuration.WithLabelValues("store").Observe(time.Since(storeStart).Seconds())

	job.MarkCompleted(reportKey, len(frames), fallbackCount, meta.DurationSeconds)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("completed job update failed", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("capture completed",
		zap.Int("frame_count", len(frames)),
		zap.Int("fallback_count", fallbackCount),
		zap.Float64("duration_secs", meta.DurationSeconds),
		zap.String("report_key", reportKey),
	)

	return nil
}

func (uc *CaptureVideoUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.CaptureJob,
	msg entity.CaptureRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	// A non-nil return nacks the delivery so the broker redelivers it.
	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *CaptureVideoUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.CaptureJob,
	msg entity.CaptureRequestMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)
	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()
	uc.publishStatus(ctx, job, uc.logger)

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), job.VideoURL, errMsg)
	}

	return nil
}

func (uc *CaptureVideoUseCase) publishStatus(ctx context.Context, job *entity.CaptureJob, log *zap.Logger) {
	statusMsg := entity.CaptureStatusMessage{
		JobID:         job.ID,
		Status:        job.Status,
		VideoID:       job.VideoID,
		VideoURL:      job.VideoURL,
		ReportKey:     job.ReportKey,
		FrameCount:    job.FrameCount,
		FallbackCount: job.FallbackCount,
		Duration:      job.VideoDuration,
		ErrorMessage:  job.ErrorMessage,
		Attempt:       job.Attempt,
		MaxAttempts:   job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
