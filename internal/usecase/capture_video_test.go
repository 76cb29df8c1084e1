package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/framesift/framesift-service/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]entity.CaptureJob
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: map[uuid.UUID]entity.CaptureJob{}}
}

func (r *fakeRepo) Create(_ context.Context, job *entity.CaptureJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *fakeRepo) Update(_ context.Context, job *entity.CaptureJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.CaptureJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.New("job not found")
	}
	return &job, nil
}

func (r *fakeRepo) get(id uuid.UUID) entity.CaptureJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id]
}

type fakeMetadata struct {
	meta *entity.VideoMetadata
	err  error
}

func (m *fakeMetadata) FetchMetadata(_ context.Context, _ string) (*entity.VideoMetadata, error) {
	return m.meta, m.err
}

type fakeTranscript struct {
	segments []entity.TranscriptSegment
	err      error
}

func (f *fakeTranscript) FetchTranscript(_ context.Context, _ string, _ []entity.CaptionTrack) ([]entity.TranscriptSegment, error) {
	return f.segments, f.err
}

type fakeResolver struct {
	gotVideoID    string
	gotSpec       string
	gotCandidates []entity.TimestampCandidate
}

func (f *fakeResolver) Resolve(_ context.Context, videoID, spec string, candidates []entity.TimestampCandidate) []entity.StillFrame {
	f.gotVideoID = videoID
	f.gotSpec = spec
	f.gotCandidates = candidates

	frames := make([]entity.StillFrame, 0, len(candidates))
	for _, c := range candidates {
		frames = append(frames, entity.StillFrame{
			TimestampSeconds:   c.Seconds,
			TimestampFormatted: entity.FormatTimestamp(c.Seconds),
			Label:              c.Label,
			Relevance:          c.Relevance,
			ImageURL:           fmt.Sprintf("http://frames/%s/%d.jpg", videoID, int(c.Seconds)),
		})
	}
	return frames
}

type fakeReportStore struct {
	key  string
	html []byte
	err  error
}

func (s *fakeReportStore) StoreReport(_ context.Context, objectKey string, html []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.key = objectKey
	s.html = html
	return "http://reports/" + objectKey, nil
}

type fakeStatusPub struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (p *fakeStatusPub) PublishStatus(_ context.Context, msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *fakeStatusPub) last(t *testing.T) entity.CaptureStatusMessage {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.msgs)
	var msg entity.CaptureStatusMessage
	require.NoError(t, json.Unmarshal(p.msgs[len(p.msgs)-1], &msg))
	return msg
}

type fakeDLQ struct {
	msgs    [][]byte
	reasons []string
}

func (d *fakeDLQ) PublishToDLQ(_ context.Context, msg []byte, reason string) error {
	d.msgs = append(d.msgs, msg)
	d.reasons = append(d.reasons, reason)
	return nil
}

type fakeNotifier struct {
	emails []string
}

func (n *fakeNotifier) NotifyFailure(_ context.Context, userEmail, _, _, _ string) error {
	n.emails = append(n.emails, userEmail)
	return nil
}

type captureFixture struct {
	repo      *fakeRepo
	metadata  *fakeMetadata
	trans     *fakeTranscript
	resolver  *fakeResolver
	reports   *fakeReportStore
	statusPub *fakeStatusPub
	dlq       *fakeDLQ
	notifier  *fakeNotifier
	uc        *CaptureVideoUseCase
}

func newFixture(meta *entity.VideoMetadata) *captureFixture {
	f := &captureFixture{
		repo:      newFakeRepo(),
		metadata:  &fakeMetadata{meta: meta},
		trans:     &fakeTranscript{},
		resolver:  &fakeResolver{},
		reports:   &fakeReportStore{},
		statusPub: &fakeStatusPub{},
		dlq:       &fakeDLQ{},
		notifier:  &fakeNotifier{},
	}
	f.uc = NewCaptureVideoUseCase(
		f.repo, f.metadata, f.trans, f.resolver, f.reports,
		f.statusPub, f.dlq, f.notifier,
		zap.NewNop(),
		CaptureVideoConfig{MaxRetries: 3, DefaultMaxFrames: 5, DefaultIntervalSeconds: 60},
	)
	return f
}

func requestBody(t *testing.T, msg entity.CaptureRequestMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func TestExecuteCompletesJob(t *testing.T) {
	f := newFixture(&entity.VideoMetadata{
		VideoID:         "abc123def45",
		Title:           "Talk",
		DurationSeconds: 300,
		Chapters:        []entity.Chapter{{Title: "Intro", StartSeconds: 0}},
		StoryboardSpec:  "lo|1|1|1|1|1|1|s#hi|160|90|4|2|2|1000|sig",
	})

	jobID := uuid.New()
	err := f.uc.Execute(context.Background(), requestBody(t, entity.CaptureRequestMessage{
		JobID:           jobID,
		VideoURL:        "https://youtu.be/abc123def45",
		MaxFrames:       4,
		IntervalSeconds: 60,
	}))
	require.NoError(t, err)

	// Chapter candidate at 5s plus 60s cadence, sampled down to four.
	assert.Equal(t, "abc123def45", f.resolver.gotVideoID)
	assert.Equal(t, "lo|1|1|1|1|1|1|s#hi|160|90|4|2|2|1000|sig", f.resolver.gotSpec)
	require.Len(t, f.resolver.gotCandidates, 4)
	assert.Equal(t, 5.0, f.resolver.gotCandidates[0].Seconds)

	job := f.repo.get(jobID)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Equal(t, "abc123def45", job.VideoID)
	assert.Equal(t, 4, job.FrameCount)
	assert.Equal(t, 0, job.FallbackCount)
	assert.Equal(t, 300.0, job.VideoDuration)
	assert.Equal(t, fmt.Sprintf("abc123def45/%s.html", jobID), job.ReportKey)

	assert.Equal(t, job.ReportKey, f.reports.key)
	assert.Contains(t, string(f.reports.html), "Talk")

	status := f.statusPub.last(t)
	assert.Equal(t, entity.JobStatusCompleted, status.Status)
	assert.Equal(t, 4, status.FrameCount)
	assert.Empty(t, f.dlq.msgs)
	assert.Empty(t, f.notifier.emails)
}

func TestExecuteAppliesDefaults(t *testing.T) {
	f := newFixture(&entity.VideoMetadata{VideoID: "abc123def45", DurationSeconds: 600})

	err := f.uc.Execute(context.Background(), requestBody(t, entity.CaptureRequestMessage{
		JobID:    uuid.New(),
		VideoURL: "https://youtu.be/abc123def45",
	}))
	require.NoError(t, err)

	// Default budget of five frames over the interval cadence.
	assert.Len(t, f.resolver.gotCandidates, 5)
}

func TestExecuteMalformedMessage(t *testing.T) {
	f := newFixture(nil)

	err := f.uc.Execute(context.Background(), []byte(`{broken`))
	require.NoError(t, err)

	require.Len(t, f.dlq.msgs, 1)
	assert.Contains(t, f.dlq.reasons[0], "unmarshal_error")
	assert.Empty(t, f.repo.jobs)
}

func TestExecuteInvalidURLIsPermanent(t *testing.T) {
	f := newFixture(nil)

	jobID := uuid.New()
	err := f.uc.Execute(context.Background(), requestBody(t, entity.CaptureRequestMessage{
		JobID:     jobID,
		VideoURL:  "https://vimeo.com/99999",
		UserEmail: "user@example.com",
	}))
	require.NoError(t, err)

	job := f.repo.get(jobID)
	assert.Equal(t, entity.JobStatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "parse_video_url")

	require.Len(t, f.dlq.msgs, 1)
	assert.Equal(t, []string{"user@example.com"}, f.notifier.emails)
	assert.Equal(t, entity.JobStatusFailed, f.statusPub.last(t).Status)
}

func TestExecuteMetadataFailureIsRetryable(t *testing.T) {
	f := newFixture(nil)
	f.metadata.err = errors.New("watch page 503")

	jobID := uuid.New()
	err := f.uc.Execute(context.Background(), requestBody(t, entity.CaptureRequestMessage{
		JobID:    jobID,
		VideoURL: "https://youtu.be/abc123def45",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch_metadata")

	job := f.repo.get(jobID)
	assert.Equal(t, entity.JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.Attempt)
	assert.Empty(t, f.dlq.msgs)
	assert.Equal(t, entity.JobStatusFailed, f.statusPub.last(t).Status)
}

func TestExecuteExhaustedRetriesGoToDLQ(t *testing.T) {
	f := newFixture(nil)

	jobID := uuid.New()
	job := entity.NewCaptureJob("https://youtu.be/abc123def45", 3)
	job.ID = jobID
	job.Attempt = 3
	require.NoError(t, f.repo.Create(context.Background(), job))

	err := f.uc.Execute(context.Background(), requestBody(t, entity.CaptureRequestMessage{
		JobID:    jobID,
		VideoURL: "https://youtu.be/abc123def45",
	}))
	require.NoError(t, err)

	require.Len(t, f.dlq.msgs, 1)
	assert.Contains(t, f.dlq.reasons[0], "max retries exceeded")
	assert.Equal(t, entity.JobStatusFailed, f.repo.get(jobID).Status)
}

func TestExecuteTranscriptFailureIsAbsorbed(t *testing.T) {
	f := newFixture(&entity.VideoMetadata{VideoID: "abc123def45", DurationSeconds: 120})
	f.trans.err = errors.New("timedtext 404")

	jobID := uuid.New()
	err := f.uc.Execute(context.Background(), requestBody(t, entity.CaptureRequestMessage{
		JobID:    jobID,
		VideoURL: "https://youtu.be/abc123def45",
	}))
	require.NoError(t, err)

	assert.Equal(t, entity.JobStatusCompleted, f.repo.get(jobID).Status)
}

func TestExecuteReportStoreFailureIsRetryable(t *testing.T) {
	f := newFixture(&entity.VideoMetadata{VideoID: "abc123def45", DurationSeconds: 120})
	f.reports.err = errors.New("minio down")

	jobID := uuid.New()
	err := f.uc.Execute(context.Background(), requestBody(t, entity.CaptureRequestMessage{
		JobID:    jobID,
		VideoURL: "https://youtu.be/abc123def45",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store_report")
	assert.Equal(t, entity.JobStatusFailed, f.repo.get(jobID).Status)
}

func TestExecuteEmptyCandidatesCompletes(t *testing.T) {
	// Seven seconds of video yields no candidates at all.
	f := newFixture(&entity.VideoMetadata{VideoID: "abc123def45", DurationSeconds: 7})

	jobID := uuid.New()
	err := f.uc.Execute(context.Background(), requestBody(t, entity.CaptureRequestMessage{
		JobID:    jobID,
		VideoURL: "https://youtu.be/abc123def45",
	}))
	require.NoError(t, err)

	job := f.repo.get(jobID)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Equal(t, 0, job.FrameCount)

	status := f.statusPub.last(t)
	assert.Equal(t, 0, status.FrameCount)
}
