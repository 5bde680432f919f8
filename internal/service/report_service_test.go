package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-backoffice-api/internal/dto"
	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	"github.com/noah-isme/fleet-backoffice-api/internal/repository"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
	"github.com/noah-isme/fleet-backoffice-api/pkg/jobs"
)

type memoryReportRepo struct {
	mu      sync.Mutex
	jobs    map[string]*models.ReportJob
	deleted []string
	seq     int
}

func newMemoryReportRepo() *memoryReportRepo {
	return &memoryReportRepo{jobs: map[string]*models.ReportJob{}}
}

func (m *memoryReportRepo) Create(_ context.Context, job *models.ReportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", m.seq)
	}
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *memoryReportRepo) GetByID(_ context.Context, id string) (*models.ReportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	copied := *job
	return &copied, nil
}

func (m *memoryReportRepo) Update(_ context.Context, id string, upd repository.ReportJobUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.jobs[id]
	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.Progress != nil {
		job.Progress = *upd.Progress
	}
	if upd.ResultURL != nil {
		job.ResultURL = upd.ResultURL
	}
	if upd.ErrorMessage != nil {
		job.ErrorMessage = upd.ErrorMessage
	}
	if upd.FinishedAt != nil {
		job.FinishedAt = upd.FinishedAt
	}
	return nil
}

func (m *memoryReportRepo) ListQueued(_ context.Context, _ int) ([]models.ReportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ReportJob, 0)
	for _, j := range m.jobs {
		if j.Status == models.ReportStatusQueued {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (m *memoryReportRepo) ListFinishedBefore(_ context.Context, cutoff time.Time, _ int) ([]models.ReportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ReportJob, 0)
	for _, j := range m.jobs {
		if j.Status == models.ReportStatusFinished && j.FinishedAt != nil && j.FinishedAt.Before(cutoff) {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (m *memoryReportRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type queueStub struct {
	enqueued []jobs.Job
	err      error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

func newReportFixture(t *testing.T) (*ReportService, *ReportWorker, *memoryReportRepo, *queueStub) {
	t.Helper()
	exporter, _, _ := newExportFixture(t, readyDriver("1", "AC", true), notReadyDriver("2"))
	repo := newMemoryReportRepo()
	queue := &queueStub{}
	svc := NewReportService(repo, queue, exporter, nil, nil, ReportServiceConfig{ResultTTL: time.Hour})
	worker := NewReportWorker(repo, exporter, nil, 1, nil)
	return svc, worker, repo, queue
}

func TestReadinessSync(t *testing.T) {
	svc, _, _, _ := newReportFixture(t)

	file, err := svc.Readiness(context.Background(), "driver", "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, 2, file.Rows)

	_, err = svc.Readiness(context.Background(), "driver", "docx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestReportJobLifecycle(t *testing.T) {
	svc, worker, repo, queue := newReportFixture(t)
	ctx := context.Background()

	created, err := svc.CreateJob(ctx, dto.ReadinessReportRequest{EntityType: "driver"}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, created.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, models.ReportFormatCSV, repo.jobs[created.ID].Params.Format)

	require.NoError(t, worker.Handle(ctx, queue.enqueued[0]))

	status, err := svc.GetStatus(ctx, created.ID, "user-1", false)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.ResultURL)

	_, err = svc.GetStatus(ctx, created.ID, "someone-else", false)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	_, err = svc.GetStatus(ctx, created.ID, "admin", true)
	assert.NoError(t, err)

	download, err := svc.ResolveDownload(ctx, extractToken(*status.ResultURL))
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ID,Status,Ready,Blocking,Activity gaps")
}

func TestResolveDownloadRejectsBadTokens(t *testing.T) {
	svc, _, _, _ := newReportFixture(t)
	_, err := svc.ResolveDownload(context.Background(), "garbage")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestCreateJobValidation(t *testing.T) {
	svc, _, _, queue := newReportFixture(t)

	_, err := svc.CreateJob(context.Background(), dto.ReadinessReportRequest{EntityType: "driver", Format: "docx"}, "u")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	_, err = svc.CreateJob(context.Background(), dto.ReadinessReportRequest{EntityType: "boat"}, "u")
	assert.True(t, errors.Is(err, appErrors.ErrUnsupportedEntity))
	assert.Empty(t, queue.enqueued)
}

func TestCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	svc, _, repo, queue := newReportFixture(t)
	queue.err = jobs.ErrQueueStopped

	_, err := svc.CreateJob(context.Background(), dto.ReadinessReportRequest{EntityType: "truck"}, "u")
	require.Error(t, err)
	for _, job := range repo.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
	}
}

func TestWorkerRetriesThenFails(t *testing.T) {
	svc, worker, repo, queue := newReportFixture(t)
	ctx := context.Background()

	created, err := svc.CreateJob(ctx, dto.ReadinessReportRequest{EntityType: "incident"}, "u")
	require.NoError(t, err)

	job := queue.enqueued[0]
	require.Error(t, worker.Handle(ctx, job))
	assert.Equal(t, models.ReportStatusQueued, repo.jobs[created.ID].Status)

	job.Attempt = 1
	require.Error(t, worker.Handle(ctx, job))
	assert.Equal(t, models.ReportStatusFailed, repo.jobs[created.ID].Status)
	require.NotNil(t, repo.jobs[created.ID].ErrorMessage)
	assert.Contains(t, *repo.jobs[created.ID].ErrorMessage, "no checklist defined for incident")
}

func TestRecoverPendingAndCleanup(t *testing.T) {
	svc, worker, repo, queue := newReportFixture(t)
	ctx := context.Background()

	created, err := svc.CreateJob(ctx, dto.ReadinessReportRequest{EntityType: "driver"}, "u")
	require.NoError(t, err)
	queue.enqueued = nil
	svc.RecoverPendingJobs(ctx)
	require.Len(t, queue.enqueued, 1)

	require.NoError(t, worker.Handle(ctx, queue.enqueued[0]))
	old := time.Now().Add(-2 * time.Hour)
	repo.jobs[created.ID].FinishedAt = &old

	svc.cleanupExpired(ctx)
	assert.Equal(t, []string{created.ID}, repo.deleted)
	_, err = svc.GetStatus(ctx, created.ID, "u", false)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
