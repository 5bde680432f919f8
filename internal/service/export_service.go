package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fleet-backoffice-api/internal/dto"
	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	"github.com/noah-isme/fleet-backoffice-api/pkg/checklist"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
	"github.com/noah-isme/fleet-backoffice-api/pkg/export"
	"github.com/noah-isme/fleet-backoffice-api/pkg/storage"
)

type reportEntitySource interface {
	ListEntities(ctx context.Context, entityType string, limit int) ([]checklist.Entity, error)
}

type readinessEvaluator interface {
	EvaluateEntity(e checklist.Entity) (checklist.Result, bool)
	HasChecklist(entityType string) bool
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// Readiness report columns, in order.
const (
	colID       = "ID"
	colStatus   = "Status"
	colReady    = "Ready"
	colBlocking = "Blocking"
	colGaps     = "Activity gaps"
)

var readinessHeaders = []string{colID, colStatus, colReady, colBlocking, colGaps}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix   string
	ResultTTL   time.Duration
	MaxEntities int
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Rows         int
	ExpiresAt    time.Time
}

// ExportService builds readiness datasets, renders them and stores finished files.
type ExportService struct {
	entities  reportEntitySource
	evaluator readinessEvaluator
	storage   fileStorage
	signer    *storage.SignedURLSigner
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService. storage and signer are only
// needed for background jobs.
func NewExportService(entities reportEntitySource, evaluator readinessEvaluator, store fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxEntities <= 0 {
		cfg.MaxEntities = 500
	}
	return &ExportService{
		entities:  entities,
		evaluator: evaluator,
		storage:   store,
		signer:    signer,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ReadinessDataset evaluates every entity of a type and tabulates the outcome.
func (s *ExportService) ReadinessDataset(ctx context.Context, entityType string) (export.Dataset, error) {
	if err := checkEntityType(entityType); err != nil {
		return export.Dataset{}, err
	}
	if !s.evaluator.HasChecklist(entityType) {
		return export.Dataset{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no checklist defined for %s", entityType))
	}
	entities, err := s.entities.ListEntities(ctx, entityType, s.cfg.MaxEntities)
	if err != nil {
		return export.Dataset{}, err
	}
	sortEntities(entities)

	rows := make([]map[string]string, 0, len(entities))
	for _, e := range entities {
		result, _ := s.evaluator.EvaluateEntity(e)
		rows = append(rows, map[string]string{
			colID:       e.ID,
			colStatus:   e.Status,
			colReady:    yesNo(result.Ready),
			colBlocking: strings.Join(result.Blocking(), ", "),
			colGaps:     formatGaps(result.Gaps),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("%s readiness (%s)", humanize(entityType), s.now().UTC().Format("2006-01-02 15:04 MST")),
		Headers: readinessHeaders,
		Rows:    rows,
	}, nil
}

// Render builds the readiness report of an entity type in the requested format.
func (s *ExportService) Render(ctx context.Context, entityType string, format export.Format) (*dto.ReportFile, error) {
	start := time.Now()
	exporter, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	dataset, err := s.ReadinessDataset(ctx, entityType)
	if err != nil {
		return nil, err
	}
	body, err := exporter.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	s.metrics.ObserveReportRender(string(format), time.Since(start))
	return &dto.ReportFile{
		Filename:    s.filename(entityType, format),
		ContentType: exporter.ContentType(),
		Body:        body,
		Rows:        len(dataset.Rows),
	}, nil
}

// Generate renders a queued job, stores the file and signs a download URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	if s.storage == nil || s.signer == nil {
		return nil, fmt.Errorf("report storage is not configured")
	}
	file, err := s.Render(ctx, job.Params.EntityType, export.Format(job.Params.Format))
	if err != nil {
		return nil, err
	}
	relPath, err := s.storage.Save(job.ID+"/"+file.Filename, file.Body)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/reports/download/%s", prefix, token),
		Rows:         file.Rows,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.Token, error) {
	if s.signer == nil {
		return storage.Token{}, storage.ErrInvalidToken
	}
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to a stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, defaulting to the configured result TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) filename(entityType string, format export.Format) string {
	return fmt.Sprintf("%s_readiness_%s.%s", entityType, s.now().UTC().Format("20060102_150405"), format)
}

// sortEntities orders by numeric id when both ids are numeric, else lexically.
func sortEntities(entities []checklist.Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		a, errA := strconv.ParseFloat(entities[i].ID, 64)
		b, errB := strconv.ParseFloat(entities[j].ID, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return entities[i].ID < entities[j].ID
	})
}

func formatGaps(gaps []checklist.GapRange) string {
	parts := make([]string, 0, len(gaps))
	for _, g := range gaps {
		parts = append(parts, g.Start.Format("2006-01-02")+" to "+g.End.Format("2006-01-02"))
	}
	return strings.Join(parts, "; ")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func humanize(entityType string) string {
	words := strings.Split(strings.ReplaceAll(entityType, "_", " "), " ")
	for i, w := range words {
		switch {
		case w == "wcb":
			words[i] = "WCB"
		case w != "":
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
