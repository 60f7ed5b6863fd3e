package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/export"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/jobs"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/storage"
)

type exportCandidateLister interface {
	List(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, int, error)
}

type exportStageLister interface {
	List(ctx context.Context) ([]models.Stage, error)
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService renders candidate roster exports in the background. Job state
// lives in memory; a restart drops unfinished jobs and the client re-requests.
type ExportService struct {
	candidates exportCandidateLister
	stages     exportStageLister
	storage    exportFileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	queue      *jobs.Queue
	logger     *zap.Logger
	cfg        ExportConfig

	mu       sync.RWMutex
	registry map[string]*models.ExportJob
}

// NewExportService constructs an ExportService and its worker queue.
func NewExportService(candidates exportCandidateLister, stages exportStageLister, fileStore exportFileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, queueCfg jobs.QueueConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	s := &ExportService{
		candidates: candidates,
		stages:     stages,
		storage:    fileStore,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
		registry:   make(map[string]*models.ExportJob),
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("exports", s.process, queueCfg)
	return s
}

// Start launches the worker queue.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker queue.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue registers a new export job and schedules it.
func (s *ExportService) Enqueue(ctx context.Context, createdBy string, format models.ExportFormat, filter models.CandidateFilter) (*models.ExportJob, error) {
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	job := &models.ExportJob{
		ID:        uuid.NewString(),
		Format:    format,
		Filter:    filter,
		Status:    models.ExportStatusQueued,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.registry[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "roster_export"}); err != nil {
		s.fail(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule export")
	}
	return s.snapshot(job.ID), nil
}

// Get returns the current state of an export job.
func (s *ExportService) Get(jobID string) (*models.ExportJob, error) {
	job := s.snapshot(jobID)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes stored files older than the configured TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) process(ctx context.Context, queued jobs.Job) error {
	s.mu.Lock()
	job, ok := s.registry[queued.ID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("export job %s not registered", queued.ID)
	}
	job.Status = models.ExportStatusProcessing
	format := job.Format
	filter := job.Filter
	s.mu.Unlock()

	dataset, title, err := s.buildRoster(ctx, filter)
	if err != nil {
		s.fail(queued.ID, err)
		return err
	}

	var payload []byte
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		s.fail(queued.ID, err)
		return err
	}

	filename := fmt.Sprintf("candidates_%s.%s", time.Now().UTC().Format("20060102_150405"), format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.fail(queued.ID, err)
		return err
	}

	token, _, err := s.signer.Generate(queued.ID, relPath)
	if err != nil {
		s.fail(queued.ID, err)
		return err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	resultURL := fmt.Sprintf("%s/exports/download/%s", prefix, token)

	now := time.Now().UTC()
	s.mu.Lock()
	job.Status = models.ExportStatusFinished
	job.ResultURL = &resultURL
	job.FinishedAt = &now
	s.mu.Unlock()

	s.logger.Info("roster export finished", zap.String("job_id", queued.ID), zap.String("file", relPath))
	return nil
}

func (s *ExportService) buildRoster(ctx context.Context, filter models.CandidateFilter) (export.Dataset, string, error) {
	// Export the full match set, not one page.
	filter.Page = 1
	filter.PageSize = 100

	stageTitles := make(map[string]string)
	if stages, err := s.stages.List(ctx); err != nil {
		s.logger.Warn("failed to resolve stage titles for export", zap.Error(err))
	} else {
		for _, stage := range stages {
			stageTitles[stage.ID] = stage.Title
		}
	}

	headers := []string{"Name", "Email", "Phone", "Position", "Stage", "Source", "Rating", "Interview Date", "Interview Time", "Created At"}
	var rows []map[string]string
	for {
		candidates, total, err := s.candidates.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, candidate := range candidates {
			stage := stageTitles[candidate.StageID]
			if stage == "" {
				stage = candidate.StageID
			}
			rows = append(rows, map[string]string{
				"Name":           candidate.FullName,
				"Email":          candidate.Email,
				"Phone":          candidate.Phone,
				"Position":       candidate.Position,
				"Stage":          stage,
				"Source":         candidate.Source,
				"Rating":         fmt.Sprintf("%d", candidate.Rating),
				"Interview Date": derefOrEmpty(candidate.InterviewDate),
				"Interview Time": derefOrEmpty(candidate.InterviewTime),
				"Created At":     candidate.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		if len(rows) >= total || len(candidates) == 0 {
			break
		}
		filter.Page++
	}

	dataset := export.Dataset{Headers: headers, Rows: rows}
	title := fmt.Sprintf("Candidate Roster %s", time.Now().UTC().Format("2006-01-02"))
	return dataset, title, nil
}

func (s *ExportService) fail(jobID string, cause error) {
	now := time.Now().UTC()
	message := cause.Error()
	s.mu.Lock()
	if job, ok := s.registry[jobID]; ok {
		job.Status = models.ExportStatusFailed
		job.ErrorMessage = &message
		job.FinishedAt = &now
	}
	s.mu.Unlock()
	s.logger.Error("roster export failed", zap.String("job_id", jobID), zap.Error(cause))
}

func (s *ExportService) snapshot(jobID string) *models.ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.registry[jobID]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func derefOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
