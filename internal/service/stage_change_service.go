package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/dispatch"
	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/placeholder"
)

type stageChangeCandidateRepository interface {
	FindByID(ctx context.Context, id string) (*models.Candidate, error)
	Update(ctx context.Context, candidate *models.Candidate) error
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
}

type stageChangeStageRepository interface {
	FindByID(ctx context.Context, id string) (*models.Stage, error)
}

type stageChangeTemplateRepository interface {
	FindForStage(ctx context.Context, stageID string, tmplType models.TemplateType) (*models.Template, error)
}

type settingsReader interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// StageChangeService drives the two-phase transition workflow: Plan inspects
// the target stage and pre-renders the proposed notification, Confirm persists
// the move, appends history and builds the compose links. Notification
// failures never roll back a persisted transition.
type StageChangeService struct {
	candidates stageChangeCandidateRepository
	stages     stageChangeStageRepository
	templates  stageChangeTemplateRepository
	settings   settingsReader
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStageChangeService constructs the stage-change service.
func NewStageChangeService(
	candidates stageChangeCandidateRepository,
	stages stageChangeStageRepository,
	templates stageChangeTemplateRepository,
	settings settingsReader,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *StageChangeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StageChangeService{
		candidates: candidates,
		stages:     stages,
		templates:  templates,
		settings:   settings,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Plan describes what confirming a transition would do: whether the target
// stage needs an interview schedule, whether a notification is proposed and
// the message bodies rendered from the candidate's current record. Nothing is
// persisted.
func (s *StageChangeService) Plan(ctx context.Context, candidateID, targetStageID string) (*models.StageChangePlan, error) {
	candidate, err := s.candidates.FindByID(ctx, candidateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	stage, err := s.stages.FindByID(ctx, targetStageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target stage not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target stage")
	}

	plan := &models.StageChangePlan{
		CandidateID:       candidate.ID,
		TargetStageID:     stage.ID,
		TargetStageTitle:  stage.Title,
		RequiresInterview: stage.IsInterview(),
	}
	if candidate.StageID == stage.ID {
		plan.Warning = "candidate is already in this stage"
		return plan, nil
	}

	extras := s.templateExtras(ctx, stage)
	if email := s.lookupTemplate(ctx, stage.ID, models.TemplateTypeEmail); email != nil {
		plan.EmailBody = placeholder.Render(email.Content, *candidate, extras)
		plan.SendNotification = true
		plan.DefaultChannel = models.ChannelEmail
	}
	if wa := s.lookupTemplate(ctx, stage.ID, models.TemplateTypeWhatsApp); wa != nil {
		plan.WhatsAppBody = placeholder.Render(wa.Content, *candidate, extras)
		if !plan.SendNotification {
			plan.SendNotification = true
			plan.DefaultChannel = models.ChannelWhatsApp
		}
	}
	if !plan.SendNotification {
		plan.Warning = "no template configured for this stage"
	}
	return plan, nil
}

// Confirm executes a planned transition. Moving a candidate to the stage it
// already occupies is a no-op that writes no history. An interview-class
// target requires both a date and a time up front; the candidate record is
// untouched when that check fails. Compose-link failures are reported per
// channel and never undo the persisted move.
func (s *StageChangeService) Confirm(ctx context.Context, actor, candidateID string, req models.StageChangeRequest) (*models.StageChangeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stage change payload")
	}

	candidate, err := s.candidates.FindByID(ctx, candidateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	if candidate.StageID == req.TargetStageID {
		return &models.StageChangeResult{Candidate: candidate, Changed: false}, nil
	}

	stage, err := s.stages.FindByID(ctx, req.TargetStageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target stage not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target stage")
	}

	if stage.IsInterview() {
		if !hasValue(req.InterviewDate) || !hasValue(req.InterviewTime) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "interview stages require a date and a time")
		}
		candidate.InterviewDate = req.InterviewDate
		candidate.InterviewTime = req.InterviewTime
		if req.InterviewerID != nil {
			candidate.InterviewerID = req.InterviewerID
		}
	}
	candidate.StageID = stage.ID

	if err := s.candidates.Update(ctx, candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move candidate")
	}

	details := stage.ID
	entry := &models.HistoryEntry{
		CandidateID: candidate.ID,
		Actor:       actor,
		Action:      "stage changed to " + stage.Title,
		Details:     &details,
	}
	if err := s.candidates.AppendHistory(ctx, entry); err != nil {
		s.logger.Error("failed to append stage change history",
			zap.String("candidate_id", candidate.ID),
			zap.String("stage_id", stage.ID),
			zap.Error(err))
	}

	s.metrics.RecordStageChange(stage.ID)

	result := &models.StageChangeResult{Candidate: candidate, Changed: true}
	if req.SendNotification {
		result.Dispatch = s.dispatchAll(ctx, candidate, stage, req.Channels)
	}
	return result, nil
}

// dispatchAll builds one compose link per requested channel. Each channel is
// independent: a missing template or a bad phone number on one channel still
// leaves the other channel's link intact.
func (s *StageChangeService) dispatchAll(ctx context.Context, candidate *models.Candidate, stage *models.Stage, channels []models.Channel) []models.DispatchResult {
	if len(channels) == 0 {
		channels = []models.Channel{models.ChannelEmail}
	}
	extras := s.templateExtras(ctx, stage)

	results := make([]models.DispatchResult, 0, len(channels))
	for _, channel := range channels {
		result := s.dispatchOne(ctx, candidate, stage, channel, extras)
		s.metrics.RecordDispatch(string(channel), result.Error == "")
		results = append(results, result)
	}
	return results
}

func (s *StageChangeService) dispatchOne(ctx context.Context, candidate *models.Candidate, stage *models.Stage, channel models.Channel, extras map[string]string) models.DispatchResult {
	result := models.DispatchResult{Channel: channel}

	var tmplType models.TemplateType
	switch channel {
	case models.ChannelEmail:
		tmplType = models.TemplateTypeEmail
	case models.ChannelWhatsApp:
		tmplType = models.TemplateTypeWhatsApp
	default:
		result.Error = "unknown channel"
		return result
	}

	tmpl, err := s.templates.FindForStage(ctx, stage.ID, tmplType)
	if err != nil {
		if err == sql.ErrNoRows {
			result.Error = "no template configured for this stage"
		} else {
			s.logger.Warn("template lookup failed",
				zap.String("stage_id", stage.ID),
				zap.String("channel", string(channel)),
				zap.Error(err))
			result.Error = "template lookup failed"
		}
		return result
	}

	body := placeholder.Render(tmpl.Content, *candidate, extras)
	var uri string
	switch channel {
	case models.ChannelEmail:
		uri, err = dispatch.MailtoLink(candidate.Email, tmpl.Name, body)
	case models.ChannelWhatsApp:
		uri, err = dispatch.WhatsAppLink(candidate.Phone, body)
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.URI = uri
	return result
}

// templateExtras assembles the non-candidate substitution values. A settings
// read failure degrades to empty company fields rather than blocking the move.
func (s *StageChangeService) templateExtras(ctx context.Context, stage *models.Stage) map[string]string {
	extras := map[string]string{
		"stageName": stage.Title,
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Warn("failed to load settings for template rendering", zap.Error(err))
		return extras
	}
	extras["companyName"] = settings.CompanyProfile.Name
	extras["companyAddress"] = settings.CompanyProfile.Address
	extras["companyWebsite"] = settings.CompanyProfile.Website
	return extras
}

func (s *StageChangeService) lookupTemplate(ctx context.Context, stageID string, tmplType models.TemplateType) *models.Template {
	tmpl, err := s.templates.FindForStage(ctx, stageID, tmplType)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.Warn("template lookup failed",
				zap.String("stage_id", stageID),
				zap.String("type", string(tmplType)),
				zap.Error(err))
		}
		return nil
	}
	return tmpl
}

func hasValue(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}
