package applications

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clubhub/clubhub/internal/rbac"
	"github.com/clubhub/clubhub/jobs"
)

// RepositoryPort defines data access methods for applications.
type RepositoryPort interface {
	Create(ctx context.Context, clubID, userID int64, motivation string, generation int) (Application, error)
	ListByClub(ctx context.Context, clubID int64, status string, limit, offset int) ([]Application, error)
	Get(ctx context.Context, clubID, id int64) (Application, error)
	Decide(ctx context.Context, clubID, id, deciderID int64, status string, now time.Time) (Application, error)
}

// Enqueuer submits background jobs. Satisfied by jobs.Client.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// RoleAssigner grants club roles. Satisfied by rbac.Service.
type RoleAssigner interface {
	AssignClubRole(ctx context.Context, in rbac.AssignInput) (rbac.AssignResult, error)
}

// UserDirectory looks up applicant contact details for notifications.
type UserDirectory interface {
	UserEmail(ctx context.Context, userID int64) (string, error)
}

// Service orchestrates the membership application flow. Accepting an
// application grants CLUB_MEMBER through the role service, so the
// single-membership invariant and cache invalidation both apply.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	roles  RoleAssigner
	users  UserDirectory
	mailer Enqueuer
}

// NewService builds a Service instance. mailer may be nil when the
// worker queue is not configured.
func NewService(logger *slog.Logger, repo RepositoryPort, roles RoleAssigner, users UserDirectory, mailer Enqueuer) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, repo: repo, roles: roles, users: users, mailer: mailer}
}

// Apply files a pending application.
func (s *Service) Apply(ctx context.Context, clubID, userID int64, motivation string, generation int) (Application, error) {
	return s.repo.Create(ctx, clubID, userID, motivation, generation)
}

// ListByClub returns a page of applications.
func (s *Service) ListByClub(ctx context.Context, clubID int64, status string, limit, offset int) ([]Application, error) {
	return s.repo.ListByClub(ctx, clubID, status, limit, offset)
}

// Accept marks the application accepted and grants CLUB_MEMBER to the
// applicant. The role grant happens after the status flip so a repeated
// accept cannot double-assign.
func (s *Service) Accept(ctx context.Context, clubID, id, deciderID int64) (Application, error) {
	app, err := s.repo.Decide(ctx, clubID, id, deciderID, StatusAccepted, time.Now().UTC())
	if err != nil {
		return Application{}, err
	}
	_, err = s.roles.AssignClubRole(ctx, rbac.AssignInput{
		UserID:     app.UserID,
		ClubID:     &app.ClubID,
		Role:       rbac.RoleClubMember,
		Generation: app.Generation,
	})
	if err != nil {
		s.logger.Error("grant member role after accept",
			slog.Int64("application_id", app.ID),
			slog.Int64("user_id", app.UserID),
			slog.Any("error", err))
		return Application{}, err
	}
	s.notify(ctx, app.UserID, "Application accepted",
		"Your club application has been accepted. Welcome aboard!")
	return app, nil
}

// Reject marks the application rejected.
func (s *Service) Reject(ctx context.Context, clubID, id, deciderID int64) (Application, error) {
	app, err := s.repo.Decide(ctx, clubID, id, deciderID, StatusRejected, time.Now().UTC())
	if err != nil {
		return Application{}, err
	}
	s.notify(ctx, app.UserID, "Application update",
		"Your club application was not accepted this time.")
	return app, nil
}

func (s *Service) notify(ctx context.Context, userID int64, subject, body string) {
	if s.mailer == nil {
		return
	}
	email, err := s.users.UserEmail(ctx, userID)
	if err != nil {
		s.logger.Warn("lookup applicant email", slog.Int64("user_id", userID), slog.Any("error", err))
		return
	}
	if _, err := s.mailer.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      email,
		Subject: subject,
		Body:    body,
	}); err != nil {
		s.logger.Warn("enqueue notification email", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}
