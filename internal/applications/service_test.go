package applications_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clubhub/clubhub/internal/applications"
	"github.com/clubhub/clubhub/internal/platform/httpx"
	"github.com/clubhub/clubhub/internal/rbac"
	"github.com/clubhub/clubhub/jobs"
	_ "github.com/clubhub/clubhub/testing"
)

type stubRepo struct {
	apps   map[int64]applications.Application
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{apps: make(map[int64]applications.Application), nextID: 1}
}

func (s *stubRepo) Create(ctx context.Context, clubID, userID int64, motivation string, generation int) (applications.Application, error) {
	for _, app := range s.apps {
		if app.ClubID == clubID && app.UserID == userID && app.Status == applications.StatusPending {
			return applications.Application{}, httpx.ErrDuplicate
		}
	}
	app := applications.Application{
		ID:         s.nextID,
		ClubID:     clubID,
		UserID:     userID,
		Motivation: motivation,
		Generation: generation,
		Status:     applications.StatusPending,
		CreatedAt:  time.Now(),
	}
	s.apps[app.ID] = app
	s.nextID++
	return app, nil
}

func (s *stubRepo) ListByClub(ctx context.Context, clubID int64, status string, limit, offset int) ([]applications.Application, error) {
	var out []applications.Application
	for _, app := range s.apps {
		if app.ClubID == clubID && (status == "" || app.Status == status) {
			out = append(out, app)
		}
	}
	return out, nil
}

func (s *stubRepo) Get(ctx context.Context, clubID, id int64) (applications.Application, error) {
	app, ok := s.apps[id]
	if !ok || app.ClubID != clubID {
		return applications.Application{}, httpx.ErrNotFound
	}
	return app, nil
}

func (s *stubRepo) Decide(ctx context.Context, clubID, id, deciderID int64, status string, now time.Time) (applications.Application, error) {
	app, ok := s.apps[id]
	if !ok || app.ClubID != clubID {
		return applications.Application{}, httpx.ErrNotFound
	}
	if app.Status != applications.StatusPending {
		return applications.Application{}, applications.ErrAlreadyDecided
	}
	app.Status = status
	app.DecidedBy = &deciderID
	app.DecidedAt = &now
	s.apps[id] = app
	return app, nil
}

type stubAssigner struct {
	inputs []rbac.AssignInput
	err    error
}

func (s *stubAssigner) AssignClubRole(ctx context.Context, in rbac.AssignInput) (rbac.AssignResult, error) {
	s.inputs = append(s.inputs, in)
	return rbac.AssignResult{}, s.err
}

type stubDirectory struct{}

func (stubDirectory) UserEmail(ctx context.Context, userID int64) (string, error) {
	return "member@club.test", nil
}

type stubMailer struct {
	sent []jobs.SendEmailPayload
}

func (s *stubMailer) EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error) {
	s.sent = append(s.sent, payload)
	return &asynq.TaskInfo{}, nil
}

func TestAcceptGrantsClubMember(t *testing.T) {
	repo := newStubRepo()
	assigner := &stubAssigner{}
	mailer := &stubMailer{}
	svc := applications.NewService(nil, repo, assigner, stubDirectory{}, mailer)

	app, err := svc.Apply(context.Background(), 42, 7, "I want to join the chess club", 3)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	decided, err := svc.Accept(context.Background(), 42, app.ID, 99)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if decided.Status != applications.StatusAccepted {
		t.Fatalf("status = %q, want accepted", decided.Status)
	}
	if len(assigner.inputs) != 1 {
		t.Fatalf("expected 1 role assignment, got %d", len(assigner.inputs))
	}
	in := assigner.inputs[0]
	if in.UserID != 7 || in.ClubID == nil || *in.ClubID != 42 || in.Role != rbac.RoleClubMember {
		t.Fatalf("unexpected assignment input: %+v", in)
	}
	if in.Generation != 3 {
		t.Fatalf("generation = %d, want 3", in.Generation)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 notification email, got %d", len(mailer.sent))
	}
}

func TestAcceptTwiceFailsWithoutSecondGrant(t *testing.T) {
	repo := newStubRepo()
	assigner := &stubAssigner{}
	svc := applications.NewService(nil, repo, assigner, stubDirectory{}, nil)

	app, err := svc.Apply(context.Background(), 42, 7, "I want to join the chess club", 3)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Accept(context.Background(), 42, app.ID, 99); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err = svc.Accept(context.Background(), 42, app.ID, 99)
	if !errors.Is(err, applications.ErrAlreadyDecided) {
		t.Fatalf("second accept err = %v, want ErrAlreadyDecided", err)
	}
	if len(assigner.inputs) != 1 {
		t.Fatalf("expected exactly 1 role assignment, got %d", len(assigner.inputs))
	}
}

func TestRejectSendsNoGrant(t *testing.T) {
	repo := newStubRepo()
	assigner := &stubAssigner{}
	mailer := &stubMailer{}
	svc := applications.NewService(nil, repo, assigner, stubDirectory{}, mailer)

	app, err := svc.Apply(context.Background(), 42, 7, "I want to join the chess club", 3)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	decided, err := svc.Reject(context.Background(), 42, app.ID, 99)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if decided.Status != applications.StatusRejected {
		t.Fatalf("status = %q, want rejected", decided.Status)
	}
	if len(assigner.inputs) != 0 {
		t.Fatalf("reject must not assign roles, got %d assignments", len(assigner.inputs))
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 notification email, got %d", len(mailer.sent))
	}
}

func TestDuplicatePendingApplication(t *testing.T) {
	repo := newStubRepo()
	svc := applications.NewService(nil, repo, &stubAssigner{}, stubDirectory{}, nil)

	if _, err := svc.Apply(context.Background(), 42, 7, "I want to join the chess club", 3); err != nil {
		t.Fatalf("apply: %v", err)
	}
	_, err := svc.Apply(context.Background(), 42, 7, "Second try while pending", 3)
	if !errors.Is(err, httpx.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}
