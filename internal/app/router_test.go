package app_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/clubhub/clubhub/internal/app"
	"github.com/clubhub/clubhub/internal/applications"
	"github.com/clubhub/clubhub/internal/auth"
	"github.com/clubhub/clubhub/internal/banners"
	"github.com/clubhub/clubhub/internal/clubs"
	"github.com/clubhub/clubhub/internal/notices"
	"github.com/clubhub/clubhub/internal/rbac"
	"github.com/clubhub/clubhub/internal/reservations"
	"github.com/clubhub/clubhub/internal/shared"
	"github.com/clubhub/clubhub/internal/users"
	_ "github.com/clubhub/clubhub/testing"
)

const adminUserID = int64(7)

// adminDirectory grants union-admin globally to one user and nothing to
// anyone else.
type adminDirectory struct{}

func (adminDirectory) GlobalRoles(ctx context.Context, userID int64) ([]rbac.Role, error) {
	if userID == adminUserID {
		return []rbac.Role{rbac.RoleUnionAdmin}, nil
	}
	return nil, nil
}

func (adminDirectory) ClubRoles(ctx context.Context, userID, clubID int64) ([]rbac.Role, error) {
	return nil, nil
}

type clubRepoStub struct {
	deactivated []int64
}

func (r *clubRepoStub) ListClubs(ctx context.Context, foldedQuery string, limit, offset int) ([]clubs.Club, error) {
	return nil, nil
}

func (r *clubRepoStub) GetClub(ctx context.Context, id int64) (clubs.Club, error) {
	return clubs.Club{ID: id}, nil
}

func (r *clubRepoStub) CreateClub(ctx context.Context, name, folded, category, description string) (clubs.Club, error) {
	return clubs.Club{Name: name}, nil
}

func (r *clubRepoStub) UpdateClub(ctx context.Context, id int64, name, folded, category, description string) (clubs.Club, error) {
	return clubs.Club{ID: id, Name: name}, nil
}

func (r *clubRepoStub) DeactivateClub(ctx context.Context, id int64) error {
	r.deactivated = append(r.deactivated, id)
	return nil
}

type routerFixture struct {
	router   http.Handler
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	clubRepo *clubRepoStub
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")

	table, err := rbac.DefaultTable()
	if err != nil {
		t.Fatalf("default table: %v", err)
	}
	roleCache := rbac.NewRedisRoleCache(redisClient, time.Minute)
	resolver := rbac.NewResolver(adminDirectory{}, roleCache, logger)
	evaluator := rbac.NewEvaluator(table, resolver, rbac.SessionIdentity{}, logger)
	mw := rbac.Middleware{Evaluator: evaluator, Logger: logger}

	clubRepo := &clubRepoStub{}

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              &app.Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second},
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		AuthHandler:         auth.NewHandler(logger, auth.NewService(nil), resolver, sessionManager, csrfManager),
		UsersHandler:        users.NewHandler(logger, nil, mw),
		ClubsHandler:        clubs.NewHandler(logger, clubs.NewService(clubRepo), mw),
		NoticesHandler:      notices.NewHandler(logger, nil, mw),
		ApplicationsHandler: applications.NewHandler(logger, nil, mw),
		ReservationsHandler: reservations.NewHandler(logger, nil, mw),
		BannersHandler:      banners.NewHandler(logger, nil, mw),
		RBACHandler:         rbac.NewHandler(logger, nil, table, mw),
	})

	return &routerFixture{router: router, sessions: sessionManager, csrf: csrfManager, clubRepo: clubRepo}
}

// authedRequest builds a request carrying a committed session cookie and
// matching CSRF token for the given user.
func (f *routerFixture) authedRequest(t *testing.T, userID int64, method, target string) *http.Request {
	t.Helper()

	seed := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := f.sessions.Load(context.Background(), seed)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.SetUserID(userID)
	token, err := f.csrf.EnsureToken(context.Background(), sess)
	if err != nil {
		t.Fatalf("csrf token: %v", err)
	}
	rec := httptest.NewRecorder()
	if err := f.sessions.Commit(context.Background(), rec, seed, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	req := httptest.NewRequest(method, target, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	req.Header.Set(shared.CSRFHeader, token)
	return req
}

func envelopeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body.Code
}

func TestRouterServesHealthz(t *testing.T) {
	fixture := newRouterFixture(t)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestClubDeleteAllowsUnionAdmin(t *testing.T) {
	fixture := newRouterFixture(t)

	req := fixture.authedRequest(t, adminUserID, http.MethodDelete, "/clubs/42")
	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(fixture.clubRepo.deactivated) != 1 || fixture.clubRepo.deactivated[0] != 42 {
		t.Fatalf("deactivated clubs = %v, want [42]", fixture.clubRepo.deactivated)
	}
}

func TestClubDeleteRequiresLogin(t *testing.T) {
	fixture := newRouterFixture(t)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/clubs/42", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := envelopeCode(t, rec); code != rbac.CodeLoginRequired {
		t.Fatalf("code = %q, want %q", code, rbac.CodeLoginRequired)
	}
}

func TestNestedClubRoutesAreGuarded(t *testing.T) {
	fixture := newRouterFixture(t)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs/42/members", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("members status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
