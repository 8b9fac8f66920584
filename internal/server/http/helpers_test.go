package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loginchat/authserver/internal/common"
	"github.com/loginchat/authserver/internal/dbx"
	"github.com/loginchat/authserver/internal/logging"
	"github.com/loginchat/authserver/internal/server/auth"
	"github.com/loginchat/authserver/internal/server/models"
	usersrepo "github.com/loginchat/authserver/internal/server/repositories/users"
	"github.com/loginchat/authserver/internal/server/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var testSecret = []byte("test-secret")

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// memUsers is an in-memory users repository with a unique email index.
type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	seq     int
	err     error
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*models.User{}}
}

func (m *memUsers) fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.byEmail[u.Email]; ok {
		return nil, common.ErrEmailExists
	}
	m.seq++
	cp := *u
	cp.ID = fmt.Sprintf("user-%d", m.seq)
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	m.byEmail[u.Email] = &cp
	return &cp, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.byEmail[email]
	return ok, nil
}

type memRepoManager struct{ u *memUsers }

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Users(dbx.DBTX) usersrepo.Repository         { return m.u }

type testEnv struct {
	router *gin.Engine
	issuer *auth.TokenIssuer
	users  *memUsers
}

type envOptions struct {
	csrf         bool
	trustedHosts []string
	origins      []string
}

func newTestEnv(t *testing.T, o envOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	if o.trustedHosts == nil {
		o.trustedHosts = []string{"*"}
	}

	users := newMemUsers()
	issuer := auth.NewTokenIssuer(testSecret, 15*time.Minute, time.Hour, o.csrf)
	cookies := auth.NewCookieTransport(auth.CookieOptions{
		SameSite:      http.SameSiteLaxMode,
		CSRFProtect:   o.csrf,
		AccessMaxAge:  15 * time.Minute,
		RefreshMaxAge: time.Hour,
	})
	svc := services.NewUserService(db, &memRepoManager{u: users}, auth.NewPasswordHasher(bcrypt.MinCost), issuer)

	router := NewRouter(
		NewHandlers(svc, cookies, nopLogger{}),
		NewGate(issuer, cookies),
		nopLogger{},
		RouterOptions{
			TrustedHosts:           o.trustedHosts,
			TrustedHostExceptPaths: []string{"/health"},
			AllowedOrigins:         o.origins,
		},
	)

	return &testEnv{router: router, issuer: issuer, users: users}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (e *testEnv) register(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(jsonRequest(t, http.MethodPost, "/api/auth/register/email", map[string]string{
		"email":    email,
		"password": password,
	}))
}

func responseCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}
