package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"rotafacil/internal/adapters/api/middleware"
	"rotafacil/internal/adapters/db/memory"
	appaccess "rotafacil/internal/application/access"
	appauth "rotafacil/internal/application/auth"
	"rotafacil/internal/config"
	"rotafacil/internal/domain/access"
	"rotafacil/internal/domain/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const testPassword = "senha-segura"

var (
	alwaysOpen = access.WeeklySchedule{
		"sunday": {{Start: "00:00", End: "23:59"}}, "monday": {{Start: "00:00", End: "23:59"}},
		"tuesday": {{Start: "00:00", End: "23:59"}}, "wednesday": {{Start: "00:00", End: "23:59"}},
		"thursday": {{Start: "00:00", End: "23:59"}}, "friday": {{Start: "00:00", End: "23:59"}},
		"saturday": {{Start: "00:00", End: "23:59"}},
	}
	// a table with no windows on any day
	alwaysClosed = access.WeeklySchedule{}
)

type testServer struct {
	router        *gin.Engine
	handler       *Handler
	users         *memory.UserRepository
	schedules     *memory.ScheduleRepository
	scheduleStore *flakyScheduleRepository
	cfg           *config.Config
}

// flakyScheduleRepository fails schedule lookups while fail is set
type flakyScheduleRepository struct {
	*memory.ScheduleRepository
	fail atomic.Bool
}

func (r *flakyScheduleRepository) GetSchedule(ctx context.Context, scheduleID string) (*access.Schedule, error) {
	if r.fail.Load() {
		return nil, errors.New("connection refused")
	}
	return r.ScheduleRepository.GetSchedule(ctx, scheduleID)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Timezone: "UTC",
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			TokenTTLHours:   1,
			LoginRateLimit:  5,
			LoginRateWindow: 15,
		},
	}
	users := memory.NewUserRepository()
	schedules := memory.NewScheduleRepository()
	scheduleStore := &flakyScheduleRepository{ScheduleRepository: schedules}
	auditRepo := memory.NewAuditRepository()

	accessService := appaccess.NewService(scheduleStore, users, auditRepo, memory.NewLocker(), time.UTC)
	authService := appauth.NewService(&cfg.Auth, users, accessService, auditRepo)
	limiter := NewLoginRateLimiter(cfg.Auth.LoginRateLimit, cfg.Auth.LoginWindow())
	handler := NewHandler(authService, accessService, limiter)

	r := gin.New()
	handler.RegisterRoutes(r,
		middleware.AuthMiddleware(authService, &cfg.Auth),
		middleware.RequireAdmin(),
		middleware.RequireAccessWindow(accessService),
	)
	return &testServer{router: r, handler: handler, users: users, schedules: schedules, scheduleStore: scheduleStore, cfg: cfg}
}

func (s *testServer) addSchedule(t *testing.T, id string, windows access.WeeklySchedule) {
	t.Helper()
	if err := s.schedules.CreateSchedule(context.Background(), &access.Schedule{ID: id, Name: "Tabela " + id, OwnerID: "admin-id", Windows: windows}); err != nil {
		t.Fatal(err)
	}
}

func (s *testServer) addUser(t *testing.T, id string, role auth.Role, scheduleID string) {
	t.Helper()
	hash, err := appauth.HashPassword(testPassword)
	if err != nil {
		t.Fatal(err)
	}
	u := &auth.User{ID: id, Email: id + "@rotafacil.test", Name: id, PasswordHash: hash, Role: role, IsActive: true}
	if scheduleID != "" {
		u.AccessScheduleID = &scheduleID
	}
	if err := s.users.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, id string) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: id + "@rotafacil.test", Password: testPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", id, w.Code, w.Body.String())
	}
	var res appauth.LoginResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	return res.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return m
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(http.MethodGet, "/api/v1/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestLogin_Responses(t *testing.T) {
	s := newTestServer(t)
	s.addSchedule(t, "closed", alwaysClosed)
	s.addUser(t, "ana", auth.RoleUser, "")
	s.addUser(t, "noturno", auth.RoleUser, "closed")

	w := s.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "ana@rotafacil.test", Password: "errada!!"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad password: expected 401, got %d", w.Code)
	}

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ana@rotafacil.test"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing password: expected 400, got %d", w.Code)
	}

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "noturno@rotafacil.test", Password: testPassword})
	if w.Code != http.StatusForbidden {
		t.Fatalf("outside schedule: expected 403, got %d", w.Code)
	}
	body := decode(t, w)
	if body["reason"] != "access_schedule_restriction" {
		t.Errorf("expected access_schedule_restriction reason, got %v", body)
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "Tabela closed") {
		t.Errorf("expected denial message naming the schedule, got %q", msg)
	}

	if token := s.login(t, "ana"); token == "" {
		t.Fatal("expected token")
	}
}

func TestLogin_RateLimited(t *testing.T) {
	s := newTestServer(t)
	s.addUser(t, "ana", auth.RoleUser, "")

	for i := 0; i < 5; i++ {
		w := s.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "ana@rotafacil.test", Password: "errada!!"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, w.Code)
		}
	}
	w := s.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "ana@rotafacil.test", Password: testPassword})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after 5 attempts, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestCheckAccess(t *testing.T) {
	s := newTestServer(t)
	s.addSchedule(t, "open", alwaysOpen)
	s.addSchedule(t, "closed", alwaysClosed)
	s.addUser(t, "livre", auth.RoleUser, "")
	s.addUser(t, "comercial", auth.RoleUser, "open")
	s.addUser(t, "tarde", auth.RoleUser, "open")

	if w := s.do(http.MethodGet, "/api/v1/check-access", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}

	w := s.do(http.MethodGet, "/api/v1/check-access", s.login(t, "livre"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unrestricted: expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["allowed"] != true {
		t.Errorf("expected allowed, got %v", body)
	}
	if v, present := body["minutesUntilEnd"]; !present || v != nil {
		t.Errorf("expected minutesUntilEnd to be null, got %v (present=%v)", v, present)
	}

	w = s.do(http.MethodGet, "/api/v1/check-access", s.login(t, "comercial"), nil)
	body = decode(t, w)
	if w.Code != http.StatusOK || body["allowed"] != true {
		t.Fatalf("inside window: expected allowed, got %d %v", w.Code, body)
	}
	if _, ok := body["minutesUntilEnd"].(float64); !ok {
		t.Errorf("expected numeric minutesUntilEnd, got %v", body["minutesUntilEnd"])
	}

	// schedule tightened after login
	token := s.login(t, "tarde")
	tarde, _ := s.users.GetUser(context.Background(), "tarde")
	closed := "closed"
	tarde.AccessScheduleID = &closed
	_ = s.users.UpdateUser(context.Background(), tarde)

	w = s.do(http.MethodGet, "/api/v1/check-access", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("outside window: expected 403, got %d", w.Code)
	}
	body = decode(t, w)
	if body["allowed"] != false || body["message"] == "" {
		t.Errorf("expected denial with message, got %v", body)
	}

	// the access window middleware blocks other routes, logout still works
	if w := s.do(http.MethodGet, "/api/v1/auth/me", token, nil); w.Code != http.StatusForbidden {
		t.Errorf("expected /auth/me to be blocked outside the window, got %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/v1/auth/logout", token, nil); w.Code != http.StatusNoContent {
		t.Errorf("expected logout to succeed outside the window, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/v1/check-access", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected revoked token to get 401, got %d", w.Code)
	}
}

func TestScheduleStoreFailure_FailsOpen(t *testing.T) {
	s := newTestServer(t)
	s.addSchedule(t, "open", alwaysOpen)
	s.addUser(t, "worker", auth.RoleUser, "open")
	token := s.login(t, "worker")

	s.scheduleStore.fail.Store(true)

	w := s.do(http.MethodGet, "/api/v1/check-access", token, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["allowed"] != true {
		t.Errorf("expected allowed true, got %v", body["allowed"])
	}
	minutes, ok := body["minutesUntilEnd"]
	if !ok || minutes != nil {
		t.Errorf("expected minutesUntilEnd null, got %v (present=%v)", minutes, ok)
	}

	// protected routes stay reachable while schedules cannot be read
	if w := s.do(http.MethodGet, "/api/v1/auth/me", token, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /auth/me, got %d: %s", w.Code, w.Body.String())
	}
}

func TestChangePassword_RevokesToken(t *testing.T) {
	s := newTestServer(t)
	s.addUser(t, "ana", auth.RoleUser, "")
	token := s.login(t, "ana")

	w := s.do(http.MethodPut, "/api/v1/auth/password", token, ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "outra-senha-1"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodGet, "/api/v1/auth/me", token, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected old token rejected, got %d", w.Code)
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	s.addUser(t, "admin", auth.RoleAdmin, "")
	s.addUser(t, "ana", auth.RoleUser, "")
	admin := s.login(t, "admin")

	if w := s.do(http.MethodGet, "/api/v1/users", s.login(t, "ana"), nil); w.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", w.Code)
	}

	w := s.do(http.MethodPost, "/api/v1/access-schedules", admin, access.ScheduleCreateRequest{
		Name:    "Invertida",
		Windows: access.WeeklySchedule{"monday": {{Start: "18:00", End: "08:00"}}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid schedule: expected 400, got %d", w.Code)
	}

	w = s.do(http.MethodPost, "/api/v1/access-schedules", admin, access.ScheduleCreateRequest{Name: "Fechada", Windows: alwaysClosed})
	if w.Code != http.StatusCreated {
		t.Fatalf("create schedule: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created access.Schedule
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	w = s.do(http.MethodGet, "/api/v1/access-schedules", admin, nil)
	var list []access.Schedule
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("expected the created schedule listed, got %s", w.Body.String())
	}

	w = s.do(http.MethodPut, "/api/v1/users/ana/access-schedule", admin, AssignScheduleRequest{AccessScheduleID: &created.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("assign: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = s.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "ana@rotafacil.test", Password: testPassword})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected ana refused after assignment, got %d", w.Code)
	}

	if w := s.do(http.MethodDelete, "/api/v1/access-schedules/"+created.ID, admin, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/v1/access-schedules/"+created.ID, admin, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
	s.login(t, "ana")

	missing := "nope"
	w = s.do(http.MethodPost, "/api/v1/users", admin, auth.UserCreateRequest{Email: "bia@rotafacil.test", Name: "Bia", Password: testPassword, AccessScheduleID: &missing})
	if w.Code != http.StatusNotFound {
		t.Fatalf("create user with missing schedule: expected 404, got %d", w.Code)
	}
	w = s.do(http.MethodPost, "/api/v1/users", admin, auth.UserCreateRequest{Email: "bia@rotafacil.test", Name: "Bia", Password: testPassword})
	if w.Code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w = s.do(http.MethodPost, "/api/v1/users", admin, auth.UserCreateRequest{Email: "bia@rotafacil.test", Name: "Bia", Password: testPassword})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate user: expected 409, got %d", w.Code)
	}

	w = s.do(http.MethodGet, "/api/v1/audit?limit=2", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("audit: expected 200, got %d", w.Code)
	}
	var entries []map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	if w := s.do(http.MethodGet, "/api/v1/audit?limit=abc", admin, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: expected 400, got %d", w.Code)
	}
}

func TestDevMode_VirtualAdmin(t *testing.T) {
	s := newTestServer(t)
	s.cfg.Auth.DevMode = true

	w := s.do(http.MethodGet, "/api/v1/users", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dev mode: expected 200 without a token, got %d", w.Code)
	}
	w = s.do(http.MethodGet, "/api/v1/check-access", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dev mode check-access: expected 200, got %d", w.Code)
	}
}

func TestWebSocket_PushesAccessChange(t *testing.T) {
	s := newTestServer(t)
	s.addSchedule(t, "open", alwaysOpen)
	s.addUser(t, "admin", auth.RoleAdmin, "")
	s.addUser(t, "ana", auth.RoleUser, "")
	admin := s.login(t, "admin")
	token := s.login(t, "ana")

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.handler.WebSocketManager().ConnectionCount("ana") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	open := "open"
	if w := s.do(http.MethodPut, "/api/v1/users/ana/access-schedule", admin, AssignScheduleRequest{AccessScheduleID: &open}); w.Code != http.StatusOK {
		t.Fatalf("assign: expected 200, got %d", w.Code)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != EventAccessChanged {
		t.Fatalf("expected %q, got %q", EventAccessChanged, ev.Type)
	}

	if _, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws?token=bogus", nil); err == nil {
		t.Fatal("expected dial with a bogus token to fail")
	}
}

func TestLoginRateLimiter_Refills(t *testing.T) {
	l := NewLoginRateLimiter(2, time.Minute)
	now := time.Date(2026, 2, 12, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow("10.0.0.1"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	ok, retry := l.Allow("10.0.0.1")
	if ok || retry <= 0 {
		t.Fatalf("expected refusal with retry delay, got ok=%v retry=%v", ok, retry)
	}
	if ok, _ := l.Allow("10.0.0.2"); !ok {
		t.Fatal("other IPs have their own budget")
	}

	now = now.Add(30 * time.Second)
	if ok, _ := l.Allow("10.0.0.1"); !ok {
		t.Fatal("expected one attempt to refill after window/limit")
	}

	now = now.Add(2 * time.Minute)
	l.Cleanup()
	l.mu.Lock()
	n := len(l.limiters)
	l.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected idle limiters cleaned, %d left", n)
	}
}
