package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealdesk/internal/config"
	"dealdesk/internal/models"
)

func init() { gin.SetMode(gin.TestMode) }

type testServer struct {
	t   *testing.T
	app *App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 0, ShutdownTimeout: time.Second, AllowedOrigins: []string{"*"}},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "crm.db")},
		Auth: config.AuthConfig{
			JWTSecret:  "integration-secret",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
			ResetTTL:   time.Hour,
		},
		Files: config.FilesConfig{Driver: "memory", MaxSize: 1 << 20},
	}
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return &testServer{t: t, app: a}
}

func (s *testServer) do(method, path, token string, body any, header map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)
	return w
}

// login creates a user with role and returns an access token for it.
func (s *testServer) login(email, role string) string {
	s.t.Helper()
	_, err := s.app.Users.Create(context.Background(), models.CreateUserRequest{
		Name: "User " + role, Email: email, Password: "password1", Role: role,
	})
	require.NoError(s.t, err)
	pair := s.loginPair(email, "password1")
	return pair.AccessToken
}

func (s *testServer) loginPair(email, password string) models.TokenPair {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: email, Password: password}, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var pair models.TokenPair
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &pair))
	return pair
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) createDeal(token, title string) models.Deal {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/deals", token, map[string]any{
		"title": title, "stage_id": "S1", "owner_id": "U1",
	}, nil)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Deal](s.t, w)
}

func TestDealLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login("rep@example.com", "rep")

	w := s.do(http.MethodPost, "/api/v1/deals", token, map[string]any{
		"title": "Acme License", "stage_id": "S1", "owner_id": "U1",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, `"1"`, w.Header().Get("ETag"))
	deal := decode[models.Deal](t, w)
	assert.EqualValues(t, 1, deal.Version)

	w = s.do(http.MethodPatch, "/api/v1/deals/"+deal.ID, token, map[string]any{"status": "won"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	deal = decode[models.Deal](t, w)
	assert.EqualValues(t, 2, deal.Version)
	assert.Equal(t, models.DealWon, deal.Status)
	assert.Equal(t, "Acme License", deal.Title)

	w = s.do(http.MethodPost, "/api/v1/deals/"+deal.ID+"/move", token, map[string]any{"stage_id": "S2"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	deal = decode[models.Deal](t, w)
	assert.EqualValues(t, 3, deal.Version)
	assert.Equal(t, "S2", deal.StageID)

	w = s.do(http.MethodGet, "/api/v1/deals/"+deal.ID, token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"3"`, w.Header().Get("ETag"))

	w = s.do(http.MethodDelete, "/api/v1/deals/"+deal.ID, token, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodDelete, "/api/v1/deals/"+deal.ID, token, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, "/api/v1/deals/"+deal.ID, token, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDealValidationErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.login("rep@example.com", "rep")

	w := s.do(http.MethodPost, "/api/v1/deals", token, map[string]any{"title": "No stage", "owner_id": "U1"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "stage_id")

	w = s.do(http.MethodPost, "/api/v1/deals", token, "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	deal := s.createDeal(token, "Moving")
	w = s.do(http.MethodPost, "/api/v1/deals/"+deal.ID+"/move", token, map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPatch, "/api/v1/deals/missing", token, map[string]any{"title": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodPatch, "/api/v1/deals/"+deal.ID, token, map[string]any{"status": "pending"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaleIfMatchIsRejected(t *testing.T) {
	s := newTestServer(t)
	token := s.login("rep@example.com", "rep")
	deal := s.createDeal(token, "Versioned")

	w := s.do(http.MethodPatch, "/api/v1/deals/"+deal.ID, token, map[string]any{"title": "v2"}, map[string]string{"If-Match": `"1"`})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPatch, "/api/v1/deals/"+deal.ID, token, map[string]any{"title": "stale"}, map[string]string{"If-Match": `"1"`})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(http.MethodPatch, "/api/v1/deals/"+deal.ID, token, map[string]any{"title": "stale", "version": 1}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/v1/deals/"+deal.ID, token, nil, nil)
	got := decode[models.Deal](t, w)
	assert.Equal(t, "v2", got.Title)
	assert.EqualValues(t, 2, got.Version)

	w = s.do(http.MethodPost, "/api/v1/deals/"+deal.ID+"/move", token, map[string]any{"stage_id": "S9"}, map[string]string{"If-Match": `W/"2"`})
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodPatch, "/api/v1/deals/"+deal.ID, token, map[string]any{"title": "any"}, map[string]string{"If-Match": "*"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodPatch, "/api/v1/deals/"+deal.ID, token, map[string]any{"title": "bad"}, map[string]string{"If-Match": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	metrics := s.do(http.MethodGet, "/metrics", "", nil, nil)
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "dealdesk_deal_version_conflicts_total 2")
}

func TestConcurrentWritersOneWins(t *testing.T) {
	s := newTestServer(t)
	token := s.login("rep@example.com", "rep")
	deal := s.createDeal(token, "Race")

	const writers = 6
	codes := make([]int, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = s.do(http.MethodPatch, "/api/v1/deals/"+deal.ID, token,
				map[string]any{"value_amount": float64(i)}, map[string]string{"If-Match": `"1"`}).Code
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, conflict)
}

func TestBulkUpdate(t *testing.T) {
	s := newTestServer(t)
	token := s.login("rep@example.com", "rep")
	d1 := s.createDeal(token, "D1")

	w := s.do(http.MethodPost, "/api/v1/deals/bulk", token, map[string]any{
		"ids": []string{d1.ID, "D2"}, "status": "lost",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[models.BulkDealResult](t, w)
	assert.EqualValues(t, 1, res.Updated)
	assert.Equal(t, 2, res.Submitted)

	w = s.do(http.MethodGet, "/api/v1/deals/"+d1.ID, token, nil, nil)
	assert.Equal(t, models.DealLost, decode[models.Deal](t, w).Status)

	w = s.do(http.MethodPost, "/api/v1/deals/bulk", token, map[string]any{
		"ids": []string{d1.ID}, "stage_id": "S5", "versions": map[string]int64{d1.ID: 1},
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/deals/bulk", token, map[string]any{"ids": []string{}, "status": "won"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/api/v1/deals/bulk", token, map[string]any{"ids": []string{d1.ID}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/api/v1/deals/bulk", token, map[string]any{"ids": []string{d1.ID}, "status": "pending"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// neither the conflict nor the rejected requests touched the row
	w = s.do(http.MethodGet, "/api/v1/deals/"+d1.ID, token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	after := decode[models.Deal](t, w)
	assert.EqualValues(t, 2, after.Version)
	assert.Equal(t, models.DealLost, after.Status)
	assert.Equal(t, "S1", after.StageID)
	assert.Equal(t, `"2"`, w.Header().Get("ETag"))
}

func TestListDeals(t *testing.T) {
	s := newTestServer(t)
	token := s.login("rep@example.com", "rep")
	s.createDeal(token, "Alpha deal")
	s.createDeal(token, "Beta deal")

	w := s.do(http.MethodGet, "/api/v1/deals?q=ALPHA&limit=1000", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Data   []models.Deal `json:"data"`
		Limit  int           `json:"limit"`
		Offset int           `json:"offset"`
	}](t, w)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Alpha deal", page.Data[0].Title)
	assert.Equal(t, 500, page.Limit)

	w = s.do(http.MethodGet, "/api/v1/deals?limit=abc", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/deals", "", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/deals", "not-a-jwt", nil, nil).Code)

	w := s.do(http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: "ghost@example.com", Password: "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	s := newTestServer(t)
	s.login("rep@example.com", "rep")
	pair := s.loginPair("rep@example.com", "password1")

	w := s.do(http.MethodPost, "/api/v1/auth/refresh", "", models.RefreshRequest{RefreshToken: pair.RefreshToken}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	next := decode[models.TokenPair](t, w)

	w = s.do(http.MethodPost, "/api/v1/auth/refresh", "", models.RefreshRequest{RefreshToken: pair.RefreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodPost, "/api/v1/auth/refresh", "", models.RefreshRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/auth/me", next.AccessToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rep@example.com", decode[models.User](t, w).Email)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(http.MethodPost, "/api/v1/auth/logout", next.AccessToken, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodPost, "/api/v1/auth/refresh", "", models.RefreshRequest{RefreshToken: next.RefreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestForgotPasswordDoesNotEnumerate(t *testing.T) {
	s := newTestServer(t)
	s.login("rep@example.com", "rep")

	for _, email := range []string{"rep@example.com", "nobody@example.com"} {
		w := s.do(http.MethodPost, "/api/v1/auth/password/forgot", "", models.ForgotPasswordRequest{Email: email}, nil)
		assert.Equal(t, http.StatusAccepted, w.Code, email)
	}
	w := s.do(http.MethodPost, "/api/v1/auth/password/reset", "", models.ResetPasswordRequest{Token: "bogus", Password: "longenough"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@example.com", "admin")
	rep := s.login("rep@example.com", "rep")

	newUser := models.CreateUserRequest{Name: "New", Email: "new@example.com", Password: "password1"}
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/users", rep, newUser, nil).Code)
	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/users", admin, newUser, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/users", rep, nil, nil).Code)

	hook := models.CreateWebhookRequest{URL: "https://hooks.example.com/crm", Events: []string{"deal.won"}}
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/webhooks", rep, hook, nil).Code)
	w := s.do(http.MethodPost, "/api/v1/webhooks", admin, hook, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode[models.Webhook](t, w).Active)
}

func TestPipelineStagesAndReports(t *testing.T) {
	s := newTestServer(t)
	token := s.login("manager@example.com", "manager")

	w := s.do(http.MethodPost, "/api/v1/pipelines", token, map[string]any{"name": "Sales"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	p := decode[models.Pipeline](t, w)

	for _, name := range []string{"Lead", "Won"} {
		w = s.do(http.MethodPost, "/api/v1/pipelines/"+p.ID+"/stages", token, map[string]any{"name": name}, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w = s.do(http.MethodGet, "/api/v1/pipelines/"+p.ID+"/stages", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stages := decode[struct {
		Data []models.Stage `json:"data"`
	}](t, w).Data
	require.Len(t, stages, 2)
	assert.Equal(t, "Lead", stages[0].Name)

	w = s.do(http.MethodPost, "/api/v1/deals", token, map[string]any{
		"title": "Big", "stage_id": stages[0].ID, "owner_id": "U1", "value_amount": 250.5, "expected_close_date": "2024-06-30",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/v1/reports/funnel", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), stages[0].ID)

	w = s.do(http.MethodGet, "/api/v1/reports/forecast", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"month":"2024-06"`)

	w = s.do(http.MethodGet, "/api/v1/reports/win-rate", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[models.WinRate](t, w).Total)

	w = s.do(http.MethodGet, "/api/v1/reports/pipeline.pdf", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	token := s.login("rep@example.com", "rep")
	s.createDeal(token, "Initech upgrade")
	w := s.do(http.MethodPost, "/api/v1/organizations", token, map[string]any{"name": "Initech"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/v1/search?q=initech", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[models.SearchResult](t, w)
	assert.Len(t, res.Deals, 1)
	assert.Len(t, res.Organizations, 1)
	assert.Empty(t, res.Contacts)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/search", token, nil, nil).Code)
}

func TestFileUploadAndDownload(t *testing.T) {
	s := newTestServer(t)
	token := s.login("rep@example.com", "rep")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "proposal.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("signed proposal"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("deal_id", "D1"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	file := decode[models.File](t, w)
	assert.EqualValues(t, len("signed proposal"), file.SizeBytes)
	assert.NotContains(t, w.Body.String(), "storage")

	w = s.do(http.MethodGet, "/api/v1/files/"+file.ID+"/download", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "signed proposal", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "proposal.txt")

	w = s.do(http.MethodGet, "/api/v1/files?deal_id=D1", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), file.ID)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/files/"+file.ID, token, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/files/"+file.ID+"/download", token, nil, nil).Code)

	w = s.do(http.MethodPost, "/api/v1/files", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSExposesETag(t *testing.T) {
	s := newTestServer(t)
	token := s.login("rep@example.com", "rep")
	deal := s.createDeal(token, "Cors")

	w := s.do(http.MethodGet, "/api/v1/deals/"+deal.ID, token, nil, map[string]string{"Origin": "http://localhost:5173"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Etag")
}

func TestDealEventsStream(t *testing.T) {
	s := newTestServer(t)
	token := s.login("rep@example.com", "rep")
	deal := s.createDeal(token, "Live")

	srv := httptest.NewServer(s.app.Router)
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/deals/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Eventually(t, func() bool { return s.app.Events.Len() == 1 }, time.Second, 10*time.Millisecond)

	w := s.do(http.MethodPost, "/api/v1/deals/"+deal.ID+"/move", token, map[string]any{"stage_id": "S2"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var event, data string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if v, ok := strings.CutPrefix(line, "event:"); ok {
			event = v
		}
		if v, ok := strings.CutPrefix(line, "data:"); ok {
			data = v
			break
		}
	}
	assert.Equal(t, "deal.moved", event)
	assert.Contains(t, data, deal.ID)
	assert.Contains(t, data, `"version":2`)
}

func TestServeEndsEventStreamsOnShutdown(t *testing.T) {
	s := newTestServer(t)
	token := s.login("rep@example.com", "rep")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.app.Serve(ctx, ln) }()

	client := &http.Client{}
	defer client.CloseIdleConnections()
	req, err := http.NewRequest(http.MethodGet, "http://"+ln.Addr().String()+"/api/v1/deals/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Eventually(t, func() bool { return s.app.Events.Len() == 1 }, time.Second, 10*time.Millisecond)

	start := time.Now()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
		assert.Less(t, time.Since(start), s.app.Config.Server.ShutdownTimeout)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after shutdown")
	}

	_, err = io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Equal(t, 0, s.app.Events.Len())
}

func TestSwaggerDocumentsEveryRoute(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/swagger/doc.json", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode[struct {
		BasePath string                                `json:"basePath"`
		Paths    map[string]map[string]json.RawMessage `json:"paths"`
	}](t, w)
	assert.Equal(t, "/api/v1", doc.BasePath)

	for _, r := range s.app.Router.Routes() {
		path, ok := strings.CutPrefix(r.Path, doc.BasePath)
		if !ok {
			continue
		}
		path = strings.ReplaceAll(path, ":id", "{id}")
		_, documented := doc.Paths[path][strings.ToLower(r.Method)]
		assert.True(t, documented, "%s %s is not documented", r.Method, r.Path)
	}
}
