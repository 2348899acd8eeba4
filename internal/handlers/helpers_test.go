package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"dealdesk/internal/models"
)

func init() { gin.SetMode(gin.TestMode) }

func testContext(header string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPatch, "/deals/D1", nil)
	if header != "" {
		c.Request.Header.Set("If-Match", header)
	}
	return c, w
}

func TestExpectedVersion(t *testing.T) {
	body := int64(7)
	tests := []struct {
		name   string
		header string
		body   *int64
		want   *int64
		ok     bool
	}{
		{name: "no header falls back to body", body: &body, want: &body, ok: true},
		{name: "no header no body", ok: true},
		{name: "quoted", header: `"3"`, want: ptr(int64(3)), ok: true},
		{name: "bare number", header: "4", want: ptr(int64(4)), ok: true},
		{name: "weak tag", header: `W/"5"`, body: &body, want: ptr(int64(5)), ok: true},
		{name: "wildcard skips the check", header: "*", body: &body, ok: true},
		{name: "garbage", header: "abc"},
		{name: "zero", header: `"0"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := testContext(tt.header)
			got, ok := expectedVersion(c, tt.body)
			require.Equal(t, tt.ok, ok)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{models.Invalid("title is required"), http.StatusBadRequest, "title is required"},
		{fmt.Errorf("login: %w", models.ErrUnauthorized), http.StatusUnauthorized, "unauthorized"},
		{models.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("get deal: %w", models.ErrNotFound), http.StatusNotFound, "not found"},
		{models.ErrConflict, http.StatusConflict, "version conflict"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			c, w := testContext("")
			respondError(c, zap.NewNop(), tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tt.msg), w.Body.String())
		})
	}
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	c, w := testContext("")

	respondError(c, zap.New(core), errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "request failed", logs.All()[0].Message)
}

func TestListResponseNeverNull(t *testing.T) {
	c, w := testContext("")
	listResponse[models.Deal](c, nil)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func ptr[T any](v T) *T { return &v }
