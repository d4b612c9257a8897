package httptransport

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryon-client/internal/platform/errors"
)

func TestBuild_ServesStaticAndCORS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>tryon</html>"), 0o644))

	router, err := Build(Options{StaticRoot: dir})
	require.NoError(t, err)
	router.API.GET("/ping", func(c *gin.Context) { RespondSuccess(c, http.StatusOK, "pong", "") })

	w := httptest.NewRecorder()
	router.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tryon")

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	router.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"success":true,"data":"pong","message":"ok","code":200}`, w.Body.String())
}

func TestBuild_MissingStaticRootIsSkipped(t *testing.T) {
	router, err := Build(Options{StaticRoot: filepath.Join(t.TempDir(), "nope")})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"asset", errors.New(errors.KindAsset, "op", "bad"), http.StatusBadRequest},
		{"domain", errors.New(errors.KindDomain, "op", "bad"), http.StatusBadRequest},
		{"remote keeps status", errors.Remote(errors.KindRemote, "op", 429, "quota"), http.StatusTooManyRequests},
		{"audit keeps status", errors.Remote(errors.KindAudit, "op", 422, "x"), http.StatusUnprocessableEntity},
		{"remote without status", errors.New(errors.KindStatus, "op", "x"), http.StatusBadGateway},
		{"network", errors.New(errors.KindNetwork, "op", "x"), http.StatusBadGateway},
		{"storage", errors.New(errors.KindStorage, "op", "x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
