package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryon-client/internal/transport/http/tryonapi"
)

func fakeRemote(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case tryonapi.PathTryOn:
			if r.Header.Get(tryonapi.HeaderTurnstileToken) != "cli-token" {
				w.WriteHeader(http.StatusForbidden)
				_, _ = io.WriteString(w, `{"detail":"invalid verification token"}`)
				return
			}
			require.NoError(t, r.ParseMultipartForm(1<<20))
			w.Header().Set("X-Parts", fmt.Sprint(len(r.MultipartForm.File)))
			_, _ = fmt.Fprintf(w, `{"success":true,"record_id":"cli-%d","result_url":"https://cdn/after.jpg","body_url":"https://cdn/before.jpg","garment_urls":["https://cdn/g1.jpg"],"message":"done"}`, len(r.MultipartForm.File))
		case tryonapi.PathRateLimit:
			_, _ = io.WriteString(w, `{"allowed":true,"remaining":2,"reset_at":"2025-01-01T00:00:00Z","total_today":8,"limit":10,"message":"ok"}`)
		case tryonapi.PathAudit:
			_, _ = io.WriteString(w, `{"clothing_changed":true,"matches_input_garments":true,"visual_quality_score":80,"issues":[],"summary":"fine"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeImages(t *testing.T, dir string) {
	t.Helper()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.jpg"), jpeg, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "g1.png"), png, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "g2.png"), png, 0o644))
}

func writeFixtures(t *testing.T, dir string, store string) string {
	t.Helper()
	writeImages(t, dir)

	cfg := fmt.Sprintf("log:\n  log_level: ERROR\nstore:\n  driver: %s\n  sqlite:\n    dsn: %s\n", store, filepath.Join(dir, "records.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := execute(root)
	return out.String(), err
}

func TestSubmitAndRecords(t *testing.T) {
	t.Setenv("TRYON_TOKEN", "")
	srv := fakeRemote(t)
	dir := t.TempDir()
	cfg := writeFixtures(t, dir, "sqlite")

	out, err := run(t, "submit", "-c", cfg, "--base-url", srv.URL, "-t", "cli-token",
		"--body", filepath.Join(dir, "model.jpg"),
		"--garment1", filepath.Join(dir, "g1.png"),
		"--garment2", filepath.Join(dir, "g2.png"))
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "cli-3", res["record_id"])

	out, err = run(t, "records", "-c", cfg, "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "cli-3")
	assert.Contains(t, out, "https://cdn/after.jpg")

	out, err = run(t, "audit", "-c", cfg, "--base-url", srv.URL, "--record", "cli-3", "--bypass", "widetech")
	require.NoError(t, err)
	assert.Contains(t, out, `"summary": "fine"`)

	out, err = run(t, "records", "cli-3", "-c", cfg, "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `"visual_quality_score": 80`)
}

func TestSubmit_TwoParts(t *testing.T) {
	t.Setenv("TRYON_TOKEN", "cli-token")
	srv := fakeRemote(t)
	dir := t.TempDir()
	cfg := writeFixtures(t, dir, "memory")

	out, err := run(t, "submit", "-c", cfg, "--base-url", srv.URL,
		"--body", filepath.Join(dir, "model.jpg"),
		"--garment1", filepath.Join(dir, "g1.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "cli-2")
}

func TestSubmit_Errors(t *testing.T) {
	t.Setenv("TRYON_TOKEN", "")
	srv := fakeRemote(t)
	dir := t.TempDir()
	cfg := writeFixtures(t, dir, "memory")

	_, err := run(t, "submit", "-c", cfg, "--base-url", srv.URL,
		"--body", filepath.Join(dir, "model.jpg"), "--garment1", filepath.Join(dir, "g1.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification token required")

	_, err = run(t, "submit", "-c", cfg, "--base-url", srv.URL, "-t", "wrong",
		"--body", filepath.Join(dir, "model.jpg"), "--garment1", filepath.Join(dir, "g1.png"))
	require.Error(t, err)
	assert.Equal(t, "invalid verification token", err.Error())

	_, err = run(t, "submit", "-c", cfg, "--base-url", srv.URL, "-t", "cli-token",
		"--body", filepath.Join(dir, "missing.jpg"), "--garment1", filepath.Join(dir, "g1.png"))
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	srv := fakeRemote(t)
	cfg := writeFixtures(t, t.TempDir(), "memory")

	out, err := run(t, "status", "-c", cfg, "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `"remaining": 2`)
}

func TestAudit_RequiresCredentials(t *testing.T) {
	t.Setenv("TRYON_TOKEN", "")
	srv := fakeRemote(t)
	cfg := writeFixtures(t, t.TempDir(), "memory")

	_, err := run(t, "audit", "-c", cfg, "--base-url", srv.URL, "--before", "a", "--after", "b", "--garment1", "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--bypass")
}

func TestRecords_PersistWithDefaultConfig(t *testing.T) {
	t.Setenv("TRYON_TOKEN", "")
	srv := fakeRemote(t)
	dir := t.TempDir()
	writeImages(t, dir)
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	_, err = run(t, "submit", "--base-url", srv.URL, "--log-level", "ERROR", "-t", "cli-token",
		"--body", "model.jpg", "--garment1", "g1.png")
	require.NoError(t, err)

	out, err := run(t, "records", "--base-url", srv.URL, "--log-level", "ERROR")
	require.NoError(t, err)
	assert.Contains(t, out, "cli-2")
	_, err = os.Stat(filepath.Join(dir, "data", "records.db"))
	assert.NoError(t, err)
}

func TestRecords_RejectMemoryStore(t *testing.T) {
	t.Setenv("TRYON_TOKEN", "")
	srv := fakeRemote(t)
	cfg := writeFixtures(t, t.TempDir(), "memory")

	_, err := run(t, "records", "-c", cfg, "--base-url", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory store")

	_, err = run(t, "audit", "-c", cfg, "--base-url", srv.URL, "--record", "cli-2", "--bypass", "widetech")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory store")
}

func TestBootstrapOptions_ServeIgnoresToken(t *testing.T) {
	t.Setenv("TRYON_TOKEN", "env-token")
	root := newRootCmd()

	submit, _, err := root.Find([]string{"submit"})
	require.NoError(t, err)
	assert.Equal(t, "env-token", bootstrapOptions(submit).Token)

	require.NoError(t, root.PersistentFlags().Set("token", "flag-token"))
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Empty(t, bootstrapOptions(serve).Token)
}

func TestRecordsMigrate(t *testing.T) {
	srv := fakeRemote(t)
	dir := t.TempDir()
	cfg := writeFixtures(t, dir, "sqlite")

	out, err := run(t, "records", "migrate", "-c", cfg, "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "001_tryon_records")

	out, err = run(t, "records", "migrate", "-c", cfg, "--base-url", srv.URL, "--rollback", "001_tryon_records")
	require.NoError(t, err)
	assert.Contains(t, out, "rolled back 001_tryon_records")

	// 下一次启动重新执行迁移
	out, err = run(t, "records", "migrate", "-c", cfg, "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "001_tryon_records")

	memCfg := writeFixtures(t, t.TempDir(), "memory")
	_, err = run(t, "records", "migrate", "-c", memCfg, "--base-url", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite store")
}
