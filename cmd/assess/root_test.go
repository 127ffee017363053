package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MegaGrindStone/cv-assess-web/internal/assessment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proxyServer(t *testing.T, status int, chunks ...string) (*httptest.Server, *assessment.GenerateRequest) {
	t.Helper()

	got := &assessment.GenerateRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if status != http.StatusOK {
			http.Error(w, http.StatusText(status), status)
			return
		}
		for _, c := range chunks {
			_, _ = w.Write([]byte(c))
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAssessCommand(t *testing.T) {
	srv, got := proxyServer(t, http.StatusOK, "Match score: 62", "%. Pros: ...", " Cons: ...")
	job := writeFile(t, "job.txt", "Senior backend engineer, 5 years Go experience")

	stdout, _, err := execute(t, "3 years Python, 1 year Go, BSc CS",
		"--endpoint", srv.URL, "--job", job, "--resume", "-")

	require.NoError(t, err)
	assert.Equal(t, "Match score: 62%. Pros: ... Cons: ...\n", stdout)
	assert.Contains(t, got.Prompt, "Senior backend engineer, 5 years Go experience")
	assert.Contains(t, got.Prompt, "3 years Python, 1 year Go, BSc CS")
}

func TestAssessCommandFailures(t *testing.T) {
	failing, _ := proxyServer(t, http.StatusBadGateway)
	job := writeFile(t, "job.txt", "Go developer")
	cv := writeFile(t, "cv.txt", "Go for ten years")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "Missing resume flag",
			args:    []string{"--job", job},
			wantErr: "required",
		},
		{
			name:    "Both from stdin",
			args:    []string{"--job", "-", "--resume", "-"},
			wantErr: "stdin",
		},
		{
			name:    "Missing file",
			args:    []string{"--job", filepath.Join(t.TempDir(), "missing.txt"), "--resume", cv},
			wantErr: "failed to read job description",
		},
		{
			name:    "Proxy rejects",
			args:    []string{"--endpoint", failing.URL, "--job", job, "--resume", cv},
			wantErr: "502 Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, "", tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, stdout)
		})
	}
}

func TestTerminalViewPrintsDeltas(t *testing.T) {
	var out bytes.Buffer
	v := &terminalView{w: &out}

	v.Changed(assessment.Snapshot{InFlight: true})
	v.Changed(assessment.Snapshot{InFlight: true, Assessment: "Héllo"})
	v.Changed(assessment.Snapshot{InFlight: true, Assessment: "Héllo, wörld"})
	v.Finished(assessment.Snapshot{Assessment: "Héllo, wörld"}, nil)

	assert.Equal(t, "Héllo, wörld\n", out.String())
}
