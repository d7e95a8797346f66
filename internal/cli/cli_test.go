package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Items []string `json:"items"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		if req.Items[0] == "NOAUTH" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"AUTHENTICATION_FAILED","message":"authentication failed"},
				"report":{"success":false,"failed_items":["NOAUTH"],"error_details":[{"item":"NOAUTH","error":"authentication failed"}]}}`))
			return
		}
		w.Write([]byte(`{"data":{"id":"j1","status":"SUCCEEDED","items":["A"],
			"report":{"success":true,"successful_items":["A"],"failed_items":[],"total_successful":1}}}`))
	})
	mux.HandleFunc("GET /api/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("status") != "FAILED" {
			t.Errorf("status filter not passed: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data":[{"id":"j1","status":"FAILED","items":["A","B"]}],"total":1}`))
	})
	mux.HandleFunc("GET /api/v1/artifacts/exports", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("PK-zip-bytes"))
	})
	mux.HandleFunc("PUT /api/v1/keywords", func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]any{"data": map[string]any{"keywords": []string{"lamp"}, "version": 2}})
		w.Write(body)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testOutput(jsonMode bool) (*Output, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewOutputTo(jsonMode, &buf, &buf), &buf
}

func TestClient_RunJob(t *testing.T) {
	client := NewClient(newTestAPI(t).URL)

	job, err := client.RunJob([]string{"A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != "SUCCEEDED" || job.Report == nil || job.Report.TotalSuccessful != 1 {
		t.Errorf("unexpected job: %+v", job)
	}
}

func TestClient_AuthErrorCarriesReport(t *testing.T) {
	client := NewClient(newTestAPI(t).URL)

	_, err := client.RunJob([]string{"NOAUTH"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Code != "AUTHENTICATION_FAILED" {
		t.Errorf("unexpected api error: %+v", apiErr)
	}
	if rep := reportFromError(err); rep == nil || len(rep.Failed) != 1 {
		t.Errorf("expected report in error, got %+v", rep)
	}
}

func TestJobRunCmd_PrintsReportOnAuthFailure(t *testing.T) {
	srv := newTestAPI(t)
	out, buf := testOutput(false)

	cmd := NewJobCmd(func() *Client { return NewClient(srv.URL) }, func() *Output { return out })
	cmd.SetArgs([]string{"run", "NOAUTH"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), "NOAUTH") || !strings.Contains(buf.String(), "FAILED") {
		t.Errorf("report should be printed, got:\n%s", buf.String())
	}
}

func TestJobListCmd(t *testing.T) {
	srv := newTestAPI(t)
	out, buf := testOutput(false)

	cmd := NewJobCmd(func() *Client { return NewClient(srv.URL) }, func() *Output { return out })
	cmd.SetArgs([]string{"list", "--status", "FAILED"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(buf.String(), "j1") {
		t.Errorf("expected job in table, got:\n%s", buf.String())
	}
}

func TestArtifactDownloadCmd(t *testing.T) {
	srv := newTestAPI(t)
	out, _ := testOutput(false)
	path := filepath.Join(t.TempDir(), "out.zip")

	cmd := NewArtifactCmd(func() *Client { return NewClient(srv.URL) }, func() *Output { return out })
	cmd.SetArgs([]string{"download", "-o", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "PK-zip-bytes" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestKeywordSetCmd_JSON(t *testing.T) {
	srv := newTestAPI(t)
	out, buf := testOutput(true)

	cmd := NewKeywordCmd(func() *Client { return NewClient(srv.URL) }, func() *Output { return out })
	cmd.SetArgs([]string{"set", "lamp"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	dec := json.NewDecoder(buf)
	var kw KeywordsResponse
	if err := dec.Decode(&kw); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if kw.Version != 2 || len(kw.Keywords) != 1 {
		t.Errorf("unexpected keywords: %+v", kw)
	}
}
