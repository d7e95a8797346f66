package httpdriver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Harvest/internal/capability"
)

// newSite поднимает сервис с тем же сценарием, что и у реального UI:
// dashboard → форма поиска → результаты (появляются не сразу) → export → CSV.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	var searchPolls atomic.Int32

	html := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body>%s</body></html>", body)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sid")
		if err != nil || c.Value != "ok" {
			http.Redirect(w, r, "/signin?next=dashboard", http.StatusFound)
			return
		}
		html(w, "<h1>Dashboard</h1>")
	})
	mux.HandleFunc("/signin", func(w http.ResponseWriter, _ *http.Request) {
		html(w, "<form><input name='login'></form>")
	})
	mux.HandleFunc("/tool", func(w http.ResponseWriter, _ *http.Request) {
		html(w, `
			<form action="/tool/search" method="get">
				<input class="query" name="q" value="">
				<input type="hidden" name="marketplace" value="us">
				<div id="buttons"><button data-testid="getkeywords" type="submit">Get Keywords</button></div>
			</form>
			<a id="help" href="/signin">Help</a>`)
	})
	mux.HandleFunc("/tool/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if r.URL.Query().Get("marketplace") != "us" {
			http.Error(w, "missing hidden field", http.StatusBadRequest)
			return
		}
		if searchPolls.Add(1) < 2 {
			html(w, "<p>Loading...</p>")
			return
		}
		html(w, fmt.Sprintf(`<button data-testid="exportdata" data-href="/tool/export?q=%s">Export</button>`, q))
	})
	mux.HandleFunc("/tool/export", func(w http.ResponseWriter, r *http.Request) {
		html(w, fmt.Sprintf(`<div data-testid="csv" data-href="/tool/export.csv?q=%s">CSV</div>`, r.URL.Query().Get("q")))
	})
	mux.HandleFunc("/tool/export.csv", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_export.csv"`, q))
		fmt.Fprintf(w, "Keyword Phrase,Search Volume\n%s lamp,120\n", q)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func openSession(t *testing.T, srv *httptest.Server, cookies []capability.Cookie) capability.Session {
	t.Helper()

	d := New(Config{
		BaseURL:           srv.URL,
		PollInterval:      10 * time.Millisecond,
		RequestsPerSecond: 1000,
		Burst:             100,
	})

	sess, err := d.Open(context.Background(), capability.SessionConfig{
		SessionID:   "test",
		Cookies:     cookies,
		DownloadDir: t.TempDir(),
		StepTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

func TestVerifyAuthenticated_WithCookie(t *testing.T) {
	srv := newSite(t)
	sess := openSession(t, srv, []capability.Cookie{{Name: "sid", Value: "ok"}})

	ok, err := sess.VerifyAuthenticated(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("session with valid cookie should be authenticated")
	}
}

func TestVerifyAuthenticated_RedirectToSignIn(t *testing.T) {
	srv := newSite(t)
	sess := openSession(t, srv, nil)

	ok, err := sess.VerifyAuthenticated(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("session without cookie should not be authenticated")
	}
}

func TestSession_FullFlow(t *testing.T) {
	srv := newSite(t)
	sess := openSession(t, srv, []capability.Cookie{{Name: "sid", Value: "ok"}})
	ctx := context.Background()

	steps := []capability.Step{
		{Name: "navigate", Action: capability.ActionNavigate, URL: "/tool"},
		{Name: "input", Action: capability.ActionFill, Selector: "input.query", Value: "B0TEST"},
		{Name: "search", Action: capability.ActionClick, Selector: `#buttons button[data-testid="getkeywords"]`},
		{Name: "results", Action: capability.ActionWait, Selector: `button[data-testid="exportdata"]`},
		{Name: "export", Action: capability.ActionClick, Selector: `button[data-testid="exportdata"]`},
		{Name: "format", Action: capability.ActionWait, Selector: `div[data-testid="csv"]`},
	}
	for _, step := range steps {
		if err := sess.RunStep(ctx, step); err != nil {
			t.Fatalf("step %s: %v", step.Name, err)
		}
	}

	path, err := sess.AwaitDownload(ctx, capability.Step{
		Name:     "download",
		Action:   capability.ActionClick,
		Selector: `div[data-testid="csv"]`,
	})
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !strings.HasSuffix(path, "B0TEST_export.csv") {
		t.Errorf("unexpected download name: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if !strings.Contains(string(data), "B0TEST lamp") {
		t.Errorf("download content mismatch: %q", data)
	}
}

func TestRunStep_WaitTimeout(t *testing.T) {
	srv := newSite(t)
	sess := openSession(t, srv, nil)
	ctx := context.Background()

	if err := sess.RunStep(ctx, capability.Step{Name: "nav", Action: capability.ActionNavigate, URL: "/tool"}); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	start := time.Now()
	err := sess.RunStep(ctx, capability.Step{
		Name:     "wait",
		Action:   capability.ActionWait,
		Selector: "#missing",
		Timeout:  100 * time.Millisecond,
	})
	if !errors.Is(err, capability.ErrStepTimeout) {
		t.Fatalf("expected ErrStepTimeout, got %v", err)
	}
	if !errors.Is(err, capability.ErrElementNotFound) {
		t.Errorf("timeout should also carry ErrElementNotFound, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("wait exceeded its budget: %v", time.Since(start))
	}
}

func TestRunStep_FillWithoutPage(t *testing.T) {
	srv := newSite(t)
	sess := openSession(t, srv, nil)

	err := sess.RunStep(context.Background(), capability.Step{
		Name:     "fill",
		Action:   capability.ActionFill,
		Selector: "input.query",
		Value:    "x",
	})
	if !errors.Is(err, capability.ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound, got %v", err)
	}
}

func TestAwaitDownload_PageIsNotAFile(t *testing.T) {
	srv := newSite(t)
	sess := openSession(t, srv, nil)
	ctx := context.Background()

	if err := sess.RunStep(ctx, capability.Step{Name: "nav", Action: capability.ActionNavigate, URL: "/tool"}); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	_, err := sess.AwaitDownload(ctx, capability.Step{Name: "download", Action: capability.ActionClick, Selector: "#help"})
	if !errors.Is(err, capability.ErrDownload) {
		t.Errorf("expected ErrDownload, got %v", err)
	}
}

func TestAwaitDownload_OversizedFileFails(t *testing.T) {
	const limit = 1024

	mux := http.NewServeMux()
	mux.HandleFunc("/tool", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><a id="csv" href="/big.csv">CSV</a></body></html>`)
	})
	mux.HandleFunc("/big.csv", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="big.csv"`)
		fmt.Fprint(w, strings.Repeat("x", limit+1))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	d := New(Config{
		BaseURL:           srv.URL,
		PollInterval:      10 * time.Millisecond,
		RequestsPerSecond: 1000,
		Burst:             100,
		MaxBodyBytes:      limit,
	})
	sess, err := d.Open(context.Background(), capability.SessionConfig{
		SessionID:   "big",
		DownloadDir: dir,
		StepTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { sess.Close() })

	ctx := context.Background()
	if err := sess.RunStep(ctx, capability.Step{Name: "nav", Action: capability.ActionNavigate, URL: "/tool"}); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	path, err := sess.AwaitDownload(ctx, capability.Step{Name: "download", Action: capability.ActionClick, Selector: "#csv"})
	if !errors.Is(err, capability.ErrDownload) || !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrDownload and ErrBodyTooLarge, got path=%q err=%v", path, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("truncated file must not be saved, found %d file(s)", len(entries))
	}
}

func TestCaptureSnapshot(t *testing.T) {
	srv := newSite(t)
	sess := openSession(t, srv, nil)
	ctx := context.Background()

	snap, err := sess.CaptureSnapshot(ctx, "before")
	if err != nil {
		t.Fatalf("snapshot without page: %v", err)
	}
	if !strings.Contains(string(snap), "no page loaded") {
		t.Errorf("unexpected empty snapshot: %q", snap)
	}

	if err := sess.RunStep(ctx, capability.Step{Name: "nav", Action: capability.ActionNavigate, URL: "/tool"}); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	snap, err = sess.CaptureSnapshot(ctx, "B0TEST_navigate_attempt1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !strings.Contains(string(snap), "B0TEST_navigate_attempt1") || !strings.Contains(string(snap), "getkeywords") {
		t.Errorf("snapshot should contain label and page html: %q", snap)
	}
}

func TestClose_Idempotent(t *testing.T) {
	srv := newSite(t)
	sess := openSession(t, srv, nil)

	if err := sess.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	err := sess.RunStep(context.Background(), capability.Step{Action: capability.ActionNavigate, URL: "/tool"})
	if !errors.Is(err, capability.ErrSessionLost) {
		t.Errorf("expected ErrSessionLost after close, got %v", err)
	}
	if !capability.IsFatal(err) {
		t.Error("ErrSessionLost should be fatal")
	}
}

func TestOpen_InvalidBaseURL(t *testing.T) {
	d := New(Config{BaseURL: "not a url"})
	_, err := d.Open(context.Background(), capability.SessionConfig{DownloadDir: t.TempDir()})
	if !errors.Is(err, capability.ErrSession) {
		t.Errorf("expected ErrSession, got %v", err)
	}
}
