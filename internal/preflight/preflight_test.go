package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelbot/internal/queue"
	"reelbot/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if CheckDirectoryAccess("test", f).Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckQueueLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json.lock")
	result := CheckQueueLock(path)
	if !result.Passed || !strings.Contains(result.Detail, "free") {
		t.Fatalf("expected free lock, got %+v", result)
	}

	lock, err := queue.AcquireLock(path)
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Unlock()
	result = CheckQueueLock(path)
	if !result.Passed || !strings.Contains(result.Detail, "held") {
		t.Fatalf("expected held lock, got %+v", result)
	}
}

func TestCheckSlack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			_, _ = w.Write([]byte(`{"ok":false,"error":"invalid_auth"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"user_id":"UBOT","user":"reelbot"}`))
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		token  string
		passed bool
		detail string
	}{
		{"valid", "good", true, "reelbot (UBOT)"},
		{"invalid", "bad", false, "invalid bot token"},
		{"missing", "", false, "bot token missing"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := CheckSlack(context.Background(), srv.URL, tc.token, time.Second)
			if result.Passed != tc.passed || !strings.Contains(result.Detail, tc.detail) {
				t.Fatalf("got %+v", result)
			}
		})
	}
}

func TestCheckTMDB(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status_message":"Invalid API key"}`))
			return
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	}))
	defer srv.Close()

	if result := CheckTMDB(context.Background(), srv.URL, "good", time.Second); !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}
	result := CheckTMDB(context.Background(), srv.URL, "bad", time.Second)
	if result.Passed || !strings.Contains(result.Detail, "invalid API token") {
		t.Fatalf("expected auth failure, got %+v", result)
	}
	if CheckTMDB(context.Background(), srv.URL, "", time.Second).Passed {
		t.Fatal("expected failure for missing token")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Slack.BotToken = ""
	cfg.TMDB.APIToken = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	for _, name := range []string{"Queue directory", "Queue lock", "Log directory"} {
		if !byName[name].Passed {
			t.Errorf("check %q failed: %s", name, byName[name].Detail)
		}
	}
	for _, name := range []string{"Slack", "TMDB"} {
		if byName[name].Passed {
			t.Errorf("check %q should fail without credentials", name)
		}
	}
}
