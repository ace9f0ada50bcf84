package slack_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"reelbot/internal/slack"
)

func newAPIServer(t *testing.T, handler func(method string, body map[string]any) string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer xoxb-test" {
			t.Errorf("Authorization = %q", got)
		}
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		body := map[string]any{}
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, handler(r.URL.Path[1:], body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := slack.NewClient("", "https://slack.com/api"); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestPostMessageInThread(t *testing.T) {
	var gotMethod string
	var gotBody map[string]any
	server := newAPIServer(t, func(method string, body map[string]any) string {
		gotMethod, gotBody = method, body
		return `{"ok":true,"channel":"C1","ts":"1700000000.000200"}`
	})
	client, err := slack.NewClient("xoxb-test", server.URL)
	if err != nil {
		t.Fatal(err)
	}

	posted, err := client.PostMessage(context.Background(), slack.Message{Channel: "C1", Text: "hi", ThreadTS: "1700000000.000100"})
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	if gotMethod != "chat.postMessage" {
		t.Fatalf("method = %q", gotMethod)
	}
	want := map[string]any{"channel": "C1", "text": "hi", "thread_ts": "1700000000.000100"}
	if diff := cmp.Diff(want, gotBody); diff != "" {
		t.Fatalf("request body (-want +got):\n%s", diff)
	}
	if posted != (slack.Posted{Channel: "C1", TS: "1700000000.000200"}) {
		t.Fatalf("posted = %+v", posted)
	}
}

func TestUpdateMessageSendsBlocks(t *testing.T) {
	var gotBody map[string]any
	server := newAPIServer(t, func(method string, body map[string]any) string {
		if method != "chat.update" {
			t.Errorf("method = %q", method)
		}
		gotBody = body
		return `{"ok":true}`
	})
	client, err := slack.NewClient("xoxb-test", server.URL)
	if err != nil {
		t.Fatal(err)
	}

	err = client.UpdateMessage(context.Background(), slack.Update{
		Channel: "C1",
		TS:      "1.2",
		Text:    "Heat",
		Blocks:  []slack.Block{slack.SectionFields("_Heat_ requested by <@U1>")},
	})
	if err != nil {
		t.Fatalf("UpdateMessage: %v", err)
	}
	want := map[string]any{
		"channel": "C1",
		"ts":      "1.2",
		"text":    "Heat",
		"blocks": []any{
			map[string]any{
				"type":   "section",
				"fields": []any{map[string]any{"type": "mrkdwn", "text": "_Heat_ requested by <@U1>"}},
			},
		},
	}
	if diff := cmp.Diff(want, gotBody); diff != "" {
		t.Fatalf("request body (-want +got):\n%s", diff)
	}
}

func TestAuthTest(t *testing.T) {
	server := newAPIServer(t, func(string, map[string]any) string {
		return `{"ok":true,"user_id":"UBOT","bot_id":"B1","team":"Movie Club","user":"reelbot"}`
	})
	client, err := slack.NewClient("xoxb-test", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	identity, err := client.AuthTest(context.Background())
	if err != nil {
		t.Fatalf("AuthTest: %v", err)
	}
	if identity.UserID != "UBOT" || identity.BotID != "B1" {
		t.Fatalf("identity = %+v", identity)
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	server := newAPIServer(t, func(string, map[string]any) string {
		return `{"ok":false,"error":"channel_not_found"}`
	})
	client, err := slack.NewClient("xoxb-test", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.PostMessage(context.Background(), slack.Message{Channel: "C404", Text: "x"})
	var apiErr *slack.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "channel_not_found" {
		t.Fatalf("expected channel_not_found APIError, got %v", err)
	}
}
