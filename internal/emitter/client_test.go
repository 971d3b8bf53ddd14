package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/theirongolddev/flightrec/internal/hook"
)

func TestNewClient_EmptyAddr(t *testing.T) {
	if c := NewClient(""); c != nil {
		t.Fatal("empty address should yield nil client")
	}
	if c := NewClient("  "); c != nil {
		t.Fatal("blank address should yield nil client")
	}
}

func TestNewClient_SchemeDefault(t *testing.T) {
	c := NewClient("127.0.0.1:8790")
	if c.baseURL != "http://127.0.0.1:8790" {
		t.Fatalf("baseURL = %q", c.baseURL)
	}
	c = NewClient("https://example.com/")
	if c.baseURL != "https://example.com" {
		t.Fatalf("baseURL = %q", c.baseURL)
	}
}

func TestEmit_RoundTrip(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var ev hook.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			t.Errorf("decoding posted event: %v", err)
		}
		if ev.ToolName != "bash" {
			t.Errorf("posted tool = %q, want bash", ev.ToolName)
		}
		_ = json.NewEncoder(w).Encode([]hook.Result{hook.Warn("slow tool: bash took 12.0s")})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	decisions, err := c.Emit(context.Background(), hook.Event{
		Type: hook.ToolPost, ToolName: "bash", ToolUseID: "t1",
	})
	if err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	if gotPath != "/v1/events" {
		t.Errorf("posted to %q, want /v1/events", gotPath)
	}
	if len(decisions) != 1 || decisions[0].UserMessageLevel != hook.LevelWarning {
		t.Fatalf("decisions = %+v", decisions)
	}
}

func TestEmit_DaemonDown(t *testing.T) {
	c := NewClient("127.0.0.1:1") // nothing listens here
	_, err := c.Emit(context.Background(), hook.Event{Type: hook.SessionStart})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if !c.Healthy(context.Background()) {
		t.Fatal("healthy daemon reported unhealthy")
	}

	down := NewClient("127.0.0.1:1")
	if down.Healthy(context.Background()) {
		t.Fatal("unreachable daemon reported healthy")
	}
}
