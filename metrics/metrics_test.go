package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestToPromLabels(t *testing.T) {
	got := toPromLabels("window_id=1,method=password")
	want := "window_id=\"1\",method=\"password\""
	if got != want {
		t.Fatalf("toPromLabels=%q want %q", got, want)
	}
}

func TestRegistry_HandlerExposesCounters(t *testing.T) {
	r := NewRegistry()
	r.SessionStarted("tls")
	r.FrameSent(1, 1024)
	r.FrameSent(1, 2048)
	r.AuthAttempt("password", true)
	r.AuthAttempt("password", false)
	r.SetQueueDepth(1, 3)
	r.SessionEnded("client_requested")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.handler(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		`gshsdk_sessions_started_total{transport="tls"} 1`,
		`gshsdk_frames_sent_total{window_id="1"} 2`,
		`gshsdk_bytes_sent_total{window_id="1"} 3072`,
		`gshsdk_auth_attempts_total{method="password"} 2`,
		`gshsdk_auth_failures_total{method="password"} 1`,
		`gshsdk_queue_depth{window_id="1"} 3`,
		`gshsdk_sessions_ended_total{exit_reason="client_requested"} 1`,
		`gshsdk_sessions_active 0`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics output to contain %q, got:\n%s", want, body)
		}
	}
}
