// Package metrics exposes a Prometheus text-exposition endpoint for a gshsdk
// server: session counts, frame/byte throughput, auth outcomes, and per-window
// queue depth.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry accumulates counters and gauges for one server process. Build it
// with NewRegistry: the zero value has nil maps, and recording into it panics.
type Registry struct {
	mu sync.RWMutex

	sessionsStarted map[string]uint64 // labeled by transport
	sessionsActive  int64
	sessionsEnded   map[string]uint64 // labeled by exit_reason
	framesSent      map[string]uint64 // labeled by window_id
	bytesSent       map[string]uint64 // labeled by window_id
	authAttempts    map[string]uint64 // labeled by method
	authFailures    map[string]uint64 // labeled by method
	queueDepth      map[string]float64 // labeled by window_id, last observed depth
}

func NewRegistry() *Registry {
	return &Registry{
		sessionsStarted: make(map[string]uint64),
		sessionsEnded:   make(map[string]uint64),
		framesSent:      make(map[string]uint64),
		bytesSent:       make(map[string]uint64),
		authAttempts:    make(map[string]uint64),
		authFailures:    make(map[string]uint64),
		queueDepth:      make(map[string]float64),
	}
}

func (r *Registry) SessionStarted(transport string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionsStarted[fmt.Sprintf("transport=%s", transport)]++
	r.sessionsActive++
}

func (r *Registry) SessionEnded(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionsEnded[fmt.Sprintf("exit_reason=%s", reason)]++
	r.sessionsActive--
}

func (r *Registry) FrameSent(windowID uint32, bytes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := fmt.Sprintf("window_id=%d", windowID)
	r.framesSent[k]++
	r.bytesSent[k] += uint64(bytes)
}

func (r *Registry) AuthAttempt(method string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := fmt.Sprintf("method=%s", method)
	r.authAttempts[k]++
	if !ok {
		r.authFailures[k]++
	}
}

func (r *Registry) SetQueueDepth(windowID uint32, depth int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queueDepth[fmt.Sprintf("window_id=%d", windowID)] = float64(depth)
}

// Serve runs a metrics HTTP server on addr until ctx is cancelled.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("metrics: empty listen address")
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", r.handler)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func (r *Registry) handler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	r.mu.RLock()
	defer r.mu.RUnlock()

	writeCounterVec(w, "gshsdk_sessions_started_total", r.sessionsStarted)
	writeGauge(w, "gshsdk_sessions_active", float64(r.sessionsActive))
	writeCounterVec(w, "gshsdk_sessions_ended_total", r.sessionsEnded)
	writeCounterVec(w, "gshsdk_frames_sent_total", r.framesSent)
	writeCounterVec(w, "gshsdk_bytes_sent_total", r.bytesSent)
	writeCounterVec(w, "gshsdk_auth_attempts_total", r.authAttempts)
	writeCounterVec(w, "gshsdk_auth_failures_total", r.authFailures)
	writeGaugeVec(w, "gshsdk_queue_depth", r.queueDepth)
}

func writeGauge(w http.ResponseWriter, name string, v float64) {
	fmt.Fprintf(w, "%s %.0f\n", name, v)
}

func writeCounterVec(w http.ResponseWriter, name string, data map[string]uint64) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s{%s} %d\n", name, toPromLabels(k), data[k])
	}
}

func writeGaugeVec(w http.ResponseWriter, name string, data map[string]float64) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s{%s} %.0f\n", name, toPromLabels(k), data[k])
	}
}

func toPromLabels(s string) string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		parts[i] = fmt.Sprintf("%s=\"%s\"", kv[0], strings.ReplaceAll(kv[1], "\"", "\\\""))
	}
	return strings.Join(parts, ",")
}
