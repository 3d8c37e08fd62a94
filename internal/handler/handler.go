package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/angeloszaimis/supabase-keepalive/config"
	"github.com/angeloszaimis/supabase-keepalive/internal/ping"
)

// TargetSource supplies the project list for one invocation.
type TargetSource interface {
	Targets() ([]config.ProjectTarget, error)
}

// Pinger pings a set of targets and returns one result per target. Budget
// bounds how long PingAll may run for n targets.
type Pinger interface {
	PingAll(ctx context.Context, targets []config.ProjectTarget) []ping.Result
	Budget(n int) time.Duration
}

// responseMargin is left for encoding and writing the report.
const responseMargin = 5 * time.Second

type PingHandler struct {
	logger *slog.Logger
	source TargetSource
	pinger Pinger
	now    func() time.Time
}

func NewPingHandler(logger *slog.Logger, source TargetSource, pinger Pinger) *PingHandler {
	return &PingHandler{
		logger: logger,
		source: source,
		pinger: pinger,
		now:    time.Now,
	}
}

func (h *PingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientIP := extractClientIP(r)

	h.logger.Info("Received ping trigger",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("user_agent", r.UserAgent()))

	targets, err := h.source.Targets()
	if err != nil {
		h.logger.Error("Failed to load project list", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ping.NewConfigurationErrorBody(err, h.now()), h.logger)
		return
	}

	h.extendWriteDeadline(w, len(targets))

	start := time.Now()
	results := h.pinger.PingAll(r.Context(), targets)

	// The caller is gone; a partial aggregate would be misleading.
	if err := r.Context().Err(); err != nil {
		h.logger.Warn("Ping invocation abandoned",
			slog.String("from", clientIP),
			slog.Any("err", err))
		return
	}

	for _, result := range results {
		h.logResult(result)
	}

	report := ping.NewReport(results, h.now())

	h.logger.Info("Ping invocation completed",
		slog.Bool("overall_ok", report.OverallOK),
		slog.Int("projects", len(report.Results)),
		slog.Int("failed", len(report.Failed())),
		slog.Duration("duration", time.Since(start)))

	writeJSON(w, report.StatusCode(), report, h.logger)
}

// extendWriteDeadline sizes the response deadline to the list loaded for this
// invocation, which may be longer than the one seen at startup.
func (h *PingHandler) extendWriteDeadline(w http.ResponseWriter, targets int) {
	deadline := time.Now().Add(h.pinger.Budget(targets) + responseMargin)

	err := http.NewResponseController(w).SetWriteDeadline(deadline)
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("Failed to extend write deadline", slog.Any("err", err))
	}
}

func (h *PingHandler) logResult(result ping.Result) {
	attrs := []any{
		slog.String("project", result.Name),
		slog.Bool("ok", result.OK),
		slog.Int("status_code", result.StatusCode),
		slog.Int64("latency_ms", result.LatencyMS),
	}

	if result.OK {
		h.logger.Info("Project pinged", attrs...)
		return
	}

	attrs = append(attrs,
		slog.String("error", string(result.Error)),
		slog.String("detail", result.Detail),
		slog.Any("err", result.Err()))
	h.logger.Warn("Project ping failed", attrs...)
}

func writeJSON(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to write response", slog.Any("err", err))
	}
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
