package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/MegaGrindStone/cv-assess-web/internal/assessment"
	"github.com/MegaGrindStone/cv-assess-web/internal/metrics"
)

// HandleGenerate is the proxy endpoint. It accepts a JSON body of the form {"prompt": "..."}, asks the
// LLM to complete the prompt, and relays every fragment verbatim as a plain-text body, flushing after
// each one so the caller can render the answer while it is being generated.
//
// A missing or empty prompt is answered with 400. If the LLM fails before the first fragment the handler
// answers 502. Once streaming has started the status can't change anymore, so a later failure aborts
// the connection and the caller sees a broken stream instead of a clean end.
func (m Main) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		metrics.ProxyRequestsTotal.WithLabelValues(metrics.StatusInvalid).Inc()
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req assessment.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		m.logger.Error("Failed to decode request", slog.String(errLoggerKey, err.Error()))
		metrics.ProxyRequestsTotal.WithLabelValues(metrics.StatusInvalid).Inc()
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		m.logger.Error("Prompt is required")
		metrics.ProxyRequestsTotal.WithLabelValues(metrics.StatusInvalid).Inc()
		http.Error(w, "No prompt in the request", http.StatusBadRequest)
		return
	}

	flusher, canFlush := w.(http.Flusher)
	started := false
	start := func() {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		started = true
	}

	for chunk, err := range m.llm.Generate(r.Context(), req.Prompt) {
		if err != nil {
			m.logger.Error("Error from llm provider",
				slog.Bool("streaming", started),
				slog.String(errLoggerKey, err.Error()))
			if !started {
				metrics.ProxyRequestsTotal.WithLabelValues(metrics.StatusRequestError).Inc()
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			metrics.ProxyRequestsTotal.WithLabelValues(metrics.StatusStreamError).Inc()
			panic(http.ErrAbortHandler)
		}

		if !started {
			start()
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			// The caller went away, r.Context() stops the provider.
			m.logger.Debug("Failed to write chunk", slog.String(errLoggerKey, err.Error()))
			metrics.ProxyRequestsTotal.WithLabelValues(metrics.StatusStreamError).Inc()
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}

	if !started {
		start()
	}
	metrics.ProxyRequestsTotal.WithLabelValues(metrics.StatusOK).Inc()
}
