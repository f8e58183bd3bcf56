/**
 * @description
 * This file defines the HTTP handler for the USSD aggregator callback. The
 * handler decodes the form fields, serializes concurrent requests for the
 * same phone number through the per-phone lock, runs the engine, and writes
 * the plain-text CON/END response.
 *
 * @dependencies
 * - The service's internal engine for conversation logic.
 * - pkg/redislock for the per-phone request mutex.
 */
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iyapays/ussd-gateway/internal/engine"
)

// Locker is the per-phone request mutex consumed by the handler.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), acquired bool, err error)
}

// USSDHandler holds the dependencies for the aggregator callback.
type USSDHandler struct {
	engine *engine.Engine
	locker Locker
	logger *slog.Logger
}

// NewUSSDHandler creates a new USSDHandler.
func NewUSSDHandler(eng *engine.Engine, locker Locker, logger *slog.Logger) *USSDHandler {
	return &USSDHandler{engine: eng, locker: locker, logger: logger}
}

// Handle processes one aggregator callback.
func (h *USSDHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	req := engine.Request{
		SessionID: r.PostFormValue("sessionId"),
		Phone:     r.PostFormValue("phoneNumber"),
		Text:      r.PostFormValue("text"),
	}
	if req.Phone == "" {
		http.Error(w, "phoneNumber is required", http.StatusBadRequest)
		return
	}

	resp := h.withPhoneLock(r.Context(), req)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(resp.Render()))
}

// withPhoneLock serializes the read-decide-write sequence per phone number.
// A held lock means a request for this phone is already in flight (a
// double-submit); it is answered without touching any state. Redis being
// unreachable fails open so a cache outage cannot take the gateway down.
func (h *USSDHandler) withPhoneLock(ctx context.Context, req engine.Request) engine.Response {
	if h.locker == nil {
		return h.engine.Handle(ctx, req)
	}

	release, acquired, err := h.locker.Acquire(ctx, "ussd:lock:"+req.Phone)
	if err != nil {
		h.logger.Warn("phone lock unavailable, proceeding unlocked", "phone", req.Phone, "error", err)
		return h.engine.Handle(ctx, req)
	}
	if !acquired {
		return engine.End("Your previous request is still processing. Please try again shortly.")
	}
	defer release()

	return h.engine.Handle(ctx, req)
}
