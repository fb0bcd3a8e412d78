package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ha-bridge/internal/domain"
	"ha-bridge/internal/mailbox"
	"ha-bridge/internal/metrics"
)

// HAHandler exposes the producer side of the bridge over HTTP: each
// request becomes a message in the mailbox and, where a reply channel
// is attached, blocks until the consumer delivers the result.
type HAHandler struct {
	mbox     *mailbox.Mailbox
	logger   *slog.Logger
	validate *validator.Validate
	tracer   trace.Tracer
}

func NewHAHandler(mbox *mailbox.Mailbox, logger *slog.Logger) *HAHandler {
	validate := validator.New()

	_ = validate.RegisterValidation("fid", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseFid(fl.Field().String())
		return err == nil
	})

	return &HAHandler{
		mbox:     mbox,
		logger:   logger.With("component", "ha-handler"),
		validate: validate,
		tracer:   otel.Tracer("ha-bridge-api"),
	}
}

// A helper struct to capture the status code
type instrumentedResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *instrumentedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// RegisterRoutes registers HA routes to the http.ServeMux.
func (h *HAHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/api/v1/repair/status", h.instrument("/api/v1/repair/status", h.handleRepairStatus))
	mux.Handle("/api/v1/broadcast", h.instrument("/api/v1/broadcast", h.handleBroadcast))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (h *HAHandler) instrument(path string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "HTTP "+r.Method+" "+path, trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		))
		defer span.End()

		r = r.WithContext(ctx)

		iw := &instrumentedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(iw, r)

		metrics.HttpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(iw.statusCode)).Inc()

		span.SetAttributes(attribute.Int("http.status_code", iw.statusCode))
		if iw.statusCode >= 500 {
			span.SetStatus(codes.Error, "Server Error")
		}
	})
}

// handleRepairStatus enqueues a repair-status request and waits for
// the consumer's reply (GET /api/v1/repair/status).
func (h *HAHandler) handleRepairStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "handler.RepairStatus")
	defer span.End()

	reply := domain.NewReply[[]domain.RepairStatusItem]()
	if err := h.mbox.Enqueue(domain.SnsRepairStatusRequest{ReplyTo: reply}); err != nil {
		span.RecordError(err)
		h.logger.Error("failed to enqueue repair status request", "error", err)
		http.Error(w, "Service shutting down", http.StatusServiceUnavailable)
		return
	}

	items, err := reply.Await(ctx)
	if err != nil {
		span.RecordError(err)
		h.logger.Warn("timed out waiting for repair status", "error", err)
		http.Error(w, "Timed out waiting for repair status", http.StatusGatewayTimeout)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RepairStatusResponse{Items: items})
}

// handleBroadcast enqueues an HA-state broadcast and returns the
// correlation ids (POST /api/v1/broadcast).
func (h *HAHandler) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "handler.Broadcast")
	defer span.End()

	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		span.SetStatus(codes.Error, "Failed to decode request body")
		span.RecordError(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		span.RecordError(err)
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors,
				"Field '"+err.Field()+"' failed on the '"+err.Tag()+"' tag.",
			)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   "Validation failed",
			"details": validationErrors,
		})
		return
	}

	states, err := req.ToDomainStates()
	if err != nil {
		span.RecordError(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("broadcast.states", len(states)))

	reply := domain.NewReply[[]domain.MessageID]()
	if err := h.mbox.Enqueue(domain.BroadcastHAStates{States: states, ReplyTo: reply}); err != nil {
		span.RecordError(err)
		h.logger.Error("failed to enqueue broadcast", "error", err)
		http.Error(w, "Service shutting down", http.StatusServiceUnavailable)
		return
	}

	ids, err := reply.Await(ctx)
	if err != nil {
		span.RecordError(err)
		h.logger.Warn("timed out waiting for broadcast result", "error", err)
		http.Error(w, "Timed out waiting for broadcast result", http.StatusGatewayTimeout)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BroadcastResponse{MessageIDs: ids})
}
