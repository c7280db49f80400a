package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/camadvisory/forecast-impact-service/internal/extract"
	"github.com/camadvisory/forecast-impact-service/internal/fetch"
	"github.com/camadvisory/forecast-impact-service/internal/impact"
	"github.com/camadvisory/forecast-impact-service/internal/interval"
	"github.com/camadvisory/forecast-impact-service/internal/lifecycle"
	"github.com/camadvisory/forecast-impact-service/internal/models"
	"github.com/camadvisory/forecast-impact-service/internal/relay"
	"github.com/camadvisory/forecast-impact-service/internal/store"
)

// maxRequestBody caps request body reads. Shipment lists are the largest
// expected payload and stay well under this.
const maxRequestBody = 8 << 20

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	normalizer fetch.Normalizer
	extractor  extract.Extractor
	resolver   *impact.Resolver
	relay      relay.Relay
	store      store.Store
	logger     *zap.Logger

	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(
	normalizer fetch.Normalizer,
	extractor extract.Extractor,
	resolver *impact.Resolver,
	erpRelay relay.Relay,
	st store.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		normalizer: normalizer,
		extractor:  extractor,
		resolver:   resolver,
		relay:      erpRelay,
		store:      st,
		logger:     logger,
	}
}

// GetHome handles GET /. Service banner.
func (h *Handler) GetHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "forecast-impact-service",
		"status":  "ok",
	})
}

// CheckBlog handles POST /check_blog. Fetches the article, extracts a
// Forecast, and returns it. Fetch and schema failures are client-
// correctable (400); provider failures are 502.
func (h *Handler) CheckBlog(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BlogURL string `json:"blog_url"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return
	}
	if body.BlogURL == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "blog_url is required")
		return
	}

	text, err := h.normalizer.Normalize(r.Context(), body.BlogURL)
	if err != nil {
		h.logError(r, "blog fetch failed", err)
		writeError(w, r, http.StatusBadRequest, "FETCH_FAILED", err.Error())
		return
	}

	forecast, err := h.extractor.Extract(r.Context(), text)
	if err != nil {
		var schemaErr *extract.SchemaError
		if errors.As(err, &schemaErr) {
			h.logError(r, "model response failed schema validation", err)
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error": map[string]string{
					"code":      "INVALID_MODEL_RESPONSE",
					"message":   schemaErr.Error(),
					"requestId": correlationID(r),
				},
				"raw_model_response": schemaErr.Raw,
			})
			return
		}
		h.logError(r, "extraction failed", err)
		writeError(w, r, http.StatusBadGateway, "EXTRACTION_FAILED", "unable to analyze blog content")
		return
	}

	writeJSON(w, http.StatusOK, forecast)
}

// GetImpactedShipments handles POST /get_impacted_shipments. An empty
// area_affected list (or a non-forecast payload) is a client error rendered
// as a 400 with an empty list; a valid window that matches nothing is a
// legitimate empty result (200).
func (h *Handler) GetImpactedShipments(w http.ResponseWriter, r *http.Request) {
	var body models.Forecast
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return
	}

	if !body.IsWeatherForecast || len(body.AreaAffected) == 0 {
		writeJSON(w, http.StatusBadRequest, []models.Shipment{})
		return
	}

	window, err := interval.Parse(body.Duration)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_DURATION", err.Error())
		return
	}

	shipments, err := h.resolver.FindShipments(r.Context(), body.AreaAffected, window)
	if err != nil {
		h.logError(r, "impact resolution failed", err)
		writeError(w, r, http.StatusInternalServerError, "RESOLUTION_FAILED", "unable to query shipments")
		return
	}
	if shipments == nil {
		shipments = []models.Shipment{}
	}
	writeJSON(w, http.StatusOK, shipments)
}

// GetImpactedBookings handles POST /get_impacted_bookings.
func (h *Handler) GetImpactedBookings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AffectedShipments []models.Shipment `json:"affected_shipments"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return
	}

	if len(body.AffectedShipments) == 0 {
		writeJSON(w, http.StatusBadRequest, []models.Booking{})
		return
	}

	bookings, err := h.resolver.FindBookings(r.Context(), body.AffectedShipments)
	if err != nil {
		h.logError(r, "booking resolution failed", err)
		writeError(w, r, http.StatusInternalServerError, "RESOLUTION_FAILED", "unable to query bookings")
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// GetCustomerContacts handles POST /get_customer_contacts. A shipment
// missing its required account code fails the whole request (500); a
// broken booking or purchase-order link does not.
func (h *Handler) GetCustomerContacts(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AffectedShipments []models.Shipment `json:"affected_shipments"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return
	}

	if len(body.AffectedShipments) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"contacts": []models.ContactInfo{},
		})
		return
	}

	contacts, err := h.resolver.AggregateContacts(r.Context(), body.AffectedShipments)
	if err != nil {
		h.logError(r, "contact aggregation failed", err)
		if errors.Is(err, store.ErrMissingRequiredField) {
			writeError(w, r, http.StatusInternalServerError, "AGGREGATION_FAILED", err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "AGGREGATION_FAILED", "unable to aggregate contacts")
		return
	}
	if contacts == nil {
		contacts = []models.ContactInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"contacts": contacts,
	})
}

// RelayToERP handles POST /d365. Forwards the payload unchanged and echoes
// the acknowledged payload back.
func (h *Handler) RelayToERP(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil || !json.Valid(payload) {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return
	}

	ack, err := h.relay.Relay(r.Context(), payload)
	if err != nil {
		h.logError(r, "relay failed", err)
		writeError(w, r, http.StatusBadGateway, "RELAY_FAILED", "unable to reach ERP endpoint")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    json.RawMessage(ack),
	})
}

// GetHealth handles GET /health. Health is defined by collaborator
// reachability; the store is the only collaborator cheap enough to probe
// per check.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	checks := map[string]string{"store": "healthy"}

	if lifecycle.IsShuttingDown() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	} else {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(pingCtx); err != nil {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
			checks["store"] = "unhealthy"
		}
	}

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", status))
	}
	h.healthStatusPrev = status
	h.healthStatusMu.Unlock()

	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "forecast-impact-service",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// decodeBody decodes a JSON request body with a size cap.
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	return dec.Decode(v)
}

// correlationID returns the request's correlation ID, if any.
func correlationID(r *http.Request) string {
	if v := r.Context().Value("correlation_id"); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// logError logs a handler-level failure with the request logger when present.
func (h *Handler) logError(r *http.Request, msg string, err error) {
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Warn(msg, zap.Error(err))
		return
	}
	if h.logger != nil {
		h.logger.Warn(msg, zap.Error(err))
	}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with
// code, message, and requestId (correlation ID) if available.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationID(r),
		},
	})
}
