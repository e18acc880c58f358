package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "figflow/internal/errors"
	"figflow/internal/middleware"
	"figflow/internal/services"
)

var validate = validator.New()

// FlowsHandler serves the flow graph API with RFC 7807 error responses.
type FlowsHandler struct {
	service      FlowServiceInterface
	defaultLevel int
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewFlowsHandler creates the flows handler. defaultLevel is used when a
// graph request omits the level parameter.
func NewFlowsHandler(service FlowServiceInterface, defaultLevel int, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *FlowsHandler {
	return &FlowsHandler{
		service:      service,
		defaultLevel: defaultLevel,
		logger:       logger.With(slog.String("component", "flows_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the flow routes mounted under /api/flows.
func (h *FlowsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/graph", h.GetGraph)
	r.Get("/years", h.GetYears)
	r.Get("/regions", h.GetRegions)
	r.Get("/report", h.GetReport)
	r.Post("/reload", h.Reload)

	return r
}

// GetGraph handles GET /api/flows/graph.
//
// Query parameters:
//
//	year       required, integer
//	level      optional, 1..4, defaults to the configured level
//	min_value  optional, float threshold on individual record values
//	regions    optional, comma-separated region codes
//	imports    optional boolean, default true
//	exports    optional boolean, default true
func (h *FlowsHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	req, err := h.parseGraphRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "building flow graph",
		slog.String("request_id", reqID),
		slog.Int("year", req.Year),
		slog.Int("level", req.Level),
		slog.Float64("min_value", req.MinValue),
		slog.Int("regions", len(req.Regions)))

	result, err := h.service.BuildGraph(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, req, err)
		return
	}

	resp := map[string]interface{}{
		"status":          "success",
		"data":            result.Graph,
		"snapshot_id":     result.SnapshotID,
		"dropped_records": result.DroppedRecords,
		"node_count":      len(result.Graph.Nodes),
		"link_count":      len(result.Graph.Links),
	}
	if result.Graph.Empty {
		// An empty graph is a valid outcome, not an error. The warning
		// lets clients distinguish "nothing matched" from a failure.
		resp["warning"] = "no flows matched the requested filter"
	}
	render.JSON(w, r, resp)
}

// GetYears handles GET /api/flows/years.
func (h *FlowsHandler) GetYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.AvailableYears(r.Context())
	if err != nil {
		h.handleServiceError(w, r, services.GraphRequest{}, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   years,
		"count":  len(years),
	})
}

// GetRegions handles GET /api/flows/regions.
func (h *FlowsHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.Regions(r.Context())
	if err != nil {
		h.handleServiceError(w, r, services.GraphRequest{}, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   regions,
		"count":  len(regions),
	})
}

// GetReport handles GET /api/flows/report.
func (h *FlowsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.LoadReport(r.Context())
	if err != nil {
		h.handleServiceError(w, r, services.GraphRequest{}, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":      "success",
		"data":        report,
		"snapshot_id": h.service.SnapshotID(),
	})
}

// Reload handles POST /api/flows/reload. The new snapshot becomes visible
// atomically; requests racing the reload keep the previous one.
func (h *FlowsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "reload requested",
		slog.String("request_id", reqID))

	if err := h.service.Reload(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "reload failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))
		h.errorHandler.HandleError(w, r, apierrors.LoadFailedError(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":      "success",
		"snapshot_id": h.service.SnapshotID(),
	})
}

func (h *FlowsHandler) parseGraphRequest(r *http.Request) (services.GraphRequest, error) {
	q := r.URL.Query()
	req := services.GraphRequest{
		Level:          h.defaultLevel,
		IncludeImports: true,
		IncludeExports: true,
	}

	yearStr := q.Get("year")
	if yearStr == "" {
		return req, apierrors.ErrValidation("year", "Year is required")
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return req, apierrors.ErrValidation("year", "Year must be an integer")
	}
	req.Year = year

	if levelStr := q.Get("level"); levelStr != "" {
		level, err := strconv.Atoi(levelStr)
		if err != nil {
			return req, apierrors.ErrValidation("level", "Level must be an integer")
		}
		req.Level = level
	}

	if minStr := q.Get("min_value"); minStr != "" {
		min, err := strconv.ParseFloat(minStr, 64)
		if err != nil {
			return req, apierrors.ErrValidation("min_value", "Min value must be a number")
		}
		req.MinValue = min
	}

	if regionsStr := q.Get("regions"); regionsStr != "" {
		for _, region := range strings.Split(regionsStr, ",") {
			region = strings.ToUpper(strings.TrimSpace(region))
			if region != "" {
				req.Regions = append(req.Regions, region)
			}
		}
	}

	if impStr := q.Get("imports"); impStr != "" {
		include, err := strconv.ParseBool(impStr)
		if err != nil {
			return req, apierrors.ErrValidation("imports", "Imports must be a boolean")
		}
		req.IncludeImports = include
	}
	if expStr := q.Get("exports"); expStr != "" {
		include, err := strconv.ParseBool(expStr)
		if err != nil {
			return req, apierrors.ErrValidation("exports", "Exports must be a boolean")
		}
		req.IncludeExports = include
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]apierrors.ValidationError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, apierrors.ValidationError{
					Field:   strings.ToLower(fe.Field()),
					Message: "failed validation rule " + fe.Tag(),
				})
			}
			return req, apierrors.NewValidationErrors(fields)
		}
		return req, err
	}

	return req, nil
}

// handleServiceError maps service sentinel errors to their API equivalents
// before falling back to the generic RFC 7807 handler.
func (h *FlowsHandler) handleServiceError(w http.ResponseWriter, r *http.Request, req services.GraphRequest, err error) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "flow request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID))

	switch {
	case errors.Is(err, services.ErrDataNotLoaded):
		h.errorHandler.HandleError(w, r, apierrors.ErrDataNotLoaded)
	case errors.Is(err, services.ErrYearNotFound):
		available, yearsErr := h.service.AvailableYears(r.Context())
		if yearsErr != nil {
			available = nil
		}
		h.errorHandler.HandleError(w, r, apierrors.YearNotFoundError(req.Year, available))
	case errors.Is(err, services.ErrInvalidLevel):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("level", "Level must be between 1 and 4"))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
