package healthlink

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/healthlink/healthlink/internal/platform/shl"
)

// ResponseFormat selects how the issuance response encodes the link payload.
type ResponseFormat string

const (
	// FormatJSON returns the link payload as a JSON object.
	FormatJSON ResponseFormat = "json"
	// FormatShlink returns the payload wrapped as a shlink: URI.
	FormatShlink ResponseFormat = "shlink"
)

// Handler exposes the issue and retrieve operations over HTTP.
type Handler struct {
	svc           *Service
	format        ResponseFormat
	publicBaseURL string
}

// NewHandler creates a Handler. publicBaseURL overrides per-request base URL
// derivation when set; format chooses the issuance response encoding for the
// whole deployment.
func NewHandler(svc *Service, format ResponseFormat, publicBaseURL string) *Handler {
	if format == "" {
		format = FormatJSON
	}
	return &Handler{svc: svc, format: format, publicBaseURL: publicBaseURL}
}

// RegisterRoutes mounts the health link routes on the supplied group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/healthlinks", h.Issue)
	api.GET("/healthlinks/:id", h.Retrieve)
}

// Issue accepts a raw FHIR bundle body and returns the link payload.
func (h *Handler) Issue(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable request body")
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "request body must contain a FHIR bundle")
	}

	link, err := h.svc.Issue(c.Request().Context(), raw, h.baseURL(c))
	if err != nil {
		return mapServiceError(err)
	}

	if h.format == FormatShlink {
		uri, err := shl.EncodeURI(link)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		return c.String(http.StatusCreated, uri)
	}
	return c.JSON(http.StatusCreated, link)
}

// Retrieve exchanges a submission ID for the compact token. The recipient
// query parameter is required but only recorded for audit.
func (h *Handler) Retrieve(c echo.Context) error {
	recipient := strings.TrimSpace(c.QueryParam("recipient"))
	if recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "the 'recipient' query parameter is required")
	}

	result, err := h.svc.Retrieve(c.Request().Context(), c.Param("id"), recipient)
	if err != nil {
		return mapServiceError(err)
	}

	switch result.Outcome {
	case OutcomeNotFound:
		return c.NoContent(http.StatusNotFound)
	case OutcomeExpired:
		return c.NoContent(http.StatusGone)
	case OutcomeOK:
		return c.Blob(http.StatusOK, "application/jose", []byte(result.Token))
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

// baseURL returns the configured public base URL, or derives one from the
// inbound request.
func (h *Handler) baseURL(c echo.Context) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	return fmt.Sprintf("%s://%s", c.Scheme(), c.Request().Host)
}

// mapServiceError translates the service error taxonomy into HTTP responses.
// Storage and crypto failures stay opaque to the caller.
func mapServiceError(err error) error {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return echo.NewHTTPError(http.StatusBadRequest, validationErr.Reason)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
