package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"luncho-service/internal/domain/model"
	"luncho-service/internal/domain/ports"
	"luncho-service/internal/service"
	"luncho-service/pkg/logger"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type Handler struct {
	service  ports.LunchoService
	log      *logger.Logger
	validate *validator.Validate
}

func NewHandler(service ports.LunchoService, log *logger.Logger) *Handler {
	return &Handler{
		service:  service,
		log:      log,
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("finite_float", isFiniteFloat)
	return validate
}

// isFiniteFloat accepts anything strconv.ParseFloat reads as a finite number,
// exponents and leading dots included.
func isFiniteFloat(fl validator.FieldLevel) bool {
	v, err := strconv.ParseFloat(fl.Field().String(), 64)
	return err == nil && !math.IsNaN(v) && !math.IsInf(v, 0)
}

type countryQuery struct {
	CountryCode string `validate:"omitempty,len=2,alpha"`
}

type conversionQuery struct {
	CountryCode string `validate:"omitempty,len=2,alpha"`
	Value       string `validate:"required,finite_float"`
}

// ConversionResult is the body of every convert endpoint.
type ConversionResult struct {
	CountryCode model.CountryCode `json:"country_code,omitempty"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Value       float64           `json:"value"`
	Result      float64           `json:"result"`
}

// withLocalNames reads local_names; anything but an explicit false keeps names.
func withLocalNames(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("local_names"))
	return err != nil || v
}

func (h *Handler) GetLunchoDataHandler(w http.ResponseWriter, r *http.Request) {
	query := countryQuery{CountryCode: r.URL.Query().Get("country_code")}
	if err := h.validate.Struct(query); err != nil {
		h.sendErrorResponse(w, http.StatusBadRequest, "invalid country_code parameter")
		return
	}

	data, err := h.service.GetLunchoData(r.Context(), model.NormalizeCountryCode(query.CountryCode), withLocalNames(r))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendSuccessResponse(w, data)
}

func (h *Handler) GetAllLunchoDataHandler(w http.ResponseWriter, r *http.Request) {
	datas, err := h.service.GetAllLunchoData(r.Context(), withLocalNames(r))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendSuccessResponse(w, datas)
}

func (h *Handler) GetCountriesHandler(w http.ResponseWriter, r *http.Request) {
	countries, err := h.service.GetCountries(r.Context(), withLocalNames(r))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendSuccessResponse(w, countries)
}

func (h *Handler) GetCountryCodeHandler(w http.ResponseWriter, r *http.Request) {
	code, err := h.service.GetCountryCode(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendSuccessResponse(w, map[string]model.CountryCode{"country_code": code})
}

type conversionFunc func(ctx context.Context, value float64, countryCode model.CountryCode) (float64, error)

// convertHandler builds a handler for one conversion direction.
func (h *Handler) convertHandler(from, to string, convert conversionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := conversionQuery{
			CountryCode: r.URL.Query().Get("country_code"),
			Value:       r.URL.Query().Get("value"),
		}
		if err := h.validate.Struct(query); err != nil {
			h.sendErrorResponse(w, http.StatusBadRequest, "invalid parameters: value must be a finite number and country_code two letters")
			return
		}

		value, err := strconv.ParseFloat(query.Value, 64)
		if err != nil {
			h.sendErrorResponse(w, http.StatusBadRequest, "invalid value parameter")
			return
		}
		countryCode := model.NormalizeCountryCode(query.CountryCode)

		result, err := convert(r.Context(), value, countryCode)
		if err != nil {
			h.handleServiceError(w, err)
			return
		}

		h.sendSuccessResponse(w, ConversionResult{
			CountryCode: countryCode,
			From:        from,
			To:          to,
			Value:       value,
			Result:      result,
		})
	}
}

func (h *Handler) LocalCurrencyFromLunchoHandler() http.HandlerFunc {
	return h.convertHandler("luncho", "local_currency", h.service.LocalCurrencyFromLuncho)
}

func (h *Handler) USDollarFromLunchoHandler() http.HandlerFunc {
	return h.convertHandler("luncho", "usd", h.service.USDollarFromLuncho)
}

func (h *Handler) LunchoFromLocalCurrencyHandler() http.HandlerFunc {
	return h.convertHandler("local_currency", "luncho", h.service.LunchoFromLocalCurrency)
}

func (h *Handler) LunchoFromUSDollarHandler() http.HandlerFunc {
	return h.convertHandler("usd", "luncho", h.service.LunchoFromUSDollar)
}

func (h *Handler) sendSuccessResponse(w http.ResponseWriter, data interface{}) {
	response := Response{
		Success: true,
		Data:    data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := Response{
		Success: false,
		Error:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode error response", "error", err)
	}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	errorMessage := "internal server error"

	switch {
	case errors.Is(err, service.ErrInvalidCountryCode):
		statusCode = http.StatusBadRequest
		errorMessage = "invalid country code"
	case errors.Is(err, model.ErrCountryNotFound):
		statusCode = http.StatusNotFound
		errorMessage = "country not found"
	case errors.Is(err, model.ErrUnsupportedOperation):
		statusCode = http.StatusNotImplemented
		errorMessage = "operation not supported by the luncho API"
	case errors.Is(err, model.ErrMissingReferenceEntry):
		statusCode = http.StatusBadGateway
		errorMessage = "incomplete response from the luncho API"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		statusCode = http.StatusGatewayTimeout
		errorMessage = "request timed out"
	case errors.Is(err, service.ErrExternalAPIFailure):
		statusCode = http.StatusServiceUnavailable
		errorMessage = "external API failure"
	}

	h.log.Error("Service error", "error", err, "status_code", statusCode)
	h.sendErrorResponse(w, statusCode, errorMessage)
}
