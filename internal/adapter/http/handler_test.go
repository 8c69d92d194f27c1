package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luncho-service/internal/domain/model"
	"luncho-service/internal/metrics"
	"luncho-service/internal/service"
	"luncho-service/pkg/logger"
)

type MockLunchoService struct {
	GetLunchoDataFunc           func(ctx context.Context, countryCode model.CountryCode, withLocalNames bool) (*model.LunchoData, error)
	GetAllLunchoDataFunc        func(ctx context.Context, withLocalNames bool) (map[model.CountryCode]*model.LunchoData, error)
	GetCountriesFunc            func(ctx context.Context, withLocalNames bool) (map[model.CountryCode]string, error)
	GetCountryCodeFunc          func(ctx context.Context) (model.CountryCode, error)
	LocalCurrencyFromLunchoFunc func(ctx context.Context, lunchoValue float64, countryCode model.CountryCode) (float64, error)
	USDollarFromLunchoFunc      func(ctx context.Context, lunchoValue float64, countryCode model.CountryCode) (float64, error)
	LunchoFromLocalCurrencyFunc func(ctx context.Context, localValue float64, countryCode model.CountryCode) (float64, error)
	LunchoFromUSDollarFunc      func(ctx context.Context, dollarValue float64, countryCode model.CountryCode) (float64, error)
}

func (m *MockLunchoService) GetLunchoData(ctx context.Context, countryCode model.CountryCode, withLocalNames bool) (*model.LunchoData, error) {
	return m.GetLunchoDataFunc(ctx, countryCode, withLocalNames)
}

func (m *MockLunchoService) GetAllLunchoData(ctx context.Context, withLocalNames bool) (map[model.CountryCode]*model.LunchoData, error) {
	return m.GetAllLunchoDataFunc(ctx, withLocalNames)
}

func (m *MockLunchoService) GetCountries(ctx context.Context, withLocalNames bool) (map[model.CountryCode]string, error) {
	return m.GetCountriesFunc(ctx, withLocalNames)
}

func (m *MockLunchoService) GetCountryCode(ctx context.Context) (model.CountryCode, error) {
	return m.GetCountryCodeFunc(ctx)
}

func (m *MockLunchoService) LocalCurrencyFromLuncho(ctx context.Context, lunchoValue float64, countryCode model.CountryCode) (float64, error) {
	return m.LocalCurrencyFromLunchoFunc(ctx, lunchoValue, countryCode)
}

func (m *MockLunchoService) USDollarFromLuncho(ctx context.Context, lunchoValue float64, countryCode model.CountryCode) (float64, error) {
	return m.USDollarFromLunchoFunc(ctx, lunchoValue, countryCode)
}

func (m *MockLunchoService) LunchoFromLocalCurrency(ctx context.Context, localValue float64, countryCode model.CountryCode) (float64, error) {
	return m.LunchoFromLocalCurrencyFunc(ctx, localValue, countryCode)
}

func (m *MockLunchoService) LunchoFromUSDollar(ctx context.Context, dollarValue float64, countryCode model.CountryCode) (float64, error) {
	return m.LunchoFromUSDollarFunc(ctx, dollarValue, countryCode)
}

func newTestRouter(svc *MockLunchoService) http.Handler {
	log := logger.Discard()
	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)
	return NewRouter(NewHandler(svc, log), log, m, registry).SetupRoutes()
}

func doRequest(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var resp Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHandler_GetLunchoData(t *testing.T) {
	var gotCode model.CountryCode
	var gotNames bool
	svc := &MockLunchoService{
		GetLunchoDataFunc: func(ctx context.Context, countryCode model.CountryCode, withLocalNames bool) (*model.LunchoData, error) {
			gotCode, gotNames = countryCode, withLocalNames
			return &model.LunchoData{CountryCode: countryCode, CountryName: "Japan", PPP: 110}, nil
		},
	}
	router := newTestRouter(svc)

	rec, resp := doRequest(t, router, "/api/v1/luncho-data?country_code=jp")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, model.CountryCode("JP"), gotCode)
	assert.True(t, gotNames)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Japan", data["country_name"])

	_, _ = doRequest(t, router, "/api/v1/luncho-data?country_code=JP&local_names=false")
	assert.False(t, gotNames)
}

func TestHandler_GetLunchoData_InvalidCountry(t *testing.T) {
	router := newTestRouter(&MockLunchoService{})

	rec, resp := doRequest(t, router, "/api/v1/luncho-data?country_code=JPN")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}

func TestHandler_ServiceErrors(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "Country not found", err: fmt.Errorf("%w: %w", service.ErrExternalAPIFailure, model.ErrCountryNotFound), expectedStatus: http.StatusNotFound},
		{name: "Unsupported", err: model.ErrUnsupportedOperation, expectedStatus: http.StatusNotImplemented},
		{name: "Missing reference", err: model.ErrMissingReferenceEntry, expectedStatus: http.StatusBadGateway},
		{name: "External failure", err: fmt.Errorf("%w: boom", service.ErrExternalAPIFailure), expectedStatus: http.StatusServiceUnavailable},
		{name: "Timeout", err: context.DeadlineExceeded, expectedStatus: http.StatusGatewayTimeout},
		{name: "Unknown", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&MockLunchoService{
				GetCountryCodeFunc: func(ctx context.Context) (model.CountryCode, error) {
					return "", tc.err
				},
			})

			rec, resp := doRequest(t, router, "/api/v1/country-code")
			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandler_Convert(t *testing.T) {
	svc := &MockLunchoService{
		LocalCurrencyFromLunchoFunc: func(ctx context.Context, lunchoValue float64, countryCode model.CountryCode) (float64, error) {
			return lunchoValue * 1.1, nil
		},
		USDollarFromLunchoFunc: func(ctx context.Context, lunchoValue float64, countryCode model.CountryCode) (float64, error) {
			return 0, nil
		},
		LunchoFromLocalCurrencyFunc: func(ctx context.Context, localValue float64, countryCode model.CountryCode) (float64, error) {
			return localValue / 1.1, nil
		},
		LunchoFromUSDollarFunc: func(ctx context.Context, dollarValue float64, countryCode model.CountryCode) (float64, error) {
			return dollarValue * 100, nil
		},
	}
	router := newTestRouter(svc)

	testCases := []struct {
		target   string
		from, to string
		result   float64
	}{
		{target: "/api/v1/convert/local-currency?value=100&country_code=JP", from: "luncho", to: "local_currency", result: 110.00000000000001},
		{target: "/api/v1/convert/us-dollar?value=100&country_code=JP", from: "luncho", to: "usd", result: 0},
		{target: "/api/v1/convert/luncho-from-usd?value=2&country_code=JP", from: "usd", to: "luncho", result: 200},
	}

	for _, tc := range testCases {
		t.Run(tc.target, func(t *testing.T) {
			rec, resp := doRequest(t, router, tc.target)
			require.Equal(t, http.StatusOK, rec.Code)

			data := resp.Data.(map[string]interface{})
			assert.Equal(t, tc.from, data["from"])
			assert.Equal(t, tc.to, data["to"])
			assert.Equal(t, "JP", data["country_code"])
			assert.InDelta(t, tc.result, data["result"], 1e-9)
		})
	}
}

func TestHandler_Convert_BadParams(t *testing.T) {
	router := newTestRouter(&MockLunchoService{})

	for _, target := range []string{
		"/api/v1/convert/local-currency?country_code=JP",
		"/api/v1/convert/local-currency?value=abc&country_code=JP",
		"/api/v1/convert/luncho-from-local?value=10&country_code=J1",
		"/api/v1/convert/local-currency?value=NaN&country_code=JP",
		"/api/v1/convert/local-currency?value=Inf&country_code=JP",
		"/api/v1/convert/us-dollar?value=-Infinity&country_code=JP",
		"/api/v1/convert/us-dollar?value=1e400&country_code=JP",
	} {
		rec, _ := doRequest(t, router, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := newTestRouter(&MockLunchoService{
		GetCountriesFunc: func(ctx context.Context, withLocalNames bool) (map[model.CountryCode]string, error) {
			return map[model.CountryCode]string{"JP": "Japan"}, nil
		},
	})

	rec, _ := doRequest(t, router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec, _ = doRequest(t, router, "/api/v1/countries")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/api/v1/countries",status_code="2xx"} 1`)
}

func TestHandler_Convert_ValueForms(t *testing.T) {
	var got float64
	router := newTestRouter(&MockLunchoService{
		LocalCurrencyFromLunchoFunc: func(ctx context.Context, lunchoValue float64, countryCode model.CountryCode) (float64, error) {
			got = lunchoValue
			return lunchoValue, nil
		},
	})

	testCases := []struct {
		value    string
		expected float64
	}{
		{value: "100", expected: 100},
		{value: "-2.5", expected: -2.5},
		{value: "1e3", expected: 1000},
		{value: ".5", expected: 0.5},
		{value: "0", expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			rec, resp := doRequest(t, router, "/api/v1/convert/local-currency?country_code=JP&value="+tc.value)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, resp.Success)
			assert.Equal(t, tc.expected, got)
		})
	}
}
