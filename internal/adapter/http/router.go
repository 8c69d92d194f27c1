package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"luncho-service/internal/metrics"
	"luncho-service/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

type Router struct {
	handler  *Handler
	log      *logger.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

func NewRouter(handler *Handler, log *logger.Logger, metrics *metrics.Metrics, gatherer prometheus.Gatherer) *Router {
	return &Router{
		handler:  handler,
		log:      log,
		metrics:  metrics,
		gatherer: gatherer,
	}
}

func (r *Router) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()

		requestID := req.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		crw := &customResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(crw, req)

		duration := time.Since(start)
		r.metrics.HTTPRequestDuration.WithLabelValues(req.URL.Path, req.Method).Observe(duration.Seconds())
		r.metrics.HTTPRequestsTotal.WithLabelValues(req.URL.Path, req.Method, fmt.Sprintf("%dxx", crw.statusCode/100)).Inc()

		r.log.Info("HTTP request",
			"request_id", requestID,
			"method", req.Method,
			"path", req.URL.Path,
			"query", req.URL.RawQuery,
			"status", crw.statusCode,
			"duration", duration,
			"remote_addr", req.RemoteAddr,
			"user_agent", req.UserAgent(),
		)
	})
}

type customResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (crw *customResponseWriter) WriteHeader(code int) {
	crw.statusCode = code
	crw.ResponseWriter.WriteHeader(code)
}

func (r *Router) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/luncho-data", r.handler.GetLunchoDataHandler)
	mux.HandleFunc("GET /api/v1/luncho-datas", r.handler.GetAllLunchoDataHandler)
	mux.HandleFunc("GET /api/v1/countries", r.handler.GetCountriesHandler)
	mux.HandleFunc("GET /api/v1/country-code", r.handler.GetCountryCodeHandler)

	mux.Handle("GET /api/v1/convert/local-currency", r.handler.LocalCurrencyFromLunchoHandler())
	mux.Handle("GET /api/v1/convert/us-dollar", r.handler.USDollarFromLunchoHandler())
	mux.Handle("GET /api/v1/convert/luncho-from-local", r.handler.LunchoFromLocalCurrencyHandler())
	mux.Handle("GET /api/v1/convert/luncho-from-usd", r.handler.LunchoFromUSDollarHandler())

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	rootMux := http.NewServeMux()
	rootMux.Handle("/", r.loggingMiddleware(mux))
	rootMux.Handle("/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))

	return rootMux
}
