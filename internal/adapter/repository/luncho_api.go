package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"

	"luncho-service/internal/domain/model"
	"luncho-service/internal/domain/ports"
	"luncho-service/pkg/logger"
)

// LunchoAPI talks to a Luncho API server. Transient failures (network errors,
// 429 and 5xx) are retried with exponential backoff; everything else is
// returned on the first attempt.
type LunchoAPI struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
	backoff    func() backoff.BackOff
	log        *logger.Logger
}

var _ ports.LunchoFetcher = (*LunchoAPI)(nil)

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s returned status %d", e.Path, e.StatusCode)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func NewLunchoAPI(baseURL string, timeout time.Duration, maxRetries uint64, log *logger.Logger) *LunchoAPI {
	return &LunchoAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
		log: log.With("component", "luncho_api"),
	}
}

func (a *LunchoAPI) FetchLunchoData(ctx context.Context, countryCode model.CountryCode) (*model.LunchoData, error) {
	query := url.Values{}
	if countryCode != "" {
		query.Set("country_code", string(countryCode))
	}

	var data model.LunchoData
	body, err := a.get(ctx, "/luncho-data", query)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && isUnknownCountry(statusErr) {
			return nil, fmt.Errorf("%w: %s: %w", model.ErrCountryNotFound, countryCode, err)
		}
		return nil, err
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode luncho data: %w", err)
	}

	return &data, nil
}

func (a *LunchoAPI) FetchAllLunchoData(ctx context.Context) (map[model.CountryCode]*model.LunchoData, error) {
	body, err := a.get(ctx, "/luncho-datas", nil)
	if err != nil {
		return nil, err
	}

	var datas map[model.CountryCode]*model.LunchoData
	if err := json.Unmarshal(body, &datas); err != nil {
		return nil, fmt.Errorf("failed to decode luncho datas: %w", err)
	}

	return datas, nil
}

func (a *LunchoAPI) FetchCountries(ctx context.Context) (map[model.CountryCode]string, error) {
	body, err := a.get(ctx, "/countries", nil)
	if err != nil {
		return nil, err
	}

	var countries map[model.CountryCode]string
	if err := json.Unmarshal(body, &countries); err != nil {
		return nil, fmt.Errorf("failed to decode countries: %w", err)
	}

	return countries, nil
}

// FetchCountryCode asks the server to guess the caller's country. Servers
// without the endpoint answer 404, 405 or 501, which maps to
// model.ErrUnsupportedOperation.
func (a *LunchoAPI) FetchCountryCode(ctx context.Context) (model.CountryCode, error) {
	body, err := a.get(ctx, "/country-code", nil)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			switch statusErr.StatusCode {
			case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
				return "", fmt.Errorf("%w: %w", model.ErrUnsupportedOperation, err)
			}
		}
		return "", err
	}

	// Either a bare JSON string or {"country_code": "JP"}.
	result := gjson.ParseBytes(body)
	if result.Type != gjson.String {
		result = result.Get("country_code")
	}
	code := model.NormalizeCountryCode(result.String())
	if !code.IsValid() {
		return "", fmt.Errorf("unexpected country code response: %q", strings.TrimSpace(string(body)))
	}

	return code, nil
}

func (a *LunchoAPI) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := a.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		b, err := a.do(ctx, path, endpoint)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && !statusErr.retryable() {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			a.log.Warn("Luncho API request failed", "path", path, "attempt", attempt, "error", err)
			return err
		}
		body = b
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(a.backoff(), a.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	a.log.Debug("Luncho API request succeeded", "path", path, "attempts", attempt)
	return body, nil
}

func (a *LunchoAPI) do(ctx context.Context, path, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(body),
		}
	}

	return body, nil
}

// errorDetail pulls the message out of a FastAPI style {"detail": ...} body.
// The detail may be a string or a list of objects carrying "msg".
func errorDetail(body []byte) string {
	detail := gjson.GetBytes(body, "detail")
	switch {
	case !detail.Exists():
		return ""
	case detail.IsArray():
		msgs := make([]string, 0)
		for _, m := range detail.Get("#.msg").Array() {
			msgs = append(msgs, m.String())
		}
		return strings.Join(msgs, "; ")
	default:
		return detail.String()
	}
}

func isUnknownCountry(err *StatusError) bool {
	if err.StatusCode == http.StatusNotFound {
		return true
	}
	return err.StatusCode < 500 && strings.Contains(strings.ToLower(err.Detail), "country code")
}
