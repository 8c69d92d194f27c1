package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"luncho-service/internal/domain/model"
	"luncho-service/internal/domain/ports"
	"luncho-service/internal/metrics"
	"luncho-service/pkg/logger"
	"luncho-service/pkg/utils"
)

var (
	ErrExternalAPIFailure = errors.New("external API failure")
	ErrInvalidCountryCode = errors.New("invalid country code")
)

// LunchoService caches Luncho data in front of a LunchoFetcher and derives
// conversions from it. Concurrent misses on the same key share one fetch.
type LunchoService struct {
	fetcher   ports.LunchoFetcher
	store     ports.LunchoStore
	localizer ports.Localizer
	metrics   *metrics.Metrics
	log       *logger.Logger

	referenceCountry model.CountryCode
	fetchTimeout     time.Duration
	now              func() time.Time

	group singleflight.Group

	mutex         sync.RWMutex
	allExpiration float64
	countries     map[model.CountryCode]string
	countryCode   model.CountryCode
}

type Option func(*LunchoService)

// WithReferenceCountry sets the country whose expiration governs the bulk cache.
func WithReferenceCountry(code model.CountryCode) Option {
	return func(s *LunchoService) {
		if code != "" {
			s.referenceCountry = code
		}
	}
}

// WithFetchTimeout bounds every shared fetch. Zero means no bound beyond the
// fetcher's own.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *LunchoService) {
		s.fetchTimeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *LunchoService) {
		s.now = now
	}
}

func NewLunchoService(
	fetcher ports.LunchoFetcher,
	store ports.LunchoStore,
	localizer ports.Localizer,
	m *metrics.Metrics,
	log *logger.Logger,
	opts ...Option,
) *LunchoService {
	s := &LunchoService{
		fetcher:          fetcher,
		store:            store,
		localizer:        localizer,
		metrics:          m,
		log:              log.With("component", "luncho_service"),
		referenceCountry: model.DefaultReferenceCountry,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.LunchoService = (*LunchoService)(nil)

// GetLunchoData returns the record for countryCode, fetching it when absent
// or expired. Names are resolved only on the fetch path and stored with the
// record. An empty countryCode leaves the choice to the fetcher and stores the
// result under the country it returned.
func (s *LunchoService) GetLunchoData(ctx context.Context, countryCode model.CountryCode, withLocalNames bool) (*model.LunchoData, error) {
	if countryCode != "" && !countryCode.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCountryCode, countryCode)
	}

	if countryCode != "" {
		if data, found := s.store.Get(ctx, countryCode, s.now()); found {
			s.metrics.CacheHitsTotal.WithLabelValues(metrics.CacheLunchoData).Inc()
			return data, nil
		}
	}
	s.metrics.CacheMissesTotal.WithLabelValues(metrics.CacheLunchoData).Inc()

	key := fmt.Sprintf("data:%s:%t", countryCode, withLocalNames)
	v, err := s.shared(ctx, key, "luncho_data", func(ctx context.Context) (any, error) {
		// A flight that finished while this caller was queued may have
		// already stored a fresh record.
		if countryCode != "" {
			if data, found := s.store.Get(ctx, countryCode, s.now()); found {
				return data, nil
			}
		}

		data, err := s.fetch(ctx, "luncho_data", func(ctx context.Context) (any, error) {
			return s.fetcher.FetchLunchoData(ctx, countryCode)
		})
		if err != nil {
			s.log.Error("Failed to fetch luncho data", "error", err, "country_code", countryCode)
			return nil, err
		}
		record := data.(*model.LunchoData).Clone()
		if record == nil {
			return nil, fmt.Errorf("%w: empty luncho data for %q", ErrExternalAPIFailure, countryCode)
		}

		if withLocalNames {
			s.localize(record)
		}

		storeKey := countryCode
		if storeKey == "" {
			storeKey = record.CountryCode
		}
		if err := s.store.Set(ctx, storeKey, record); err != nil {
			s.log.Error("Failed to cache luncho data", "error", err, "country_code", storeKey)
		}

		s.log.Info("Fetched luncho data", "country_code", storeKey, "expiration", utils.FormatEpoch(record.Expiration))
		return record, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*model.LunchoData).Clone(), nil
}

// GetAllLunchoData returns every country's record. While the bulk expiration
// (taken from the reference country's record) is in the future the stored
// records are returned as they are.
func (s *LunchoService) GetAllLunchoData(ctx context.Context, withLocalNames bool) (map[model.CountryCode]*model.LunchoData, error) {
	if s.allFresh() {
		s.metrics.CacheHitsTotal.WithLabelValues(metrics.CacheAllData).Inc()
		return s.store.All(ctx), nil
	}
	s.metrics.CacheMissesTotal.WithLabelValues(metrics.CacheAllData).Inc()

	key := fmt.Sprintf("all:%t", withLocalNames)
	v, err := s.shared(ctx, key, "all_luncho_data", func(ctx context.Context) (any, error) {
		if s.allFresh() {
			return s.store.All(ctx), nil
		}

		v, err := s.fetch(ctx, "all_luncho_data", func(ctx context.Context) (any, error) {
			return s.fetcher.FetchAllLunchoData(ctx)
		})
		if err != nil {
			s.log.Error("Failed to fetch all luncho data", "error", err)
			return nil, err
		}
		datas := model.CloneAll(v.(map[model.CountryCode]*model.LunchoData))

		// Check before touching the store so a bad response leaves it intact.
		reference, ok := datas[s.referenceCountry]
		if !ok || reference == nil {
			s.log.Error("Bulk response lacks reference country", "reference_country", s.referenceCountry, "count", len(datas))
			return nil, fmt.Errorf("%w: %s", model.ErrMissingReferenceEntry, s.referenceCountry)
		}

		for code, data := range datas {
			if data == nil {
				delete(datas, code)
				continue
			}
			if withLocalNames {
				s.localize(data)
			}
		}

		if err := s.store.ReplaceAll(ctx, datas); err != nil {
			s.log.Error("Failed to cache all luncho data", "error", err)
			return nil, err
		}

		s.mutex.Lock()
		s.allExpiration = reference.Expiration
		s.mutex.Unlock()

		s.log.Info("Fetched all luncho data", "count", len(datas), "expiration", utils.FormatEpoch(reference.Expiration))
		return datas, nil
	})
	if err != nil {
		return nil, err
	}

	return model.CloneAll(v.(map[model.CountryCode]*model.LunchoData)), nil
}

// GetCountries returns country codes and names. The list is fetched once and
// kept for the life of the process.
func (s *LunchoService) GetCountries(ctx context.Context, withLocalNames bool) (map[model.CountryCode]string, error) {
	if countries, found := s.cachedCountries(); found {
		s.metrics.CacheHitsTotal.WithLabelValues(metrics.CacheCountries).Inc()
		return countries, nil
	}
	s.metrics.CacheMissesTotal.WithLabelValues(metrics.CacheCountries).Inc()

	key := fmt.Sprintf("countries:%t", withLocalNames)
	v, err := s.shared(ctx, key, "countries", func(ctx context.Context) (any, error) {
		if countries, found := s.cachedCountries(); found {
			return countries, nil
		}

		v, err := s.fetch(ctx, "countries", func(ctx context.Context) (any, error) {
			return s.fetcher.FetchCountries(ctx)
		})
		if err != nil {
			s.log.Error("Failed to fetch countries", "error", err)
			return nil, err
		}

		fetched := v.(map[model.CountryCode]string)
		countries := make(map[model.CountryCode]string, len(fetched))
		for code, name := range fetched {
			if withLocalNames {
				name = s.localizer.RegionName(code)
			}
			countries[code] = name
		}

		s.mutex.Lock()
		s.countries = countries
		s.mutex.Unlock()

		s.log.Info("Fetched countries", "count", len(countries))
		return copyCountries(countries), nil
	})
	if err != nil {
		return nil, err
	}

	return copyCountries(v.(map[model.CountryCode]string)), nil
}

// GetCountryCode returns the remote source's guess of the caller's country.
// A successful answer is kept for the life of the process; failures are not.
func (s *LunchoService) GetCountryCode(ctx context.Context) (model.CountryCode, error) {
	s.mutex.RLock()
	cached := s.countryCode
	s.mutex.RUnlock()
	if cached != "" {
		s.metrics.CacheHitsTotal.WithLabelValues(metrics.CacheCountryCode).Inc()
		return cached, nil
	}
	s.metrics.CacheMissesTotal.WithLabelValues(metrics.CacheCountryCode).Inc()

	v, err := s.shared(ctx, "country-code", "country_code", func(ctx context.Context) (any, error) {
		s.mutex.RLock()
		cached := s.countryCode
		s.mutex.RUnlock()
		if cached != "" {
			return cached, nil
		}

		v, err := s.fetch(ctx, "country_code", func(ctx context.Context) (any, error) {
			return s.fetcher.FetchCountryCode(ctx)
		})
		if err != nil {
			s.log.Warn("Failed to detect country code", "error", err)
			return nil, err
		}
		code := v.(model.CountryCode)

		s.mutex.Lock()
		s.countryCode = code
		s.mutex.Unlock()

		return code, nil
	})
	if err != nil {
		return "", err
	}

	return v.(model.CountryCode), nil
}

// shared runs fn once per key across concurrent callers. The fetch runs on a
// context detached from any single caller so one caller giving up does not
// fail the others; each caller still stops waiting when its own ctx ends.
func (s *LunchoService) shared(ctx context.Context, key, operation string, fn func(context.Context) (any, error)) (any, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if s.fetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, s.fetchTimeout)
			defer cancel()
		}
		return fn(fetchCtx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.metrics.CoalescedWaitersTotal.WithLabelValues(operation).Inc()
		}
		return res.Val, res.Err
	case <-ctx.Done():
		s.log.Warn("Stopped waiting for fetch", "key", key, "error", ctx.Err())
		return nil, ctx.Err()
	}
}

// fetch calls the remote source and classifies its error. Unsupported
// operations keep their own kind; everything else is an external API failure
// that still unwraps to the fetcher's error.
func (s *LunchoService) fetch(ctx context.Context, operation string, call func(context.Context) (any, error)) (any, error) {
	start := time.Now()
	v, err := call(ctx)
	s.metrics.FetchDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		s.metrics.FetchesTotal.WithLabelValues(operation, "success").Inc()
		return v, nil
	case errors.Is(err, model.ErrUnsupportedOperation):
		s.metrics.FetchesTotal.WithLabelValues(operation, "unsupported").Inc()
		return nil, err
	default:
		s.metrics.FetchesTotal.WithLabelValues(operation, "error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrExternalAPIFailure, err)
	}
}

func (s *LunchoService) localize(data *model.LunchoData) {
	data.CountryName = s.localizer.RegionName(data.CountryCode)
	data.CurrencyName = s.localizer.CurrencyName(data.CurrencyCode)
}

func (s *LunchoService) allFresh() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.allExpiration > utils.EpochSeconds(s.now())
}

func (s *LunchoService) cachedCountries() (map[model.CountryCode]string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.countries == nil {
		return nil, false
	}
	return copyCountries(s.countries), true
}

func copyCountries(m map[model.CountryCode]string) map[model.CountryCode]string {
	out := make(map[model.CountryCode]string, len(m))
	for code, name := range m {
		out[code] = name
	}
	return out
}
