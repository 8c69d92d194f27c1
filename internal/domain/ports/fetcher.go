package ports

import (
	"context"

	"luncho-service/internal/domain/model"
)

// LunchoFetcher performs the remote calls. An empty country code lets the
// remote source pick its default country.
type LunchoFetcher interface {
	FetchLunchoData(ctx context.Context, countryCode model.CountryCode) (*model.LunchoData, error)
	FetchAllLunchoData(ctx context.Context) (map[model.CountryCode]*model.LunchoData, error)
	FetchCountries(ctx context.Context) (map[model.CountryCode]string, error)
	FetchCountryCode(ctx context.Context) (model.CountryCode, error)
}
