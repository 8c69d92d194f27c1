package ports

import (
	"context"

	"luncho-service/internal/domain/model"
)

type LunchoService interface {
	GetLunchoData(ctx context.Context, countryCode model.CountryCode, withLocalNames bool) (*model.LunchoData, error)
	GetAllLunchoData(ctx context.Context, withLocalNames bool) (map[model.CountryCode]*model.LunchoData, error)
	GetCountries(ctx context.Context, withLocalNames bool) (map[model.CountryCode]string, error)
	GetCountryCode(ctx context.Context) (model.CountryCode, error)

	LocalCurrencyFromLuncho(ctx context.Context, lunchoValue float64, countryCode model.CountryCode) (float64, error)
	USDollarFromLuncho(ctx context.Context, lunchoValue float64, countryCode model.CountryCode) (float64, error)
	LunchoFromLocalCurrency(ctx context.Context, localValue float64, countryCode model.CountryCode) (float64, error)
	LunchoFromUSDollar(ctx context.Context, dollarValue float64, countryCode model.CountryCode) (float64, error)
}
