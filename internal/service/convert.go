package service

import (
	"context"
	"math"

	"github.com/shopspring/decimal"

	"luncho-service/internal/domain/model"
)

// Conversion directions used as the metrics label.
const (
	directionLocalFromLuncho  = "local_from_luncho"
	directionDollarFromLuncho = "usd_from_luncho"
	directionLunchoFromLocal  = "luncho_from_local"
	directionLunchoFromDollar = "luncho_from_usd"
)

// Quotients keep this many significant digits whatever their magnitude.
const quotientDigits = 17

// LocalCurrencyFromLuncho returns dollarPerLuncho * ppp * lunchoValue for the
// country. Values are not validated; negatives, NaN and infinities pass
// through the formula.
func (s *LunchoService) LocalCurrencyFromLuncho(ctx context.Context, lunchoValue float64, countryCode model.CountryCode) (float64, error) {
	s.metrics.ConversionRequestsTotal.WithLabelValues(directionLocalFromLuncho).Inc()

	data, err := s.GetLunchoData(ctx, countryCode, true)
	if err != nil {
		return 0, err
	}

	if !finite(lunchoValue, data.DollarPerLuncho, data.PPP) {
		return data.DollarPerLuncho * data.PPP * lunchoValue, nil
	}
	return localValue(data, decimal.NewFromFloat(lunchoValue)).InexactFloat64(), nil
}

// USDollarFromLuncho converts to local currency and then to US Dollars. It
// returns 0 when the country has no known exchange rate.
func (s *LunchoService) USDollarFromLuncho(ctx context.Context, lunchoValue float64, countryCode model.CountryCode) (float64, error) {
	s.metrics.ConversionRequestsTotal.WithLabelValues(directionDollarFromLuncho).Inc()

	data, err := s.GetLunchoData(ctx, countryCode, true)
	if err != nil {
		return 0, err
	}
	if data.ExchangeRate <= 0 {
		s.log.Debug("No exchange rate, returning 0", "country_code", data.CountryCode)
		return 0, nil
	}

	if !finite(lunchoValue, data.DollarPerLuncho, data.PPP, data.ExchangeRate) {
		return data.DollarPerLuncho * data.PPP * lunchoValue / data.ExchangeRate, nil
	}
	local := localValue(data, decimal.NewFromFloat(lunchoValue))
	return divide(local, decimal.NewFromFloat(data.ExchangeRate)).InexactFloat64(), nil
}

// LunchoFromLocalCurrency is the inverse of LocalCurrencyFromLuncho:
// localValue / (dollarPerLuncho * ppp). It returns 0 when that divisor is not
// positive.
func (s *LunchoService) LunchoFromLocalCurrency(ctx context.Context, localValue float64, countryCode model.CountryCode) (float64, error) {
	s.metrics.ConversionRequestsTotal.WithLabelValues(directionLunchoFromLocal).Inc()

	data, err := s.GetLunchoData(ctx, countryCode, true)
	if err != nil {
		return 0, err
	}

	if !finite(localValue, data.DollarPerLuncho, data.PPP) {
		perLuncho := data.DollarPerLuncho * data.PPP
		if !(perLuncho > 0) {
			s.log.Debug("No local value per luncho, returning 0", "country_code", data.CountryCode)
			return 0, nil
		}
		return localValue / perLuncho, nil
	}

	perLuncho := localPerLuncho(data)
	if !perLuncho.IsPositive() {
		s.log.Debug("No local value per luncho, returning 0", "country_code", data.CountryCode)
		return 0, nil
	}

	return divide(decimal.NewFromFloat(localValue), perLuncho).InexactFloat64(), nil
}

// LunchoFromUSDollar is the inverse of USDollarFromLuncho:
// dollarValue * exchangeRate / (dollarPerLuncho * ppp). It returns 0 when the
// exchange rate or the divisor is not positive.
func (s *LunchoService) LunchoFromUSDollar(ctx context.Context, dollarValue float64, countryCode model.CountryCode) (float64, error) {
	s.metrics.ConversionRequestsTotal.WithLabelValues(directionLunchoFromDollar).Inc()

	data, err := s.GetLunchoData(ctx, countryCode, true)
	if err != nil {
		return 0, err
	}

	if !finite(dollarValue, data.DollarPerLuncho, data.PPP, data.ExchangeRate) {
		perLuncho := data.DollarPerLuncho * data.PPP
		if !(data.ExchangeRate > 0) || !(perLuncho > 0) {
			s.log.Debug("Missing exchange rate or local value per luncho, returning 0", "country_code", data.CountryCode)
			return 0, nil
		}
		return dollarValue * data.ExchangeRate / perLuncho, nil
	}

	perLuncho := localPerLuncho(data)
	if data.ExchangeRate <= 0 || !perLuncho.IsPositive() {
		s.log.Debug("Missing exchange rate or local value per luncho, returning 0", "country_code", data.CountryCode)
		return 0, nil
	}

	local := decimal.NewFromFloat(dollarValue).Mul(decimal.NewFromFloat(data.ExchangeRate))
	return divide(local, perLuncho).InexactFloat64(), nil
}

func localPerLuncho(data *model.LunchoData) decimal.Decimal {
	return decimal.NewFromFloat(data.DollarPerLuncho).Mul(decimal.NewFromFloat(data.PPP))
}

func localValue(data *model.LunchoData, lunchoValue decimal.Decimal) decimal.Decimal {
	return localPerLuncho(data).Mul(lunchoValue)
}

// divide rounds the quotient at a scale derived from the operands' magnitudes
// so small results keep their significant digits instead of truncating to 0.
func divide(num, den decimal.Decimal) decimal.Decimal {
	magnitude := num.NumDigits() + int(num.Exponent()) - den.NumDigits() - int(den.Exponent())
	scale := max(decimal.DivisionPrecision, quotientDigits-magnitude)
	return num.DivRound(den, int32(scale))
}

// finite reports whether every value can be represented as a decimal.
func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
