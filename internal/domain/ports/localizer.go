package ports

import "luncho-service/internal/domain/model"

// Localizer resolves display names. Codes without a label come back unchanged.
type Localizer interface {
	RegionName(code model.CountryCode) string
	CurrencyName(code model.CurrencyCode) string
}
