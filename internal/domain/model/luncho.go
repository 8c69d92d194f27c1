package model

import (
	"time"

	"luncho-service/pkg/utils"
)

// LunchoData holds what is needed to convert between Luncho and the local
// currency of one country. CountryName and CurrencyName are filled in by the
// cache, not by the remote source.
type LunchoData struct {
	CountryCode     CountryCode  `json:"country_code"`
	CountryName     string       `json:"country_name,omitempty"`
	CurrencyCode    CurrencyCode `json:"currency_code"`
	CurrencyName    string       `json:"currency_name,omitempty"`
	DollarPerLuncho float64      `json:"dollar_per_luncho"`
	PPP             float64      `json:"ppp"`
	ExchangeRate    float64      `json:"exchange_rate"`
	Expiration      float64      `json:"expiration"`
}

// IsFresh reports whether the record may still be served at t.
func (d *LunchoData) IsFresh(t time.Time) bool {
	return d.Expiration > utils.EpochSeconds(t)
}

// ExpiresAt returns Expiration as a time.
func (d *LunchoData) ExpiresAt() time.Time {
	return utils.FromEpochSeconds(d.Expiration)
}

// Clone returns a copy the caller may keep without aliasing the cache.
func (d *LunchoData) Clone() *LunchoData {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

// CloneAll copies every record of m.
func CloneAll(m map[CountryCode]*LunchoData) map[CountryCode]*LunchoData {
	out := make(map[CountryCode]*LunchoData, len(m))
	for code, d := range m {
		out[code] = d.Clone()
	}
	return out
}
