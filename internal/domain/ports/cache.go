package ports

import (
	"context"
	"time"

	"luncho-service/internal/domain/model"
)

// LunchoStore keeps one record per country code. Get only reports records
// that are still fresh at the given time; stale ones stay stored until Set
// or ReplaceAll overwrites them.
type LunchoStore interface {
	Get(ctx context.Context, countryCode model.CountryCode, at time.Time) (*model.LunchoData, bool)
	Set(ctx context.Context, countryCode model.CountryCode, data *model.LunchoData) error
	ReplaceAll(ctx context.Context, datas map[model.CountryCode]*model.LunchoData) error
	All(ctx context.Context) map[model.CountryCode]*model.LunchoData
}
