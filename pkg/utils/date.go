package utils

import (
	"math"
	"time"
)

// EpochSeconds returns t as fractional seconds since the Unix epoch, the unit
// the Luncho API uses for expiration timestamps.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func FromEpochSeconds(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}

func FormatEpoch(sec float64) string {
	return FromEpochSeconds(sec).UTC().Format(time.RFC3339)
}
