package observability

import (
	"time"

	"go.uber.org/zap"
)

// Field aliases keep call sites free of a direct zap import.
//
//nolint:gochecknoglobals // Re-exported constructors
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Float64  = zap.Float64
	Bool     = zap.Bool
	Error    = zap.Error
	Duration = zap.Duration
)

// DurationPtr logs an optional duration, omitting it when nil.
func DurationPtr(key string, d *time.Duration) zap.Field {
	if d == nil {
		return zap.Skip()
	}
	return zap.Duration(key, *d)
}
