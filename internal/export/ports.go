package export

import (
	"context"

	"evlog/internal/core"
)

// RecordWriter is the outbound port for the sheet export. Append returns
// an opaque reference to where the record landed.
type RecordWriter interface {
	Append(ctx context.Context, rec core.ChargingRecord) (ref string, err error)
}
