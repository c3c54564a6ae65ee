package dashboard

import (
	"context"
	"encoding/json"
)

// Repository exposes the backend's dashboard aggregation procedures. The
// shapes are owned by the backend; this service passes them through to the
// admin UI untouched.
type Repository interface {
	// Stats returns the dashboard cards for a month/year filter.
	// month == 0 means the whole year.
	Stats(ctx context.Context, month, year int) (json.RawMessage, error)
	// ChartSeries returns the revenue/expense series for the trailing
	// monthCount months.
	ChartSeries(ctx context.Context, monthCount int) (json.RawMessage, error)
}
