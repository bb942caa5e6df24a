package ports

import (
	"context"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

// AccessLogger receives one record per request attempt. Implementations must
// not block the request path.
type AccessLogger interface {
	Record(rec domain.AccessRecord)
}

// AccessLogRepository persists and queries the access audit trail.
type AccessLogRepository interface {
	Insert(ctx context.Context, rec domain.AccessRecord) error
	Recent(ctx context.Context, filter AccessLogFilter) ([]domain.AccessRecord, error)
}

// AccessLogFilter narrows the audit query.
type AccessLogFilter struct {
	IdentityID string
	Outcome    string
	Limit      int
}
