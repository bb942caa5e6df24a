package service

import (
	"context"

	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

const maxAuditRecords = 500

// AuditService reads back the access trail written by the security pipeline.
type AuditService struct {
	repo ports.AccessLogRepository
}

func NewAuditService(repo ports.AccessLogRepository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) Recent(ctx context.Context, filter ports.AccessLogFilter) ([]domain.AccessRecord, error) {
	if filter.Limit < 1 || filter.Limit > maxAuditRecords {
		filter.Limit = 100
	}
	return s.repo.Recent(ctx, filter)
}
