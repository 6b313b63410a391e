package service

import (
	"context"

	"fleetops/internal/model"
	"fleetops/internal/repository"
)

// AuditService exposes the read side of the audit trail
type AuditService interface {
	GetAuditLogs(ctx context.Context, actor Actor, page, limit int) ([]model.AuditLog, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService returns a new instance of AuditService
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) GetAuditLogs(ctx context.Context, actor Actor, page, limit int) ([]model.AuditLog, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	logs, total, err := s.repo.List(ctx, actor.OrgID, page, limit)
	if err != nil {
		return nil, 0, storageErr("list audit logs", err)
	}
	return logs, total, nil
}
