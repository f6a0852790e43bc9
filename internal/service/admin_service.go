package service

import (
	"context"
	"fmt"
	"time"

	"ai-mentor-be/internal/dto"
	"ai-mentor-be/internal/pkg/logger"
	"ai-mentor-be/internal/pkg/serverutils"
)

type IAdminService interface {
	GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogListResponse, error)
	GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error)
}

type adminService struct {
	logger logger.ILogger
}

func NewAdminService(log logger.ILogger) IAdminService {
	return &adminService{logger: log}
}

func (s *adminService) GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	entries, err := s.logger.GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}

	out := make([]*dto.LogListResponse, len(entries))
	for i, entry := range entries {
		out[i] = &dto.LogListResponse{
			Id:        entry.Id,
			Level:     entry.Level,
			Module:    entry.Module,
			Message:   entry.Message,
			CreatedAt: parseLogTimestamp(entry.Timestamp),
		}
	}
	return out, nil
}

func (s *adminService) GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error) {
	entry, err := s.logger.GetLogById(logId)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: log %s", serverutils.ErrNotFound, logId)
	}

	return &dto.LogDetailResponse{
		LogListResponse: dto.LogListResponse{
			Id:        entry.Id,
			Level:     entry.Level,
			Module:    entry.Module,
			Message:   entry.Message,
			CreatedAt: parseLogTimestamp(entry.Timestamp),
		},
		Details: entry.Details,
	}, nil
}

func parseLogTimestamp(value string) time.Time {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}
