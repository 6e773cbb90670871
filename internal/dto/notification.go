package dto

import (
	"time"

	"afyalink/backend/internal/model"
)

// ── 通知模块 DTO ──

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"is_read"`
	RelatedType *string   `json:"related_type,omitempty"`
	RelatedID   *string   `json:"related_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewNotificationResponses 批量构造通知响应
func NewNotificationResponses(ns []model.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(ns))
	for i := range ns {
		n := &ns[i]
		out = append(out, NotificationResponse{
			ID:          n.NotificationID,
			Category:    n.Category,
			Type:        n.Type,
			Title:       n.Title,
			Content:     n.Content,
			IsRead:      n.IsRead,
			RelatedType: n.RelatedType,
			RelatedID:   n.RelatedID,
			CreatedAt:   n.CreatedAt,
		})
	}
	return out
}

// ListNotificationsQuery 通知列表查询参数
type ListNotificationsQuery struct {
	UnreadOnly bool `form:"unread_only"`
	Page       int  `form:"page"  binding:"omitempty,min=1"`
	Limit      int  `form:"limit" binding:"omitempty,min=1,max=100"`
}
