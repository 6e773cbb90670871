package dto

import (
	"time"

	"afyalink/backend/internal/model"
)

// ── 用户目录模块 DTO ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID         string    `json:"id"`
	HospitalID string    `json:"hospital_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewUserResponse 由模型构造用户响应
func NewUserResponse(u *model.User) *UserResponse {
	return &UserResponse{
		ID:         u.UserID,
		HospitalID: u.HospitalID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}

// NewUserResponses 批量构造用户响应
func NewUserResponses(us []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(us))
	for i := range us {
		out = append(out, *NewUserResponse(&us[i]))
	}
	return out
}

// ListUsersQuery 用户列表查询参数
type ListUsersQuery struct {
	Page  int `form:"page"  binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ImportUserItem 批量导入的单个用户
type ImportUserItem struct {
	Name  string `json:"name"  binding:"required,max=100"`
	Email string `json:"email" binding:"required,email,max=255"`
	Role  string `json:"role"  binding:"required,max=30"`
}

// ImportUsersRequest 批量导入用户请求
type ImportUsersRequest struct {
	Users []ImportUserItem `json:"users" binding:"required,min=1,max=500,dive"`
}

// ImportUsersResponse 批量导入用户响应
type ImportUsersResponse struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped,omitempty"` // 被跳过的邮箱及原因
}
