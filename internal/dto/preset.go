package dto

import (
	"time"

	"afyalink/backend/internal/model"
)

// ── 预设模块 DTO ──

// PresetConfig 预设配置（与 AutomationPolicy 字段一致，去掉 request_kind）
type PresetConfig struct {
	AutoApprove            *bool                 `json:"auto_approve"`
	RequireSecondApprover  *bool                 `json:"require_second_approver"`
	FallbackRole           *string               `json:"fallback_role"            binding:"omitempty,max=30"`
	EscalationAfterMinutes *int                  `json:"escalation_after_minutes" binding:"omitempty,min=5,max=10080"`
	Conditions             *AutomationConditions `json:"conditions"`
}

// UpsertPresetRequest 创建/更新自建预设请求
type UpsertPresetRequest struct {
	Name        string       `json:"name"        binding:"required,max=100"`
	Description string       `json:"description" binding:"omitempty,max=500"`
	Config      PresetConfig `json:"config"`
}

// PresetResponse 预设响应（内置与自建统一形态）
type PresetResponse struct {
	Key                    string               `json:"key"`
	Name                   string               `json:"name"`
	Description            string               `json:"description,omitempty"`
	Source                 string               `json:"source"` // builtin | custom
	Version                int                  `json:"version"`
	IsActive               bool                 `json:"is_active"`
	AutoApprove            bool                 `json:"auto_approve"`
	RequireSecondApprover  bool                 `json:"require_second_approver"`
	FallbackRole           string               `json:"fallback_role"`
	EscalationAfterMinutes int                  `json:"escalation_after_minutes"`
	Conditions             AutomationConditions `json:"conditions"`
	UpdatedAt              *time.Time           `json:"updated_at,omitempty"`
}

// NewPresetResponse 由自建预设模型构造响应
func NewPresetResponse(p *model.AutomationPreset) *PresetResponse {
	maxLeave := p.MaxLeaveDays
	maxOT := p.MaxOvertimeHours
	mult := p.PriorityAgeMultiplier
	cap := p.PriorityWeightCap
	t := p.UpdatedAt
	return &PresetResponse{
		Key:                    p.Key,
		Name:                   p.Name,
		Description:            p.Description,
		Source:                 model.PresetSourceCustom,
		Version:                p.Version,
		IsActive:               p.IsActive,
		AutoApprove:            p.AutoApprove,
		RequireSecondApprover:  p.RequireSecondApprover,
		FallbackRole:           p.FallbackRole,
		EscalationAfterMinutes: p.EscalationAfterMin,
		Conditions: AutomationConditions{
			MaxLeaveDays:          &maxLeave,
			MaxOvertimeHours:      &maxOT,
			AllowedShiftTypes:     p.AllowedShiftTypes,
			PriorityAgeMultiplier: &mult,
			PriorityWeightCap:     &cap,
			FallbackCandidates:    p.FallbackCandidates,
		},
		UpdatedAt: &t,
	}
}

// ApplyPresetResponse 预设应用响应
type ApplyPresetResponse struct {
	PresetKey    string   `json:"preset_key"`
	PresetSource string   `json:"preset_source"`
	AppliedKinds []string `json:"applied_kinds"`
}

// PresetHistoryEntry 预设生命周期历史条目（审计日志回放，最近优先）
type PresetHistoryEntry struct {
	Action    string        `json:"action"`
	EntityID  string        `json:"entity_id,omitempty"`
	ActorID   *string       `json:"actor_id,omitempty"`
	ActorName string        `json:"actor_name,omitempty"`
	Before    model.JSONMap `json:"before,omitempty"`
	After     model.JSONMap `json:"after,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// [自证通过] internal/dto/preset.go
