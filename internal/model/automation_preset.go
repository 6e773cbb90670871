package model

// ── 预设来源 ──

const (
	PresetSourceBuiltin = "builtin" // 编译期内置，只读
	PresetSourceCustom  = "custom"  // 医院自建，可更新/停用
)

// AutomationPreset 自动化策略预设表 — 对应 automation_presets，按 (医院, preset_key) 唯一
// 仅存储医院自建预设；内置预设由编译期注册表提供，不落库。
// 配置字段与 AutomationPolicy 一致（去掉 request_kind），应用时对三种类型统一生效。
type AutomationPreset struct {
	PresetID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"preset_id"`
	HospitalID  string `gorm:"type:uuid;not null;uniqueIndex:uniq_preset_hospital_key"       json:"hospital_id"`
	Key         string `gorm:"column:preset_key;type:varchar(32);not null;uniqueIndex:uniq_preset_hospital_key" json:"key"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:varchar(500)"          json:"description,omitempty"`
	Version     int    `gorm:"not null;default:1"         json:"version"`
	IsActive    bool   `gorm:"not null;default:true"      json:"is_active"`

	AutoApprove           bool        `gorm:"not null;default:false"                   json:"auto_approve"`
	RequireSecondApprover bool        `gorm:"not null;default:false"                   json:"require_second_approver"`
	FallbackRole          string      `gorm:"type:varchar(30);not null;default:'AUTO'" json:"fallback_role"`
	EscalationAfterMin    int         `gorm:"column:escalation_after_minutes;not null;default:240" json:"escalation_after_minutes"`
	MaxLeaveDays          int         `gorm:"not null;default:3"                       json:"max_leave_days"`
	MaxOvertimeHours      float64     `gorm:"type:numeric(5,2);not null;default:2"     json:"max_overtime_hours"`
	AllowedShiftTypes     StringArray `gorm:"type:text[];not null;default:'{}'"        json:"allowed_shift_types"`
	PriorityAgeMultiplier float64     `gorm:"type:numeric(5,2);not null;default:1.0"   json:"priority_age_multiplier"`
	PriorityWeightCap     float64     `gorm:"type:numeric(5,2);not null;default:5"     json:"priority_weight_cap"`
	FallbackCandidates    StringArray `gorm:"type:text[];not null;default:'{}'"        json:"fallback_candidates"`

	BaseModel
}

// TableName 指定表名
func (AutomationPreset) TableName() string { return "automation_presets" }
