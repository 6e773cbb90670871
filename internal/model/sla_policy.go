package model

import "time"

// SlaPolicy SLA 策略表 — 对应 sla_policies，按 (医院, 申请类型) 唯一
// 查询不到存储行时回退到编译期默认表，永远不会得到"空 SLA"。
type SlaPolicy struct {
	SlaPolicyID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"sla_policy_id"`
	HospitalID        string `gorm:"type:uuid;not null;uniqueIndex:uniq_sla_hospital_kind"        json:"hospital_id"`
	RequestKind       string `gorm:"type:varchar(20);not null;uniqueIndex:uniq_sla_hospital_kind" json:"request_kind"`
	TargetMinutes     int    `gorm:"not null"              json:"target_minutes"`
	EscalationMinutes int    `gorm:"not null"              json:"escalation_minutes"`
	IsActive          bool   `gorm:"not null;default:true" json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (SlaPolicy) TableName() string { return "sla_policies" }

// DueAt 基于创建时间计算 SLA 到期时间；策略未启用时返回 nil
func (p *SlaPolicy) DueAt(createdAt time.Time) *time.Time {
	if !p.IsActive {
		return nil
	}
	due := createdAt.Add(time.Duration(p.TargetMinutes) * time.Minute)
	return &due
}
