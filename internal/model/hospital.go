package model

// Hospital 医院表 — 对应 hospitals（多租户锚点）
type Hospital struct {
	HospitalID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"hospital_id"`
	Name       string `gorm:"type:varchar(200);not null"                     json:"name"`
	Code       string `gorm:"type:varchar(50);not null;uniqueIndex"          json:"code"`
	BaseModel
}

// TableName 指定表名
func (Hospital) TableName() string { return "hospitals" }
