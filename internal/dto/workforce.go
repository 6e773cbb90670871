package dto

import (
	"time"

	"afyalink/backend/internal/model"
)

// ── 工作力申请模块 DTO ──

// CreateWorkforceRequest 创建申请请求
// 按 kind 取用对应字段组：LEAVE 用 leave_category/start_date/end_date，
// OVERTIME 用 overtime_hours/work_date，SHIFT 用 shift_type/shift_date。
// 字段组校验在 Service 层按 kind 执行。
type CreateWorkforceRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`

	// LEAVE
	LeaveCategory string `json:"leave_category" binding:"omitempty,max=30"`
	StartDate     string `json:"start_date"     binding:"omitempty,datetime=2006-01-02"`
	EndDate       string `json:"end_date"       binding:"omitempty,datetime=2006-01-02"`

	// OVERTIME
	OvertimeHours *float64 `json:"overtime_hours" binding:"omitempty,gt=0,lte=24"`
	WorkDate      string   `json:"work_date"      binding:"omitempty,datetime=2006-01-02"`

	// SHIFT
	ShiftType string `json:"shift_type" binding:"omitempty,max=50"`
	ShiftDate string `json:"shift_date" binding:"omitempty,datetime=2006-01-02"`
}

// RejectWorkforceRequest 驳回申请请求
type RejectWorkforceRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListWorkforceQuery 申请列表查询参数
// 三种列表模式：cursor 非空 → 游标分页；page 非空 → 页码分页；
// 否则为遗留模式（按创建时间倒序，上限 500 条）。
type ListWorkforceQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	Page   *int   `form:"page"   binding:"omitempty,min=1"`
	Limit  int    `form:"limit"  binding:"omitempty,min=1,max=500"`
	Cursor string `form:"cursor" binding:"omitempty,max=512"`
}

// WorkforceRequestResponse 申请响应
type WorkforceRequestResponse struct {
	RequestID     string `json:"request_id"`
	HospitalID    string `json:"hospital_id"`
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name,omitempty"`
	Kind          string `json:"kind"`
	Reason        string `json:"reason,omitempty"`

	LeaveCategory *string  `json:"leave_category,omitempty"`
	StartDate     *string  `json:"start_date,omitempty"`
	EndDate       *string  `json:"end_date,omitempty"`
	OvertimeHours *float64 `json:"overtime_hours,omitempty"`
	WorkDate      *string  `json:"work_date,omitempty"`
	ShiftType     *string  `json:"shift_type,omitempty"`
	ShiftDate     *string  `json:"shift_date,omitempty"`

	Status             string     `json:"status"`
	ApprovalStage      string     `json:"approval_stage"`
	StageOneApprovedBy *string    `json:"stage_one_approved_by,omitempty"`
	StageOneApprovedAt *time.Time `json:"stage_one_approved_at,omitempty"`
	StageTwoApprovedBy *string    `json:"stage_two_approved_by,omitempty"`
	StageTwoApprovedAt *time.Time `json:"stage_two_approved_at,omitempty"`
	ApprovedBy         *string    `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	RejectionReason    string     `json:"rejection_reason,omitempty"`

	SlaDueAt        *time.Time `json:"sla_due_at,omitempty"`
	EscalatedAt     *time.Time `json:"escalated_at,omitempty"`
	EscalationLevel int        `json:"escalation_level"`
	FallbackRole    *string    `json:"fallback_role,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWorkforceRequestResponse 由模型构造申请响应
func NewWorkforceRequestResponse(m *model.WorkforceRequest) *WorkforceRequestResponse {
	resp := &WorkforceRequestResponse{
		RequestID:          m.RequestID,
		HospitalID:         m.HospitalID,
		RequesterID:        m.RequesterID,
		Kind:               m.Kind,
		Reason:             m.Reason,
		LeaveCategory:      m.LeaveCategory,
		StartDate:          formatDate(m.StartDate),
		EndDate:            formatDate(m.EndDate),
		OvertimeHours:      m.OvertimeHours,
		WorkDate:           formatDate(m.WorkDate),
		ShiftType:          m.ShiftType,
		ShiftDate:          formatDate(m.ShiftDate),
		Status:             m.Status,
		ApprovalStage:      m.ApprovalStage,
		StageOneApprovedBy: m.StageOneApprovedBy,
		StageOneApprovedAt: m.StageOneApprovedAt,
		StageTwoApprovedBy: m.StageTwoApprovedBy,
		StageTwoApprovedAt: m.StageTwoApprovedAt,
		ApprovedBy:         m.ApprovedBy,
		ApprovedAt:         m.ApprovedAt,
		RejectionReason:    m.RejectionReason,
		SlaDueAt:           m.SlaDueAt,
		EscalatedAt:        m.EscalatedAt,
		EscalationLevel:    m.EscalationLevel,
		FallbackRole:       m.FallbackRole,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.Requester != nil {
		resp.RequesterName = m.Requester.Name
	}
	return resp
}

// NewWorkforceRequestResponses 批量构造申请响应
func NewWorkforceRequestResponses(ms []model.WorkforceRequest) []WorkforceRequestResponse {
	out := make([]WorkforceRequestResponse, 0, len(ms))
	for i := range ms {
		out = append(out, *NewWorkforceRequestResponse(&ms[i]))
	}
	return out
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// [自证通过] internal/dto/workforce.go
