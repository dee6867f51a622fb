package service

import (
	"context"
	"math"
	"sort"

	"github.com/bitfantasy/nimo-qc/internal/qc/entity"
	"github.com/bitfantasy/nimo-qc/internal/qc/repository"
	"gorm.io/datatypes"
)

// LabelService 标签账本：保证每个库存标签全局至多分配给一个检验员、至多消耗一次
type LabelService struct {
	inspectorRepo *repository.InspectorRepository
	locker        *Locker
}

func NewLabelService(inspectorRepo *repository.InspectorRepository, locker *Locker) *LabelService {
	return &LabelService{
		inspectorRepo: inspectorRepo,
		locker:        locker,
	}
}

// AllocateResult 分配结果，区分净新增与已存在的标签
type AllocateResult struct {
	Added          []int64           `json:"added"`
	AlreadyPresent []int64           `json:"already_present"`
	Inspector      *entity.Inspector `json:"inspector"`
}

// Allocate 为检验员追加标签（并集）。全部标签已在该检验员名下时报错；
// 任一标签已被其他检验员持有或消耗时报错（全局排他）。
// 全局分配锁串行化排他检查与写入，防止并发分配绕过重叠扫描。
func (s *LabelService) Allocate(ctx context.Context, inspectorID string, labels []int64, actorID string) (*AllocateResult, error) {
	requested, err := dedupeLabels(labels)
	if err != nil {
		return nil, err
	}

	releaseAlloc, err := s.locker.Lock(ctx, "allocation")
	if err != nil {
		return nil, err
	}
	defer releaseAlloc()

	release, err := s.locker.Lock(ctx, "inspector:"+inspectorID)
	if err != nil {
		return nil, err
	}
	defer release()

	inspector, err := s.inspectorRepo.FindByID(ctx, inspectorID)
	if err != nil {
		return nil, err
	}

	if err := s.checkCrossInspector(ctx, inspectorID, requested); err != nil {
		return nil, err
	}

	alloted := labelSet(inspector.AllotedLabels)
	var added, present []int64
	for _, label := range requested {
		if alloted[label] {
			present = append(present, label)
		} else {
			added = append(added, label)
		}
	}

	if len(added) == 0 {
		return nil, &AlreadyAllocatedError{Labels: present}
	}

	inspector.AllotedLabels = sortedUnion(inspector.AllotedLabels, added)
	inspector.AllocatedBy = &actorID
	if err := s.inspectorRepo.Update(ctx, inspector); err != nil {
		return nil, err
	}

	return &AllocateResult{
		Added:          added,
		AlreadyPresent: present,
		Inspector:      inspector,
	}, nil
}

// Replace 整体覆盖检验员的标签集并清空已用标签
func (s *LabelService) Replace(ctx context.Context, inspectorID string, labels []int64, actorID string) (*entity.Inspector, error) {
	requested, err := dedupeLabels(labels)
	if err != nil {
		return nil, err
	}

	releaseAlloc, err := s.locker.Lock(ctx, "allocation")
	if err != nil {
		return nil, err
	}
	defer releaseAlloc()

	release, err := s.locker.Lock(ctx, "inspector:"+inspectorID)
	if err != nil {
		return nil, err
	}
	defer release()

	inspector, err := s.inspectorRepo.FindByID(ctx, inspectorID)
	if err != nil {
		return nil, err
	}

	if err := s.checkCrossInspector(ctx, inspectorID, requested); err != nil {
		return nil, err
	}

	inspector.AllotedLabels = datatypes.JSONSlice[int64](requested)
	inspector.UsedLabels = datatypes.JSONSlice[int64]{}
	inspector.AllocatedBy = &actorID
	if err := s.inspectorRepo.Update(ctx, inspector); err != nil {
		return nil, err
	}
	return inspector, nil
}

// Remove 从检验员的标签集中移除标签
func (s *LabelService) Remove(ctx context.Context, inspectorID string, labels []int64) (*entity.Inspector, error) {
	requested, err := dedupeLabels(labels)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, "inspector:"+inspectorID)
	if err != nil {
		return nil, err
	}
	defer release()

	inspector, err := s.inspectorRepo.FindByID(ctx, inspectorID)
	if err != nil {
		return nil, err
	}

	alloted := labelSet(inspector.AllotedLabels)
	found := false
	for _, label := range requested {
		if alloted[label] {
			found = true
			break
		}
	}
	if !found {
		return nil, repository.ErrNotFound
	}

	removing := labelSet(requested)
	inspector.AllotedLabels = filterLabels(inspector.AllotedLabels, removing)
	// 保持 used ⊆ alloted
	inspector.UsedLabels = filterLabels(inspector.UsedLabels, removing)
	if err := s.inspectorRepo.Update(ctx, inspector); err != nil {
		return nil, err
	}
	return inspector, nil
}

// ApplyClaim 在内存中认领标签：校验归属与单次消耗约束，把标签并入 used_labels。
// 持久化由调用方负责（验货更新在同一事务内保存检验员与验货记录）。
func (s *LabelService) ApplyClaim(inspector *entity.Inspector, labels []int64) error {
	alloted := labelSet(inspector.AllotedLabels)
	used := labelSet(inspector.UsedLabels)

	var unauthorized, alreadyUsed []int64
	for _, label := range labels {
		if !alloted[label] {
			unauthorized = append(unauthorized, label)
		} else if used[label] {
			alreadyUsed = append(alreadyUsed, label)
		}
	}

	if len(unauthorized) > 0 {
		return &UnauthorizedLabelError{
			Labels:  unauthorized,
			Alloted: inspector.AllotedLabels,
			Used:    inspector.UsedLabels,
		}
	}
	if len(alreadyUsed) > 0 {
		return &AlreadyUsedError{
			Labels:  alreadyUsed,
			Alloted: inspector.AllotedLabels,
			Used:    inspector.UsedLabels,
		}
	}

	inspector.UsedLabels = sortedUnion(inspector.UsedLabels, labels)
	return nil
}

// Claim 独立认领入口（验货更新之外的场景），带锁并立即持久化。
// 仅检验员本人或 admin/manager 可消耗该账本的标签。
func (s *LabelService) Claim(ctx context.Context, inspectorID string, labels []int64, actorID, actorRole string) (*entity.Inspector, error) {
	requested, err := dedupeLabels(labels)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, "inspector:"+inspectorID)
	if err != nil {
		return nil, err
	}
	defer release()

	inspector, err := s.inspectorRepo.FindByID(ctx, inspectorID)
	if err != nil {
		return nil, err
	}

	if actorRole != entity.RoleAdmin && actorRole != entity.RoleManager && inspector.UserID != actorID {
		return nil, &UnauthorizedError{Message: "仅检验员本人可认领该账本的标签"}
	}

	if err := s.ApplyClaim(inspector, requested); err != nil {
		return nil, err
	}
	if err := s.inspectorRepo.Update(ctx, inspector); err != nil {
		return nil, err
	}
	return inspector, nil
}

// UsageStats 标签使用统计
type UsageStats struct {
	InspectorID  string  `json:"inspector_id"`
	AllotedCount int     `json:"alloted_count"`
	UsedCount    int     `json:"used_count"`
	Unused       []int64 `json:"unused"`
	UsagePercent float64 `json:"usage_percent"`
}

// GetUsageStats 查询检验员的标签使用情况
func (s *LabelService) GetUsageStats(ctx context.Context, inspectorID string) (*UsageStats, error) {
	inspector, err := s.inspectorRepo.FindByID(ctx, inspectorID)
	if err != nil {
		return nil, err
	}

	used := labelSet(inspector.UsedLabels)
	unused := make([]int64, 0)
	for _, label := range inspector.AllotedLabels {
		if !used[label] {
			unused = append(unused, label)
		}
	}
	sort.Slice(unused, func(i, j int) bool { return unused[i] < unused[j] })

	percent := 0.0
	if len(inspector.AllotedLabels) > 0 {
		percent = float64(len(inspector.UsedLabels)) / float64(len(inspector.AllotedLabels)) * 100
		percent = math.Round(percent*100) / 100
	}

	return &UsageStats{
		InspectorID:  inspector.ID,
		AllotedCount: len(inspector.AllotedLabels),
		UsedCount:    len(inspector.UsedLabels),
		Unused:       unused,
		UsagePercent: percent,
	}, nil
}

// checkCrossInspector 全局排他检查：标签不得已被其他检验员持有或消耗
func (s *LabelService) checkCrossInspector(ctx context.Context, inspectorID string, labels []int64) error {
	others, err := s.inspectorRepo.FindOthers(ctx, inspectorID)
	if err != nil {
		return err
	}

	requested := labelSet(labels)
	for _, other := range others {
		var overlap []int64
		for _, label := range other.AllotedLabels {
			if requested[label] {
				overlap = append(overlap, label)
			}
		}
		for _, label := range other.UsedLabels {
			if requested[label] && !labelSet(overlap)[label] {
				overlap = append(overlap, label)
			}
		}
		if len(overlap) > 0 {
			sort.Slice(overlap, func(i, j int) bool { return overlap[i] < overlap[j] })
			return &AlreadyAllocatedError{Labels: overlap, OwnerID: other.ID}
		}
	}
	return nil
}

// === 标签集合辅助 ===

func dedupeLabels(labels []int64) ([]int64, error) {
	if len(labels) == 0 {
		return nil, validationErrorf("标签列表不能为空")
	}
	seen := make(map[int64]bool, len(labels))
	result := make([]int64, 0, len(labels))
	for _, label := range labels {
		if label <= 0 {
			return nil, validationErrorf("标签必须是正整数: %d", label)
		}
		if !seen[label] {
			seen[label] = true
			result = append(result, label)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

func labelSet(labels []int64) map[int64]bool {
	set := make(map[int64]bool, len(labels))
	for _, label := range labels {
		set[label] = true
	}
	return set
}

func sortedUnion(existing []int64, incoming []int64) datatypes.JSONSlice[int64] {
	set := labelSet(existing)
	result := make([]int64, 0, len(existing)+len(incoming))
	result = append(result, existing...)
	for _, label := range incoming {
		if !set[label] {
			result = append(result, label)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return datatypes.JSONSlice[int64](result)
}

func filterLabels(labels []int64, removing map[int64]bool) datatypes.JSONSlice[int64] {
	result := make([]int64, 0, len(labels))
	for _, label := range labels {
		if !removing[label] {
			result = append(result, label)
		}
	}
	return datatypes.JSONSlice[int64](result)
}
