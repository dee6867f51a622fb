package service

import "fmt"

// 领域错误类型，handler 层通过 errors.As 统一映射为响应码。
// 标签相关错误携带结构化负载，便于前端展示具体冲突标签。

// ValidationError 输入不合法
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError 重复对齐或并发修改冲突
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// UnauthorizedError 操作者无权操作该记录
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string { return e.Message }

// FinalizedError 验货记录已完结，拒绝全部更新
type FinalizedError struct {
	Message string
}

func (e *FinalizedError) Error() string { return e.Message }

// NoPendingQuantityError 无待验数量，仅允许一次性字段补录
type NoPendingQuantityError struct {
	Message string
}

func (e *NoPendingQuantityError) Error() string { return e.Message }

// ImmutableFieldError 一次性字段冲突写入
type ImmutableFieldError struct {
	Field   string
	Message string
}

func (e *ImmutableFieldError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("字段 %s 已设置，不可修改", e.Field)
}

// UnauthorizedLabelError 标签未分配给该检验员
type UnauthorizedLabelError struct {
	Labels  []int64
	Alloted []int64
	Used    []int64
}

func (e *UnauthorizedLabelError) Error() string {
	return fmt.Sprintf("标签 %v 未分配给该检验员", e.Labels)
}

// Details 结构化负载，用于前端展示
func (e *UnauthorizedLabelError) Details() map[string]interface{} {
	return map[string]interface{}{
		"labels":         e.Labels,
		"alloted_labels": e.Alloted,
		"used_labels":    e.Used,
	}
}

// AlreadyUsedError 标签已被消耗
type AlreadyUsedError struct {
	Labels  []int64
	Alloted []int64
	Used    []int64
}

func (e *AlreadyUsedError) Error() string {
	return fmt.Sprintf("标签 %v 已被使用", e.Labels)
}

func (e *AlreadyUsedError) Details() map[string]interface{} {
	return map[string]interface{}{
		"labels":         e.Labels,
		"alloted_labels": e.Alloted,
		"used_labels":    e.Used,
	}
}

// AlreadyAllocatedError 标签已被分配（本人或其他检验员）
type AlreadyAllocatedError struct {
	Labels  []int64
	OwnerID string // 持有这些标签的检验员，空表示本人
}

func (e *AlreadyAllocatedError) Error() string {
	if e.OwnerID != "" {
		return fmt.Sprintf("标签 %v 已分配给检验员 %s", e.Labels, e.OwnerID)
	}
	return fmt.Sprintf("标签 %v 已分配给该检验员", e.Labels)
}

func (e *AlreadyAllocatedError) Details() map[string]interface{} {
	return map[string]interface{}{
		"labels":   e.Labels,
		"owner_id": e.OwnerID,
	}
}
