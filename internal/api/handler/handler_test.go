package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"procura/backend/internal/api/middleware"
	"procura/backend/internal/dto"
	"procura/backend/internal/model"
	"procura/backend/internal/service"
	pkgerrors "procura/backend/pkg/errors"
	"procura/backend/pkg/jwt"
	"procura/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock DepartmentService ──

type mockDepartmentService struct {
	createResult *dto.DepartmentResponse
	createErr    error
	bulkResult   []dto.DepartmentResponse
	bulkErr      error
	detail       *dto.DepartmentDetailResponse
	detailErr    error
	page         *dto.PageResult[dto.DepartmentResponse]
	filter       []dto.DepartmentFilterItem
	updateResult *dto.DepartmentResponse
	updateErr    error
	contacts     []dto.ContactBrief

	lastCaller  *service.Caller
	lastAccount string
	lastID      string
	lastSearch  string
	lastList    *dto.DepartmentListRequest
	bulkItems   []dto.BulkDepartmentItem
}

func (m *mockDepartmentService) Create(_ context.Context, caller *service.Caller, _ *dto.CreateDepartmentRequest) (*dto.DepartmentResponse, error) {
	m.lastCaller = caller
	return m.createResult, m.createErr
}
func (m *mockDepartmentService) BulkCreate(_ context.Context, _ *service.Caller, accountID string, items []dto.BulkDepartmentItem) ([]dto.DepartmentResponse, error) {
	m.lastAccount, m.bulkItems = accountID, items
	return m.bulkResult, m.bulkErr
}
func (m *mockDepartmentService) GetDetail(_ context.Context, _ *service.Caller, id string) (*dto.DepartmentDetailResponse, error) {
	m.lastID = id
	return m.detail, m.detailErr
}
func (m *mockDepartmentService) List(_ context.Context, _ *service.Caller, req *dto.DepartmentListRequest) (*dto.PageResult[dto.DepartmentResponse], error) {
	m.lastList = req
	return m.page, nil
}
func (m *mockDepartmentService) ListForFilter(_ context.Context, _ *service.Caller, accountID string) ([]dto.DepartmentFilterItem, error) {
	m.lastAccount = accountID
	return m.filter, nil
}
func (m *mockDepartmentService) Update(_ context.Context, _ *service.Caller, id string, _ *dto.UpdateDepartmentRequest) (*dto.DepartmentResponse, error) {
	m.lastID = id
	return m.updateResult, m.updateErr
}
func (m *mockDepartmentService) ListContacts(_ context.Context, _ *service.Caller, id, search string) ([]dto.ContactBrief, error) {
	m.lastID, m.lastSearch = id, search
	return m.contacts, nil
}

// ── Mock AssignmentService ──

type mockAssignmentService struct {
	assignResult *dto.AssignContactResponse
	assignErr    error
	bulkResult   []dto.BulkApproverResult
	removeErr    error

	lastDept    string
	lastContact string
}

func (m *mockAssignmentService) Assign(_ context.Context, _ *service.Caller, departmentID string, _ *dto.AssignContactRequest) (*dto.AssignContactResponse, error) {
	m.lastDept = departmentID
	return m.assignResult, m.assignErr
}
func (m *mockAssignmentService) BulkApprovers(_ context.Context, _ *service.Caller, _ string, _ *dto.BulkApproverRequest) ([]dto.BulkApproverResult, error) {
	return m.bulkResult, nil
}
func (m *mockAssignmentService) RemoveContact(_ context.Context, _ *service.Caller, departmentID, contactID string) error {
	m.lastDept, m.lastContact = departmentID, contactID
	return m.removeErr
}

// ── Mock InvitationService ──

type mockInvitationService struct {
	inviteResult []dto.InvitationResult
	bulkResult   []dto.DepartmentInvitationResult
	bulkErr      error
	called       bool
}

func (m *mockInvitationService) InviteToDepartment(_ context.Context, _ *service.Caller, _ string, _ *dto.ContactInvitationRequest) ([]dto.InvitationResult, error) {
	m.called = true
	return m.inviteResult, nil
}
func (m *mockInvitationService) BulkInvite(_ context.Context, _ *service.Caller, _ string, _ []dto.DepartmentInvitation) ([]dto.DepartmentInvitationResult, error) {
	m.called = true
	return m.bulkResult, m.bulkErr
}

// ── Mock UnitService ──

type mockUnitService struct {
	lastType   model.DepartmentType
	lastParent string
	result     *dto.UnitResponse
}

func (m *mockUnitService) Create(_ context.Context, _ *service.Caller, typ model.DepartmentType, _ *dto.UnitRequest) (*dto.UnitResponse, error) {
	m.lastType = typ
	return m.result, nil
}
func (m *mockUnitService) Update(_ context.Context, _ *service.Caller, typ model.DepartmentType, _ string, _ *dto.UnitRequest) (*dto.UnitResponse, error) {
	m.lastType = typ
	return m.result, nil
}
func (m *mockUnitService) Get(_ context.Context, typ model.DepartmentType, _ string) (*dto.UnitResponse, error) {
	m.lastType = typ
	return m.result, nil
}
func (m *mockUnitService) List(_ context.Context, _ *service.Caller, typ model.DepartmentType, parentID string, req *dto.UnitListRequest) (*dto.PageResult[dto.UnitResponse], error) {
	m.lastType, m.lastParent = typ, parentID
	return &dto.PageResult[dto.UnitResponse]{List: []dto.UnitResponse{}, Page: req.GetPage(), Limit: req.GetLimit()}, nil
}

// ── Mock TreeService ──

type mockTreeService struct {
	called   string
	allowed  bool
	message  string
	lastArgs []string
}

func (m *mockTreeService) AccountTree(_ context.Context, _ *service.Caller) (*service.TreeResult[dto.AccountDepartments], error) {
	m.called = "tree"
	return &service.TreeResult[dto.AccountDepartments]{Items: []dto.AccountDepartments{{AccountID: "acc-1"}}, Allowed: m.allowed, Message: m.message}, nil
}
func (m *mockTreeService) Units(_ context.Context, _ *service.Caller, accountID, deptIDs string) (*service.TreeResult[dto.UnitNode], error) {
	m.called, m.lastArgs = "units", []string{accountID, deptIDs}
	return &service.TreeResult[dto.UnitNode]{Items: []dto.UnitNode{}, Allowed: m.allowed, Message: m.message}, nil
}
func (m *mockTreeService) Subunits(_ context.Context, _ *service.Caller, accountID, unitIDs string) (*service.TreeResult[dto.SubunitNode], error) {
	m.called, m.lastArgs = "subunits", []string{accountID, unitIDs}
	return &service.TreeResult[dto.SubunitNode]{Items: []dto.SubunitNode{}, Allowed: m.allowed, Message: m.message}, nil
}
func (m *mockTreeService) Requestors(_ context.Context, _ *service.Caller, _ *dto.RequestorListRequest) ([]dto.RequestorItem, error) {
	m.called = "requestors"
	return nil, service.ErrRequestorNotAllowed
}

// ── Mock ExportService ──

type mockExportService struct {
	buf         *bytes.Buffer
	filename    string
	err         error
	lastAccount string
}

func (m *mockExportService) ExportDepartments(_ context.Context, _ *service.Caller, accountID string) (*bytes.Buffer, string, error) {
	m.lastAccount = accountID
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

var testIdentity = jwt.Identity{
	AccountID: "acc-1",
	ContactID: "contact-admin",
	Email:     "admin@procura.local",
	IsAdmin:   true,
}

// withAuth 模拟 JWTAuth 注入的上下文
func withAuth(identity jwt.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &jwt.Claims{Identity: identity, TokenType: "access"})
		c.Set(middleware.IsCMSKey, false)
		c.Set(middleware.RequestIDKey, "req-1")
		c.Next()
	}
}

func newRouter(authed bool) *gin.Engine {
	r := gin.New()
	if authed {
		r.Use(withAuth(testIdentity))
	}
	return r
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func do(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func validCreateBody() dto.CreateDepartmentRequest {
	return dto.CreateDepartmentRequest{
		AccountID:      "acc-1",
		Code:           "fin-01",
		Name:           "Finance",
		ApprovalNumber: 2,
		PriceLimit:     decimal.NewFromInt(100),
		ShoppingLimit:  decimal.NewFromInt(500),
	}
}

// ═══════════════════════════════════════════════════════════
// DepartmentHandler Tests
// ═══════════════════════════════════════════════════════════

func TestDepartmentHandler_Create_Success(t *testing.T) {
	mock := &mockDepartmentService{createResult: &dto.DepartmentResponse{ID: "d1", Code: "FIN-01"}}
	h := NewDepartmentHandler(mock)
	r := newRouter(true)
	r.POST("/departments", h.CreateDepartment)

	w := do(r, "POST", "/departments", jsonBody(validCreateBody()))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if resp := parseResponse(w); !resp.Status || resp.Message != "Success" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if mock.lastCaller == nil || mock.lastCaller.AccountID != "acc-1" || mock.lastCaller.Meta.RequestID != "req-1" {
		t.Errorf("caller not built from claims: %+v", mock.lastCaller)
	}
}

func TestDepartmentHandler_Create_ValidationErrors(t *testing.T) {
	mock := &mockDepartmentService{}
	h := NewDepartmentHandler(mock)
	r := newRouter(true)
	r.POST("/departments", h.CreateDepartment)

	body := validCreateBody()
	body.Code = "FIN 01"
	body.Name = ""
	w := do(r, "POST", "/departments", jsonBody(body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var raw struct {
		Errors []dto.FieldError `json:"errors"`
	}
	json.Unmarshal(w.Body.Bytes(), &raw)
	fields := map[string]bool{}
	for _, fe := range raw.Errors {
		fields[fe.Field] = true
	}
	if !fields["code"] || !fields["name"] {
		t.Errorf("expected errors for code and name, got %+v", raw.Errors)
	}
	if mock.lastCaller != nil {
		t.Error("service must not be called on invalid input")
	}
}

func TestDepartmentHandler_Create_BadJSON(t *testing.T) {
	h := NewDepartmentHandler(&mockDepartmentService{})
	r := newRouter(true)
	r.POST("/departments", h.CreateDepartment)

	w := do(r, "POST", "/departments", strings.NewReader("invalid json"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Message != "Invalid request body" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}

func TestDepartmentHandler_Unauthenticated(t *testing.T) {
	h := NewDepartmentHandler(&mockDepartmentService{})
	r := newRouter(false)
	r.GET("/departments/:id", h.GetDepartment)

	w := do(r, "GET", "/departments/d1", nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestDepartmentHandler_List(t *testing.T) {
	mock := &mockDepartmentService{page: &dto.PageResult[dto.DepartmentResponse]{
		List: []dto.DepartmentResponse{{ID: "d1"}, {ID: "d2"}}, Total: 12, Page: 2, Limit: 2,
	}}
	h := NewDepartmentHandler(mock)
	r := newRouter(true)
	r.GET("/departments", h.ListDepartments)

	w := do(r, "GET", "/departments?page=2&limit=2&sortBy=code&sort=desc&search=fin", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp.Meta == nil || resp.Meta.TotalPages != 6 || resp.Meta.TotalRecords != 12 {
		t.Errorf("unexpected meta: %+v", resp.Meta)
	}
	if mock.lastList.SortBy != "code" || mock.lastList.Search != "fin" {
		t.Errorf("query not bound: %+v", mock.lastList)
	}
}

func TestDepartmentHandler_List_InvalidSort(t *testing.T) {
	h := NewDepartmentHandler(&mockDepartmentService{})
	r := newRouter(true)
	r.GET("/departments", h.ListDepartments)

	w := do(r, "GET", "/departments?sortBy=password", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestDepartmentHandler_List_AllUsesFilterList(t *testing.T) {
	mock := &mockDepartmentService{filter: []dto.DepartmentFilterItem{{ID: "d1"}}}
	h := NewDepartmentHandler(mock)
	r := newRouter(true)
	r.GET("/departments", h.ListDepartments)

	w := do(r, "GET", "/departments?all=true&accountId=acc-1", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastAccount != "acc-1" || mock.lastList != nil {
		t.Error("all=true should call ListForFilter only")
	}
	if resp := parseResponse(w); resp.Meta != nil {
		t.Error("filter list should not carry pagination meta")
	}
}

func TestDepartmentHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", service.ErrDepartmentNotFound, http.StatusNotFound, service.ErrDepartmentNotFound.Message},
		{"optimistic lock", pkgerrors.ErrOptimisticLock, http.StatusBadRequest, pkgerrors.ErrOptimisticLock.Error()},
		{"forbidden", pkgerrors.Forbidden("not allowed"), http.StatusForbidden, "not allowed"},
		{"internal", errors.New("pq: deadlock detected"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDepartmentHandler(&mockDepartmentService{updateErr: tt.err})
			r := newRouter(true)
			r.PUT("/departments/:id", h.UpdateDepartment)

			body := dto.UpdateDepartmentRequest{
				AccountID: "acc-1", Code: "FIN", Name: "Finance",
				PriceLimit: decimal.NewFromInt(1), ShoppingLimit: decimal.NewFromInt(2),
			}
			w := do(r, "PUT", "/departments/d1", jsonBody(body))

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Message != tt.wantMsg || resp.Status {
				t.Errorf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestDepartmentHandler_BulkCreate(t *testing.T) {
	mock := &mockDepartmentService{bulkResult: []dto.DepartmentResponse{{ID: "d1"}}}
	h := NewDepartmentHandler(mock)
	r := newRouter(true)
	r.POST("/accounts/:accountId/departments", h.BulkCreateDepartments)

	item := dto.BulkDepartmentItem{Code: "FIN", Name: "Finance", PriceLimit: decimal.NewFromInt(1), ShoppingLimit: decimal.NewFromInt(2)}
	w := do(r, "POST", "/accounts/acc-1/departments", jsonBody(dto.BulkCreateDepartmentRequest{
		Department: []dto.BulkDepartmentItem{item, item},
	}))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if mock.lastAccount != "acc-1" || len(mock.bulkItems) != 2 {
		t.Errorf("unexpected service input: account=%s items=%d", mock.lastAccount, len(mock.bulkItems))
	}

	empty := do(r, "POST", "/accounts/acc-1/departments", jsonBody(dto.BulkCreateDepartmentRequest{}))
	if empty.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty list, got %d", empty.Code)
	}
}

func TestDepartmentHandler_BulkCreate_DuplicateDetails(t *testing.T) {
	details := []dto.BulkCodeResult{{CodeMessage: 1, Code: "FIN"}}
	mock := &mockDepartmentService{bulkErr: pkgerrors.Validation("Duplicate code").WithDetails(details)}
	h := NewDepartmentHandler(mock)
	r := newRouter(true)
	r.POST("/accounts/:accountId/departments", h.BulkCreateDepartments)

	item := dto.BulkDepartmentItem{Code: "FIN", Name: "Finance"}
	w := do(r, "POST", "/accounts/acc-1/departments", jsonBody(dto.BulkCreateDepartmentRequest{
		Department: []dto.BulkDepartmentItem{item},
	}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var raw struct {
		Errors []dto.BulkCodeResult `json:"errors"`
	}
	json.Unmarshal(w.Body.Bytes(), &raw)
	if len(raw.Errors) != 1 || raw.Errors[0].Code != "FIN" {
		t.Errorf("expected per-item details, got %+v", raw.Errors)
	}
}

func TestDepartmentHandler_ListContacts(t *testing.T) {
	mock := &mockDepartmentService{contacts: []dto.ContactBrief{{ID: "c1"}}}
	h := NewDepartmentHandler(mock)
	r := newRouter(true)
	r.GET("/departments/:id/contacts", h.ListContacts)

	w := do(r, "GET", "/departments/d1/contacts?search=ann", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastID != "d1" || mock.lastSearch != "ann" {
		t.Errorf("unexpected service input: id=%s search=%s", mock.lastID, mock.lastSearch)
	}
}

// ═══════════════════════════════════════════════════════════
// AssignmentHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAssignmentHandler_Assign_Success(t *testing.T) {
	mock := &mockAssignmentService{assignResult: &dto.AssignContactResponse{ID: "d1"}}
	h := NewAssignmentHandler(mock)
	r := newRouter(true)
	r.POST("/department/:id/assign", h.Assign)

	w := do(r, "POST", "/department/d1/assign", jsonBody(dto.AssignContactRequest{
		AccountID: "acc-1",
		Requestor: []string{"c1"},
		Approver:  []dto.ApproverGroup{{ContactID: []string{"c2"}, Order: 1}},
	}))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp.Message != "Assign requestor & approval success" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if mock.lastDept != "d1" {
		t.Errorf("expected department d1, got %s", mock.lastDept)
	}
}

func TestAssignmentHandler_Assign_MissingAccount(t *testing.T) {
	h := NewAssignmentHandler(&mockAssignmentService{})
	r := newRouter(true)
	r.POST("/department/:id/assign", h.Assign)

	w := do(r, "POST", "/department/d1/assign", jsonBody(map[string]interface{}{"requestor": []string{"c1"}}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAssignmentHandler_RemoveContact(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := &mockAssignmentService{}
		h := NewAssignmentHandler(mock)
		r := newRouter(true)
		r.DELETE("/department/:id/contact/:contactId", h.RemoveContact)

		w := do(r, "DELETE", "/department/d1/contact/c9", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if mock.lastDept != "d1" || mock.lastContact != "c9" {
			t.Errorf("unexpected params: %s %s", mock.lastDept, mock.lastContact)
		}
	})

	t.Run("ongoing transaction", func(t *testing.T) {
		mock := &mockAssignmentService{removeErr: service.ErrOngoingTransaction}
		h := NewAssignmentHandler(mock)
		r := newRouter(true)
		r.DELETE("/department/:id/contact/:contactId", h.RemoveContact)

		w := do(r, "DELETE", "/department/d1/contact/c9", nil)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		if resp := parseResponse(w); resp.Message != service.ErrOngoingTransaction.Message {
			t.Errorf("unexpected message: %q", resp.Message)
		}
	})
}

// ═══════════════════════════════════════════════════════════
// InvitationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestInvitationHandler_InviteToDepartment(t *testing.T) {
	mock := &mockInvitationService{inviteResult: []dto.InvitationResult{{Email: "a@procura.local", Status: true}}}
	h := NewInvitationHandler(mock)
	r := newRouter(true)
	r.POST("/department/:id/contact", h.InviteToDepartment)

	w := do(r, "POST", "/department/d1/contact", jsonBody(dto.ContactInvitationRequest{
		AccountID: "acc-1", Email: []string{"a@procura.local"},
	}))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	resp := parseResponse(w)
	if items, ok := resp.Data.([]interface{}); !ok || len(items) != 1 {
		t.Errorf("expected per-email results, got %+v", resp.Data)
	}
}

func TestInvitationHandler_BulkInvite(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		mock := &mockInvitationService{}
		h := NewInvitationHandler(mock)
		r := newRouter(true)
		r.POST("/accounts/:accountId/invitations", h.BulkInvite)

		w := do(r, "POST", "/accounts/acc-1/invitations", strings.NewReader("[]"))

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		if mock.called {
			t.Error("service must not be called for empty list")
		}
	})

	t.Run("none succeeded carries results", func(t *testing.T) {
		results := []dto.DepartmentInvitationResult{{Status: false, Message: "Department doesn't exist"}}
		mock := &mockInvitationService{bulkErr: service.ErrInviteNoneSucceeded.WithDetails(results)}
		h := NewInvitationHandler(mock)
		r := newRouter(true)
		r.POST("/accounts/:accountId/invitations", h.BulkInvite)

		w := do(r, "POST", "/accounts/acc-1/invitations", jsonBody([]dto.DepartmentInvitation{
			{DepartmentID: "missing", Email: []string{"a@procura.local"}},
		}))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		var raw struct {
			Errors []dto.DepartmentInvitationResult `json:"errors"`
		}
		json.Unmarshal(w.Body.Bytes(), &raw)
		if len(raw.Errors) != 1 || raw.Errors[0].Message != "Department doesn't exist" {
			t.Errorf("expected per-department results, got %+v", raw.Errors)
		}
	})
}

// ═══════════════════════════════════════════════════════════
// UnitHandler Tests
// ═══════════════════════════════════════════════════════════

func TestUnitHandler_TypePerRoute(t *testing.T) {
	mock := &mockUnitService{result: &dto.UnitResponse{ID: "s1"}}
	unit := NewUnitHandler(mock, model.DepartmentTypeUnit)
	subunit := NewUnitHandler(mock, model.DepartmentTypeSubunit)
	r := newRouter(true)
	r.GET("/unit-bussiness", unit.List)
	r.POST("/subunit-bussiness", subunit.Create)

	w := do(r, "GET", "/unit-bussiness?parentId=d1&search=pay", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastType != model.DepartmentTypeUnit || mock.lastParent != "d1" {
		t.Errorf("unexpected list input: type=%s parent=%s", mock.lastType, mock.lastParent)
	}
	if resp := parseResponse(w); resp.Meta == nil || resp.Meta.Limit != 10 {
		t.Errorf("expected default pagination meta, got %+v", resp.Meta)
	}

	w = do(r, "POST", "/subunit-bussiness", jsonBody(dto.UnitRequest{
		AccountID: "acc-1", ParentID: "u1", Code: "INV", Name: "Invoices",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if mock.lastType != model.DepartmentTypeSubunit {
		t.Errorf("expected SUBUNIT, got %s", mock.lastType)
	}
}

// ═══════════════════════════════════════════════════════════
// TreeHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTreeHandler_DepartmentTree_Dispatch(t *testing.T) {
	tests := []struct {
		query    string
		want     string
		wantArgs []string
	}{
		{"", "tree", nil},
		{"?account_id=acc-1", "tree", nil},
		{"?account_id=acc-1&dept_id=d1,d2", "units", []string{"acc-1", "d1,d2"}},
		{"?account_id=acc-1&unit_id=u1", "subunits", []string{"acc-1", "u1"}},
	}
	for _, tt := range tests {
		t.Run(tt.want+tt.query, func(t *testing.T) {
			mock := &mockTreeService{allowed: true}
			h := NewTreeHandler(mock)
			r := newRouter(true)
			r.GET("/department-tree", h.DepartmentTree)

			w := do(r, "GET", "/department-tree"+tt.query, nil)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			if mock.called != tt.want {
				t.Errorf("expected %s, got %s", tt.want, mock.called)
			}
			for i, arg := range tt.wantArgs {
				if mock.lastArgs[i] != arg {
					t.Errorf("arg %d: expected %s, got %s", i, arg, mock.lastArgs[i])
				}
			}
		})
	}
}

func TestTreeHandler_DepartmentTree_NotAllowed(t *testing.T) {
	mock := &mockTreeService{message: "Account not allowed"}
	h := NewTreeHandler(mock)
	r := newRouter(true)
	r.GET("/department-tree", h.DepartmentTree)

	w := do(r, "GET", "/department-tree?account_id=acc-2&dept_id=d9", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Status || resp.Message != "Account not allowed" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if items, ok := resp.Data.([]interface{}); !ok || len(items) != 0 {
		t.Errorf("expected empty list, got %+v", resp.Data)
	}
}

func TestTreeHandler_Requestors_Forbidden(t *testing.T) {
	h := NewTreeHandler(&mockTreeService{})
	r := newRouter(true)
	r.GET("/requestors", h.Requestors)

	w := do(r, "GET", "/requestors?accountId=acc-2", nil)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Success(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("excel content"), filename: "departments_Acme Corp.xlsx"}
	h := NewExportHandler(mock)
	r := newRouter(true)
	r.GET("/departments/export", h.ExportDepartments)

	w := do(r, "GET", "/departments/export", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "departments_Acme+Corp.xlsx") {
		t.Errorf("unexpected Content-Disposition: %s", cd)
	}
	if mock.lastAccount != "acc-1" {
		t.Errorf("expected token account as default, got %s", mock.lastAccount)
	}
}

func TestExportHandler_NoDepartments(t *testing.T) {
	mock := &mockExportService{err: service.ErrExportNoDepartments}
	h := NewExportHandler(mock)
	r := newRouter(true)
	r.GET("/departments/export", h.ExportDepartments)

	w := do(r, "GET", "/departments/export?accountId=acc-1", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// Validator Tests
// ═══════════════════════════════════════════════════════════

func TestValidateDeptCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"FIN", true},
		{"fin-01", true},
		{"OPS_2", true},
		{"FIN 01", false},
		{"财务", false},
		{strings.Repeat("A", 51), false},
	}
	for _, tt := range tests {
		if got := deptCodePattern.MatchString(tt.code); got != tt.want {
			t.Errorf("code %q: expected %v, got %v", tt.code, tt.want, got)
		}
	}
}
