package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"procura/backend/config"
	"procura/backend/internal/model"
	"procura/backend/internal/repository"
	pkgerrors "procura/backend/pkg/errors"
	"procura/backend/pkg/mailer"
)

// ── Mock DepartmentRepository ──

type mockDeptRepo struct {
	depts map[string]*model.Department
}

func newMockDeptRepo() *mockDeptRepo {
	return &mockDeptRepo{depts: make(map[string]*model.Department)}
}

func (m *mockDeptRepo) add(d *model.Department) *model.Department {
	if d.Version == 0 {
		d.Version = 1
	}
	if d.RootID == "" {
		d.RootID = d.ID
	}
	if d.Type == "" {
		d.Type = model.DepartmentTypeDepartment
	}
	m.depts[d.ID] = d
	return d
}

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	m.add(dept)
	return nil
}

func (m *mockDeptRepo) CreateBatch(ctx context.Context, depts []*model.Department) error {
	for _, d := range depts {
		_ = m.Create(ctx, d)
	}
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := m.depts[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) GetByIDs(_ context.Context, ids []string) ([]model.Department, error) {
	var result []model.Department
	for _, id := range ids {
		if d, ok := m.depts[id]; ok {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockDeptRepo) GetInAccount(ctx context.Context, id, accountID string) (*model.Department, error) {
	d, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.AccountID != accountID {
		return nil, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (m *mockDeptRepo) CodeExists(_ context.Context, accountID, code, excludeID string) (bool, error) {
	for _, d := range m.depts {
		if d.AccountID == accountID && d.Code == code && d.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (m *mockDeptRepo) List(_ context.Context, f repository.DepartmentFilter) ([]model.Department, int64, error) {
	var result []model.Department
	for _, d := range m.depts {
		if f.Type != "" && d.Type != f.Type {
			continue
		}
		if len(f.AccountIDs) > 0 && !contains(f.AccountIDs, d.AccountID) {
			continue
		}
		if len(f.ParentIDs) > 0 && (d.ParentID == nil || !contains(f.ParentIDs, *d.ParentID)) {
			continue
		}
		if f.IDs != nil && !contains(f.IDs, d.ID) {
			continue
		}
		if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" &&
			!strings.Contains(strings.ToLower(d.Code), s) && !strings.Contains(strings.ToLower(d.Name), s) {
			continue
		}
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool {
		if f.Desc {
			return result[i].Name > result[j].Name
		}
		return result[i].Name < result[j].Name
	})

	total := int64(len(result))
	if f.Limit > 0 {
		if f.Offset >= len(result) {
			return []model.Department{}, total, nil
		}
		end := f.Offset + f.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[f.Offset:end]
	}
	return result, total, nil
}

func (m *mockDeptRepo) CountDescendants(_ context.Context, rootIDs []string) (map[string]repository.DescendantCounts, error) {
	result := make(map[string]repository.DescendantCounts)
	for _, d := range m.depts {
		if !contains(rootIDs, d.RootID) {
			continue
		}
		c := result[d.RootID]
		switch d.Type {
		case model.DepartmentTypeUnit:
			c.Units++
		case model.DepartmentTypeSubunit:
			c.Subunits++
		}
		result[d.RootID] = c
	}
	return result, nil
}

func (m *mockDeptRepo) UpdateWithVersion(_ context.Context, dept *model.Department) error {
	cur, ok := m.depts[dept.ID]
	if !ok || cur.Version != dept.Version {
		return pkgerrors.ErrOptimisticLock
	}
	dept.Version++
	cp := *dept
	m.depts[dept.ID] = &cp
	return nil
}

func (m *mockDeptRepo) ReassignRoot(_ context.Context, parentID, rootID string) (int64, error) {
	var n int64
	for _, d := range m.depts {
		if d.ParentID != nil && *d.ParentID == parentID && d.RootID != rootID {
			d.RootID = rootID
			d.Version++
			n++
		}
	}
	return n, nil
}

// ── Mock AccountRepository ──

type mockAccountRepo struct {
	accounts map[string]*model.Account
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[string]*model.Account)}
}

func (m *mockAccountRepo) GetByID(_ context.Context, id string) (*model.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAccountRepo) GetActive(ctx context.Context, id string) (*model.Account, error) {
	a, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsDisabled || a.IsDelete {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (m *mockAccountRepo) ListFamily(_ context.Context, accountID string) ([]model.Account, error) {
	var result []model.Account
	for _, a := range m.accounts {
		if a.ID == accountID || (a.ParentID != nil && *a.ParentID == accountID) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if (result[i].ParentID == nil) != (result[j].ParentID == nil) {
			return result[i].ParentID == nil
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// ── Mock ContactRepository ──

type mockContactRepo struct {
	contacts map[string]*model.Contact
}

func newMockContactRepo() *mockContactRepo {
	return &mockContactRepo{contacts: make(map[string]*model.Contact)}
}

func (m *mockContactRepo) GetByID(_ context.Context, id string) (*model.Contact, error) {
	if c, ok := m.contacts[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockContactRepo) ListByIDs(_ context.Context, ids []string, search string) ([]model.Contact, error) {
	var result []model.Contact
	s := strings.ToLower(search)
	for _, id := range ids {
		c, ok := m.contacts[id]
		if !ok {
			continue
		}
		if s != "" && !strings.Contains(strings.ToLower(c.FirstName+" "+c.LastName+" "+c.Email), s) {
			continue
		}
		result = append(result, *c)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

func (m *mockContactRepo) ListEnabledByEmail(_ context.Context, email string) ([]model.Contact, error) {
	var result []model.Contact
	for _, c := range m.contacts {
		if strings.EqualFold(c.Email, email) && !c.IsDisabled {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockContactRepo) GetEnabledIdentity(_ context.Context, id, email string) (*model.Contact, error) {
	if c, ok := m.contacts[id]; ok && c.Email == email && !c.IsDisabled {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock AccountContactRepository ──

type mockAccountContactRepo struct {
	rows []*model.AccountContact
}

func newMockAccountContactRepo() *mockAccountContactRepo {
	return &mockAccountContactRepo{}
}

func (m *mockAccountContactRepo) GetInAccount(_ context.Context, accountID, contactID string) (*model.AccountContact, error) {
	for _, ac := range m.rows {
		if ac.AccountID == accountID && ac.ContactID == contactID && !ac.IsDelete {
			cp := *ac
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAccountContactRepo) GetEnabledInAccount(_ context.Context, accountID, contactID string) (*model.AccountContact, error) {
	for _, ac := range m.rows {
		if ac.AccountID == accountID && ac.ContactID == contactID && !ac.IsDisabled {
			cp := *ac
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAccountContactRepo) ListEnabledByContacts(_ context.Context, contactIDs []string) ([]model.AccountContact, error) {
	var result []model.AccountContact
	for _, ac := range m.rows {
		if contains(contactIDs, ac.ContactID) && !ac.IsDisabled {
			result = append(result, *ac)
		}
	}
	return result, nil
}

func (m *mockAccountContactRepo) ListActiveByContact(_ context.Context, contactID string) ([]model.AccountContact, error) {
	var result []model.AccountContact
	for _, ac := range m.rows {
		if ac.ContactID == contactID && !ac.IsDelete {
			result = append(result, *ac)
		}
	}
	return result, nil
}

func (m *mockAccountContactRepo) ListEnabledByAccount(_ context.Context, accountID string, statuses []string) ([]model.AccountContact, error) {
	var result []model.AccountContact
	for _, ac := range m.rows {
		if ac.AccountID != accountID || ac.IsDisabled {
			continue
		}
		if len(statuses) > 0 && !contains(statuses, ac.Status) {
			continue
		}
		result = append(result, *ac)
	}
	return result, nil
}

func (m *mockAccountContactRepo) ListEnabledByDepartment(_ context.Context, accountID, departmentID string) ([]model.AccountContact, error) {
	var result []model.AccountContact
	for _, ac := range m.rows {
		if ac.AccountID == accountID && ac.InDepartment(departmentID) && !ac.IsDisabled {
			result = append(result, *ac)
		}
	}
	return result, nil
}

func (m *mockAccountContactRepo) ListEnabledByDepartments(_ context.Context, departmentIDs []string) ([]model.AccountContact, error) {
	var result []model.AccountContact
	for _, ac := range m.rows {
		if ac.DepartmentID != nil && contains(departmentIDs, *ac.DepartmentID) && !ac.IsDisabled {
			result = append(result, *ac)
		}
	}
	return result, nil
}

func (m *mockAccountContactRepo) SetDepartment(_ context.Context, id string, departmentID *string) error {
	for _, ac := range m.rows {
		if ac.ID == id {
			ac.DepartmentID = departmentID
			return nil
		}
	}
	return nil
}

func (m *mockAccountContactRepo) find(accountID, contactID string) *model.AccountContact {
	for _, ac := range m.rows {
		if ac.AccountID == accountID && ac.ContactID == contactID {
			return ac
		}
	}
	return nil
}

// ── Mock ApprovalRepository ──

type mockApprovalRepo struct {
	rows []*model.ContactDepartmentApproval
}

func newMockApprovalRepo() *mockApprovalRepo {
	return &mockApprovalRepo{}
}

func (m *mockApprovalRepo) ListByDepartment(_ context.Context, departmentID string) ([]model.ContactDepartmentApproval, error) {
	var result []model.ContactDepartmentApproval
	for _, a := range m.rows {
		if a.DepartmentID == departmentID {
			result = append(result, *a)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Order < result[j].Order })
	return result, nil
}

func (m *mockApprovalRepo) ListByDepartments(_ context.Context, departmentIDs []string) ([]model.ContactDepartmentApproval, error) {
	var result []model.ContactDepartmentApproval
	for _, a := range m.rows {
		if contains(departmentIDs, a.DepartmentID) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockApprovalRepo) ListByContact(_ context.Context, contactID string) ([]model.ContactDepartmentApproval, error) {
	var result []model.ContactDepartmentApproval
	for _, a := range m.rows {
		if a.ContactID == contactID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockApprovalRepo) GetByContact(_ context.Context, contactID, departmentID string) (*model.ContactDepartmentApproval, error) {
	for _, a := range m.rows {
		if a.ContactID == contactID && a.DepartmentID == departmentID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApprovalRepo) Upsert(_ context.Context, rows []model.ContactDepartmentApproval) error {
	for _, r := range rows {
		updated := false
		for _, a := range m.rows {
			if a.ContactID == r.ContactID && a.DepartmentID == r.DepartmentID {
				a.Order = r.Order
				updated = true
			}
		}
		if !updated {
			cp := r
			m.rows = append(m.rows, &cp)
		}
	}
	return nil
}

// RemapOrders 与 CASE 语句一致：所有映射基于更新前的层级同时生效
func (m *mockApprovalRepo) RemapOrders(_ context.Context, departmentID string, remap map[int]int) (int64, error) {
	var n int64
	for _, a := range m.rows {
		if a.DepartmentID != departmentID {
			continue
		}
		if nw, ok := remap[a.Order]; ok {
			a.Order = nw
			n++
		}
	}
	return n, nil
}

func (m *mockApprovalRepo) deleteWhere(pred func(a *model.ContactDepartmentApproval) bool) int64 {
	kept := m.rows[:0]
	var n int64
	for _, a := range m.rows {
		if pred(a) {
			n++
			continue
		}
		kept = append(kept, a)
	}
	m.rows = kept
	return n
}

func (m *mockApprovalRepo) DeleteAboveOrder(_ context.Context, departmentID string, maxOrder int) (int64, error) {
	return m.deleteWhere(func(a *model.ContactDepartmentApproval) bool {
		return a.DepartmentID == departmentID && a.Order > maxOrder
	}), nil
}

func (m *mockApprovalRepo) DeleteByDepartment(_ context.Context, departmentID string) (int64, error) {
	return m.deleteWhere(func(a *model.ContactDepartmentApproval) bool {
		return a.DepartmentID == departmentID
	}), nil
}

func (m *mockApprovalRepo) DeleteByContact(_ context.Context, contactID, departmentID string) error {
	m.deleteWhere(func(a *model.ContactDepartmentApproval) bool {
		return a.ContactID == contactID && a.DepartmentID == departmentID
	})
	return nil
}

// orders 部门下 contact → 层级
func (m *mockApprovalRepo) orders(departmentID string) map[string]int {
	result := make(map[string]int)
	for _, a := range m.rows {
		if a.DepartmentID == departmentID {
			result[a.ContactID] = a.Order
		}
	}
	return result
}

// ── Mock RequestorRepository ──

type mockRequestorRepo struct {
	rows []*model.ContactDepartmentRequestor
}

func newMockRequestorRepo() *mockRequestorRepo {
	return &mockRequestorRepo{}
}

func (m *mockRequestorRepo) ListByDepartment(_ context.Context, departmentID string) ([]model.ContactDepartmentRequestor, error) {
	var result []model.ContactDepartmentRequestor
	for _, r := range m.rows {
		if r.DepartmentID == departmentID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRequestorRepo) ListByDepartments(_ context.Context, departmentIDs []string) ([]model.ContactDepartmentRequestor, error) {
	var result []model.ContactDepartmentRequestor
	for _, r := range m.rows {
		if contains(departmentIDs, r.DepartmentID) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRequestorRepo) ListByContact(_ context.Context, contactID string) ([]model.ContactDepartmentRequestor, error) {
	var result []model.ContactDepartmentRequestor
	for _, r := range m.rows {
		if r.ContactID == contactID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRequestorRepo) GetByContact(_ context.Context, contactID, departmentID string) (*model.ContactDepartmentRequestor, error) {
	for _, r := range m.rows {
		if r.ContactID == contactID && r.DepartmentID == departmentID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRequestorRepo) Upsert(ctx context.Context, rows []model.ContactDepartmentRequestor) error {
	for _, r := range rows {
		if _, err := m.GetByContact(ctx, r.ContactID, r.DepartmentID); err == nil {
			continue
		}
		cp := r
		m.rows = append(m.rows, &cp)
	}
	return nil
}

func (m *mockRequestorRepo) DeleteByContact(_ context.Context, contactID, departmentID string) error {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.ContactID == contactID && r.DepartmentID == departmentID {
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return nil
}

// ── Mock OpportunityRepository ──

type mockOpportunityRepo struct {
	asRequestor map[string]int64 // contact:dept → 进行中数量
	asApprover  map[string]int64
}

func newMockOpportunityRepo() *mockOpportunityRepo {
	return &mockOpportunityRepo{asRequestor: make(map[string]int64), asApprover: make(map[string]int64)}
}

func (m *mockOpportunityRepo) CountOpenAsRequestor(_ context.Context, _, contactID, departmentID string) (int64, error) {
	return m.asRequestor[contactID+":"+departmentID], nil
}

func (m *mockOpportunityRepo) CountOpenAsApprover(_ context.Context, _, contactID, departmentID string) (int64, error) {
	return m.asApprover[contactID+":"+departmentID], nil
}

// ── Mock InvitationRepository ──

type mockInvitationRepo struct {
	invitations map[string]*model.Invitation
}

func newMockInvitationRepo() *mockInvitationRepo {
	return &mockInvitationRepo{invitations: make(map[string]*model.Invitation)}
}

func (m *mockInvitationRepo) Create(_ context.Context, inv *model.Invitation) error {
	m.invitations[inv.ID] = inv
	return nil
}

func (m *mockInvitationRepo) GetByEmailAndAccount(_ context.Context, email, accountID string) (*model.Invitation, error) {
	for _, inv := range m.invitations {
		if strings.EqualFold(inv.Email, email) && inv.AccountID == accountID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInvitationRepo) Update(_ context.Context, inv *model.Invitation) error {
	cp := *inv
	m.invitations[inv.ID] = &cp
	return nil
}

// ── Mock ActivityLogRepository ──

type mockActivityLogRepo struct {
	entries []*model.ActivityLog
}

func (m *mockActivityLogRepo) Create(_ context.Context, entry *model.ActivityLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockActivityLogRepo) count(logFrom, typ string) int {
	n := 0
	for _, e := range m.entries {
		if e.LogFrom == logFrom && e.Type == typ {
			n++
		}
	}
	return n
}

// ── Mock BudgetRepository ──

type mockBudgetRepo struct {
	entries []*model.BudgetHistory
}

func (m *mockBudgetRepo) Create(_ context.Context, entry *model.BudgetHistory) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockBudgetRepo) Remaining(_ context.Context, departmentIDs []string) (map[string]decimal.Decimal, error) {
	result := make(map[string]decimal.Decimal)
	for _, e := range m.entries {
		if !contains(departmentIDs, e.DepartmentID) {
			continue
		}
		if e.Status == model.BudgetStatusMinus {
			result[e.DepartmentID] = result[e.DepartmentID].Sub(e.Value)
		} else {
			result[e.DepartmentID] = result[e.DepartmentID].Add(e.Value)
		}
	}
	return result, nil
}

func (m *mockBudgetRepo) LastUpdate(_ context.Context, departmentIDs []string) (map[string]time.Time, error) {
	result := make(map[string]time.Time)
	for _, e := range m.entries {
		if contains(departmentIDs, e.DepartmentID) && e.CreatedAt.After(result[e.DepartmentID]) {
			result[e.DepartmentID] = e.CreatedAt
		}
	}
	return result, nil
}

// ── Mock OutboxRepository ──

type mockOutboxRepo struct {
	rows map[string]*model.NotificationOutbox
}

func newMockOutboxRepo() *mockOutboxRepo {
	return &mockOutboxRepo{rows: make(map[string]*model.NotificationOutbox)}
}

func (m *mockOutboxRepo) Enqueue(_ context.Context, entry *model.NotificationOutbox) (bool, error) {
	for _, r := range m.rows {
		if r.DedupeKey == entry.DedupeKey {
			return false, nil
		}
	}
	m.rows[entry.ID] = entry
	return true, nil
}

func (m *mockOutboxRepo) GetByIDs(_ context.Context, ids []string) ([]model.NotificationOutbox, error) {
	var result []model.NotificationOutbox
	for _, id := range ids {
		if r, ok := m.rows[id]; ok && r.Status == model.OutboxStatusPending {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockOutboxRepo) ListDue(_ context.Context, now time.Time, limit int) ([]model.NotificationOutbox, error) {
	var result []model.NotificationOutbox
	for _, r := range m.rows {
		if r.Status == model.OutboxStatusPending && !r.NextAttemptAt.After(now) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].NextAttemptAt.Before(result[j].NextAttemptAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockOutboxRepo) MarkSent(_ context.Context, id string, at time.Time) error {
	if r, ok := m.rows[id]; ok {
		r.Status = model.OutboxStatusSent
		r.Attempts++
		r.SentAt = &at
	}
	return nil
}

func (m *mockOutboxRepo) MarkFailed(_ context.Context, id string, lastErr string, nextAttempt time.Time, terminal bool) error {
	if r, ok := m.rows[id]; ok {
		r.Attempts++
		r.LastError = lastErr
		r.NextAttemptAt = nextAttempt
		if terminal {
			r.Status = model.OutboxStatusFailed
		}
	}
	return nil
}

func (m *mockOutboxRepo) DeleteForContact(_ context.Context, contactID, departmentID string) error {
	for id, r := range m.rows {
		if r.ContactID != nil && *r.ContactID == contactID && r.DepartmentID == departmentID {
			delete(m.rows, id)
		}
	}
	return nil
}

func (m *mockOutboxRepo) byKind(kind string) []*model.NotificationOutbox {
	var result []*model.NotificationOutbox
	for _, r := range m.rows {
		if r.Kind == kind {
			result = append(result, r)
		}
	}
	return result
}

// ── Mock Sender / OnceGuard ──

type mockSender struct {
	sent []mailer.Envelope
	err  error
}

func (m *mockSender) Send(_ context.Context, env mailer.Envelope) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, env)
	return nil
}

type mockGuard struct {
	held map[string]bool
	err  error
}

func newMockGuard() *mockGuard {
	return &mockGuard{held: make(map[string]bool)}
}

func (m *mockGuard) AcquireOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *mockGuard) ReleaseOnce(_ context.Context, key string) error {
	delete(m.held, key)
	return nil
}

var errMockSMTP = errors.New("smtp unavailable")

// ── 测试环境 ──

// testEnv 一组共享数据的内存 Mock，对应一个无数据库的 Repository 聚合
type testEnv struct {
	repo           *repository.Repository
	depts          *mockDeptRepo
	accounts       *mockAccountRepo
	contacts       *mockContactRepo
	accountContact *mockAccountContactRepo
	approvals      *mockApprovalRepo
	requestors     *mockRequestorRepo
	opportunities  *mockOpportunityRepo
	invitations    *mockInvitationRepo
	logs           *mockActivityLogRepo
	budgets        *mockBudgetRepo
	outbox         *mockOutboxRepo
	sender         *mockSender
	logger         *zap.Logger
}

func newTestEnv() *testEnv {
	env := &testEnv{
		depts:          newMockDeptRepo(),
		accounts:       newMockAccountRepo(),
		contacts:       newMockContactRepo(),
		accountContact: newMockAccountContactRepo(),
		approvals:      newMockApprovalRepo(),
		requestors:     newMockRequestorRepo(),
		opportunities:  newMockOpportunityRepo(),
		invitations:    newMockInvitationRepo(),
		logs:           &mockActivityLogRepo{},
		budgets:        &mockBudgetRepo{},
		outbox:         newMockOutboxRepo(),
		sender:         &mockSender{},
		logger:         zap.NewNop(),
	}
	env.repo = &repository.Repository{
		Department:     env.depts,
		Account:        env.accounts,
		Contact:        env.contacts,
		AccountContact: env.accountContact,
		Approval:       env.approvals,
		Requestor:      env.requestors,
		Opportunity:    env.opportunities,
		Invitation:     env.invitations,
		ActivityLog:    env.logs,
		Budget:         env.budgets,
		Outbox:         env.outbox,
	}
	return env
}

// notifier 使用 mockSender 的通知服务，不启用 Redis 保护
func (e *testEnv) notifier() NotificationService {
	return NewNotificationService(config.NotificationConfig{}, e.repo, e.sender, nil, e.logger)
}

// ── 测试数据 ──

const (
	testAccountID = "acc-1"
	testChildID   = "acc-child"
	otherAccount  = "acc-2"
	testAdminID   = "contact-admin"
	testAdminMail = "admin@procura.local"
)

func strPtr(s string) *string { return &s }

func (e *testEnv) addAccount(id, name string, parentID *string) *model.Account {
	a := &model.Account{ID: id, Name: name, ParentID: parentID, MemberType: model.MemberTypeRegular}
	e.accounts.accounts[id] = a
	return a
}

func (e *testEnv) addContact(id, email string) *model.Contact {
	c := &model.Contact{ID: id, Email: email, FirstName: strings.ToUpper(id[:1]) + id[1:], LastName: "Test"}
	e.contacts.contacts[id] = c
	return c
}

func (e *testEnv) linkContact(accountID, contactID string, admin bool, departmentID *string) *model.AccountContact {
	ac := &model.AccountContact{
		ID:           "ac-" + accountID + "-" + contactID,
		AccountID:    accountID,
		ContactID:    contactID,
		DepartmentID: departmentID,
		IsAdmin:      admin,
		Status:       model.ContactStatusActivated,
	}
	e.accountContact.rows = append(e.accountContact.rows, ac)
	return ac
}

func (e *testEnv) addDept(id, accountID, code, name string, approvalNumber int) *model.Department {
	return e.depts.add(&model.Department{
		ID:             id,
		AccountID:      accountID,
		Code:           code,
		Name:           name,
		Type:           model.DepartmentTypeDepartment,
		RootID:         id,
		ApprovalNumber: approvalNumber,
		PriceLimit:     decimal.NewFromInt(1000),
		ShoppingLimit:  decimal.NewFromInt(5000),
	})
}

func (e *testEnv) addChild(id string, parent *model.Department, typ model.DepartmentType, name string) *model.Department {
	pid := parent.ID
	return e.depts.add(&model.Department{
		ID:        id,
		AccountID: parent.AccountID,
		Code:      strings.ToUpper(id),
		Name:      name,
		Type:      typ,
		ParentID:  &pid,
		RootID:    parent.RootID,
	})
}

func (e *testEnv) addApproval(contactID, departmentID string, order int) {
	e.approvals.rows = append(e.approvals.rows, &model.ContactDepartmentApproval{
		ID: "apv-" + contactID + "-" + departmentID, ContactID: contactID, DepartmentID: departmentID, Order: order,
	})
}

func (e *testEnv) addRequestor(contactID, departmentID string) {
	e.requestors.rows = append(e.requestors.rows, &model.ContactDepartmentRequestor{
		ID: "req-" + contactID + "-" + departmentID, ContactID: contactID, DepartmentID: departmentID,
	})
}

// seedAccount 账号 acc-1（含子账号 acc-child）与一个管理员联系人
func (e *testEnv) seedAccount() {
	e.addAccount(testAccountID, "Acme", nil)
	e.addAccount(testChildID, "Acme Branch", strPtr(testAccountID))
	e.addAccount(otherAccount, "Globex", nil)
	e.addContact(testAdminID, testAdminMail)
	e.linkContact(testAccountID, testAdminID, true, nil)
}

// adminCaller 平台签发 Token 的账号管理员
func adminCaller() *Caller {
	c := &Caller{}
	c.AccountID = testAccountID
	c.ContactID = testAdminID
	c.Email = testAdminMail
	c.IsAdmin = true
	return c
}

// memberCaller 普通成员
func memberCaller(contactID, email string) *Caller {
	c := &Caller{}
	c.AccountID = testAccountID
	c.ContactID = contactID
	c.Email = email
	return c
}

func cmsCaller() *Caller {
	return &Caller{IsCMS: true}
}

