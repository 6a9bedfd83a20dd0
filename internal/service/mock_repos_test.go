package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/milith0kun/Portafolio-sub000/internal/model"
	"github.com/milith0kun/Portafolio-sub000/internal/repository"
	pkgerrors "github.com/milith0kun/Portafolio-sub000/pkg/errors"
)

// ── Mock transaction boundary ──

// mockTxBoundary gives map-backed aggregates a real unit of work: Begin
// snapshots the mutable stores and Rollback restores them. Commit keeps
// the writes, which already landed in the maps.
type mockTxBoundary struct {
	repo   *repository.Repository
	cycles *mockCycleRepo
	gates  *mockModuleGateRepo
	nodes  *mockPortfolioNodeRepo
}

func (b *mockTxBoundary) Begin(_ context.Context) (*repository.Repository, repository.Tx, error) {
	return b.repo, &mockTx{
		boundary: b,
		cycles:   snapshotMap(b.cycles.cycles),
		gates:    snapshotMap(b.gates.gates),
		nodes:    snapshotMap(b.nodes.nodes),
	}, nil
}

type mockTx struct {
	boundary *mockTxBoundary
	cycles   map[string]*model.AcademicCycle
	gates    map[string]*model.ModuleGate
	nodes    map[string]*model.PortfolioNode
}

func (t *mockTx) Commit() error { return nil }

func (t *mockTx) Rollback() error {
	t.boundary.cycles.cycles = t.cycles
	t.boundary.gates.gates = t.gates
	t.boundary.nodes.nodes = t.nodes
	return nil
}

func snapshotMap[K comparable, V any](src map[K]*V) map[K]*V {
	dst := make(map[K]*V, len(src))
	for k, v := range src {
		copied := *v
		dst[k] = &copied
	}
	return dst
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%03d", m.seq)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, role, keyword string, offset, limit int) ([]model.User, int64, error) {
	var matched []model.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		if keyword != "" && !strings.Contains(u.Name, keyword) && !strings.Contains(u.Email, keyword) {
			continue
		}
		matched = append(matched, *u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].UserID < matched[j].UserID })

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

// ── Mock CycleRepository ──

type mockCycleRepo struct {
	cycles map[string]*model.AcademicCycle
	seq    int

	conflictOnce bool // next UpdateState fails as if the row moved
}

func newMockCycleRepo() *mockCycleRepo {
	return &mockCycleRepo{cycles: make(map[string]*model.AcademicCycle)}
}

func (m *mockCycleRepo) Create(_ context.Context, cycle *model.AcademicCycle) error {
	if cycle.CycleID == "" {
		m.seq++
		cycle.CycleID = fmt.Sprintf("cycle-%03d", m.seq)
	}
	if cycle.Version == 0 {
		cycle.Version = 1
	}
	m.cycles[cycle.CycleID] = cycle
	return nil
}

func (m *mockCycleRepo) GetByID(_ context.Context, id string) (*model.AcademicCycle, error) {
	if c, ok := m.cycles[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCycleRepo) GetActive(_ context.Context) (*model.AcademicCycle, error) {
	for _, c := range m.cycles {
		if c.State == model.CycleStateActive {
			copied := *c
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCycleRepo) List(_ context.Context) ([]model.AcademicCycle, error) {
	var result []model.AcademicCycle
	for _, c := range m.cycles {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CycleID < result[j].CycleID })
	return result, nil
}

func (m *mockCycleRepo) Update(_ context.Context, cycle *model.AcademicCycle) error {
	m.cycles[cycle.CycleID] = cycle
	return nil
}

func (m *mockCycleRepo) UpdateState(_ context.Context, cycle *model.AcademicCycle, newState string) error {
	if m.conflictOnce {
		m.conflictOnce = false
		return pkgerrors.ErrOptimisticLock
	}
	stored, ok := m.cycles[cycle.CycleID]
	if !ok || stored.Version != cycle.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if newState == model.CycleStateActive {
		for id, c := range m.cycles {
			if id != cycle.CycleID && c.State == model.CycleStateActive {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	stored.State = newState
	stored.Version++
	stored.UpdatedBy = cycle.UpdatedBy
	cycle.State = newState
	cycle.Version = stored.Version
	return nil
}

// ── Mock ModuleGateRepository ──

type mockModuleGateRepo struct {
	gates map[string]*model.ModuleGate
}

func newMockModuleGateRepo() *mockModuleGateRepo {
	return &mockModuleGateRepo{gates: make(map[string]*model.ModuleGate)}
}

func gateKey(cycleID, module string) string { return cycleID + "|" + module }

func (m *mockModuleGateRepo) Get(_ context.Context, cycleID, module string) (*model.ModuleGate, error) {
	if g, ok := m.gates[gateKey(cycleID, module)]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockModuleGateRepo) ListByCycle(_ context.Context, cycleID string) ([]model.ModuleGate, error) {
	var result []model.ModuleGate
	for _, g := range m.gates {
		if g.CycleID == cycleID {
			result = append(result, *g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Module < result[j].Module })
	return result, nil
}

func (m *mockModuleGateRepo) Upsert(_ context.Context, cycleID, module string, enabled bool, note string, actorID string) error {
	m.gates[gateKey(cycleID, module)] = &model.ModuleGate{
		CycleID: cycleID,
		Module:  module,
		Enabled: enabled,
		Note:    note,
		ActorID: &actorID,
	}
	return nil
}

// setGate seeds a gate directly for test arrangement.
func (m *mockModuleGateRepo) setGate(cycleID, module string, enabled bool) {
	m.gates[gateKey(cycleID, module)] = &model.ModuleGate{
		CycleID: cycleID,
		Module:  module,
		Enabled: enabled,
	}
}

// ── Mock TeachingAssignmentRepository ──

type mockTeachingAssignmentRepo struct {
	assignments map[string]*model.TeachingAssignment
	seq         int
}

func newMockTeachingAssignmentRepo() *mockTeachingAssignmentRepo {
	return &mockTeachingAssignmentRepo{assignments: make(map[string]*model.TeachingAssignment)}
}

func (m *mockTeachingAssignmentRepo) Create(_ context.Context, assignment *model.TeachingAssignment) error {
	for _, a := range m.assignments {
		if a.InstructorID == assignment.InstructorID &&
			a.SubjectID == assignment.SubjectID &&
			a.CycleID == assignment.CycleID &&
			a.GroupLabel == assignment.GroupLabel {
			return gorm.ErrDuplicatedKey
		}
	}
	if assignment.AssignmentID == "" {
		m.seq++
		assignment.AssignmentID = fmt.Sprintf("assign-%03d", m.seq)
	}
	m.assignments[assignment.AssignmentID] = assignment
	return nil
}

func (m *mockTeachingAssignmentRepo) GetByID(_ context.Context, id string) (*model.TeachingAssignment, error) {
	if a, ok := m.assignments[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeachingAssignmentRepo) GetByIdentity(_ context.Context, instructorID, subjectID, cycleID, groupLabel string) (*model.TeachingAssignment, error) {
	for _, a := range m.assignments {
		if a.InstructorID == instructorID && a.SubjectID == subjectID &&
			a.CycleID == cycleID && a.GroupLabel == groupLabel {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeachingAssignmentRepo) ListActiveByCycle(_ context.Context, cycleID string) ([]model.TeachingAssignment, error) {
	var result []model.TeachingAssignment
	for _, a := range m.assignments {
		if a.CycleID == cycleID && a.IsActive {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AssignmentID < result[j].AssignmentID })
	return result, nil
}

func (m *mockTeachingAssignmentRepo) ListByInstructor(_ context.Context, instructorID, cycleID string) ([]model.TeachingAssignment, error) {
	var result []model.TeachingAssignment
	for _, a := range m.assignments {
		if a.InstructorID != instructorID {
			continue
		}
		if cycleID != "" && a.CycleID != cycleID {
			continue
		}
		result = append(result, *a)
	}
	return result, nil
}

func (m *mockTeachingAssignmentRepo) SetActive(_ context.Context, id string, active bool, _ string) error {
	if a, ok := m.assignments[id]; ok {
		a.IsActive = active
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── Mock VerifierAssignmentRepository ──

type mockVerifierAssignmentRepo struct {
	assignments map[string]*model.VerifierAssignment
	seq         int
}

func newMockVerifierAssignmentRepo() *mockVerifierAssignmentRepo {
	return &mockVerifierAssignmentRepo{assignments: make(map[string]*model.VerifierAssignment)}
}

func (m *mockVerifierAssignmentRepo) Create(_ context.Context, assignment *model.VerifierAssignment) error {
	for _, a := range m.assignments {
		if a.VerifierID == assignment.VerifierID &&
			a.InstructorID == assignment.InstructorID &&
			a.CycleID == assignment.CycleID {
			return gorm.ErrDuplicatedKey
		}
	}
	if assignment.VerifierAssignmentID == "" {
		m.seq++
		assignment.VerifierAssignmentID = fmt.Sprintf("va-%03d", m.seq)
	}
	m.assignments[assignment.VerifierAssignmentID] = assignment
	return nil
}

func (m *mockVerifierAssignmentRepo) ListActiveByVerifier(_ context.Context, verifierID, cycleID string) ([]model.VerifierAssignment, error) {
	var result []model.VerifierAssignment
	for _, a := range m.assignments {
		if a.VerifierID != verifierID || !a.IsActive {
			continue
		}
		if cycleID != "" && a.CycleID != cycleID {
			continue
		}
		result = append(result, *a)
	}
	return result, nil
}

func (m *mockVerifierAssignmentRepo) ExistsActive(_ context.Context, verifierID, instructorID, cycleID string) (bool, error) {
	for _, a := range m.assignments {
		if a.VerifierID == verifierID && a.InstructorID == instructorID &&
			a.CycleID == cycleID && a.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockVerifierAssignmentRepo) SetActive(_ context.Context, id string, active bool, _ string) error {
	if a, ok := m.assignments[id]; ok {
		a.IsActive = active
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── Mock StructureSectionRepository ──

type mockSectionRepo struct {
	sections []model.StructureSection
	seq      int
}

func newMockSectionRepo() *mockSectionRepo {
	return &mockSectionRepo{}
}

func (m *mockSectionRepo) ListActive(_ context.Context) ([]model.StructureSection, error) {
	var result []model.StructureSection
	for _, s := range m.sections {
		if s.IsActive {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Level != result[j].Level {
			return result[i].Level < result[j].Level
		}
		return result[i].SortOrder < result[j].SortOrder
	})
	return result, nil
}

func (m *mockSectionRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.sections)), nil
}

func (m *mockSectionRepo) CreateBatch(_ context.Context, sections []model.StructureSection) error {
	for i := range sections {
		if sections[i].SectionID == "" {
			m.seq++
			sections[i].SectionID = fmt.Sprintf("section-%03d", m.seq)
		}
		m.sections = append(m.sections, sections[i])
	}
	return nil
}

// ── Mock PortfolioNodeRepository ──

type mockPortfolioNodeRepo struct {
	nodes map[string]*model.PortfolioNode
	seq   int

	missIdentityOnce bool // next GetRootByIdentity misses, as in a creation race
	createCalls      int
	failAtCreate     int // when positive, the Nth Create call fails
}

func newMockPortfolioNodeRepo() *mockPortfolioNodeRepo {
	return &mockPortfolioNodeRepo{nodes: make(map[string]*model.PortfolioNode)}
}

func (m *mockPortfolioNodeRepo) Create(_ context.Context, node *model.PortfolioNode) error {
	m.createCalls++
	if m.failAtCreate > 0 && m.createCalls == m.failAtCreate {
		return fmt.Errorf("node store unavailable")
	}
	if node.ParentID == nil {
		// root identity unique index
		for _, n := range m.nodes {
			if n.ParentID == nil &&
				n.InstructorID == node.InstructorID &&
				n.SubjectID == node.SubjectID &&
				n.CycleID == node.CycleID &&
				n.GroupLabel == node.GroupLabel {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if node.NodeID == "" {
		m.seq++
		node.NodeID = fmt.Sprintf("node-%03d", m.seq)
	}
	m.nodes[node.NodeID] = node
	return nil
}

func (m *mockPortfolioNodeRepo) GetByID(_ context.Context, id string) (*model.PortfolioNode, error) {
	if n, ok := m.nodes[id]; ok {
		return n, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPortfolioNodeRepo) GetRoot(_ context.Context, rootID string) (*model.PortfolioNode, error) {
	if n, ok := m.nodes[rootID]; ok && n.ParentID == nil {
		return n, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPortfolioNodeRepo) GetRootByIdentity(_ context.Context, instructorID, subjectID, cycleID, groupLabel string) (*model.PortfolioNode, error) {
	if m.missIdentityOnce {
		m.missIdentityOnce = false
		return nil, gorm.ErrRecordNotFound
	}
	for _, n := range m.nodes {
		if n.ParentID == nil &&
			n.InstructorID == instructorID &&
			n.SubjectID == subjectID &&
			n.CycleID == cycleID &&
			n.GroupLabel == groupLabel {
			return n, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPortfolioNodeRepo) ListRoots(_ context.Context) ([]model.PortfolioNode, error) {
	var result []model.PortfolioNode
	for _, n := range m.nodes {
		if n.ParentID == nil {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].NodeID < result[j].NodeID })
	return result, nil
}

func (m *mockPortfolioNodeRepo) ListRootsByInstructors(_ context.Context, instructorIDs []string) ([]model.PortfolioNode, error) {
	allowed := make(map[string]bool, len(instructorIDs))
	for _, id := range instructorIDs {
		allowed[id] = true
	}
	var result []model.PortfolioNode
	for _, n := range m.nodes {
		if n.ParentID == nil && allowed[n.InstructorID] {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].NodeID < result[j].NodeID })
	return result, nil
}

func (m *mockPortfolioNodeRepo) ListChildren(_ context.Context, parentIDs []string) ([]model.PortfolioNode, error) {
	allowed := make(map[string]bool, len(parentIDs))
	for _, id := range parentIDs {
		allowed[id] = true
	}
	var result []model.PortfolioNode
	for _, n := range m.nodes {
		if n.ParentID != nil && allowed[*n.ParentID] {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].NodeID < result[j].NodeID })
	return result, nil
}

func (m *mockPortfolioNodeRepo) UpdateProgress(_ context.Context, rootID string, progress float64) error {
	if n, ok := m.nodes[rootID]; ok && n.ParentID == nil {
		n.Progress = progress
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockPortfolioNodeRepo) SetState(_ context.Context, nodeID, state, _ string) error {
	if n, ok := m.nodes[nodeID]; ok {
		n.State = state
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── Mock UploadedFileRepository ──

type mockUploadedFileRepo struct {
	files map[string]*model.UploadedFile
	seq   int

	countErr error // forced failure for aggregation tests
}

func newMockUploadedFileRepo() *mockUploadedFileRepo {
	return &mockUploadedFileRepo{files: make(map[string]*model.UploadedFile)}
}

func (m *mockUploadedFileRepo) Create(_ context.Context, file *model.UploadedFile) error {
	if file.FileID == "" {
		m.seq++
		file.FileID = fmt.Sprintf("file-%03d", m.seq)
	}
	if file.Status == "" {
		file.Status = model.FileStatusPending
	}
	m.files[file.FileID] = file
	return nil
}

func (m *mockUploadedFileRepo) GetByID(_ context.Context, id string) (*model.UploadedFile, error) {
	if f, ok := m.files[id]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUploadedFileRepo) ListByNode(_ context.Context, nodeID string) ([]model.UploadedFile, error) {
	var result []model.UploadedFile
	for _, f := range m.files {
		if f.NodeID == nodeID {
			result = append(result, *f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FileID < result[j].FileID })
	return result, nil
}

func (m *mockUploadedFileRepo) CountByStatus(_ context.Context, nodeIDs []string) ([]repository.StatusCount, error) {
	if m.countErr != nil {
		return nil, m.countErr
	}
	allowed := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		allowed[id] = true
	}
	byStatus := make(map[string]int64)
	for _, f := range m.files {
		if allowed[f.NodeID] {
			byStatus[f.Status]++
		}
	}
	var result []repository.StatusCount
	for status, count := range byStatus {
		result = append(result, repository.StatusCount{Status: status, Count: count})
	}
	return result, nil
}

func (m *mockUploadedFileRepo) CountByNodeAndStatus(_ context.Context, nodeIDs []string) (map[string]map[string]int64, error) {
	if m.countErr != nil {
		return nil, m.countErr
	}
	allowed := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		allowed[id] = true
	}
	result := make(map[string]map[string]int64)
	for _, f := range m.files {
		if !allowed[f.NodeID] {
			continue
		}
		if result[f.NodeID] == nil {
			result[f.NodeID] = make(map[string]int64)
		}
		result[f.NodeID][f.Status]++
	}
	return result, nil
}

func (m *mockUploadedFileRepo) UpdateReview(_ context.Context, file *model.UploadedFile) error {
	stored, ok := m.files[file.FileID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = file.Status
	stored.ReviewerID = file.ReviewerID
	stored.ReviewedAt = file.ReviewedAt
	stored.Comment = file.Comment
	return nil
}
