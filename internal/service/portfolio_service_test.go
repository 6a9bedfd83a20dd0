package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/milith0kun/Portafolio-sub000/internal/model"
	"github.com/milith0kun/Portafolio-sub000/internal/repository"
)

// ── test helpers ──

type portfolioMocks struct {
	cycles      *mockCycleRepo
	gates       *mockModuleGateRepo
	assignments *mockTeachingAssignmentRepo
	verifiers   *mockVerifierAssignmentRepo
	sections    *mockSectionRepo
	nodes       *mockPortfolioNodeRepo
	files       *mockUploadedFileRepo
}

func setupTestPortfolioService() (PortfolioService, *portfolioMocks) {
	m := &portfolioMocks{
		cycles:      newMockCycleRepo(),
		gates:       newMockModuleGateRepo(),
		assignments: newMockTeachingAssignmentRepo(),
		verifiers:   newMockVerifierAssignmentRepo(),
		sections:    newMockSectionRepo(),
		nodes:       newMockPortfolioNodeRepo(),
		files:       newMockUploadedFileRepo(),
	}
	repo := &repository.Repository{
		User:               newMockUserRepo(),
		Cycle:              m.cycles,
		ModuleGate:         m.gates,
		TeachingAssignment: m.assignments,
		VerifierAssignment: m.verifiers,
		Section:            m.sections,
		PortfolioNode:      m.nodes,
		UploadedFile:       m.files,
	}
	repo.Boundary = &mockTxBoundary{repo: repo, cycles: m.cycles, gates: m.gates, nodes: m.nodes}
	svc := NewPortfolioService(repo, zap.NewNop())
	return svc, m
}

// seedTemplate installs a three-section taxonomy with one nested child.
func seedTemplate(m *portfolioMocks) {
	parentID := "section-syllabus"
	_ = m.sections.CreateBatch(context.Background(), []model.StructureSection{
		{SectionID: parentID, Name: "Syllabus", Level: 1, SortOrder: 1, IsActive: true},
		{SectionID: "section-exams", Name: "Exams", Level: 1, SortOrder: 2, IsActive: true},
		{SectionID: "section-annex", Name: "Annexes", Level: 2, SortOrder: 1, ParentID: &parentID, IsActive: true},
	})
}

func seedAssignment(m *portfolioMocks, id, instructorID, subjectID, group string) {
	_ = m.assignments.Create(context.Background(), &model.TeachingAssignment{
		AssignmentID: id,
		InstructorID: instructorID,
		SubjectID:    subjectID,
		SubjectName:  "Subject " + subjectID,
		CycleID:      "c1",
		GroupLabel:   group,
		IsActive:     true,
	})
}

// ── GenerateForAssignment ──

func TestPortfolioService_Generate_CreatesFullTree(t *testing.T) {
	svc, m := setupTestPortfolioService()
	seedTemplate(m)
	seedAssignment(m, "a1", "teach-1", "MAT101", "A")

	result, err := svc.GenerateForAssignment(context.Background(), "a1", "admin-001")
	if err != nil {
		t.Fatalf("generation should succeed: %v", err)
	}
	if !result.Created {
		t.Error("first generation should report Created=true")
	}

	// root + 3 sections
	if len(m.nodes.nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(m.nodes.nodes))
	}
	if result.Root.Level != 0 || result.Root.ParentID != nil {
		t.Error("root must be a level-0 node without parent")
	}

	// the nested section hangs off its template parent, not the root
	var annex *model.PortfolioNode
	for _, n := range m.nodes.nodes {
		if n.Name == "Annexes" {
			annex = n
		}
	}
	if annex == nil {
		t.Fatal("nested section missing from tree")
	}
	if annex.Level != 2 {
		t.Errorf("nested section should be level 2, got %d", annex.Level)
	}
	parent := m.nodes.nodes[*annex.ParentID]
	if parent.Name != "Syllabus" {
		t.Errorf("nested section should hang off Syllabus, got %s", parent.Name)
	}
	if annex.Path != parent.Path+" / Annexes" {
		t.Errorf("breadcrumb path wrong: %s", annex.Path)
	}
}

func TestPortfolioService_Generate_Idempotent(t *testing.T) {
	svc, m := setupTestPortfolioService()
	seedTemplate(m)
	seedAssignment(m, "a1", "teach-1", "MAT101", "A")
	ctx := context.Background()

	first, err := svc.GenerateForAssignment(ctx, "a1", "admin-001")
	if err != nil {
		t.Fatalf("first generation failed: %v", err)
	}

	second, err := svc.GenerateForAssignment(ctx, "a1", "admin-001")
	if err != nil {
		t.Fatalf("repeat generation must not error: %v", err)
	}
	if second.Created {
		t.Error("repeat generation should report Created=false")
	}
	if second.Root.NodeID != first.Root.NodeID {
		t.Error("repeat generation should return the existing root")
	}
	if len(m.nodes.nodes) != 4 {
		t.Errorf("repeat generation must not add nodes, got %d", len(m.nodes.nodes))
	}
}

func TestPortfolioService_Generate_LostRace(t *testing.T) {
	svc, m := setupTestPortfolioService()
	seedTemplate(m)
	seedAssignment(m, "a1", "teach-1", "MAT101", "A")
	ctx := context.Background()

	if _, err := svc.GenerateForAssignment(ctx, "a1", "admin-001"); err != nil {
		t.Fatalf("seed generation failed: %v", err)
	}

	// the fast-path check misses but the unique index still holds
	m.nodes.missIdentityOnce = true
	result, err := svc.GenerateForAssignment(ctx, "a1", "admin-001")
	if err != nil {
		t.Fatalf("losing the creation race must not surface an error: %v", err)
	}
	if result.Created {
		t.Error("race loser should report Created=false")
	}
}

func TestPortfolioService_Generate_AbortLeavesNoPartialTree(t *testing.T) {
	svc, m := setupTestPortfolioService()
	seedTemplate(m)
	seedAssignment(m, "a1", "teach-1", "MAT101", "A")
	ctx := context.Background()

	// root and first section land, the next section write fails
	m.nodes.failAtCreate = 3

	if _, err := svc.GenerateForAssignment(ctx, "a1", "admin-001"); err == nil {
		t.Fatal("generation should surface the write failure")
	}
	if len(m.nodes.nodes) != 0 {
		t.Fatalf("aborted generation must leave no nodes behind, got %d", len(m.nodes.nodes))
	}

	// a clean retry builds the full tree
	m.nodes.failAtCreate = 0
	result, err := svc.GenerateForAssignment(ctx, "a1", "admin-001")
	if err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if !result.Created {
		t.Error("retry should report Created=true")
	}
	if len(m.nodes.nodes) != 4 {
		t.Errorf("expected 4 nodes after retry, got %d", len(m.nodes.nodes))
	}
}

func TestPortfolioService_Generate_NoTemplate(t *testing.T) {
	svc, m := setupTestPortfolioService()
	seedAssignment(m, "a1", "teach-1", "MAT101", "A")

	_, err := svc.GenerateForAssignment(context.Background(), "a1", "admin-001")
	if !errors.Is(err, ErrNoActiveTemplate) {
		t.Errorf("expected ErrNoActiveTemplate, got %v", err)
	}
}

func TestPortfolioService_Generate_MissingAssignment(t *testing.T) {
	svc, m := setupTestPortfolioService()
	seedTemplate(m)

	_, err := svc.GenerateForAssignment(context.Background(), "ghost", "admin-001")
	if !errors.Is(err, ErrAssignmentInvalid) {
		t.Errorf("expected ErrAssignmentInvalid, got %v", err)
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.AssignmentID != "ghost" {
		t.Errorf("error should carry the assignment id: %v", err)
	}
}

// ── GenerateForCycle ──

func TestPortfolioService_GenerateForCycle_GateClosed(t *testing.T) {
	svc, m := setupTestPortfolioService()
	seedCycle(m.cycles, "c1", model.CycleStateActive)
	seedTemplate(m)
	seedAssignment(m, "a1", "teach-1", "MAT101", "A")

	_, err := svc.GenerateForCycle(context.Background(), "c1", "admin-001")
	if !errors.Is(err, ErrIntakeGateClosed) {
		t.Errorf("expected ErrIntakeGateClosed with no gate row, got %v", err)
	}
}

func TestPortfolioService_GenerateForCycle_BatchIsolation(t *testing.T) {
	svc, m := setupTestPortfolioService()
	seedCycle(m.cycles, "c1", model.CycleStateActive)
	m.gates.setGate("c1", model.ModuleDataIntake, true)
	seedTemplate(m)
	seedAssignment(m, "a1", "teach-1", "MAT101", "A")
	seedAssignment(m, "a2", "teach-2", "FIS201", "B")
	// a3 lacks a resolvable instructor and must fail alone
	seedAssignment(m, "a3", "", "QUI301", "C")

	result, err := svc.GenerateForCycle(context.Background(), "c1", "admin-001")
	if err != nil {
		t.Fatalf("batch generation should succeed: %v", err)
	}
	if result.CreatedCount != 2 {
		t.Errorf("expected 2 created, got %d", result.CreatedCount)
	}
	if len(result.Failures) != 1 || result.Failures[0].AssignmentID != "a3" {
		t.Errorf("expected exactly a3 in failures, got %+v", result.Failures)
	}

	// rerun: everything existing is skipped, the bad row still fails
	rerun, err := svc.GenerateForCycle(context.Background(), "c1", "admin-001")
	if err != nil {
		t.Fatalf("rerun should succeed: %v", err)
	}
	if rerun.CreatedCount != 0 || rerun.SkippedCount != 2 {
		t.Errorf("rerun expected 0 created / 2 skipped, got %d/%d", rerun.CreatedCount, rerun.SkippedCount)
	}
}

// ── GetTrees ──

func seedTreesForVisibility(t *testing.T, svc PortfolioService, m *portfolioMocks) (rootA, rootB string) {
	t.Helper()
	seedTemplate(m)
	seedAssignment(m, "a1", "teach-1", "MAT101", "A")
	seedAssignment(m, "a2", "teach-2", "FIS201", "B")

	ra, err := svc.GenerateForAssignment(context.Background(), "a1", "admin-001")
	if err != nil {
		t.Fatalf("seed generation failed: %v", err)
	}
	rb, err := svc.GenerateForAssignment(context.Background(), "a2", "admin-001")
	if err != nil {
		t.Fatalf("seed generation failed: %v", err)
	}
	return ra.Root.NodeID, rb.Root.NodeID
}

func TestPortfolioService_GetTrees_AdminSeesAll(t *testing.T) {
	svc, m := setupTestPortfolioService()
	seedTreesForVisibility(t, svc, m)

	trees, err := svc.GetTrees(context.Background(), model.RoleAdministrator, "admin-001", "")
	if err != nil {
		t.Fatalf("GetTrees failed: %v", err)
	}
	if len(trees) != 2 {
		t.Errorf("admin should see both trees, got %d", len(trees))
	}
}

func TestPortfolioService_GetTrees_InstructorSeesOwn(t *testing.T) {
	svc, m := setupTestPortfolioService()
	rootA, _ := seedTreesForVisibility(t, svc, m)

	trees, err := svc.GetTrees(context.Background(), model.RoleInstructor, "teach-1", "")
	if err != nil {
		t.Fatalf("GetTrees failed: %v", err)
	}
	if len(trees) != 1 || trees[0].ID != rootA {
		t.Errorf("instructor should see exactly their own tree")
	}
}

func TestPortfolioService_GetTrees_VerifierScope(t *testing.T) {
	svc, m := setupTestPortfolioService()
	_, rootB := seedTreesForVisibility(t, svc, m)
	_ = m.verifiers.Create(context.Background(), &model.VerifierAssignment{
		VerifierID:   "ver-1",
		InstructorID: "teach-2",
		CycleID:      "c1",
		IsActive:     true,
	})

	trees, err := svc.GetTrees(context.Background(), model.RoleVerifier, "ver-1", "")
	if err != nil {
		t.Fatalf("GetTrees failed: %v", err)
	}
	if len(trees) != 1 || trees[0].ID != rootB {
		t.Errorf("verifier should see only assigned instructors' trees")
	}
}

func TestPortfolioService_GetTrees_VerifierCycleScope(t *testing.T) {
	svc, m := setupTestPortfolioService()
	_, rootB := seedTreesForVisibility(t, svc, m)

	// the same instructor also owns a portfolio from an earlier cycle
	otherCycleRoot := &model.PortfolioNode{
		InstructorID: "teach-2",
		SubjectID:    "FIS201",
		CycleID:      "c0",
		GroupLabel:   "B",
		Level:        0,
		Name:         "FIS201 (B)",
		Path:         "FIS201 (B)",
		State:        model.NodeStateActive,
	}
	_ = m.nodes.Create(context.Background(), otherCycleRoot)

	_ = m.verifiers.Create(context.Background(), &model.VerifierAssignment{
		VerifierID:   "ver-1",
		InstructorID: "teach-2",
		CycleID:      "c1",
		IsActive:     true,
	})

	trees, err := svc.GetTrees(context.Background(), model.RoleVerifier, "ver-1", "")
	if err != nil {
		t.Fatalf("GetTrees failed: %v", err)
	}
	if len(trees) != 1 || trees[0].ID != rootB {
		t.Errorf("assignment grants one instructor-cycle pair, got %d trees", len(trees))
	}

	// the other cycle's root stays indistinguishable from a missing one
	_, err = svc.GetTrees(context.Background(), model.RoleVerifier, "ver-1", otherCycleRoot.NodeID)
	if !errors.Is(err, ErrPortfolioNotFound) {
		t.Errorf("expected ErrPortfolioNotFound, got %v", err)
	}
}

func TestPortfolioService_GetTrees_OutOfScopeRootHidden(t *testing.T) {
	svc, m := setupTestPortfolioService()
	rootA, _ := seedTreesForVisibility(t, svc, m)

	// teach-2 asking for teach-1's root looks like a missing portfolio
	_, err := svc.GetTrees(context.Background(), model.RoleInstructor, "teach-2", rootA)
	if !errors.Is(err, ErrPortfolioNotFound) {
		t.Errorf("out-of-scope root must read as not found, got %v", err)
	}
}

func TestPortfolioService_GetTrees_NestedShape(t *testing.T) {
	svc, m := setupTestPortfolioService()
	rootA, _ := seedTreesForVisibility(t, svc, m)

	trees, err := svc.GetTrees(context.Background(), model.RoleInstructor, "teach-1", rootA)
	if err != nil {
		t.Fatalf("GetTrees failed: %v", err)
	}
	if len(trees) != 1 {
		t.Fatalf("expected one tree, got %d", len(trees))
	}

	root := trees[0]
	if len(root.Children) != 2 {
		t.Fatalf("root should have 2 direct children, got %d", len(root.Children))
	}
	syllabus := -1
	for i := range root.Children {
		if root.Children[i].Name == "Syllabus" {
			syllabus = i
		}
	}
	if syllabus < 0 {
		t.Fatal("Syllabus child missing")
	}
	if len(root.Children[syllabus].Children) != 1 {
		t.Error("Syllabus should carry its nested Annexes child")
	}
	if root.Stats.Children != 2 {
		t.Errorf("root stats should count 2 children, got %d", root.Stats.Children)
	}
}

// ── RecomputeProgress ──

func TestPortfolioService_Progress_ApprovedRatio(t *testing.T) {
	svc, m := setupTestPortfolioService()
	rootA, _ := seedTreesForVisibility(t, svc, m)
	ctx := context.Background()

	// find a leaf of rootA's tree to attach files to
	var leaf string
	for id, n := range m.nodes.nodes {
		if n.Name == "Annexes" && treeRootOf(m, n) == rootA {
			leaf = id
		}
	}
	if leaf == "" {
		t.Fatal("no leaf found")
	}

	statuses := []string{
		model.FileStatusApproved,
		model.FileStatusApproved,
		model.FileStatusApproved,
		model.FileStatusRejected,
	}
	for _, status := range statuses {
		_ = m.files.Create(ctx, &model.UploadedFile{NodeID: leaf, UploaderID: "teach-1", Status: status})
	}

	progress, err := svc.RecomputeProgress(ctx, rootA)
	if err != nil {
		t.Fatalf("RecomputeProgress failed: %v", err)
	}
	if progress != 75 {
		t.Errorf("3 of 4 approved should round to 75, got %v", progress)
	}
	if m.nodes.nodes[rootA].Progress != 75 {
		t.Error("progress must be persisted on the root")
	}
}

func TestPortfolioService_Progress_EmptyTreeIsZero(t *testing.T) {
	svc, m := setupTestPortfolioService()
	rootA, _ := seedTreesForVisibility(t, svc, m)

	progress, err := svc.RecomputeProgress(context.Background(), rootA)
	if err != nil {
		t.Fatalf("RecomputeProgress failed: %v", err)
	}
	if progress != 0 {
		t.Errorf("a tree without files should report 0, got %v", progress)
	}
}

func TestPortfolioService_Progress_RootNotFound(t *testing.T) {
	svc, _ := setupTestPortfolioService()

	_, err := svc.RecomputeProgress(context.Background(), "ghost")
	if !errors.Is(err, ErrPortfolioNotFound) {
		t.Errorf("expected ErrPortfolioNotFound, got %v", err)
	}
}

// treeRootOf walks parent pointers to find the owning root id.
func treeRootOf(m *portfolioMocks, node *model.PortfolioNode) string {
	current := node
	for current.ParentID != nil {
		current = m.nodes.nodes[*current.ParentID]
	}
	return current.NodeID
}
