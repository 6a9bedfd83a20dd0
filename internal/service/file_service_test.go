package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/milith0kun/Portafolio-sub000/config"
	"github.com/milith0kun/Portafolio-sub000/internal/model"
	"github.com/milith0kun/Portafolio-sub000/internal/repository"
)

// ── test helpers ──

func setupTestFileService(t *testing.T) (FileService, *portfolioMocks, *config.UploadConfig) {
	t.Helper()
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
	cfg := &config.UploadConfig{
		Dir:          t.TempDir(),
		MaxSizeMB:    1,
		AllowedMIMEs: []string{"application/pdf", "image/png"},
	}
	return NewFileService(cfg, repo, zap.NewNop()), m, cfg
}

// seedLeafNode creates a root plus one childless folder under it.
func seedLeafNode(m *portfolioMocks, instructorID, subjectID string) *model.PortfolioNode {
	root := &model.PortfolioNode{
		InstructorID: instructorID,
		SubjectID:    subjectID,
		CycleID:      "c1",
		GroupLabel:   "A",
		Level:        0,
		Name:         subjectID + " A",
		Path:         subjectID + " A",
		State:        model.NodeStateActive,
	}
	_ = m.nodes.Create(context.Background(), root)

	leaf := &model.PortfolioNode{
		InstructorID: instructorID,
		SubjectID:    subjectID,
		CycleID:      "c1",
		GroupLabel:   "A",
		ParentID:     &root.NodeID,
		Level:        1,
		Name:         "Exams",
		Path:         root.Path + " / Exams",
		State:        model.NodeStateActive,
	}
	_ = m.nodes.Create(context.Background(), leaf)
	return leaf
}

// ── Upload ──

func TestFileService_Upload_Success(t *testing.T) {
	svc, m, cfg := setupTestFileService(t)
	leaf := seedLeafNode(m, "teach-1", "MAT101")
	m.gates.setGate("c1", model.ModuleDataIntake, true)

	resp, err := svc.Upload(context.Background(), leaf.NodeID, "teach-1", model.RoleInstructor,
		"midterm.pdf", "application/pdf", 512, strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("upload should succeed: %v", err)
	}

	if resp.Status != model.FileStatusPending {
		t.Errorf("fresh uploads start pending, got %s", resp.Status)
	}
	if resp.OriginalName != "midterm.pdf" {
		t.Errorf("original name should survive as metadata, got %s", resp.OriginalName)
	}

	stored := m.files.files[resp.ID]
	if stored.StoredName == "midterm.pdf" {
		t.Error("stored name must be opaque, not the client-supplied one")
	}
	if filepath.Ext(stored.StoredName) != ".pdf" {
		t.Errorf("stored name should keep the extension, got %s", stored.StoredName)
	}

	content, err := os.ReadFile(filepath.Join(cfg.Dir, stored.StoredName))
	if err != nil {
		t.Fatalf("blob missing on disk: %v", err)
	}
	if string(content) != "pdf-bytes" {
		t.Errorf("blob content mismatch: %q", content)
	}
}

func TestFileService_Upload_TooLarge(t *testing.T) {
	svc, m, _ := setupTestFileService(t)
	leaf := seedLeafNode(m, "teach-1", "MAT101")
	m.gates.setGate("c1", model.ModuleDataIntake, true)

	_, err := svc.Upload(context.Background(), leaf.NodeID, "teach-1", model.RoleInstructor,
		"huge.pdf", "application/pdf", 2*1024*1024, strings.NewReader("x"))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestFileService_Upload_TypeNotAllowed(t *testing.T) {
	svc, m, _ := setupTestFileService(t)
	leaf := seedLeafNode(m, "teach-1", "MAT101")
	m.gates.setGate("c1", model.ModuleDataIntake, true)

	_, err := svc.Upload(context.Background(), leaf.NodeID, "teach-1", model.RoleInstructor,
		"macro.xlsm", "application/vnd.ms-excel.sheet.macroEnabled.12", 512, strings.NewReader("x"))
	if !errors.Is(err, ErrFileTypeNotAllowed) {
		t.Errorf("expected ErrFileTypeNotAllowed, got %v", err)
	}
}

func TestFileService_Upload_NonLeafRejected(t *testing.T) {
	svc, m, _ := setupTestFileService(t)
	leaf := seedLeafNode(m, "teach-1", "MAT101")
	m.gates.setGate("c1", model.ModuleDataIntake, true)

	// the leaf's parent has a child, so it is not a valid target
	_, err := svc.Upload(context.Background(), *leaf.ParentID, "teach-1", model.RoleInstructor,
		"midterm.pdf", "application/pdf", 512, strings.NewReader("x"))
	if !errors.Is(err, ErrNodeNotLeaf) {
		t.Errorf("expected ErrNodeNotLeaf, got %v", err)
	}
}

func TestFileService_Upload_GateClosedByDefault(t *testing.T) {
	svc, m, _ := setupTestFileService(t)
	leaf := seedLeafNode(m, "teach-1", "MAT101")

	_, err := svc.Upload(context.Background(), leaf.NodeID, "teach-1", model.RoleInstructor,
		"midterm.pdf", "application/pdf", 512, strings.NewReader("x"))
	if !errors.Is(err, ErrUploadGateClosed) {
		t.Errorf("no gate rows must deny, got %v", err)
	}
}

func TestFileService_Upload_DocumentGateAdmits(t *testing.T) {
	svc, m, _ := setupTestFileService(t)
	leaf := seedLeafNode(m, "teach-1", "MAT101")

	// verifying phase: intake off, document management on
	m.gates.setGate("c1", model.ModuleDataIntake, false)
	m.gates.setGate("c1", model.ModuleDocumentManagement, true)

	_, err := svc.Upload(context.Background(), leaf.NodeID, "teach-1", model.RoleInstructor,
		"fix.pdf", "application/pdf", 512, strings.NewReader("x"))
	if err != nil {
		t.Errorf("document management gate should admit uploads: %v", err)
	}
}

func TestFileService_Upload_OwnershipEnforced(t *testing.T) {
	svc, m, _ := setupTestFileService(t)
	leaf := seedLeafNode(m, "teach-1", "MAT101")
	m.gates.setGate("c1", model.ModuleDataIntake, true)

	_, err := svc.Upload(context.Background(), leaf.NodeID, "teach-2", model.RoleInstructor,
		"midterm.pdf", "application/pdf", 512, strings.NewReader("x"))
	if !errors.Is(err, ErrUploadForbidden) {
		t.Errorf("instructors must not write into foreign portfolios, got %v", err)
	}

	// administrators are not subject to the ownership check
	if _, err := svc.Upload(context.Background(), leaf.NodeID, "admin-001", model.RoleAdministrator,
		"midterm.pdf", "application/pdf", 512, strings.NewReader("x")); err != nil {
		t.Errorf("administrator upload should succeed: %v", err)
	}
}

func TestFileService_Upload_NodeNotFound(t *testing.T) {
	svc, _, _ := setupTestFileService(t)

	_, err := svc.Upload(context.Background(), "node-999", "teach-1", model.RoleInstructor,
		"midterm.pdf", "application/pdf", 512, strings.NewReader("x"))
	if !errors.Is(err, ErrPortfolioNotFound) {
		t.Errorf("expected ErrPortfolioNotFound, got %v", err)
	}
}

// ── ListByNode / Resolve ──

func TestFileService_ListByNode(t *testing.T) {
	svc, m, _ := setupTestFileService(t)
	leaf := seedLeafNode(m, "teach-1", "MAT101")
	m.gates.setGate("c1", model.ModuleDataIntake, true)

	for _, name := range []string{"a.pdf", "b.pdf"} {
		if _, err := svc.Upload(context.Background(), leaf.NodeID, "teach-1", model.RoleInstructor,
			name, "application/pdf", 10, strings.NewReader("x")); err != nil {
			t.Fatalf("upload %s failed: %v", name, err)
		}
	}

	files, err := svc.ListByNode(context.Background(), leaf.NodeID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 files, got %d", len(files))
	}

	if _, err := svc.ListByNode(context.Background(), "node-999"); !errors.Is(err, ErrPortfolioNotFound) {
		t.Errorf("expected ErrPortfolioNotFound, got %v", err)
	}
}

func TestFileService_Resolve(t *testing.T) {
	svc, m, cfg := setupTestFileService(t)
	leaf := seedLeafNode(m, "teach-1", "MAT101")
	m.gates.setGate("c1", model.ModuleDataIntake, true)

	resp, err := svc.Upload(context.Background(), leaf.NodeID, "teach-1", model.RoleInstructor,
		"midterm.pdf", "application/pdf", 512, strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	file, path, err := svc.Resolve(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if file.OriginalName != "midterm.pdf" {
		t.Errorf("unexpected record: %+v", file)
	}
	if path != filepath.Join(cfg.Dir, file.StoredName) {
		t.Errorf("unexpected path: %s", path)
	}

	if _, _, err := svc.Resolve(context.Background(), "file-999"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}
