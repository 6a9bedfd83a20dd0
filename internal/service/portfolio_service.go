package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/milith0kun/Portafolio-sub000/internal/dto"
	"github.com/milith0kun/Portafolio-sub000/internal/model"
	"github.com/milith0kun/Portafolio-sub000/internal/repository"
)

// ── portfolio module errors ──

var (
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrNoActiveTemplate  = errors.New("structure template has no active sections")
	ErrAssignmentInvalid = errors.New("assignment lacks a resolvable instructor or subject")
	ErrIntakeGateClosed  = errors.New("data intake is disabled for this cycle")
)

// GenerationError carries the assignment id so a batch caller can retry a
// single failed assignment without touching its siblings.
type GenerationError struct {
	AssignmentID string
	Err          error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate portfolio for assignment %s: %v", e.AssignmentID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GenerateResult is the single-assignment generation outcome.
type GenerateResult struct {
	Created bool
	Root    *model.PortfolioNode
}

// PortfolioService creates, reads and aggregates portfolio trees.
type PortfolioService interface {
	// GenerateForAssignment materializes the template tree for one
	// assignment. Idempotent under the composite root identity: a second
	// call, or a lost creation race, reports Created=false.
	GenerateForAssignment(ctx context.Context, assignmentID, callerID string) (*GenerateResult, error)
	// GenerateForCycle runs generation for every active assignment of the
	// cycle, isolating per-assignment failures.
	GenerateForCycle(ctx context.Context, cycleID, callerID string) (*dto.GenerateResponse, error)
	// GetTrees returns the nested trees the requester is authorized to see.
	// A rootID outside the requester's scope yields ErrPortfolioNotFound.
	GetTrees(ctx context.Context, role, userID, rootID string) ([]dto.TreeNode, error)
	// RecomputeProgress recalculates the subtree-wide approved/total ratio
	// and persists it on the root. The single source of truth for the
	// published percentage.
	RecomputeProgress(ctx context.Context, rootID string) (float64, error)
}

type portfolioService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPortfolioService creates a PortfolioService.
func NewPortfolioService(repo *repository.Repository, logger *zap.Logger) PortfolioService {
	return &portfolioService{repo: repo, logger: logger}
}

// ────────────────────── GenerateForAssignment ──────────────────────

func (s *portfolioService) GenerateForAssignment(ctx context.Context, assignmentID, callerID string) (*GenerateResult, error) {
	assignment, err := s.repo.TeachingAssignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &GenerationError{AssignmentID: assignmentID, Err: ErrAssignmentInvalid}
		}
		return nil, &GenerationError{AssignmentID: assignmentID, Err: err}
	}
	if assignment.InstructorID == "" || assignment.SubjectID == "" {
		return nil, &GenerationError{AssignmentID: assignmentID, Err: ErrAssignmentInvalid}
	}

	sections, err := s.repo.Section.ListActive(ctx)
	if err != nil {
		return nil, &GenerationError{AssignmentID: assignmentID, Err: err}
	}
	if len(sections) == 0 {
		return nil, &GenerationError{AssignmentID: assignmentID, Err: ErrNoActiveTemplate}
	}

	// fast path: already generated
	existing, err := s.repo.PortfolioNode.GetRootByIdentity(ctx,
		assignment.InstructorID, assignment.SubjectID, assignment.CycleID, assignment.GroupLabel)
	if err == nil {
		return &GenerateResult{Created: false, Root: existing}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &GenerationError{AssignmentID: assignmentID, Err: err}
	}

	root, err := s.createTree(ctx, assignment, sections, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the creation race; the winner's tree is the tree
			existing, ferr := s.repo.PortfolioNode.GetRootByIdentity(ctx,
				assignment.InstructorID, assignment.SubjectID, assignment.CycleID, assignment.GroupLabel)
			if ferr != nil {
				return nil, &GenerationError{AssignmentID: assignmentID, Err: ferr}
			}
			return &GenerateResult{Created: false, Root: existing}, nil
		}
		return nil, &GenerationError{AssignmentID: assignmentID, Err: err}
	}

	s.logger.Info("portfolio generated",
		zap.String("assignment_id", assignmentID),
		zap.String("root_id", root.NodeID),
		zap.Int("sections", len(sections)))

	return &GenerateResult{Created: true, Root: root}, nil
}

// createTree writes the root and every template section in one transaction;
// partial trees are never observable.
func (s *portfolioService) createTree(ctx context.Context, assignment *model.TeachingAssignment, sections []model.StructureSection, callerID string) (*model.PortfolioNode, error) {
	txRepo, tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	rootName := fmt.Sprintf("%s (%s)", assignment.SubjectName, assignment.GroupLabel)
	root := &model.PortfolioNode{
		InstructorID: assignment.InstructorID,
		SubjectID:    assignment.SubjectID,
		AssignmentID: assignment.AssignmentID,
		CycleID:      assignment.CycleID,
		GroupLabel:   assignment.GroupLabel,
		ParentID:     nil,
		Level:        0,
		Path:         rootName,
		Name:         rootName,
		State:        model.NodeStateActive,
	}
	root.CreatedBy = &callerID
	root.UpdatedBy = &callerID

	if err := txRepo.PortfolioNode.Create(ctx, root); err != nil {
		tx.Rollback()
		return nil, err
	}

	// sections arrive ordered by (level, sort_order), so a parent section is
	// always created before its children
	created := make(map[string]*model.PortfolioNode, len(sections))
	for i := range sections {
		section := &sections[i]

		parent := root
		if section.ParentID != nil {
			p, ok := created[*section.ParentID]
			if !ok {
				tx.Rollback()
				return nil, fmt.Errorf("template section %s references missing parent %s", section.SectionID, *section.ParentID)
			}
			parent = p
		}

		node := &model.PortfolioNode{
			InstructorID: assignment.InstructorID,
			SubjectID:    assignment.SubjectID,
			AssignmentID: assignment.AssignmentID,
			CycleID:      assignment.CycleID,
			GroupLabel:   assignment.GroupLabel,
			ParentID:     &parent.NodeID,
			Level:        parent.Level + 1,
			Path:         parent.Path + " / " + section.Name,
			Name:         section.Name,
			State:        model.NodeStateActive,
		}
		node.CreatedBy = &callerID
		node.UpdatedBy = &callerID

		if err := txRepo.PortfolioNode.Create(ctx, node); err != nil {
			tx.Rollback()
			return nil, err
		}
		created[section.SectionID] = node
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return root, nil
}

// ────────────────────── GenerateForCycle ──────────────────────

func (s *portfolioService) GenerateForCycle(ctx context.Context, cycleID, callerID string) (*dto.GenerateResponse, error) {
	if _, err := s.repo.Cycle.GetByID(ctx, cycleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		return nil, err
	}

	// default-deny: generation requires the data_intake gate
	gate, err := s.repo.ModuleGate.Get(ctx, cycleID, model.ModuleDataIntake)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIntakeGateClosed
		}
		return nil, err
	}
	if !gate.Enabled {
		return nil, ErrIntakeGateClosed
	}

	assignments, err := s.repo.TeachingAssignment.ListActiveByCycle(ctx, cycleID)
	if err != nil {
		s.logger.Error("list assignments failed", zap.String("cycle_id", cycleID), zap.Error(err))
		return nil, err
	}

	resp := &dto.GenerateResponse{Failures: []dto.GenerateFailure{}}
	for i := range assignments {
		result, err := s.GenerateForAssignment(ctx, assignments[i].AssignmentID, callerID)
		if err != nil {
			// one failing assignment must not roll back its siblings
			s.logger.Warn("assignment generation failed",
				zap.String("assignment_id", assignments[i].AssignmentID),
				zap.Error(err))
			resp.Failures = append(resp.Failures, dto.GenerateFailure{
				AssignmentID: assignments[i].AssignmentID,
				Reason:       generationReason(err),
			})
			continue
		}
		if result.Created {
			resp.CreatedCount++
		} else {
			resp.SkippedCount++
		}
	}

	return resp, nil
}

func generationReason(err error) string {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Err.Error()
	}
	return err.Error()
}

// ────────────────────── GetTrees ──────────────────────

func (s *portfolioService) GetTrees(ctx context.Context, role, userID, rootID string) ([]dto.TreeNode, error) {
	roots, err := s.resolveAuthorizedRoots(ctx, role, userID)
	if err != nil {
		return nil, err
	}

	if rootID != "" {
		// out-of-scope roots are indistinguishable from missing ones
		var match *model.PortfolioNode
		for i := range roots {
			if roots[i].NodeID == rootID {
				match = &roots[i]
				break
			}
		}
		if match == nil {
			return nil, ErrPortfolioNotFound
		}
		roots = []model.PortfolioNode{*match}
	}

	result := make([]dto.TreeNode, 0, len(roots))
	for i := range roots {
		tree, err := s.buildTree(ctx, &roots[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *tree)
	}
	return result, nil
}

// resolveAuthorizedRoots maps a role to its visible root set: the only
// authorization-scoping point for hierarchy reads.
func (s *portfolioService) resolveAuthorizedRoots(ctx context.Context, role, userID string) ([]model.PortfolioNode, error) {
	switch role {
	case model.RoleAdministrator:
		return s.repo.PortfolioNode.ListRoots(ctx)
	case model.RoleInstructor:
		return s.repo.PortfolioNode.ListRootsByInstructors(ctx, []string{userID})
	case model.RoleVerifier:
		assignments, err := s.repo.VerifierAssignment.ListActiveByVerifier(ctx, userID, "")
		if err != nil {
			return nil, err
		}
		// an assignment grants one (instructor, cycle) pair, matching the
		// write scope enforced on reviews
		scope := make(map[string]bool, len(assignments))
		seen := make(map[string]bool, len(assignments))
		instructorIDs := make([]string, 0, len(assignments))
		for i := range assignments {
			a := &assignments[i]
			scope[a.InstructorID+"|"+a.CycleID] = true
			if !seen[a.InstructorID] {
				seen[a.InstructorID] = true
				instructorIDs = append(instructorIDs, a.InstructorID)
			}
		}
		roots, err := s.repo.PortfolioNode.ListRootsByInstructors(ctx, instructorIDs)
		if err != nil {
			return nil, err
		}
		scoped := make([]model.PortfolioNode, 0, len(roots))
		for i := range roots {
			if scope[roots[i].InstructorID+"|"+roots[i].CycleID] {
				scoped = append(scoped, roots[i])
			}
		}
		return scoped, nil
	default:
		return nil, ErrPortfolioNotFound
	}
}

// buildTree loads all descendants breadth-first and assembles the nested
// view with display-only per-node file counters.
func (s *portfolioService) buildTree(ctx context.Context, root *model.PortfolioNode) (*dto.TreeNode, error) {
	all := []model.PortfolioNode{*root}
	frontier := []string{root.NodeID}
	for len(frontier) > 0 {
		children, err := s.repo.PortfolioNode.ListChildren(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for i := range children {
			all = append(all, children[i])
			frontier = append(frontier, children[i].NodeID)
		}
	}

	ids := make([]string, len(all))
	for i := range all {
		ids[i] = all[i].NodeID
	}
	fileCounts, err := s.repo.UploadedFile.CountByNodeAndStatus(ctx, ids)
	if err != nil {
		return nil, err
	}

	byParent := make(map[string][]*model.PortfolioNode)
	for i := range all[1:] {
		node := &all[i+1]
		byParent[*node.ParentID] = append(byParent[*node.ParentID], node)
	}

	var assemble func(node *model.PortfolioNode) dto.TreeNode
	assemble = func(node *model.PortfolioNode) dto.TreeNode {
		children := byParent[node.NodeID]
		out := dto.TreeNode{
			ID:           node.NodeID,
			Name:         node.Name,
			Path:         node.Path,
			Level:        node.Level,
			State:        node.State,
			InstructorID: node.InstructorID,
			SubjectID:    node.SubjectID,
			GroupLabel:   node.GroupLabel,
			Stats:        nodeStats(fileCounts[node.NodeID], len(children)),
			Children:     make([]dto.TreeNode, 0, len(children)),
		}
		if node.IsRoot() {
			out.Progress = node.Progress
		}
		for _, child := range children {
			out.Children = append(out.Children, assemble(child))
		}
		return out
	}

	tree := assemble(root)
	return &tree, nil
}

func nodeStats(counts map[string]int64, childCount int) dto.NodeStats {
	stats := dto.NodeStats{Children: childCount}
	for status, n := range counts {
		stats.TotalFiles += int(n)
		switch status {
		case model.FileStatusPending:
			stats.Pending = int(n)
		case model.FileStatusApproved:
			stats.Approved = int(n)
		case model.FileStatusRejected:
			stats.Rejected = int(n)
		case model.FileStatusUnderReview:
			stats.UnderReview = int(n)
		}
	}
	return stats
}

// ────────────────────── RecomputeProgress ──────────────────────

func (s *portfolioService) RecomputeProgress(ctx context.Context, rootID string) (float64, error) {
	root, err := s.repo.PortfolioNode.GetRoot(ctx, rootID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPortfolioNotFound
		}
		return 0, err
	}

	ids := []string{root.NodeID}
	frontier := []string{root.NodeID}
	for len(frontier) > 0 {
		children, err := s.repo.PortfolioNode.ListChildren(ctx, frontier)
		if err != nil {
			return 0, err
		}
		frontier = frontier[:0]
		for i := range children {
			ids = append(ids, children[i].NodeID)
			frontier = append(frontier, children[i].NodeID)
		}
	}

	counts, err := s.repo.UploadedFile.CountByStatus(ctx, ids)
	if err != nil {
		return 0, err
	}

	var total, approved int64
	for _, c := range counts {
		total += c.Count
		if c.Status == model.FileStatusApproved {
			approved = c.Count
		}
	}

	progress := 0.0
	if total > 0 {
		progress = math.Round(100 * float64(approved) / float64(total))
	}

	if err := s.repo.PortfolioNode.UpdateProgress(ctx, rootID, progress); err != nil {
		s.logger.Error("persist progress failed", zap.String("root_id", rootID), zap.Error(err))
		return 0, err
	}

	return progress, nil
}
