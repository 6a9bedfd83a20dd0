package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/milith0kun/Portafolio-sub000/internal/dto"
	"github.com/milith0kun/Portafolio-sub000/internal/model"
	"github.com/milith0kun/Portafolio-sub000/internal/repository"
	pkgerrors "github.com/milith0kun/Portafolio-sub000/pkg/errors"
)

// ── cycle module errors ──

var (
	ErrCycleNotFound      = errors.New("academic cycle not found")
	ErrCycleDateInvalid   = errors.New("cycle end date must be after start date")
	ErrInvalidTransition  = errors.New("transition not permitted from current state")
	ErrCycleStateConflict = errors.New("cycle state changed concurrently, re-read and retry")
	ErrActiveCycleExists  = errors.New("another cycle is already active")
)

// transitions is the allowed lifecycle edge set: the linear chain plus the
// two operator-recovery rollback edges.
var transitions = map[string][]string{
	model.CycleStatePreparing:    {model.CycleStateInitializing},
	model.CycleStateInitializing: {model.CycleStateActive},
	model.CycleStateActive:       {model.CycleStateVerifying, model.CycleStatePreparing},
	model.CycleStateVerifying:    {model.CycleStateClosing, model.CycleStateActive},
	model.CycleStateClosing:      {model.CycleStateArchived},
	model.CycleStateArchived:     {},
}

// gatePlan describes the gate flips applied on entering a state.
var gatePlan = map[string]map[string]bool{
	model.CycleStateInitializing: {model.ModuleDataIntake: true},
	model.CycleStateActive:       {model.ModuleDataIntake: true},
	model.CycleStateVerifying: {
		model.ModuleDataIntake:         false,
		model.ModuleVerification:       true,
		model.ModuleDocumentManagement: true,
	},
	model.CycleStateClosing: {
		model.ModuleDataIntake:         false,
		model.ModuleVerification:       false,
		model.ModuleDocumentManagement: false,
	},
	model.CycleStateArchived: {
		model.ModuleDataIntake:         false,
		model.ModuleVerification:       false,
		model.ModuleDocumentManagement: false,
	},
}

// CycleService owns the academic-cycle lifecycle and its module gates.
type CycleService interface {
	Create(ctx context.Context, req *dto.CreateCycleRequest, callerID string) (*dto.CycleResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CycleResponse, error)
	GetActive(ctx context.Context) (*dto.CycleResponse, error)
	List(ctx context.Context) ([]dto.CycleResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateCycleRequest, callerID string) (*dto.CycleResponse, error)
	// Transition moves the cycle along the lifecycle graph and flips the
	// coupled module gates in the same transaction.
	Transition(ctx context.Context, id, targetState, callerID string) (*dto.CycleResponse, error)
	// GetGate reads current gate state, default-deny on missing rows.
	// Never cached: gate reads are access-control decisions.
	GetGate(ctx context.Context, cycleID, module string) (*dto.GateResponse, error)
	ListGates(ctx context.Context, cycleID string) ([]dto.GateResponse, error)
	// OverrideGate is the administrative escape hatch outside transitions.
	OverrideGate(ctx context.Context, cycleID string, req *dto.OverrideGateRequest, callerID string) (*dto.GateResponse, error)
}

type cycleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCycleService creates a CycleService.
func NewCycleService(repo *repository.Repository, logger *zap.Logger) CycleService {
	return &cycleService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *cycleService) Create(ctx context.Context, req *dto.CreateCycleRequest, callerID string) (*dto.CycleResponse, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, ErrCycleDateInvalid
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, ErrCycleDateInvalid
	}
	if !endDate.After(startDate) {
		return nil, ErrCycleDateInvalid
	}

	cycle := &model.AcademicCycle{
		Name:           req.Name,
		AcademicPeriod: req.AcademicPeriod,
		StartDate:      startDate,
		EndDate:        endDate,
		State:          model.CycleStatePreparing,
	}
	cycle.CreatedBy = &callerID
	cycle.UpdatedBy = &callerID

	if err := s.repo.Cycle.Create(ctx, cycle); err != nil {
		s.logger.Error("create cycle failed", zap.Error(err))
		return nil, err
	}

	return toCycleResponse(cycle), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *cycleService) GetByID(ctx context.Context, id string) (*dto.CycleResponse, error) {
	cycle, err := s.repo.Cycle.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		s.logger.Error("get cycle failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toCycleResponse(cycle), nil
}

// ────────────────────── GetActive ──────────────────────

func (s *cycleService) GetActive(ctx context.Context) (*dto.CycleResponse, error) {
	cycle, err := s.repo.Cycle.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		s.logger.Error("get active cycle failed", zap.Error(err))
		return nil, err
	}
	return toCycleResponse(cycle), nil
}

// ────────────────────── List ──────────────────────

func (s *cycleService) List(ctx context.Context) ([]dto.CycleResponse, error) {
	cycles, err := s.repo.Cycle.List(ctx)
	if err != nil {
		s.logger.Error("list cycles failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CycleResponse, 0, len(cycles))
	for i := range cycles {
		result = append(result, *toCycleResponse(&cycles[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *cycleService) Update(ctx context.Context, id string, req *dto.UpdateCycleRequest, callerID string) (*dto.CycleResponse, error) {
	cycle, err := s.repo.Cycle.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		s.logger.Error("get cycle failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		cycle.Name = *req.Name
	}
	if req.AcademicPeriod != nil {
		cycle.AcademicPeriod = *req.AcademicPeriod
	}
	if req.StartDate != nil {
		startDate, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return nil, ErrCycleDateInvalid
		}
		cycle.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return nil, ErrCycleDateInvalid
		}
		cycle.EndDate = endDate
	}
	if !cycle.EndDate.After(cycle.StartDate) {
		return nil, ErrCycleDateInvalid
	}

	cycle.UpdatedBy = &callerID

	if err := s.repo.Cycle.Update(ctx, cycle); err != nil {
		s.logger.Error("update cycle failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toCycleResponse(cycle), nil
}

// ────────────────────── Transition ──────────────────────

func (s *cycleService) Transition(ctx context.Context, id, targetState, callerID string) (*dto.CycleResponse, error) {
	cycle, err := s.repo.Cycle.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		s.logger.Error("get cycle failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if !transitionAllowed(cycle.State, targetState) {
		return nil, ErrInvalidTransition
	}

	// state write and gate flips commit together or not at all
	txRepo, tx, err := s.repo.Begin(ctx)
	if err != nil {
		s.logger.Error("begin transaction failed", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	cycle.UpdatedBy = &callerID
	if err := txRepo.Cycle.UpdateState(ctx, cycle, targetState); err != nil {
		tx.Rollback()
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrCycleStateConflict
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// single-active-cycle index: another cycle already holds active
			return nil, ErrActiveCycleExists
		}
		s.logger.Error("write cycle state failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	for module, enabled := range gatePlan[targetState] {
		note := "lifecycle: entered " + targetState
		if err := txRepo.ModuleGate.Upsert(ctx, cycle.CycleID, module, enabled, note, callerID); err != nil {
			tx.Rollback()
			s.logger.Error("upsert module gate failed",
				zap.String("cycle_id", cycle.CycleID),
				zap.String("module", module),
				zap.Error(err))
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("commit transaction failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("cycle transitioned",
		zap.String("cycle_id", cycle.CycleID),
		zap.String("state", targetState),
		zap.String("actor", callerID))

	return toCycleResponse(cycle), nil
}

// ────────────────────── GetGate ──────────────────────

func (s *cycleService) GetGate(ctx context.Context, cycleID, module string) (*dto.GateResponse, error) {
	if _, err := s.repo.Cycle.GetByID(ctx, cycleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		return nil, err
	}

	gate, err := s.repo.ModuleGate.Get(ctx, cycleID, module)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// default-deny until a transition or override enables the module
			return &dto.GateResponse{
				CycleID: cycleID,
				Module:  module,
				Enabled: false,
				Reason:  "gate never enabled for this cycle",
			}, nil
		}
		s.logger.Error("get module gate failed", zap.Error(err))
		return nil, err
	}

	return toGateResponse(gate), nil
}

// ────────────────────── ListGates ──────────────────────

func (s *cycleService) ListGates(ctx context.Context, cycleID string) ([]dto.GateResponse, error) {
	if _, err := s.repo.Cycle.GetByID(ctx, cycleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		return nil, err
	}

	gates, err := s.repo.ModuleGate.ListByCycle(ctx, cycleID)
	if err != nil {
		s.logger.Error("list module gates failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.GateResponse, 0, len(gates))
	for i := range gates {
		result = append(result, *toGateResponse(&gates[i]))
	}
	return result, nil
}

// ────────────────────── OverrideGate ──────────────────────

func (s *cycleService) OverrideGate(ctx context.Context, cycleID string, req *dto.OverrideGateRequest, callerID string) (*dto.GateResponse, error) {
	if _, err := s.repo.Cycle.GetByID(ctx, cycleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		return nil, err
	}

	note := req.Note
	if note == "" {
		note = "administrative override"
	}
	if err := s.repo.ModuleGate.Upsert(ctx, cycleID, req.Module, *req.Enabled, note, callerID); err != nil {
		s.logger.Error("override module gate failed", zap.Error(err))
		return nil, err
	}

	gate, err := s.repo.ModuleGate.Get(ctx, cycleID, req.Module)
	if err != nil {
		return nil, err
	}
	return toGateResponse(gate), nil
}

// ── helpers ──

func transitionAllowed(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func toCycleResponse(cycle *model.AcademicCycle) *dto.CycleResponse {
	return &dto.CycleResponse{
		ID:             cycle.CycleID,
		Name:           cycle.Name,
		AcademicPeriod: cycle.AcademicPeriod,
		StartDate:      cycle.StartDate.Format("2006-01-02"),
		EndDate:        cycle.EndDate.Format("2006-01-02"),
		State:          cycle.State,
		Version:        cycle.Version,
		CreatedAt:      cycle.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      cycle.UpdatedAt.Format(time.RFC3339),
	}
}

func toGateResponse(gate *model.ModuleGate) *dto.GateResponse {
	resp := &dto.GateResponse{
		CycleID: gate.CycleID,
		Module:  gate.Module,
		Enabled: gate.Enabled,
		Reason:  gate.Note,
	}
	if gate.EnabledAt != nil {
		resp.EnabledAt = gate.EnabledAt.Format(time.RFC3339)
	}
	if gate.DisabledAt != nil {
		resp.DisabledAt = gate.DisabledAt.Format(time.RFC3339)
	}
	return resp
}
