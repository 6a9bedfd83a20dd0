package repository

import (
	"context"

	"gorm.io/gorm"
)

// Tx is the commit/rollback handle of one unit of work.
type Tx interface {
	Commit() error
	Rollback() error
}

// TxBoundary supplies units of work. Aggregates without a gorm connection
// install one to get observable transaction semantics.
type TxBoundary interface {
	Begin(ctx context.Context) (*Repository, Tx, error)
}

// Repository aggregates every data-access interface.
type Repository struct {
	db *gorm.DB

	// Boundary overrides Begin; nil means the gorm connection (or, without
	// one, direct writes under a no-op handle).
	Boundary TxBoundary

	User               UserRepository
	Cycle              CycleRepository
	ModuleGate         ModuleGateRepository
	TeachingAssignment TeachingAssignmentRepository
	VerifierAssignment VerifierAssignmentRepository
	Section            StructureSectionRepository
	PortfolioNode      PortfolioNodeRepository
	UploadedFile       UploadedFileRepository
}

// NewRepository builds the repository aggregate.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:                 db,
		User:               NewUserRepo(db),
		Cycle:              NewCycleRepo(db),
		ModuleGate:         NewModuleGateRepo(db),
		TeachingAssignment: NewTeachingAssignmentRepo(db),
		VerifierAssignment: NewVerifierAssignmentRepo(db),
		Section:            NewStructureSectionRepo(db),
		PortfolioNode:      NewPortfolioNodeRepo(db),
		UploadedFile:       NewUploadedFileRepo(db),
	}
}

// Begin opens a unit of work and returns the aggregate scoped to it.
func (r *Repository) Begin(ctx context.Context) (*Repository, Tx, error) {
	if r.Boundary != nil {
		return r.Boundary.Begin(ctx)
	}
	if r.db == nil {
		return r, nopTx{}, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, nil, tx.Error
	}
	return NewRepository(tx), gormTx{db: tx}, nil
}

type gormTx struct{ db *gorm.DB }

func (t gormTx) Commit() error   { return t.db.Commit().Error }
func (t gormTx) Rollback() error { return t.db.Rollback().Error }

// nopTx backs aggregates with neither a connection nor a boundary.
type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }
