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
)

// ── verification module errors ──

var (
	ErrFileNotFound       = errors.New("file not found")
	ErrInvalidReviewState = errors.New("invalid review state")
	ErrReviewForbidden    = errors.New("reviewer is not assigned to this instructor")
)

var reviewStates = map[string]bool{
	model.FileStatusApproved:    true,
	model.FileStatusRejected:    true,
	model.FileStatusUnderReview: true,
}

// VerificationService mutates file review state and keeps root progress
// current.
type VerificationService interface {
	// ReviewFile applies one review transition and synchronously recomputes
	// the owning root's progress. A durable review whose aggregation failed
	// is reported with Stale=true rather than rolled back.
	ReviewFile(ctx context.Context, fileID, newStatus, reviewerID, comment string) (*dto.ReviewFileResponse, error)
	// ReviewBatch processes items independently and aggregates once per
	// distinct affected root.
	ReviewBatch(ctx context.Context, items []dto.ReviewBatchItem, reviewerID string) ([]dto.ReviewBatchResult, error)
}

type verificationService struct {
	repo      *repository.Repository
	portfolio PortfolioService
	logger    *zap.Logger
}

// NewVerificationService creates a VerificationService.
func NewVerificationService(repo *repository.Repository, portfolio PortfolioService, logger *zap.Logger) VerificationService {
	return &verificationService{repo: repo, portfolio: portfolio, logger: logger}
}

// ────────────────────── ReviewFile ──────────────────────

func (s *verificationService) ReviewFile(ctx context.Context, fileID, newStatus, reviewerID, comment string) (*dto.ReviewFileResponse, error) {
	rootID, resp, err := s.reviewOne(ctx, fileID, newStatus, reviewerID, comment)
	if err != nil {
		return nil, err
	}

	if _, err := s.portfolio.RecomputeProgress(ctx, rootID); err != nil {
		// the review write is already durable; surface staleness instead
		s.logger.Warn("progress aggregation failed after review",
			zap.String("file_id", fileID),
			zap.String("root_id", rootID),
			zap.Error(err))
		resp.Stale = true
	}

	return resp, nil
}

// reviewOne validates, authorizes and writes a single review transition,
// returning the owning root id for aggregation.
func (s *verificationService) reviewOne(ctx context.Context, fileID, newStatus, reviewerID, comment string) (string, *dto.ReviewFileResponse, error) {
	if !reviewStates[newStatus] {
		return "", nil, ErrInvalidReviewState
	}

	file, err := s.repo.UploadedFile.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrFileNotFound
		}
		s.logger.Error("get file failed", zap.String("file_id", fileID), zap.Error(err))
		return "", nil, err
	}

	node, err := s.repo.PortfolioNode.GetByID(ctx, file.NodeID)
	if err != nil {
		s.logger.Error("get file node failed", zap.String("node_id", file.NodeID), zap.Error(err))
		return "", nil, err
	}

	allowed, err := s.repo.VerifierAssignment.ExistsActive(ctx, reviewerID, node.InstructorID, node.CycleID)
	if err != nil {
		s.logger.Error("check verifier assignment failed", zap.Error(err))
		return "", nil, err
	}
	if !allowed {
		return "", nil, ErrReviewForbidden
	}

	now := time.Now()
	file.Status = newStatus
	file.ReviewerID = &reviewerID
	file.ReviewedAt = &now
	file.Comment = comment

	if err := s.repo.UploadedFile.UpdateReview(ctx, file); err != nil {
		s.logger.Error("write review failed", zap.String("file_id", fileID), zap.Error(err))
		return "", nil, err
	}

	rootID, err := s.resolveRoot(ctx, node)
	if err != nil {
		return "", nil, err
	}

	return rootID, &dto.ReviewFileResponse{
		ID:         file.FileID,
		Status:     file.Status,
		ReviewedAt: now.Format(time.RFC3339),
	}, nil
}

// resolveRoot walks parent pointers up to the portfolio root.
func (s *verificationService) resolveRoot(ctx context.Context, node *model.PortfolioNode) (string, error) {
	current := node
	for current.ParentID != nil {
		parent, err := s.repo.PortfolioNode.GetByID(ctx, *current.ParentID)
		if err != nil {
			return "", err
		}
		current = parent
	}
	return current.NodeID, nil
}

// ────────────────────── ReviewBatch ──────────────────────

func (s *verificationService) ReviewBatch(ctx context.Context, items []dto.ReviewBatchItem, reviewerID string) ([]dto.ReviewBatchResult, error) {
	results := make([]dto.ReviewBatchResult, 0, len(items))
	affectedRoots := make(map[string]bool)

	for _, item := range items {
		rootID, _, err := s.reviewOne(ctx, item.FileID, item.Status, reviewerID, item.Comment)
		if err != nil {
			// one bad item never blocks the rest
			results = append(results, dto.ReviewBatchResult{
				FileID:  item.FileID,
				Success: false,
				Error:   err.Error(),
			})
			continue
		}
		affectedRoots[rootID] = true
		results = append(results, dto.ReviewBatchResult{FileID: item.FileID, Success: true})
	}

	// aggregate once per distinct root, not once per file
	for rootID := range affectedRoots {
		if _, err := s.portfolio.RecomputeProgress(ctx, rootID); err != nil {
			s.logger.Warn("progress aggregation failed after batch review",
				zap.String("root_id", rootID),
				zap.Error(err))
		}
	}

	return results, nil
}
