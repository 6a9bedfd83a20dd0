package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/milith0kun/Portafolio-sub000/config"
	"github.com/milith0kun/Portafolio-sub000/internal/dto"
	"github.com/milith0kun/Portafolio-sub000/internal/model"
	"github.com/milith0kun/Portafolio-sub000/internal/repository"
)

// ── evidence file errors ──

var (
	ErrFileTooLarge       = errors.New("file exceeds the configured size limit")
	ErrFileTypeNotAllowed = errors.New("file type is not allowed")
	ErrNodeNotLeaf        = errors.New("evidence can only be attached to leaf nodes")
	ErrUploadGateClosed   = errors.New("document uploads are disabled for this cycle")
	ErrUploadForbidden    = errors.New("node does not belong to the uploader")
)

// FileService stores and serves evidence files attached to leaf nodes.
type FileService interface {
	// Upload validates and persists one evidence file. The stored name is an
	// opaque uuid; the original name survives only as metadata.
	Upload(ctx context.Context, nodeID, uploaderID, role, originalName, mimeType string, size int64, src io.Reader) (*dto.FileResponse, error)
	ListByNode(ctx context.Context, nodeID string) ([]dto.FileResponse, error)
	// Resolve returns the file record and the absolute path for streaming.
	Resolve(ctx context.Context, fileID string) (*model.UploadedFile, string, error)
}

type fileService struct {
	cfg    *config.UploadConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFileService creates a FileService.
func NewFileService(cfg *config.UploadConfig, repo *repository.Repository, logger *zap.Logger) FileService {
	return &fileService{cfg: cfg, repo: repo, logger: logger}
}

// ────────────────────── Upload ──────────────────────

func (s *fileService) Upload(ctx context.Context, nodeID, uploaderID, role, originalName, mimeType string, size int64, src io.Reader) (*dto.FileResponse, error) {
	if size > int64(s.cfg.MaxSizeMB)*1024*1024 {
		return nil, ErrFileTooLarge
	}
	if !s.mimeAllowed(mimeType) {
		return nil, ErrFileTypeNotAllowed
	}

	node, err := s.repo.PortfolioNode.GetByID(ctx, nodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}
	if role == model.RoleInstructor && node.InstructorID != uploaderID {
		return nil, ErrUploadForbidden
	}

	children, err := s.repo.PortfolioNode.ListChildren(ctx, []string{node.NodeID})
	if err != nil {
		return nil, err
	}
	if len(children) > 0 {
		return nil, ErrNodeNotLeaf
	}

	if err := s.requireUploadGate(ctx, node.CycleID); err != nil {
		return nil, err
	}

	storedName := uuid.NewString() + filepath.Ext(originalName)
	if err := s.writeToDisk(storedName, src); err != nil {
		s.logger.Error("write upload failed", zap.String("node_id", nodeID), zap.Error(err))
		return nil, err
	}

	file := &model.UploadedFile{
		NodeID:       node.NodeID,
		UploaderID:   uploaderID,
		OriginalName: originalName,
		StoredName:   storedName,
		SizeBytes:    size,
		MimeType:     mimeType,
		Status:       model.FileStatusPending,
	}
	if err := s.repo.UploadedFile.Create(ctx, file); err != nil {
		// orphaned blob; the record is the source of truth
		_ = os.Remove(filepath.Join(s.cfg.Dir, storedName))
		return nil, err
	}

	s.logger.Info("evidence uploaded",
		zap.String("file_id", file.FileID),
		zap.String("node_id", node.NodeID),
		zap.Int64("size", size))

	return toFileResponse(file), nil
}

// requireUploadGate admits uploads while either intake (active phase) or
// document management (verifying phase) is open. Default-deny.
func (s *fileService) requireUploadGate(ctx context.Context, cycleID string) error {
	for _, module := range []string{model.ModuleDataIntake, model.ModuleDocumentManagement} {
		gate, err := s.repo.ModuleGate.Get(ctx, cycleID, module)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		if gate.Enabled {
			return nil
		}
	}
	return ErrUploadGateClosed
}

func (s *fileService) mimeAllowed(mimeType string) bool {
	for _, allowed := range s.cfg.AllowedMIMEs {
		if mimeType == allowed {
			return true
		}
	}
	return false
}

func (s *fileService) writeToDisk(storedName string, src io.Reader) error {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	dst, err := os.Create(filepath.Join(s.cfg.Dir, storedName))
	if err != nil {
		return err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return dst.Close()
}

// ────────────────────── ListByNode ──────────────────────

func (s *fileService) ListByNode(ctx context.Context, nodeID string) ([]dto.FileResponse, error) {
	if _, err := s.repo.PortfolioNode.GetByID(ctx, nodeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}

	files, err := s.repo.UploadedFile.ListByNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.FileResponse, 0, len(files))
	for i := range files {
		result = append(result, *toFileResponse(&files[i]))
	}
	return result, nil
}

// ────────────────────── Resolve ──────────────────────

func (s *fileService) Resolve(ctx context.Context, fileID string) (*model.UploadedFile, string, error) {
	file, err := s.repo.UploadedFile.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrFileNotFound
		}
		return nil, "", err
	}
	return file, filepath.Join(s.cfg.Dir, file.StoredName), nil
}

// ── helpers ──

func toFileResponse(file *model.UploadedFile) *dto.FileResponse {
	resp := &dto.FileResponse{
		ID:           file.FileID,
		NodeID:       file.NodeID,
		OriginalName: file.OriginalName,
		SizeBytes:    file.SizeBytes,
		MimeType:     file.MimeType,
		Status:       file.Status,
		Comment:      file.Comment,
		CreatedAt:    file.CreatedAt.Format(time.RFC3339),
	}
	if file.ReviewerID != nil {
		resp.ReviewerID = *file.ReviewerID
	}
	if file.ReviewedAt != nil {
		resp.ReviewedAt = file.ReviewedAt.Format(time.RFC3339)
	}
	return resp
}
