package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/milith0kun/Portafolio-sub000/internal/dto"
	"github.com/milith0kun/Portafolio-sub000/internal/model"
	"github.com/milith0kun/Portafolio-sub000/internal/repository"
)

// TemplateService exposes the structure-section taxonomy used to
// materialize portfolio trees.
type TemplateService interface {
	List(ctx context.Context) ([]dto.SectionResponse, error)
	// Seed inserts the default taxonomy when the table is empty; a no-op
	// otherwise. Called once at startup.
	Seed(ctx context.Context) error
}

type templateService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTemplateService creates a TemplateService.
func NewTemplateService(repo *repository.Repository, logger *zap.Logger) TemplateService {
	return &templateService{repo: repo, logger: logger}
}

// defaultSections is the canonical portfolio folder taxonomy.
var defaultSections = []model.StructureSection{
	{Name: "Curricular Information", Level: 1, SortOrder: 1, Icon: "folder"},
	{Name: "Syllabus", Level: 1, SortOrder: 2, Icon: "file-text"},
	{Name: "Class Material", Level: 1, SortOrder: 3, Icon: "folder"},
	{Name: "Assignments and Rubrics", Level: 1, SortOrder: 4, Icon: "folder"},
	{Name: "Exams", Level: 1, SortOrder: 5, Icon: "folder"},
	{Name: "Student Work Samples", Level: 1, SortOrder: 6, Icon: "folder"},
	{Name: "Attendance Records", Level: 1, SortOrder: 7, Icon: "calendar"},
	{Name: "Course Closing Report", Level: 1, SortOrder: 8, Icon: "file-text"},
}

func (s *templateService) List(ctx context.Context) ([]dto.SectionResponse, error) {
	sections, err := s.repo.Section.ListActive(ctx)
	if err != nil {
		s.logger.Error("list template sections failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SectionResponse, 0, len(sections))
	for i := range sections {
		sec := &sections[i]
		resp := dto.SectionResponse{
			ID:        sec.SectionID,
			Name:      sec.Name,
			Level:     sec.Level,
			SortOrder: sec.SortOrder,
			Icon:      sec.Icon,
		}
		if sec.ParentID != nil {
			resp.ParentID = *sec.ParentID
		}
		result = append(result, resp)
	}
	return result, nil
}

func (s *templateService) Seed(ctx context.Context) error {
	count, err := s.repo.Section.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	sections := make([]model.StructureSection, len(defaultSections))
	copy(sections, defaultSections)
	for i := range sections {
		sections[i].IsActive = true
	}

	if err := s.repo.Section.CreateBatch(ctx, sections); err != nil {
		s.logger.Error("seed template sections failed", zap.Error(err))
		return err
	}

	s.logger.Info("structure template seeded", zap.Int("sections", len(sections)))
	return nil
}
