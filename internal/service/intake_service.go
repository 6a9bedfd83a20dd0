package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/milith0kun/Portafolio-sub000/internal/dto"
	"github.com/milith0kun/Portafolio-sub000/internal/model"
	"github.com/milith0kun/Portafolio-sub000/internal/repository"
)

// ── intake module errors ──

var (
	ErrIntakeNoData      = errors.New("spreadsheet contains no data rows")
	ErrIntakeBadHeader   = errors.New("spreadsheet header is missing required columns")
	ErrIntakeTooManyRows = errors.New("spreadsheet exceeds the row limit")
)

const maxIntakeRows = 2000

// RosterRow is one parsed roster spreadsheet row.
type RosterRow struct {
	Row            int
	Name           string
	Email          string
	DocumentNumber string
	Role           string
}

// AssignmentRow is one parsed teaching-assignment spreadsheet row.
type AssignmentRow struct {
	Row             int
	InstructorEmail string
	SubjectID       string
	SubjectName     string
	GroupLabel      string
}

// VerifierRow is one parsed verifier-assignment spreadsheet row.
type VerifierRow struct {
	Row             int
	VerifierEmail   string
	InstructorEmail string
}

// IntakeService turns spreadsheets into the validated roster and assignment
// records the portfolio engine consumes. Every operation requires the
// owning cycle's data_intake gate.
type IntakeService interface {
	ParseRoster(reader io.Reader) ([]RosterRow, error)
	ImportRoster(ctx context.Context, cycleID string, rows []RosterRow, callerID string) (*dto.IntakeResponse, error)
	ParseAssignments(reader io.Reader) ([]AssignmentRow, error)
	ImportAssignments(ctx context.Context, cycleID string, rows []AssignmentRow, callerID string) (*dto.IntakeResponse, error)
	ParseVerifiers(reader io.Reader) ([]VerifierRow, error)
	ImportVerifiers(ctx context.Context, cycleID string, rows []VerifierRow, callerID string) (*dto.IntakeResponse, error)
	ListAssignments(ctx context.Context, cycleID string) ([]dto.AssignmentResponse, error)
}

type intakeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewIntakeService creates an IntakeService.
func NewIntakeService(repo *repository.Repository, logger *zap.Logger) IntakeService {
	return &intakeService{repo: repo, logger: logger}
}

// requireIntakeGate enforces the default-deny data_intake gate.
func (s *intakeService) requireIntakeGate(ctx context.Context, cycleID string) error {
	if _, err := s.repo.Cycle.GetByID(ctx, cycleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCycleNotFound
		}
		return err
	}
	gate, err := s.repo.ModuleGate.Get(ctx, cycleID, model.ModuleDataIntake)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIntakeGateClosed
		}
		return err
	}
	if !gate.Enabled {
		return ErrIntakeGateClosed
	}
	return nil
}

// ────────────────────── roster ──────────────────────

func (s *intakeService) ParseRoster(reader io.Reader) ([]RosterRow, error) {
	excelRows, err := openSheet(reader)
	if err != nil {
		return nil, err
	}

	colIndex := headerIndex(excelRows[0], []string{"name", "email", "document", "role"})
	if colIndex["name"] < 0 || colIndex["email"] < 0 || colIndex["document"] < 0 {
		return nil, ErrIntakeBadHeader
	}

	var rows []RosterRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := RosterRow{Row: i + 1, Role: model.RoleInstructor}

		if idx := colIndex["name"]; idx >= 0 && idx < len(row) {
			item.Name = strings.TrimSpace(row[idx])
		}
		if idx := colIndex["email"]; idx >= 0 && idx < len(row) {
			item.Email = strings.TrimSpace(row[idx])
		}
		if idx := colIndex["document"]; idx >= 0 && idx < len(row) {
			item.DocumentNumber = strings.TrimSpace(row[idx])
		}
		if idx := colIndex["role"]; idx >= 0 && idx < len(row) && strings.TrimSpace(row[idx]) != "" {
			item.Role = strings.ToLower(strings.TrimSpace(row[idx]))
		}

		if item.Name == "" && item.Email == "" && item.DocumentNumber == "" {
			continue // skip blank lines
		}
		rows = append(rows, item)
	}

	return checkRowCount(rows)
}

func (s *intakeService) ImportRoster(ctx context.Context, cycleID string, rows []RosterRow, callerID string) (*dto.IntakeResponse, error) {
	if err := s.requireIntakeGate(ctx, cycleID); err != nil {
		return nil, err
	}

	resp := &dto.IntakeResponse{Errors: []dto.IntakeRowError{}}
	for _, row := range rows {
		if row.Name == "" || row.Email == "" || row.DocumentNumber == "" {
			resp.Errors = append(resp.Errors, dto.IntakeRowError{Row: row.Row, Reason: "required field empty"})
			continue
		}
		if row.Role != model.RoleInstructor && row.Role != model.RoleVerifier && row.Role != model.RoleAdministrator {
			resp.Errors = append(resp.Errors, dto.IntakeRowError{Row: row.Row, Reason: fmt.Sprintf("unknown role: %s", row.Role)})
			continue
		}
		if _, err := s.repo.User.GetByEmail(ctx, row.Email); err == nil {
			resp.SkippedCount++
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(row.DocumentNumber), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user := &model.User{
			Name:           row.Name,
			Email:          row.Email,
			DocumentNumber: row.DocumentNumber,
			PasswordHash:   string(hash),
			Role:           row.Role,
			IsActive:       true,
		}
		user.CreatedBy = &callerID
		user.UpdatedBy = &callerID

		if err := s.repo.User.Create(ctx, user); err != nil {
			s.logger.Warn("roster row insert failed", zap.Int("row", row.Row), zap.Error(err))
			resp.Errors = append(resp.Errors, dto.IntakeRowError{Row: row.Row, Reason: "insert failed"})
			continue
		}
		resp.CreatedCount++
	}

	return resp, nil
}

// ────────────────────── teaching assignments ──────────────────────

func (s *intakeService) ParseAssignments(reader io.Reader) ([]AssignmentRow, error) {
	excelRows, err := openSheet(reader)
	if err != nil {
		return nil, err
	}

	colIndex := headerIndex(excelRows[0], []string{"instructor_email", "subject_id", "subject_name", "group"})
	if colIndex["instructor_email"] < 0 || colIndex["subject_id"] < 0 || colIndex["group"] < 0 {
		return nil, ErrIntakeBadHeader
	}

	var rows []AssignmentRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := AssignmentRow{Row: i + 1}

		if idx := colIndex["instructor_email"]; idx >= 0 && idx < len(row) {
			item.InstructorEmail = strings.TrimSpace(row[idx])
		}
		if idx := colIndex["subject_id"]; idx >= 0 && idx < len(row) {
			item.SubjectID = strings.TrimSpace(row[idx])
		}
		if idx := colIndex["subject_name"]; idx >= 0 && idx < len(row) {
			item.SubjectName = strings.TrimSpace(row[idx])
		}
		if idx := colIndex["group"]; idx >= 0 && idx < len(row) {
			item.GroupLabel = strings.TrimSpace(row[idx])
		}

		if item.InstructorEmail == "" && item.SubjectID == "" {
			continue
		}
		rows = append(rows, item)
	}

	return checkRowCount(rows)
}

func (s *intakeService) ImportAssignments(ctx context.Context, cycleID string, rows []AssignmentRow, callerID string) (*dto.IntakeResponse, error) {
	if err := s.requireIntakeGate(ctx, cycleID); err != nil {
		return nil, err
	}

	resp := &dto.IntakeResponse{Errors: []dto.IntakeRowError{}}
	for _, row := range rows {
		if row.InstructorEmail == "" || row.SubjectID == "" || row.GroupLabel == "" {
			resp.Errors = append(resp.Errors, dto.IntakeRowError{Row: row.Row, Reason: "required field empty"})
			continue
		}

		instructor, err := s.repo.User.GetByEmail(ctx, row.InstructorEmail)
		if err != nil {
			resp.Errors = append(resp.Errors, dto.IntakeRowError{Row: row.Row, Reason: fmt.Sprintf("instructor not found: %s", row.InstructorEmail)})
			continue
		}

		if _, err := s.repo.TeachingAssignment.GetByIdentity(ctx, instructor.UserID, row.SubjectID, cycleID, row.GroupLabel); err == nil {
			resp.SkippedCount++
			continue
		}

		subjectName := row.SubjectName
		if subjectName == "" {
			subjectName = row.SubjectID
		}
		assignment := &model.TeachingAssignment{
			InstructorID: instructor.UserID,
			SubjectID:    row.SubjectID,
			SubjectName:  subjectName,
			CycleID:      cycleID,
			GroupLabel:   row.GroupLabel,
			IsActive:     true,
		}
		assignment.CreatedBy = &callerID
		assignment.UpdatedBy = &callerID

		if err := s.repo.TeachingAssignment.Create(ctx, assignment); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				resp.SkippedCount++
				continue
			}
			s.logger.Warn("assignment row insert failed", zap.Int("row", row.Row), zap.Error(err))
			resp.Errors = append(resp.Errors, dto.IntakeRowError{Row: row.Row, Reason: "insert failed"})
			continue
		}
		resp.CreatedCount++
	}

	return resp, nil
}

// ────────────────────── verifier assignments ──────────────────────

func (s *intakeService) ParseVerifiers(reader io.Reader) ([]VerifierRow, error) {
	excelRows, err := openSheet(reader)
	if err != nil {
		return nil, err
	}

	colIndex := headerIndex(excelRows[0], []string{"verifier_email", "instructor_email"})
	if colIndex["verifier_email"] < 0 || colIndex["instructor_email"] < 0 {
		return nil, ErrIntakeBadHeader
	}

	var rows []VerifierRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := VerifierRow{Row: i + 1}

		if idx := colIndex["verifier_email"]; idx >= 0 && idx < len(row) {
			item.VerifierEmail = strings.TrimSpace(row[idx])
		}
		if idx := colIndex["instructor_email"]; idx >= 0 && idx < len(row) {
			item.InstructorEmail = strings.TrimSpace(row[idx])
		}

		if item.VerifierEmail == "" && item.InstructorEmail == "" {
			continue
		}
		rows = append(rows, item)
	}

	return checkRowCount(rows)
}

func (s *intakeService) ImportVerifiers(ctx context.Context, cycleID string, rows []VerifierRow, callerID string) (*dto.IntakeResponse, error) {
	if err := s.requireIntakeGate(ctx, cycleID); err != nil {
		return nil, err
	}

	resp := &dto.IntakeResponse{Errors: []dto.IntakeRowError{}}
	for _, row := range rows {
		if row.VerifierEmail == "" || row.InstructorEmail == "" {
			resp.Errors = append(resp.Errors, dto.IntakeRowError{Row: row.Row, Reason: "required field empty"})
			continue
		}

		verifier, err := s.repo.User.GetByEmail(ctx, row.VerifierEmail)
		if err != nil {
			resp.Errors = append(resp.Errors, dto.IntakeRowError{Row: row.Row, Reason: fmt.Sprintf("verifier not found: %s", row.VerifierEmail)})
			continue
		}
		instructor, err := s.repo.User.GetByEmail(ctx, row.InstructorEmail)
		if err != nil {
			resp.Errors = append(resp.Errors, dto.IntakeRowError{Row: row.Row, Reason: fmt.Sprintf("instructor not found: %s", row.InstructorEmail)})
			continue
		}

		exists, err := s.repo.VerifierAssignment.ExistsActive(ctx, verifier.UserID, instructor.UserID, cycleID)
		if err != nil {
			return nil, err
		}
		if exists {
			resp.SkippedCount++
			continue
		}

		assignment := &model.VerifierAssignment{
			VerifierID:   verifier.UserID,
			InstructorID: instructor.UserID,
			CycleID:      cycleID,
			IsActive:     true,
		}
		assignment.CreatedBy = &callerID
		assignment.UpdatedBy = &callerID

		if err := s.repo.VerifierAssignment.Create(ctx, assignment); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				resp.SkippedCount++
				continue
			}
			s.logger.Warn("verifier row insert failed", zap.Int("row", row.Row), zap.Error(err))
			resp.Errors = append(resp.Errors, dto.IntakeRowError{Row: row.Row, Reason: "insert failed"})
			continue
		}
		resp.CreatedCount++
	}

	return resp, nil
}

// ────────────────────── ListAssignments ──────────────────────

func (s *intakeService) ListAssignments(ctx context.Context, cycleID string) ([]dto.AssignmentResponse, error) {
	assignments, err := s.repo.TeachingAssignment.ListActiveByCycle(ctx, cycleID)
	if err != nil {
		s.logger.Error("list assignments failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		a := &assignments[i]
		result = append(result, dto.AssignmentResponse{
			ID:           a.AssignmentID,
			InstructorID: a.InstructorID,
			SubjectID:    a.SubjectID,
			SubjectName:  a.SubjectName,
			CycleID:      a.CycleID,
			GroupLabel:   a.GroupLabel,
			IsActive:     a.IsActive,
		})
	}
	return result, nil
}

// ── spreadsheet helpers ──

func openSheet(reader io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrIntakeNoData
	}
	return rows, nil
}

// headerIndex maps wanted column names to their indices; flexible ordering.
func headerIndex(header []string, wanted []string) map[string]int {
	idx := make(map[string]int, len(wanted))
	for _, w := range wanted {
		idx[w] = -1
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		if _, ok := idx[lower]; ok {
			idx[lower] = i
		}
	}
	return idx
}

func checkRowCount[T any](rows []T) ([]T, error) {
	if len(rows) == 0 {
		return nil, ErrIntakeNoData
	}
	if len(rows) > maxIntakeRows {
		return nil, ErrIntakeTooManyRows
	}
	return rows, nil
}
