package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/peer-match-api/internal/dto"
	"github.com/noah-isme/peer-match-api/internal/models"
	"github.com/noah-isme/peer-match-api/internal/repository"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// StudentService handles student registry use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns the newest students first.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Storage(err, "failed to load student")
	}
	return student, nil
}

// Create registers a student, defaulting rating and experience to 1.
func (s *StudentService) Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{}
	applyStudentRequest(student, req)
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Storage(err, "failed to create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("subject", student.Subject))
	return student, nil
}

// Update replaces a student's attributes.
func (s *StudentService) Update(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyStudentRequest(student, req)
	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Storage(err, "failed to update student")
	}
	return student, nil
}

// Delete removes a student that no session references.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		case errors.Is(err, repository.ErrReferenced):
			return appErrors.Clone(appErrors.ErrConflict, "student has sessions")
		default:
			return appErrors.Storage(err, "failed to delete student")
		}
	}
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

func applyStudentRequest(student *models.Student, req dto.StudentRequest) {
	student.Name = strings.TrimSpace(req.Name)
	student.Subject = strings.TrimSpace(req.Subject)
	student.RangeBudget = *req.RangeBudget
	student.Rating = models.DefaultStudentRating
	if req.Rating != nil {
		student.Rating = *req.Rating
	}
	student.Experience = models.DefaultStudentExperience
	if req.Experience != nil {
		student.Experience = *req.Experience
	}
}
