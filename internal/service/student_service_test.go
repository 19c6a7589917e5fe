package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peer-match-api/internal/dto"
	"github.com/noah-isme/peer-match-api/internal/models"
	"github.com/noah-isme/peer-match-api/internal/repository"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
)

func floatPtr(v float64) *float64 { return &v }

func TestStudentServiceCreateAppliesDefaults(t *testing.T) {
	repo := &fakeStudentRepo{}
	svc := NewStudentService(repo, nil, nil)

	student, err := svc.Create(context.Background(), dto.StudentRequest{Name: " Ana ", Subject: "Math", RangeBudget: floatPtr(2500)})
	require.NoError(t, err)
	assert.Equal(t, "Ana", student.Name)
	assert.Equal(t, models.DefaultStudentRating, student.Rating)
	assert.Equal(t, models.DefaultStudentExperience, student.Experience)
	assert.Len(t, repo.items, 1)
}

func TestStudentServiceCreateValidation(t *testing.T) {
	svc := NewStudentService(&fakeStudentRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), dto.StudentRequest{Name: "Ana", Subject: "Math"})
	assertAppError(t, err, appErrors.ErrValidation.Code)

	_, err = svc.Create(context.Background(), dto.StudentRequest{Name: "Ana", Subject: "Math", RangeBudget: floatPtr(-1)})
	assertAppError(t, err, appErrors.ErrValidation.Code)
}

func TestStudentServiceGetUpdateDelete(t *testing.T) {
	repo := &fakeStudentRepo{items: []models.Student{{ID: "s1", Name: "Ana", Subject: "Math", RangeBudget: 1000, Rating: 1, Experience: 1}}}
	svc := NewStudentService(repo, nil, nil)

	updated, err := svc.Update(context.Background(), "s1", dto.StudentRequest{Name: "Ana", Subject: "Physics", RangeBudget: floatPtr(4000), Experience: floatPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, "Physics", updated.Subject)
	assert.Equal(t, 3.0, updated.Experience)

	got, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 4000.0, got.RangeBudget)

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	_, err = svc.Get(context.Background(), "s1")
	assertAppError(t, err, appErrors.ErrNotFound.Code)

	err = svc.Delete(context.Background(), "s1")
	assertAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestStudentServiceDeleteReferenced(t *testing.T) {
	repo := &fakeStudentRepo{writeErr: fmt.Errorf("wrapped: %w", repository.ErrReferenced)}
	svc := NewStudentService(repo, nil, nil)

	err := svc.Delete(context.Background(), "s1")
	assertAppError(t, err, appErrors.ErrConflict.Code)
}

func TestStudentServiceListNewestFirst(t *testing.T) {
	repo := &fakeStudentRepo{items: []models.Student{{ID: "old"}, {ID: "new"}}}
	svc := NewStudentService(repo, nil, nil)

	students, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", students[0].ID)

	repo.listErr = errors.New("down")
	_, err = svc.List(context.Background())
	assertAppError(t, err, appErrors.ErrStorage.Code)
}
