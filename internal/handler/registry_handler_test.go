package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peer-match-api/internal/dto"
	"github.com/noah-isme/peer-match-api/internal/models"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
)

type studentServiceMock struct {
	items     []models.Student
	err       error
	lastID    string
	lastReq   dto.StudentRequest
	deletedID string
}

func (m *studentServiceMock) List(ctx context.Context) ([]models.Student, error) {
	return m.items, m.err
}

func (m *studentServiceMock) Get(ctx context.Context, id string) (*models.Student, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return &models.Student{ID: id, Name: "Ana"}, nil
}

func (m *studentServiceMock) Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Student{ID: "s-new", Name: req.Name, Subject: req.Subject}, nil
}

func (m *studentServiceMock) Update(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error) {
	m.lastID = id
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Student{ID: id, Name: req.Name}, nil
}

func (m *studentServiceMock) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	return m.err
}

type peerServiceMock struct {
	items      []models.Peer
	err        error
	lastDomain string
	lastReq    dto.PeerRequest
	lastActor  *models.Actor
	deletedID  string
}

func (m *peerServiceMock) List(ctx context.Context, domain string) ([]models.Peer, error) {
	m.lastDomain = domain
	return m.items, m.err
}

func (m *peerServiceMock) Get(ctx context.Context, id string) (*models.Peer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Peer{ID: id}, nil
}

func (m *peerServiceMock) Create(ctx context.Context, req dto.PeerRequest) (*models.Peer, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Peer{ID: "p-new", Name: req.Name, Domain: req.Domain}, nil
}

func (m *peerServiceMock) Update(ctx context.Context, id string, req dto.PeerRequest, actor *models.Actor) (*models.Peer, error) {
	m.lastReq = req
	m.lastActor = actor
	if m.err != nil {
		return nil, m.err
	}
	return &models.Peer{ID: id, Name: req.Name}, nil
}

func (m *peerServiceMock) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	return m.err
}

func TestStudentHandlerCreate(t *testing.T) {
	svc := &studentServiceMock{}
	h := NewStudentHandler(svc)

	c, w := jsonContext(http.MethodPost, "/students", `{"name":"Ana","subject":"Algebra","range_budget":2000}`)
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Ana", svc.lastReq.Name)
	require.NotNil(t, svc.lastReq.RangeBudget)
	assert.Equal(t, 2000.0, *svc.lastReq.RangeBudget)
}

func TestStudentHandlerGetNotFound(t *testing.T) {
	h := NewStudentHandler(&studentServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "student not found")})

	c, w := jsonContext(http.MethodGet, "/students/s9", "")
	c.Params = gin.Params{{Key: "id", Value: "s9"}}
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "student not found", decodeEnvelope(t, w).Error.Message)
}

func TestStudentHandlerDelete(t *testing.T) {
	svc := &studentServiceMock{}
	h := NewStudentHandler(svc)

	c, w := jsonContext(http.MethodDelete, "/students/s1", "")
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	h.Delete(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", svc.deletedID)
	var body dto.DeletedResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &body))
	assert.Equal(t, "s1", body.ID)
}

func TestStudentHandlerDeleteConflict(t *testing.T) {
	h := NewStudentHandler(&studentServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "student has sessions")})

	c, w := jsonContext(http.MethodDelete, "/students/s1", "")
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	h.Delete(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStudentHandlerUpdateInvalidBody(t *testing.T) {
	svc := &studentServiceMock{}
	h := NewStudentHandler(svc)

	c, w := jsonContext(http.MethodPut, "/students/s1", `[]`)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	h.Update(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.lastID)
}

func TestPeerHandlerListFiltersByDomain(t *testing.T) {
	svc := &peerServiceMock{items: []models.Peer{{ID: "p1", Domain: "math"}}}
	h := NewPeerHandler(svc)

	c, w := jsonContext(http.MethodGet, "/peers?domain=Math", "")
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Math", svc.lastDomain)
	var peers []models.Peer
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &peers))
	require.Len(t, peers, 1)
}

func TestPeerHandlerCreateValidationError(t *testing.T) {
	h := NewPeerHandler(&peerServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "access_code too short")})

	c, w := jsonContext(http.MethodPost, "/peers", `{"name":"Budi","domain":"math","access_code":"123"}`)
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPeerHandlerDelete(t *testing.T) {
	svc := &peerServiceMock{}
	h := NewPeerHandler(svc)

	c, w := jsonContext(http.MethodDelete, "/peers/p1", "")
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	h.Delete(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p1", svc.deletedID)
}
