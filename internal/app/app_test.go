package app

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/peer-match-api/internal/dto"
	"github.com/noah-isme/peer-match-api/internal/models"
	"github.com/noah-isme/peer-match-api/pkg/config"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("JWT_SECRET", "app-secret")
	t.Setenv("ENABLE_METRICS", "false")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestBuildWiresServices(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	c := Build(testConfig(t), zap.NewNop(), sqlxDB, nil)

	assert.NotNil(t, c.Matches)
	assert.NotNil(t, c.Sessions)
	assert.NotNil(t, c.Students)
	assert.NotNil(t, c.Peers)
	assert.Nil(t, c.Metrics, "metrics disabled")

	issued, err := c.Auth.IssueToken(models.RoleAdmin, "ops", "")
	require.NoError(t, err)
	claims, err := c.Auth.ValidateToken(issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	mock.ExpectClose()
	c.Close()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildRunsBulkMatchWithLocalLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := Build(testConfig(t), zap.NewNop(), sqlx.NewDb(db, "sqlmock"), nil)

	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery("FROM students").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("FROM peers").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = c.Matches.RunBulkMatch(context.Background(), dto.BulkMatchRequest{})
	assert.ErrorIs(t, err, appErrors.ErrInsufficientInput)
}
