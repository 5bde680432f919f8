package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	"github.com/noah-isme/fleet-backoffice-api/pkg/workflow"
)

func newSettingsRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestSettingsRepositoryListTransitions(t *testing.T) {
	db, mock, cleanup := newSettingsRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"status_from", "status_to"}).
		AddRow("NW", "AR").
		AddRow("NW", "RJ")
	mock.ExpectQuery("SELECT status_from, status_to FROM status_transitions").
		WithArgs("driver").
		WillReturnRows(rows)

	rules, err := NewSettingsRepository(db).ListTransitions(context.Background(), "driver")
	require.NoError(t, err)
	assert.Equal(t, []workflow.Rule{{From: "NW", To: "AR"}, {From: "NW", To: "RJ"}}, rules)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryListColorsEmpty(t *testing.T) {
	db, mock, cleanup := newSettingsRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT entity_type, status, color FROM status_colors").
		WithArgs("truck").
		WillReturnRows(sqlmock.NewRows([]string{"entity_type", "status", "color"}))

	colors, err := NewSettingsRepository(db).ListColors(context.Background(), "truck")
	require.NoError(t, err)
	assert.NotNil(t, colors)
	assert.Empty(t, colors)
}

func TestSettingsRepositoryReplace(t *testing.T) {
	db, mock, cleanup := newSettingsRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM status_transitions WHERE entity_type = $1")).
		WithArgs("driver").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO status_transitions").
		WithArgs("driver", "NW", "AR").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM status_colors WHERE entity_type = $1")).
		WithArgs("driver").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO status_colors").
		WithArgs("driver", "AC", "#00aa00").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := NewSettingsRepository(db).Replace(context.Background(), "driver",
		[]workflow.Rule{{From: "NW", To: "AR"}},
		[]models.StatusColor{{Status: "AC", Color: "#00aa00"}},
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryReplaceRollsBack(t *testing.T) {
	db, mock, cleanup := newSettingsRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM status_transitions").
		WithArgs("driver").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO status_transitions").
		WithArgs("driver", "NW", "AR").
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := NewSettingsRepository(db).Replace(context.Background(), "driver", []workflow.Rule{{From: "NW", To: "AR"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NW->AR")
	require.NoError(t, mock.ExpectationsWereMet())
}
