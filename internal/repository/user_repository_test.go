package repository

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/navflow/navflow-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return db, mock
}

func TestFindByUsernameIsCaseInsensitive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "username", "created_at"}).
		AddRow(1, "alice@example.com", "alice", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`LOWER(username) = $1`)).
		WithArgs("alice", 1).
		WillReturnRows(rows)

	user, err := repo.FindByUsername("ALICE")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTranslatesUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_username"}
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).WillReturnError(pgErr)
	mock.ExpectRollback()

	err := repo.Create(&models.User{
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "x",
	})
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	require.False(t, IsUniqueViolation(nil))
	require.False(t, IsUniqueViolation(errors.New("connection refused")))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))

	require.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	// The sqlite driver reports constraint violations as plain strings.
	require.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: users.username")))
}
