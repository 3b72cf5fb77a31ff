package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestClassify(t *testing.T) {
	other := errors.New("boom")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, ErrDuplicate},
		{"foreign key", &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, ErrForeignKey},
		{"check", &mysql.MySQLError{Number: 3819, Message: "Check constraint is violated"}, ErrCheck},
		{"other mysql", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout"}, nil},
		{"plain", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.in)
			if tt.name == "other mysql" {
				var me *mysql.MySQLError
				assert.True(t, errors.As(got, &me))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_real\\`, escapeLike(`100% _real\`))
}

func TestUserRepoCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("jiwoo", "jiwoo@example.com", "hash").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'jiwoo'"})

	_, err := repo.Create(context.Background(), "jiwoo", "Jiwoo@Example.com", "hash")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepoGetByIdentifier(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM users WHERE username = \? OR email = \?`).
		WithArgs("Jiwoo@Example.com", "jiwoo@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
			AddRow(3, "jiwoo", "jiwoo@example.com", "hash", created))
	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \?`).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}))

	u, err := repo.GetByIdentifier(context.Background(), "Jiwoo@Example.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u.ID)
	assert.Equal(t, "jiwoo", u.Username)

	_, err = repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTokenRepoValidateRefresh(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)
	future := time.Now().UTC().Add(time.Hour)
	past := time.Now().UTC().Add(-time.Hour)
	cols := []string{"user_id", "expires_at", "revoked_at"}

	mock.ExpectQuery(`SELECT user_id, expires_at, revoked_at FROM refresh_tokens`).
		WithArgs("live").WillReturnRows(sqlmock.NewRows(cols).AddRow(5, future, nil))
	mock.ExpectQuery(`SELECT user_id, expires_at, revoked_at FROM refresh_tokens`).
		WithArgs("expired").WillReturnRows(sqlmock.NewRows(cols).AddRow(5, past, nil))
	mock.ExpectQuery(`SELECT user_id, expires_at, revoked_at FROM refresh_tokens`).
		WithArgs("revoked").WillReturnRows(sqlmock.NewRows(cols).AddRow(5, future, past))

	uid, err := repo.ValidateRefresh(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), uid)

	_, err = repo.ValidateRefresh(context.Background(), "expired")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = repo.ValidateRefresh(context.Background(), "revoked")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
