package customer

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

const (
	selectQuery = `SELECT id, user_id, phone, birth_date, membership FROM customers WHERE user_id = $1`
	insertQuery = `
		INSERT INTO customers (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`
)

func customerRow(id, userID string, membership Membership) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "phone", "birth_date", "membership"}).
		AddRow(id, userID, "", nil, membership)
}

func TestGetByUserID_NotFoundReturnsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("user-missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "phone", "birth_date", "membership"}))

	c, err := repo.GetByUserID(context.Background(), "user-missing")
	require.NoError(t, err)
	require.Nil(t, c)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUserID_PropagatesStorageErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("user-1").
		WillReturnError(errors.New("db down"))

	c, err := repo.GetByUserID(context.Background(), "user-1")
	require.Error(t, err)
	require.Nil(t, c)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreate_ReturnsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("user-1").
		WillReturnRows(customerRow("cust-1", "user-1", MembershipGold))

	c, err := repo.GetOrCreate(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "cust-1", c.ID)
	require.Equal(t, MembershipGold, c.Membership)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreate_InsertsOnAbsence(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("user-new").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "phone", "birth_date", "membership"}))
	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WithArgs(sqlmock.AnyArg(), "user-new").
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, err := repo.GetOrCreate(context.Background(), "user-new")
	require.NoError(t, err)
	require.Equal(t, "user-new", c.UserID)
	require.Equal(t, MembershipBronze, c.Membership)
	require.NotEmpty(t, c.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreate_LostRaceReloadsWinnerRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("user-racy").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "phone", "birth_date", "membership"}))
	// ON CONFLICT DO NOTHING: zero rows affected means another request won.
	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WithArgs(sqlmock.AnyArg(), "user-racy").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("user-racy").
		WillReturnRows(customerRow("cust-winner", "user-racy", MembershipBronze))

	c, err := repo.GetOrCreate(context.Background(), "user-racy")
	require.NoError(t, err)
	require.Equal(t, "cust-winner", c.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_ReportsMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE customers SET phone = $2, birth_date = $3, membership = $4
		WHERE user_id = $1`)).
		WithArgs("user-missing", "555-0100", nil, MembershipSilver).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Update(context.Background(), &Customer{
		UserID:     "user-missing",
		Phone:      "555-0100",
		Membership: MembershipSilver,
	})
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
