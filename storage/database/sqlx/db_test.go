package sqlxdb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/tests"
)

// setup migrates the database at TEST_DATABASE_URL and rolls it back once the test is done.
func setup(t *testing.T) *sqlx.DB {
	url := testutil.LookupURL(t, "TEST_DATABASE_URL")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Open(ctx, url)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		_ = MigrateCommand(db, "down-to", 0)
		_ = db.Close()
	})
	return db
}

func Test_userRepository(t *testing.T) {
	testutil.RunUserRepositoryTests(t, NewUserRepository(setup(t)))
}

func Test_appointmentRepository(t *testing.T) {
	testutil.RunAppointmentRepositoryTests(
		t, NewAppointmentRepository(setup(t)), uuid.NewString(), uuid.NewString(), uuid.NewString(),
	)
}

func Test_messageRepository(t *testing.T) {
	testutil.RunMessageRepositoryTests(
		t, NewMessageRepository(setup(t)), uuid.NewString(), uuid.NewString(), uuid.NewString(),
	)
}

func TestMigrateCommand(t *testing.T) {
	db := setup(t)

	require.NoError(t, MigrateCommand(db, "down", 0))
	require.NoError(t, MigrateCommand(db, "up-by-one", 0))
	require.NoError(t, MigrateCommand(db, "redo", 0))
	require.NoError(t, MigrateCommand(db, "up", 0))
	assert.EqualError(t, MigrateCommand(db, "lol", 0), `"lol": no such command`)
}

func Test_isUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: uniqueViolation}))
	assert.True(t, isUniqueViolation(errors.Wrap(&pq.Error{Code: uniqueViolation}, "inserting user")))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("lol")))
}
