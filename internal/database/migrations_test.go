package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_SkipsAppliedSteps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	steps := []Migration{
		{Name: "001_a", Statements: []string{"CREATE TABLE a (id INT)"}},
		{Name: "002_b", Statements: []string{"CREATE TABLE b (id INT)", "CREATE TABLE c (id INT)"}},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name", "applied_at"}).AddRow("001_a", time.Now()))
	mock.ExpectExec(`CREATE TABLE b`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE c`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs("002_b").WillReturnResult(sqlmock.NewResult(1, 1))

	applied, err := apply(context.Background(), db, steps, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"002_b"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_StopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	steps := []Migration{
		{Name: "001_a", Statements: []string{"CREATE TABLE a (id INT)"}},
		{Name: "002_b", Statements: []string{"CREATE TABLE b (id INT)"}},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name", "applied_at"}))
	mock.ExpectExec(`CREATE TABLE a`).WillReturnError(errors.New("boom"))

	applied, err := apply(context.Background(), db, steps, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_a")
	assert.Empty(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_ResumesHalfAppliedStep(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	steps := []Migration{
		{Name: "003_add_columns", Statements: []string{
			"ALTER TABLE users ADD COLUMN is_suspended BOOLEAN",
			"ALTER TABLE facilities ADD COLUMN maintenance_until DATETIME NULL",
		}},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name", "applied_at"}))
	mock.ExpectExec("ALTER TABLE users ADD COLUMN is_suspended").
		WillReturnError(&mysql.MySQLError{Number: 1060, Message: "Duplicate column name 'is_suspended'"})
	mock.ExpectExec("ALTER TABLE facilities ADD COLUMN maintenance_until").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs("003_add_columns").WillReturnResult(sqlmock.NewResult(1, 1))

	applied, err := apply(context.Background(), db, steps, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"003_add_columns"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_OtherMySQLErrorsStop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	steps := []Migration{{Name: "002_b", Statements: []string{"ALTER TABLE reservations ADD COLUMN x INT"}}}
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name", "applied_at"}))
	mock.ExpectExec("ALTER TABLE reservations").
		WillReturnError(&mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"})

	applied, err := apply(context.Background(), db, steps, zerolog.Nop())
	require.Error(t, err)
	assert.Empty(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationNamesAreOrderedAndUnique(t *testing.T) {
	seen := map[string]bool{}
	prev := ""
	for _, m := range Migrations {
		assert.False(t, seen[m.Name], "duplicate %s", m.Name)
		assert.Greater(t, m.Name, prev)
		assert.NotEmpty(t, m.Statements)
		seen[m.Name] = true
		prev = m.Name
	}
}

func TestFacilityTypeFor(t *testing.T) {
	cases := map[string]string{
		"Aula Utama":      "Auditorium",
		"Lapangan Futsal": "Sports Facility",
		"Lab Komputer 2":  "Laboratory",
		"Ruang Rapat 3":   "Meeting Room",
		"Teras Baca":      "Outdoor",
		"Kelas Umum 201":  "Classroom",
		"Convention Hall": "Auditorium",
	}
	for name, want := range cases {
		assert.Equal(t, want, facilityTypeFor(name), name)
	}
}
