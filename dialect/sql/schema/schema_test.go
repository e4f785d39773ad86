package schema

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/norm/dialect"
	"github.com/syssam/norm/dialect/sql"
	"github.com/syssam/norm/schema/field"
)

func personTable() *Table {
	return NewTable("Person").
		AddColumn(ColumnOf(field.Primary("id").Descriptor(), nil)).
		AddColumn(ColumnOf(field.String("name").Length(64).Index(5).Descriptor(), nil)).
		AddColumn(ColumnOf(field.String("email").Unique().Index().Descriptor(), nil)).
		AddColumn(ColumnOf(field.String("handle").Unique().Descriptor(), nil)).
		AddColumn(ColumnOf(field.Int("age").Index().Descriptor(), nil)).
		AddColumn(ColumnOf(field.Reference("city", "City").Descriptor(), func(string) string { return "cities" }))
}

func TestCreateSQL(t *testing.T) {
	want := "CREATE TABLE IF NOT EXISTS Person (\n" +
		"\tid INT UNSIGNED NOT NULL PRIMARY KEY AUTO_INCREMENT,\n" +
		"\tname TINYTEXT,\n" +
		"\temail TEXT,\n" +
		"\thandle TEXT UNIQUE,\n" +
		"\tage INT,\n" +
		"\tcity INT UNSIGNED,\n" +
		"\tINDEX(name(5), age),\n" +
		"\tUNIQUE KEY(email)\n" +
		");"
	assert.Equal(t, want, personTable().CreateSQL())
	assert.Equal(t, "DROP TABLE IF EXISTS Person;", personTable().DropSQL())
}

func TestCreateSQLNoIndexes(t *testing.T) {
	tbl := NewTable("State").
		AddColumn(ColumnOf(field.Primary("id").Descriptor(), nil)).
		AddColumn(ColumnOf(field.String("name").NotNull().Descriptor(), nil))
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS State (\n"+
		"\tid INT UNSIGNED NOT NULL PRIMARY KEY AUTO_INCREMENT,\n"+
		"\tname TEXT NOT NULL\n"+
		");", tbl.CreateSQL())
}

func TestColumnOf(t *testing.T) {
	c := ColumnOf(field.Reference("city", "City").Descriptor(), func(s string) string { return s + "_t" })
	assert.Equal(t, "City_t", c.Ref)
	c = ColumnOf(field.Reference("city", "City").Descriptor(), nil)
	assert.Equal(t, "City", c.Ref)
	assert.True(t, c.Nullable)
}

func TestValidateTable(t *testing.T) {
	r := ValidateTable(personTable())
	assert.False(t, r.HasErrors(), r.String())
	require.True(t, r.HasWarnings())
	assert.Equal(t, "city", r.Warnings[0].Column)

	r = ValidateTable(NewTable("Empty"))
	require.Len(t, r.Errors, 2)
	assert.EqualError(t, r.Errors[1], "Empty: table has no primary key")

	tbl := NewTable("Twice").
		AddColumn(ColumnOf(field.Primary("id").Descriptor(), nil)).
		AddColumn(ColumnOf(field.Primary("other").Descriptor(), nil)).
		AddColumn(ColumnOf(field.Int("id").Descriptor(), nil))
	r = ValidateTable(tbl)
	require.Len(t, r.Errors, 2)
	assert.Contains(t, r.Errors[0].Error(), "2 primary keys: id, other")
	assert.EqualError(t, r.Errors[1], "Twice.id: duplicate column name")
	assert.Contains(t, r.Err().Error(), "duplicate column name")
}

func TestValidateSchema(t *testing.T) {
	city := NewTable("cities").AddColumn(ColumnOf(field.Primary("id").Descriptor(), nil))
	r := ValidateSchema([]*Table{personTable(), city})
	assert.NoError(t, r.Err())

	r = ValidateSchema([]*Table{personTable(), personTable()})
	require.True(t, r.HasErrors())
	assert.Contains(t, r.String(), "duplicate table name")
	assert.Contains(t, r.String(), `references non-existent table "cities"`)
	assert.Equal(t, "No issues found", (&ValidationResult{}).String())
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := sql.OpenDB(dialect.MySQL, db)
	city := NewTable("cities").AddColumn(ColumnOf(field.Primary("id").Descriptor(), nil))
	person := personTable()

	mock.ExpectExec(regexp.QuoteMeta(city.CreateSQL())).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(person.CreateSQL())).WillReturnResult(sqlmock.NewResult(0, 0))
	m := NewMigrate(drv)
	require.NoError(t, m.Create(context.Background(), city, person))

	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS Person;")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS cities;")).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, m.Drop(context.Background(), city, person))
	require.NoError(t, mock.ExpectationsWereMet())

	err = m.Create(context.Background(), NewTable("Empty"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table has no columns")
}
