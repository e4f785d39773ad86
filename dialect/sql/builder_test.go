package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilders(t *testing.T) {
	tests := []struct {
		name     string
		input    Querier
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "select all",
			input:   Select("Person.id", "Person.name").From("Person"),
			wantSQL: "SELECT Person.id, Person.name FROM Person;",
		},
		{
			name: "select joined",
			input: Select("Person.id").
				From("Person", "City").
				Where(EQ("City.name", "Oslo"), ColumnsEQ("Person.city", "City.id")),
			wantSQL:  "SELECT Person.id FROM Person, City WHERE City.name = ? AND Person.city = City.id;",
			wantArgs: []any{"Oslo"},
		},
		{
			name: "select ordered",
			input: Select("Person.id").
				From("Person").
				OrderBy("Person.age DESC", "Person.id ASC").
				Limit(5),
			wantSQL: "SELECT Person.id FROM Person ORDER BY Person.age DESC, Person.id ASC LIMIT 5;",
		},
		{
			name: "select order separator",
			input: Select("Person.id").
				From("Person").
				OrderBy("Person.age DESC", "Person.id ASC").
				OrderSeparator(" AND "),
			wantSQL: "SELECT Person.id FROM Person ORDER BY Person.age DESC AND Person.id ASC;",
		},
		{
			name:    "select zero limit",
			input:   Select("Person.id").From("Person").Limit(0),
			wantSQL: "SELECT Person.id FROM Person;",
		},
		{
			name:     "insert",
			input:    Insert("Person").Set("name", "Ann").Set("age", int64(30)),
			wantSQL:  "INSERT INTO Person (name, age) VALUES (?, ?);",
			wantArgs: []any{"Ann", int64(30)},
		},
		{
			name: "update",
			input: Update("Person").
				Set("name", "Bo").
				Where(EQ("Person.id", int64(1))),
			wantSQL:  "UPDATE Person SET name = ? WHERE Person.id = ?;",
			wantArgs: []any{"Bo", int64(1)},
		},
		{
			name:     "delete",
			input:    Delete("Person").Where(EQ("Person.id", int64(3))).Limit(1),
			wantSQL:  "DELETE FROM Person WHERE Person.id = ? LIMIT 1;",
			wantArgs: []any{int64(3)},
		},
		{
			name:    "delete all",
			input:   Delete("Person"),
			wantSQL: "DELETE FROM Person;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := tt.input.Query()
			assert.Equal(t, tt.wantSQL, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestUpdaterEmpty(t *testing.T) {
	u := Update("Person")
	assert.True(t, u.Empty())
	u.Set("name", "x")
	assert.False(t, u.Empty())
}

func TestPredicate(t *testing.T) {
	p := EQ("Person.name", nil)
	assert.Equal(t, "Person.name = ?", p.Expr())
	assert.Equal(t, []any{nil}, p.Args())
	p = ColumnsEQ("a.x", "b.y")
	assert.Equal(t, "a.x = b.y", p.Expr())
	assert.Empty(t, p.Args())
}
