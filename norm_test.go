package norm_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/norm"
	"github.com/syssam/norm/dialect"
	"github.com/syssam/norm/dialect/sql"
	"github.com/syssam/norm/schema/edge"
	"github.com/syssam/norm/schema/field"
)

type State struct{ norm.Schema }

func (State) Fields() []norm.Field {
	return []norm.Field{
		field.Primary("id"),
		field.String("name").NotNull().Length(64).Index(8),
	}
}

func (State) Edges() []norm.Edge {
	return []norm.Edge{
		edge.HasMany("cities", "City"),
	}
}

type City struct{ norm.Schema }

func (City) Fields() []norm.Field {
	return []norm.Field{
		field.Primary("id"),
		field.String("name").NotNull(),
		field.Reference("state", "State").Index(),
	}
}

func (City) Edges() []norm.Edge {
	return []norm.Edge{
		edge.HasMany("residents", "Person").Field("city"),
		edge.HasMany("natives", "Person"),
	}
}

type Person struct{ norm.Schema }

func (Person) Fields() []norm.Field {
	return []norm.Field{
		field.Primary("id"),
		field.String("name").NotNull(),
		field.Reference("city", "City").Index(),
		field.Reference("birth_city", "City").Index(),
		field.Int("age"),
	}
}

type Post struct{ norm.Schema }

func (Post) Fields() []norm.Field {
	return []norm.Field{
		field.Primary("id"),
		field.String("title").NotNull(),
	}
}

func (Post) Edges() []norm.Edge {
	return []norm.Edge{
		edge.ManyToMany("tags", "Tag"),
	}
}

type Tag struct{ norm.Schema }

func (Tag) Fields() []norm.Field {
	return []norm.Field{
		field.Primary("id"),
		field.String("name").NotNull().Unique(),
	}
}

func (Tag) Edges() []norm.Edge {
	return []norm.Edge{
		edge.ManyToMany("posts", "Post").Through("PostTag"),
	}
}

type PostTag struct{ norm.Schema }

func (PostTag) Fields() []norm.Field {
	return []norm.Field{
		field.Primary("id"),
		field.Reference("post", "Post").NotNull().Index(),
		field.Reference("tag", "Tag").NotNull().Index(),
	}
}

const personColumns = "Person.id, Person.name, Person.city, Person.birth_city, Person.age"

func newRegistry(t testing.TB, opts ...norm.RegistryOption) *norm.Registry {
	t.Helper()
	reg := norm.NewRegistry(opts...)
	require.NoError(t, reg.Register(State{}, City{}, Person{}, Post{}, Tag{}, PostTag{}))
	return reg
}

// mockClient returns a connected client over sqlmock.
func mockClient(t *testing.T, opts ...norm.Option) (*norm.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	opts = append([]norm.Option{norm.Driver(sql.OpenDB(dialect.MySQL, db))}, opts...)
	client, err := norm.NewClient(newRegistry(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		mock.ExpectClose()
		assert.NoError(t, client.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return client, mock
}

// offlineClient returns a client that is never connected, for compiling
// statements.
func offlineClient(t *testing.T, opts ...norm.Option) *norm.Client {
	t.Helper()
	client, err := norm.Open("mysql://root@localhost/norm", newRegistry(t), opts...)
	require.NoError(t, err)
	return client
}

func personRows(ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name", "city", "birth_city", "age"})
	for _, id := range ids {
		rows.AddRow(id, fmt.Sprintf("p%d", id), nil, nil, nil)
	}
	return rows
}

func TestSchemaDefaultMethods(t *testing.T) {
	t.Parallel()

	type TestSchema struct {
		norm.Schema
	}

	s := TestSchema{}

	// All default implementations should return nil or empty values
	assert.Nil(t, s.Fields())
	assert.Nil(t, s.Edges())
	assert.Equal(t, norm.Config{}, s.Config())
	assert.Nil(t, s.Mixin())
	assert.Nil(t, s.Hooks())
}

func TestMutateFunc(t *testing.T) {
	t.Parallel()

	called := false
	expectedValue := "result"

	f := norm.MutateFunc(func(_ context.Context, _ norm.Mutation) (norm.Value, error) {
		called = true
		return expectedValue, nil
	})

	ctx := context.Background()
	result, err := f.Mutate(ctx, nil)

	assert.True(t, called)
	assert.NoError(t, err)
	assert.Equal(t, expectedValue, result)
}

func TestOpIs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		op       norm.Op
		check    norm.Op
		expected bool
	}{
		{"Create is Create", norm.OpCreate, norm.OpCreate, true},
		{"Create is not Update", norm.OpCreate, norm.OpUpdate, false},
		{"Update is Update", norm.OpUpdate, norm.OpUpdate, true},
		{"UpdateOne is UpdateOne", norm.OpUpdateOne, norm.OpUpdateOne, true},
		{"UpdateOne is not Update", norm.OpUpdateOne, norm.OpUpdate, false},
		{"Delete is Delete", norm.OpDelete, norm.OpDelete, true},
		{"DeleteOne is DeleteOne", norm.OpDeleteOne, norm.OpDeleteOne, true},
		{"DeleteOne is not Delete", norm.OpDeleteOne, norm.OpDelete, false},
		{"Update is not Delete", norm.OpUpdate, norm.OpDelete, false},
		{"Combined Update|UpdateOne is Update", norm.OpUpdate | norm.OpUpdateOne, norm.OpUpdate, true},
		{"Combined Update|UpdateOne is UpdateOne", norm.OpUpdate | norm.OpUpdateOne, norm.OpUpdateOne, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := tt.op.Is(tt.check)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestOpString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		op       norm.Op
		expected string
	}{
		{norm.OpCreate, "OpCreate"},
		{norm.OpUpdate, "OpUpdate"},
		{norm.OpUpdateOne, "OpUpdateOne"},
		{norm.OpDelete, "OpDelete"},
		{norm.OpDeleteOne, "OpDeleteOne"},
		{norm.OpUpdate | norm.OpUpdateOne, "OpUpdate|OpUpdateOne"},
		{0, "Op(0)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.op.String())
		})
	}
}

func TestWindowString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[:]", norm.Window{}.String())
	assert.Equal(t, "[5:20]", norm.Window{Start: norm.Bound(5), Stop: norm.Bound(20)}.String())
	assert.Equal(t, "[-1:]", norm.Window{Start: norm.Bound(-1)}.String())
}
