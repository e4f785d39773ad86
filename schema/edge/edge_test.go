package edge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/norm/schema/edge"
)

func TestHasMany(t *testing.T) {
	t.Parallel()

	desc := edge.HasMany("cities", "City").Comment("cities of the state").Descriptor()
	assert.Equal(t, "cities", desc.Name)
	assert.Equal(t, "City", desc.Target)
	assert.Equal(t, edge.HasManyKind, desc.Kind)
	assert.Empty(t, desc.Field)
	assert.Equal(t, "cities of the state", desc.Comment)
	assert.NoError(t, desc.Err)

	desc = edge.HasMany("residents", "Person").Field("city").Descriptor()
	assert.Equal(t, "city", desc.Field)
	assert.NoError(t, desc.Err)
}

func TestManyToMany(t *testing.T) {
	t.Parallel()

	desc := edge.ManyToMany("tags", "Tag").Descriptor()
	assert.Equal(t, edge.ManyToManyKind, desc.Kind)
	assert.Empty(t, desc.Through)

	desc = edge.ManyToMany("tags", "Tag").Through("PostTag").Descriptor()
	assert.Equal(t, "PostTag", desc.Through)
	assert.NoError(t, desc.Err)
}

func TestBuilderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		desc *edge.Descriptor
	}{
		{"missing_target", edge.HasMany("cities", "").Descriptor()},
		{"through_on_has_many", edge.HasMany("cities", "City").Through("X").Descriptor()},
		{"field_on_many_to_many", edge.ManyToMany("tags", "Tag").Field("post").Descriptor()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.desc.Err)
		})
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "has-many", edge.HasManyKind.String())
	assert.Equal(t, "many-to-many", edge.ManyToManyKind.String())
	assert.Equal(t, "Kind(9)", edge.Kind(9).String())
}
