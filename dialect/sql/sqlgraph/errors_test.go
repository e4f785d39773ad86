package sqlgraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		name                          string
		err                           error
		unique, fk, check, notNull, c bool
	}{
		{name: "nil"},
		{name: "plain", err: errors.New("connection refused")},
		{
			name:   "mysql duplicate",
			err:    fmt.Errorf("dialect/sql: exec: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}),
			unique: true, c: true,
		},
		{
			name: "mysql parent row",
			err:  &mysql.MySQLError{Number: 1451},
			fk:   true, c: true,
		},
		{
			name: "mysql child row",
			err:  &mysql.MySQLError{Number: 1452},
			fk:   true, c: true,
		},
		{
			name:  "mysql check",
			err:   &mysql.MySQLError{Number: 3819},
			check: true, c: true,
		},
		{
			name:    "mysql bad null",
			err:     &mysql.MySQLError{Number: 1048},
			notNull: true, c: true,
		},
		{
			name:   "sqlite unique",
			err:    errors.New("constraint failed: UNIQUE constraint failed: Person.email (2067)"),
			unique: true, c: true,
		},
		{
			name:    "sqlite not null",
			err:     errors.New("NOT NULL constraint failed: Person.name"),
			notNull: true, c: true,
		},
		{
			name:   "string fallback",
			err:    errors.New("Error 1062 (23000): Duplicate entry 'a' for key 'email'"),
			unique: true, c: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err))
			assert.Equal(t, tt.fk, IsForeignKeyConstraintError(tt.err))
			assert.Equal(t, tt.check, IsCheckConstraintError(tt.err))
			assert.Equal(t, tt.notNull, IsNotNullConstraintError(tt.err))
			assert.Equal(t, tt.c, IsConstraintError(tt.err))
		})
	}
}
