package schema

import (
	"context"
	"fmt"

	"github.com/syssam/norm/dialect"
)

// Migrate runs the DDL of a set of tables.
type Migrate struct {
	drv dialect.ExecQuerier
}

// NewMigrate returns a Migrate executing statements on drv.
func NewMigrate(drv dialect.ExecQuerier) *Migrate {
	return &Migrate{drv: drv}
}

// Create creates the tables in order. Existing tables are left untouched.
func (m *Migrate) Create(ctx context.Context, tables ...*Table) error {
	for _, t := range tables {
		if err := ValidateTable(t).Err(); err != nil {
			return err
		}
	}
	for _, t := range tables {
		if err := m.drv.Exec(ctx, t.CreateSQL(), []any{}, nil); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

// Drop drops the tables in reverse order.
func (m *Migrate) Drop(ctx context.Context, tables ...*Table) error {
	for i := len(tables) - 1; i >= 0; i-- {
		t := tables[i]
		if err := m.drv.Exec(ctx, t.DropSQL(), []any{}, nil); err != nil {
			return fmt.Errorf("drop table %s: %w", t.Name, err)
		}
	}
	return nil
}
