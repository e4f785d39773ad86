package norm

import (
	"context"
)

// ModelClient is the entry point for records of one model.
//
//	people := client.Model("Person")
//	p, err := people.Get(ctx, 1)
type ModelClient struct {
	client *Client
	model  *Model
	err    error
}

// Model returns the registered model, or nil for an unknown name.
func (mc *ModelClient) Model() *Model { return mc.model }

// Err returns the error of an unknown model name.
func (mc *ModelClient) Err() error { return mc.err }

// New returns an unpersisted record with defaults applied and vals set.
func (mc *ModelClient) New(vals Values) (*Record, error) {
	if mc.err != nil {
		return nil, mc.err
	}
	r, err := newRecord(mc.client, mc.model)
	if err != nil {
		return nil, err
	}
	if err := r.SetValues(vals); err != nil {
		return nil, err
	}
	return r, nil
}

// Create builds a record from vals and inserts it.
func (mc *ModelClient) Create(ctx context.Context, vals Values) (*Record, error) {
	r, err := mc.New(vals)
	if err != nil {
		return nil, err
	}
	if err := r.Insert(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns the record with the given primary key, or a NotFoundError.
// Records are read through the client cache when one is configured.
func (mc *ModelClient) Get(ctx context.Context, key any) (*Record, error) {
	if mc.err != nil {
		return nil, mc.err
	}
	pk := mc.model.pk
	v, err := pk.Coerce(key)
	if err != nil {
		return nil, err
	}
	if r := mc.client.cacheGet(ctx, mc.model, v.Raw()); r != nil {
		return r, nil
	}
	r, err := mc.Where(Values{pk.Name: v.Raw()}).Limit(1).First(ctx)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, NewNotFoundError(mc.model.name, key)
	}
	mc.client.cacheSet(ctx, r)
	return r, nil
}

// Query returns a query over every record of the model.
func (mc *ModelClient) Query() *Query {
	q := newQuery(mc.client, mc.model)
	q.err = mc.err
	return q
}

// Where returns a query filtered by vals.
func (mc *ModelClient) Where(vals Values) *Query {
	return mc.Query().Where(vals)
}

// All returns every record of the model.
func (mc *ModelClient) All(ctx context.Context) ([]*Record, error) {
	return mc.Query().All(ctx)
}

// First returns one record of the model, or nil when the table is empty.
func (mc *ModelClient) First(ctx context.Context) (*Record, error) {
	return mc.Query().Limit(1).First(ctx)
}

// CreateTable creates the table of the model.
func (mc *ModelClient) CreateTable(ctx context.Context) error {
	if mc.err != nil {
		return mc.err
	}
	return mc.client.CreateTables(ctx, mc.model.name)
}

// DropTable drops the table of the model.
func (mc *ModelClient) DropTable(ctx context.Context) error {
	if mc.err != nil {
		return mc.err
	}
	return mc.client.DropTables(ctx, mc.model.name)
}
