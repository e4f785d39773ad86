package norm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"github.com/syssam/norm/dialect/sql"
	"github.com/syssam/norm/schema/field"
)

// Order directions.
const (
	Asc  = sql.Asc
	Desc = sql.Desc
)

type mode uint8

const (
	modeSelect mode = iota
	modeUpdate
	modeDelete
)

type state uint8

const (
	stateBuilding state = iota
	stateCompiled
	stateExecuting
	stateDraining
	stateExhausted
)

var stateNames = [...]string{
	stateBuilding:  "building",
	stateCompiled:  "compiled",
	stateExecuting: "executing",
	stateDraining:  "draining",
	stateExhausted: "exhausted",
}

func (s state) String() string { return stateNames[s] }

type orderTerm struct {
	key string
	dir string
}

// link restricts a query to the rows joined to one owner key through a
// join table: `J.owner = ? AND J.target = T.pk`.
type link struct {
	table  string
	owner  string
	target string
	key    any
}

// Query accumulates filters, order, a window and a mode, compiles them once
// into one statement and then yields its rows as records. A query is not
// restartable: once compiled it cannot be modified, and once exhausted it
// yields nothing more.
//
//	q := client.Model("Person").
//	    Where(norm.Values{"city": austin}).
//	    Order("name", norm.Asc).
//	    Limit(10)
//	for q.Next(ctx) {
//	    fmt.Println(q.Record())
//	}
//	if err := q.Err(); err != nil {
//	    return err
//	}
type Query struct {
	client  *Client
	model   *Model
	filters Values
	order   []orderTerm
	window  Window
	mode    mode
	sets    Values
	link    *link
	err     error
	state   state

	query string
	args  []any

	cur      *sql.Cursor
	row      int
	stop     int
	bounded  bool
	rec      *Record
	count    int
	affected int64
}

func newQuery(c *Client, m *Model) *Query {
	return &Query{client: c, model: m, filters: Values{}, sets: Values{}, count: -1}
}

func (q *Query) setErr(err error) {
	if q.err == nil {
		q.err = err
	}
}

// modifiable reports whether the query still accepts modifiers. Modifying
// a compiled query records ErrQueryCompiled.
func (q *Query) modifiable() bool {
	if q.state != stateBuilding {
		q.setErr(ErrQueryCompiled)
		return false
	}
	return q.err == nil
}

// Where adds equality filters. Later values for the same key replace
// earlier ones.
func (q *Query) Where(vals Values) *Query {
	if !q.modifiable() {
		return q
	}
	for k, v := range vals {
		if _, err := q.resolve(k); err != nil {
			q.setErr(err)
			return q
		}
		q.filters[k] = v
	}
	return q
}

// Order sorts by the given key, norm.Asc or norm.Desc. Ordering again by
// the same key changes its direction in place.
func (q *Query) Order(key, dir string) *Query {
	if !q.modifiable() {
		return q
	}
	dir = strings.ToUpper(dir)
	if dir != Asc && dir != Desc {
		q.setErr(fmt.Errorf("norm: invalid order direction %q", dir))
		return q
	}
	if _, err := q.resolve(key); err != nil {
		q.setErr(err)
		return q
	}
	for i := range q.order {
		if q.order[i].key == key {
			q.order[i].dir = dir
			return q
		}
	}
	q.order = append(q.order, orderTerm{key: key, dir: dir})
	return q
}

// Reverse flips every order direction. A query without order is first
// ordered by primary key ascending, so that reversing yields the rows by
// descending key.
func (q *Query) Reverse() *Query {
	if !q.modifiable() {
		return q
	}
	if len(q.order) == 0 {
		q.order = append(q.order, orderTerm{key: q.model.pk.Name, dir: Asc})
	}
	for i := range q.order {
		if q.order[i].dir == Asc {
			q.order[i].dir = Desc
		} else {
			q.order[i].dir = Asc
		}
	}
	return q
}

// Window restricts the yielded rows.
func (q *Query) Window(w Window) *Query {
	if !q.modifiable() {
		return q
	}
	q.window = w.clone()
	return q
}

// Slice yields rows [start, stop). Negative bounds count from the end of
// the result.
func (q *Query) Slice(start, stop int) *Query {
	return q.Window(Window{Start: &start, Stop: &stop})
}

// Offset skips the first start rows; a negative start counts from the end
// of the result.
func (q *Query) Offset(start int) *Query {
	if !q.modifiable() {
		return q
	}
	q.window.Start = &start
	return q
}

// Limit yields at most stop rows. Unlike Slice, the start is not checked
// against the row count.
func (q *Query) Limit(stop int) *Query {
	if !q.modifiable() {
		return q
	}
	q.window.Stop = &stop
	return q
}

// Update turns the query into an UPDATE of the matched rows. Values are
// validated by the field setters before binding.
func (q *Query) Update(vals Values) *Query {
	if !q.modifiable() {
		return q
	}
	for k, v := range vals {
		if strings.Contains(k, ".") {
			q.setErr(fmt.Errorf("%w: cannot set %q", ErrJoinedMutation, k))
			return q
		}
		if _, ok := q.model.Field(k); !ok {
			q.setErr(unknownField(q.model.name, k))
			return q
		}
		q.sets[k] = v
	}
	q.mode = modeUpdate
	return q
}

// Delete turns the query into a DELETE of the matched rows.
func (q *Query) Delete() *Query {
	if !q.modifiable() {
		return q
	}
	q.mode = modeDelete
	return q
}

// column is a resolved filter or order key.
type column struct {
	key   string
	model *Model
	desc  *field.Descriptor
	// via is the reference field of the query model leading to model.
	via *field.Descriptor
	pos [2]int
}

func (q *Query) resolve(key string) (column, error) {
	name, rest, dotted := strings.Cut(key, ".")
	f, ok := q.model.Field(name)
	if !ok {
		return column{}, unknownField(q.model.name, name)
	}
	if !dotted {
		return column{key: key, model: q.model, desc: f, pos: [2]int{q.model.index[name], -1}}, nil
	}
	if strings.Contains(rest, ".") {
		return column{}, fmt.Errorf("%w: %q", ErrMultiHopJoin, key)
	}
	if !f.IsReference() {
		return column{}, fmt.Errorf("%w: %s.%s is not a reference field", ErrUnknownField, q.model.name, name)
	}
	target, err := q.model.target(f)
	if err != nil {
		return column{}, err
	}
	tf, ok := target.Field(rest)
	if !ok {
		return column{}, unknownField(target.name, rest)
	}
	return column{key: key, model: target, desc: tf, via: f, pos: [2]int{q.model.index[name], target.index[rest]}}, nil
}

// compile builds the statement once. Its error is sticky.
func (q *Query) compile() error {
	if q.state != stateBuilding {
		return q.err
	}
	q.state = stateCompiled
	if q.err != nil {
		return q.err
	}
	query, args, err := q.build()
	if err != nil {
		q.err = err
		return err
	}
	q.query, q.args = query, args
	return nil
}

func (q *Query) build() (string, []any, error) {
	if q.mode != modeSelect && q.link != nil {
		return "", nil, ErrJoinedMutation
	}
	var (
		tables = []string{q.model.table}
		preds  []*sql.Predicate
		joins  []*sql.Predicate
		// names maps each joined reference field to the name its table is
		// listed under. The first reference to a table uses the table name;
		// further references to it get an alias.
		names = map[string]string{}
		used  = map[string]bool{q.model.table: true}
	)
	join := func(c column) (string, error) {
		if c.via == nil {
			return q.model.column(c.desc), nil
		}
		if q.mode != modeSelect {
			return "", fmt.Errorf("%w: filter %q", ErrJoinedMutation, c.key)
		}
		name, ok := names[c.via.Name]
		if !ok {
			name = c.model.table
			from := name
			if used[name] {
				name = c.model.table + "_" + c.via.Name
				from = c.model.table + " AS " + name
			}
			names[c.via.Name] = name
			used[name] = true
			tables = append(tables, from)
			joins = append(joins, sql.ColumnsEQ(q.model.column(c.via), name+"."+c.model.pk.Name))
		}
		return name + "." + c.desc.Name, nil
	}
	if l := q.link; l != nil {
		tables = append(tables, l.table)
		used[l.table] = true
		preds = append(preds, sql.EQ(l.owner, l.key), sql.ColumnsEQ(l.target, q.model.column(q.model.pk)))
	}

	filters := make([]column, 0, len(q.filters))
	for k := range q.filters {
		c, err := q.resolve(k)
		if err != nil {
			return "", nil, err
		}
		filters = append(filters, c)
	}
	slices.SortFunc(filters, func(a, b column) int {
		if a.pos[0] != b.pos[0] {
			return a.pos[0] - b.pos[0]
		}
		return a.pos[1] - b.pos[1]
	})
	for _, c := range filters {
		col, err := join(c)
		if err != nil {
			return "", nil, err
		}
		var arg any
		if x := q.filters[c.key]; x != nil {
			v, err := c.desc.Coerce(x)
			if err != nil {
				return "", nil, err
			}
			arg = v.Bind()
		}
		preds = append(preds, sql.EQ(col, arg))
	}

	var limit int
	if s := q.window.Stop; s != nil && *s > 0 {
		limit = *s
	}

	switch q.mode {
	case modeUpdate:
		upd := sql.Update(q.model.table)
		for _, f := range q.model.fields {
			x, ok := q.sets[f.Name]
			if !ok {
				continue
			}
			v, err := f.Coerce(x)
			if err != nil {
				return "", nil, err
			}
			upd.Set(f.Name, v.Bind())
		}
		if upd.Empty() {
			return "", nil, nil
		}
		query, args := upd.Where(preds...).Limit(limit).Query()
		return query, args, nil
	case modeDelete:
		query, args := sql.Delete(q.model.table).Where(preds...).Limit(limit).Query()
		return query, args, nil
	}

	terms := make([]string, 0, len(q.order))
	for _, o := range q.order {
		c, err := q.resolve(o.key)
		if err != nil {
			return "", nil, err
		}
		col, err := join(c)
		if err != nil {
			return "", nil, err
		}
		terms = append(terms, col+" "+o.dir)
	}
	sel := sql.Select(q.model.columns()...).
		From(tables...).
		Where(append(preds, joins...)...).
		OrderBy(terms...).
		Limit(limit)
	if q.client.legacyOrder {
		sel.OrderSeparator(" AND ")
	}
	query, args := sel.Query()
	return query, args, nil
}

// SQL compiles the query and returns its statement and arguments. The
// query cannot be modified afterwards. An UPDATE without values compiles to
// an empty statement.
func (q *Query) SQL() (string, []any, error) {
	if err := q.compile(); err != nil {
		return "", nil, err
	}
	return q.query, q.args, nil
}

// start executes a SELECT and positions the cursor at the window start.
func (q *Query) start(ctx context.Context) error {
	if err := q.compile(); err != nil {
		_ = q.finish()
		return err
	}
	cur, err := q.client.query(ctx, q.query, q.args)
	if err != nil {
		return q.fail(NewQueryError(q.model.name, "select", err))
	}
	q.cur = cur
	q.state = stateExecuting
	if s := q.window.Start; s != nil {
		n, err := q.rowCount()
		if err != nil {
			return q.fail(err)
		}
		start := resolveBound(*s, n)
		if start >= n {
			return q.fail(&OutOfRangeError{Start: *s, Count: n})
		}
		if err := cur.ScrollTo(start); err != nil {
			return q.fail(NewQueryError(q.model.name, "select", err))
		}
		q.row = start
	}
	if s := q.window.Stop; s != nil {
		q.stop = *s
		if q.stop < 0 {
			n, err := q.rowCount()
			if err != nil {
				return q.fail(err)
			}
			q.stop = resolveBound(*s, n)
		}
		q.bounded = true
	}
	return nil
}

func (q *Query) rowCount() (int, error) {
	if q.count >= 0 {
		return q.count, nil
	}
	n, err := q.cur.RowCount()
	if err != nil {
		return 0, NewQueryError(q.model.name, "count", err)
	}
	q.count = n
	return n, nil
}

func (q *Query) fail(err error) error {
	q.setErr(err)
	_ = q.finish()
	return err
}

// finish releases the cursor and moves the query to its terminal state.
func (q *Query) finish() error {
	var err error
	if q.cur != nil {
		if err = q.client.release(q.cur); err != nil {
			err = NewQueryError(q.model.name, "close", err)
			q.setErr(err)
		}
		q.cur = nil
	}
	q.rec = nil
	q.state = stateExhausted
	return err
}

// Next advances to the next record. The first call executes the query. It
// returns false when the rows are exhausted or an error occurred; check Err
// afterwards. Calling Next on an UPDATE or DELETE query runs it.
func (q *Query) Next(ctx context.Context) bool {
	switch q.state {
	case stateBuilding, stateCompiled:
		if q.mode != modeSelect {
			_, _ = q.Run(ctx)
			return false
		}
		if err := q.start(ctx); err != nil {
			return false
		}
	case stateExhausted:
		return false
	}
	if q.err != nil {
		_ = q.finish()
		return false
	}
	if q.bounded && q.row >= q.stop {
		_ = q.finish()
		return false
	}
	row, err := q.cur.Next()
	if errors.Is(err, io.EOF) {
		if q.count < 0 {
			q.count = q.cur.Pos()
		}
		_ = q.finish()
		return false
	}
	if err != nil {
		_ = q.fail(NewQueryError(q.model.name, "select", err))
		return false
	}
	rec, err := q.client.hydrate(q.model, row)
	if err != nil {
		_ = q.fail(err)
		return false
	}
	q.row++
	q.rec = rec
	q.state = stateDraining
	return true
}

// Record returns the record loaded by the last call to Next.
func (q *Query) Record() *Record { return q.rec }

// Err returns the error that stopped the query, if any.
func (q *Query) Err() error { return q.err }

// Close releases the cursor of the query. A closed query yields nothing.
func (q *Query) Close() error {
	if q.state == stateExhausted {
		return nil
	}
	return q.finish()
}

// All executes the query and returns every record it yields.
func (q *Query) All(ctx context.Context) ([]*Record, error) {
	var recs []*Record
	for q.Next(ctx) {
		recs = append(recs, q.rec)
	}
	_ = q.Close()
	return recs, q.err
}

// First returns the first record, or nil when the query yields none.
func (q *Query) First(ctx context.Context) (*Record, error) {
	var rec *Record
	if q.Next(ctx) {
		rec = q.rec
	}
	_ = q.Close()
	if q.err != nil {
		return nil, q.err
	}
	return rec, nil
}

// At returns the record at index i of the result, counting from the end
// when i is negative. An index past the last row is OutOfRange.
func (q *Query) At(ctx context.Context, i int) (*Record, error) {
	w := Window{Start: &i}
	if stop := i + 1; stop != 0 {
		w.Stop = &stop
	}
	return q.Window(w).First(ctx)
}

// Seq returns the records as a single-use iterator. Iteration errors are
// yielded with a nil record as the last element.
//
//	for rec, err := range q.Seq(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(rec)
//	}
func (q *Query) Seq(ctx context.Context) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		defer func() { _ = q.Close() }()
		for q.Next(ctx) {
			if !yield(q.rec, nil) {
				return
			}
		}
		if q.err != nil {
			yield(nil, q.err)
		}
	}
}

// Count returns the number of rows of the executed statement, executing it
// if needed, without consuming them. For UPDATE and DELETE queries it runs
// the statement and returns the affected row count.
func (q *Query) Count(ctx context.Context) (int, error) {
	if q.mode != modeSelect {
		n, err := q.Run(ctx)
		return int(n), err
	}
	if q.count >= 0 {
		return q.count, nil
	}
	switch q.state {
	case stateBuilding, stateCompiled:
		if err := q.start(ctx); err != nil {
			return 0, err
		}
	}
	if q.cur == nil {
		if q.err != nil {
			return 0, q.err
		}
		return 0, ErrQueryClosed
	}
	n, err := q.rowCount()
	if err != nil {
		return 0, q.fail(err)
	}
	return n, nil
}

// Run executes an UPDATE or DELETE query once and returns the number of
// affected rows. An UPDATE without values sends nothing and returns 0.
func (q *Query) Run(ctx context.Context) (int64, error) {
	if q.mode == modeSelect {
		return 0, errors.New("norm: Run requires Update or Delete")
	}
	if q.state == stateExhausted {
		return q.affected, q.err
	}
	err := q.compile()
	q.state = stateExhausted
	if err != nil || q.query == "" {
		return 0, err
	}
	op, name := OpUpdate, "update"
	if q.mode == modeDelete {
		op, name = OpDelete, "delete"
	}
	m := &mutation{op: op, typ: q.model.name, query: q.query, args: q.args}
	_, err = q.client.mutate(ctx, q.model, m, func(ctx context.Context, m Mutation) (Value, error) {
		v, err := q.client.execAffected(ctx, m)
		if err != nil {
			return nil, err
		}
		q.affected, _ = v.(int64)
		q.client.cacheInvalidate(ctx, q.model)
		return v, nil
	})
	if err != nil {
		q.err = mutationError(q.model, name, err)
		return q.affected, q.err
	}
	return q.affected, nil
}
