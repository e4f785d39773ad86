package sql

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/norm/dialect"
)

// QueryStats counts the statements run through a StatsDriver. The totals
// are atomics; per-statement counts sit behind a mutex.
type QueryStats struct {
	TotalQueries  atomic.Int64
	TotalExecs    atomic.Int64
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries counts statements slower than the driver threshold.
	SlowQueries atomic.Int64
	Errors      atomic.Int64

	mu         sync.Mutex
	statements map[Statement]int64
}

// Statement identifies a kind of statement: its leading keyword and the
// first table it names.
type Statement struct {
	Verb  string
	Table string
}

func (s Statement) String() string {
	if s.Table == "" {
		return s.Verb
	}
	return s.Verb + " " + s.Table
}

// ParseStatement returns the verb and table of a query. Verb is the
// upper-cased first keyword. Table is empty when none can be found.
func ParseStatement(query string) Statement {
	words := strings.Fields(query)
	if len(words) == 0 {
		return Statement{}
	}
	st := Statement{Verb: strings.ToUpper(strings.TrimRight(words[0], ";"))}
	var after string
	switch st.Verb {
	case "SELECT", "DELETE":
		after = "FROM"
	case "INSERT", "REPLACE":
		after = "INTO"
	case "UPDATE":
		if len(words) > 1 {
			st.Table = tableName(words[1])
		}
		return st
	case "CREATE", "DROP", "ALTER", "TRUNCATE":
		after = "TABLE"
	default:
		return st
	}
	for i := 1; i < len(words)-1; i++ {
		if !strings.EqualFold(words[i], after) {
			continue
		}
		rest := words[i+1:]
		// IF [NOT] EXISTS
		for len(rest) > 1 && (strings.EqualFold(rest[0], "IF") || strings.EqualFold(rest[0], "NOT") || strings.EqualFold(rest[0], "EXISTS")) {
			rest = rest[1:]
		}
		st.Table = tableName(rest[0])
		break
	}
	return st
}

func tableName(word string) string {
	if i := strings.IndexAny(word, "(,;"); i >= 0 {
		word = word[:i]
	}
	return strings.Trim(word, "`\"")
}

func (s *QueryStats) count(st Statement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statements == nil {
		s.statements = make(map[Statement]int64)
	}
	s.statements[st]++
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	s.mu.Lock()
	statements := maps.Clone(s.statements)
	s.mu.Unlock()
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
		Statements:    statements,
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
	s.mu.Lock()
	s.statements = nil
	s.mu.Unlock()
}

// StatsSnapshot is a point-in-time copy of QueryStats.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
	// Statements is nil until a statement was recorded.
	Statements map[Statement]int64
}

// Count returns how many statements with the given verb ran against table.
// An empty table sums the verb over every table.
func (s StatsSnapshot) Count(verb, table string) int64 {
	if table != "" {
		return s.Statements[Statement{Verb: verb, Table: table}]
	}
	var n int64
	for st, c := range s.Statements {
		if st.Verb == verb {
			n += c
		}
	}
	return n
}

// AvgQueryDuration returns the average statement duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String summarizes the totals followed by the per-statement counts in
// sorted order.
func (s StatsSnapshot) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb,
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
	keys := slices.SortedFunc(maps.Keys(s.Statements), func(a, b Statement) int {
		return strings.Compare(a.String(), b.String())
	})
	for _, st := range keys {
		fmt.Fprintf(&sb, " [%s]=%d", st, s.Statements[st])
	}
	return sb.String()
}

// SlowQueryHook is a function called when a slow statement is detected.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsDriver wraps a Driver with statement statistics collection.
type StatsDriver struct {
	*Driver
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow statement detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements to the given logger, or to the
// default logger when l is nil.
func WithSlowQueryLog(l *slog.Logger) StatsOption {
	if l == nil {
		l = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, query string, args []any, duration time.Duration) {
		l.WarnContext(ctx, "slow query detected", "duration", duration, "query", query, "args", args)
	})
}

// NewStatsDriver wraps a Driver with statistics collection.
//
//	drv, _ := sql.Open(dialect.MySQL, dsn)
//	stats := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(nil),
//	)
//	client := norm.NewClient(reg, norm.Driver(stats))
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Query executes a query and records statistics.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, args, start, err, true)
	return err
}

// Exec executes a statement and records statistics.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, args, start, err, false)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, args any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	d.stats.count(ParseStatement(query))
	if isQuery {
		d.stats.TotalQueries.Add(1)
	} else {
		d.stats.TotalExecs.Add(1)
	}
	d.stats.TotalDuration.Add(int64(duration))

	if err != nil {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold := d.slowThreshold
	hook := d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			argsSlice, _ := args.([]any)
			hook(ctx, query, argsSlice, duration)
		}
	}
}

// DebugDriver wraps a Driver and logs every statement before running it.
type DebugDriver struct {
	dialect.Driver
	log func(context.Context, ...any)
}

// DebugOption configures the DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLog sets a custom log function.
func DebugWithLog(logFunc func(context.Context, ...any)) DebugOption {
	return func(d *DebugDriver) {
		d.log = logFunc
	}
}

// DebugWithLogger logs statements at debug level on l.
func DebugWithLogger(l *slog.Logger) DebugOption {
	return DebugWithLog(func(ctx context.Context, v ...any) {
		l.DebugContext(ctx, fmt.Sprint(v...))
	})
}

// NewDebugDriver wraps a Driver with statement logging.
//
//	drv, _ := sql.Open(dialect.MySQL, dsn)
//	debug := sql.NewDebugDriver(drv, sql.DebugWithLog(func(ctx context.Context, v ...any) {
//	    log.Println(v...)
//	}))
func NewDebugDriver(drv dialect.Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{
		Driver: drv,
		log: func(_ context.Context, v ...any) {
			slog.Info(fmt.Sprint(v...))
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query logs and executes a query.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log(ctx, fmt.Sprintf("query: %s args: %v", query, args))
	return d.Driver.Query(ctx, query, args, v)
}

// Exec logs and executes a statement.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log(ctx, fmt.Sprintf("exec: %s args: %v", query, args))
	return d.Driver.Exec(ctx, query, args, v)
}

// Ensure interfaces are implemented.
var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
)
