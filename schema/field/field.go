package field

import (
	"errors"
	"fmt"
	"strings"
)

// Type is the semantic type of a field.
type Type uint8

// Field types.
const (
	TypeInvalid Type = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeString
	TypeTime
	TypeJSON
	TypeUUID
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeInt:     "int",
	TypeFloat:   "float",
	TypeBool:    "bool",
	TypeString:  "string",
	TypeTime:    "time",
	TypeJSON:    "json",
	TypeUUID:    "uuid",
}

// String returns the type name.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", t)
}

// JSONKind is the structural type a JSON field holds.
type JSONKind uint8

// JSON kinds.
const (
	JSONMap JSONKind = iota + 1
	JSONList
)

// String returns the kind name.
func (k JSONKind) String() string {
	switch k {
	case JSONMap:
		return "map"
	case JSONList:
		return "list"
	default:
		return "none"
	}
}

// SQL defaults used by the auto-maintained time fields.
const (
	CurrentTimestamp         = "CURRENT_TIMESTAMP"
	CurrentTimestampOnUpdate = "CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"
)

// Descriptor is the schema-level template of a field. It is built once when
// the owning type is registered and never mutated by record operations;
// records hold their own Value created by NewValue.
type Descriptor struct {
	Name          string
	Type          Type
	Unsigned      bool
	Nullable      bool
	Unique        bool
	Indexed       bool
	IndexLength   int
	Primary       bool
	AutoIncrement bool
	// Auto marks values generated by the database (keys, maintained
	// timestamps). Auto fields are skipped by INSERT and UPDATE.
	Auto       bool
	Length     int
	Ref        string
	JSON       JSONKind
	Default    any
	DefaultFn  func() any
	SQLDefault string
	Comment    string
	// Err collects builder misuse and is reported at registration.
	Err error
}

// IsReference reports whether the field stores the key of another type.
func (d *Descriptor) IsReference() bool { return d.Ref != "" }

// HasDefault reports whether new values start pre-populated.
func (d *Descriptor) HasDefault() bool { return d.Default != nil || d.DefaultFn != nil }

// Column renders the column definition used by CREATE TABLE: the base type,
// then UNIQUE (unless the field is indexed separately), NOT NULL,
// PRIMARY KEY, AUTO_INCREMENT and finally the SQL default.
func (d *Descriptor) Column() string {
	var b strings.Builder
	b.WriteString(d.sqlType())
	if d.Unique && !d.Indexed {
		b.WriteString(" UNIQUE")
	}
	if !d.Nullable {
		b.WriteString(" NOT NULL")
	}
	if d.Primary {
		b.WriteString(" PRIMARY KEY")
	}
	if d.AutoIncrement {
		b.WriteString(" AUTO_INCREMENT")
	}
	if d.SQLDefault != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(d.SQLDefault)
	}
	return b.String()
}

func (d *Descriptor) sqlType() string {
	switch d.Type {
	case TypeInt:
		if d.Unsigned {
			return "INT UNSIGNED"
		}
		return "INT"
	case TypeFloat:
		return "DOUBLE"
	case TypeBool:
		return "BOOL"
	case TypeString:
		if d.Length == 0 || d.Length > 255 {
			return "TEXT"
		}
		return "TINYTEXT"
	case TypeTime:
		return "TIMESTAMP"
	case TypeJSON:
		return "TEXT"
	case TypeUUID:
		return "CHAR(36)"
	default:
		return "BLOB"
	}
}

// Validate reports builder errors and inconsistent option combinations.
func (d *Descriptor) Validate() error {
	var errs []error
	if d.Err != nil {
		errs = append(errs, d.Err)
	}
	if d.Name == "" {
		errs = append(errs, errors.New("field: missing name"))
	}
	if d.Primary && d.Nullable {
		errs = append(errs, fmt.Errorf("field %q: primary key cannot be nullable", d.Name))
	}
	if d.HasDefault() {
		if _, err := d.NewValue(); err != nil {
			errs = append(errs, fmt.Errorf("field %q: invalid default: %w", d.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Builder configures a Descriptor fluently.
type Builder struct {
	desc *Descriptor
}

func newBuilder(name string, t Type) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Type: t, Nullable: true}}
}

// Primary returns a builder for the auto-incremented, unsigned primary key.
func Primary(name string) *Builder {
	b := newBuilder(name, TypeInt)
	b.desc.Unsigned = true
	b.desc.Nullable = false
	b.desc.Primary = true
	b.desc.AutoIncrement = true
	b.desc.Auto = true
	return b
}

// Int returns a builder for a signed integer field.
func Int(name string) *Builder { return newBuilder(name, TypeInt) }

// Uint returns a builder for an unsigned integer field.
func Uint(name string) *Builder {
	b := newBuilder(name, TypeInt)
	b.desc.Unsigned = true
	return b
}

// Float returns a builder for a floating point field.
func Float(name string) *Builder { return newBuilder(name, TypeFloat) }

// Bool returns a builder for a boolean field.
func Bool(name string) *Builder { return newBuilder(name, TypeBool) }

// String returns a builder for a text field.
func String(name string) *Builder { return newBuilder(name, TypeString) }

// Time returns a builder for a timestamp field set by the application.
// Values are stored as whole unix seconds: Set drops the sub-second part
// and the location, and Get returns the time in UTC.
func Time(name string) *Builder { return newBuilder(name, TypeTime) }

// Created returns a builder for a timestamp filled by the database on
// insert. It is stored like Time.
func Created(name string) *Builder {
	b := newBuilder(name, TypeTime)
	b.desc.Auto = true
	b.desc.Nullable = false
	b.desc.SQLDefault = CurrentTimestamp
	return b
}

// Updated returns a builder for a timestamp the database refreshes on
// every update. It is stored like Time.
func Updated(name string) *Builder {
	b := newBuilder(name, TypeTime)
	b.desc.Auto = true
	b.desc.Nullable = false
	b.desc.SQLDefault = CurrentTimestampOnUpdate
	return b
}

// Dict returns a builder for a JSON-encoded mapping. Get returns
// map[string]any; integral numbers decode as int64, other numbers as
// float64.
func Dict(name string) *Builder {
	b := newBuilder(name, TypeJSON)
	b.desc.JSON = JSONMap
	return b
}

// List returns a builder for a JSON-encoded sequence. Get returns []any,
// with numbers decoded as for Dict.
func List(name string) *Builder {
	b := newBuilder(name, TypeJSON)
	b.desc.JSON = JSONList
	return b
}

// UUID returns a builder for a UUID stored in its canonical text form.
func UUID(name string) *Builder { return newBuilder(name, TypeUUID) }

// Reference returns a builder for a field holding the primary key of a
// record of the named type.
func Reference(name, target string) *Builder {
	b := newBuilder(name, TypeInt)
	b.desc.Unsigned = true
	b.desc.Ref = target
	if target == "" {
		b.desc.Err = fmt.Errorf("field %q: reference without target type", name)
	}
	return b
}

// NotNull rejects nil values.
func (b *Builder) NotNull() *Builder {
	b.desc.Nullable = false
	return b
}

// Unique adds a uniqueness constraint.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Index adds the field to the table index, with an optional prefix length.
func (b *Builder) Index(length ...int) *Builder {
	b.desc.Indexed = true
	switch {
	case len(length) > 1:
		b.desc.Err = fmt.Errorf("field %q: Index takes at most one length", b.desc.Name)
	case len(length) == 1 && length[0] < 0:
		b.desc.Err = fmt.Errorf("field %q: negative index length %d", b.desc.Name, length[0])
	case len(length) == 1:
		b.desc.IndexLength = length[0]
	}
	return b
}

// Default sets the value new records start with.
func (b *Builder) Default(v any) *Builder {
	b.desc.Default = v
	return b
}

// DefaultFunc sets a generator called once per new record.
func (b *Builder) DefaultFunc(fn func() any) *Builder {
	b.desc.DefaultFn = fn
	return b
}

// Length sets the expected maximum length of a text field.
func (b *Builder) Length(n int) *Builder {
	if b.desc.Type != TypeString {
		b.desc.Err = fmt.Errorf("field %q: Length is only valid for string fields", b.desc.Name)
		return b
	}
	b.desc.Length = n
	return b
}

// Unsigned restricts an integer field to non-negative values.
func (b *Builder) Unsigned() *Builder {
	if b.desc.Type != TypeInt {
		b.desc.Err = fmt.Errorf("field %q: Unsigned is only valid for int fields", b.desc.Name)
		return b
	}
	b.desc.Unsigned = true
	return b
}

// Manual turns off key generation on a primary key; the key must then be
// set by the application before insert.
func (b *Builder) Manual() *Builder {
	if !b.desc.Primary {
		b.desc.Err = fmt.Errorf("field %q: Manual is only valid for primary keys", b.desc.Name)
		return b
	}
	b.desc.Auto = false
	b.desc.AutoIncrement = false
	return b
}

// Comment attaches a description to the field.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor returns the built descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
