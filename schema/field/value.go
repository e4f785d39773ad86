package field

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxDecodeRounds bounds the decode loop of JSON fields. Two rounds cover
// values that were encoded twice by older writers.
const maxDecodeRounds = 3

// timeLayouts are the textual timestamp forms drivers return when they do
// not parse times themselves.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02",
}

// Keyed is implemented by records, which can be assigned to reference
// fields in place of their primary key.
type Keyed interface {
	TypeName() string
	KeyValue() (any, bool)
}

// Value is the per-record instance of a field. It holds the
// storage-normalized raw value and the dirty flag.
type Value struct {
	desc  *Descriptor
	raw   any
	dirty bool
}

// NewValue creates a value for a new record. Defaults are applied through
// the setter but do not mark the value dirty.
func (d *Descriptor) NewValue() (*Value, error) {
	v := &Value{desc: d}
	var def any
	switch {
	case d.DefaultFn != nil:
		def = d.DefaultFn()
	case d.Default != nil:
		def = d.Default
	default:
		return v, nil
	}
	raw, err := d.normalize(def)
	if err != nil {
		return nil, err
	}
	v.raw = raw
	return v, nil
}

// Blank creates a value holding NULL, used for records hydrated from rows.
func (d *Descriptor) Blank() *Value {
	return &Value{desc: d}
}

// Coerce validates x the way Set does and returns a transient value holding
// it. Defaults are not applied.
func (d *Descriptor) Coerce(x any) (*Value, error) {
	v := &Value{desc: d}
	if err := v.Set(x); err != nil {
		return nil, err
	}
	return v, nil
}

// Descriptor returns the template the value was created from.
func (v *Value) Descriptor() *Descriptor { return v.desc }

// Set validates x against the field type and null policy and stores its
// normalized form. Fields generated by the database are never marked dirty.
func (v *Value) Set(x any) error {
	raw, err := v.desc.normalize(x)
	if err != nil {
		return err
	}
	v.raw = raw
	if !v.desc.Auto {
		v.dirty = true
	}
	return nil
}

// Get returns the user-facing form of the value.
func (v *Value) Get() (any, error) {
	if v.raw == nil {
		return nil, nil
	}
	d := v.desc
	switch d.Type {
	case TypeTime:
		sec, _ := v.raw.(int64)
		return time.Unix(sec, 0).UTC(), nil
	case TypeJSON:
		text, _ := v.raw.(string)
		return d.decodeJSON(text)
	case TypeUUID:
		s, _ := v.raw.(string)
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, &CorruptEncodingError{Field: d.Name, Rounds: 1, Err: err}
		}
		return id, nil
	default:
		return v.raw, nil
	}
}

// Raw returns the storage-normalized value.
func (v *Value) Raw() any { return v.raw }

// IsNull reports whether the value is unset or NULL.
func (v *Value) IsNull() bool { return v.raw == nil }

// Dirty reports whether the value changed since it was last persisted.
func (v *Value) Dirty() bool { return v.dirty }

// MarkClean clears the dirty flag.
func (v *Value) MarkClean() { v.dirty = false }

// Scan populates the value from a column returned by the driver. Values
// read from storage are trusted: only their representation is normalized.
func (v *Value) Scan(src any) error {
	raw, err := v.desc.fromDB(src)
	if err != nil {
		return err
	}
	v.raw = raw
	v.dirty = false
	return nil
}

// Bind returns the argument passed to the driver for this value.
func (v *Value) Bind() any {
	if v.raw == nil {
		return nil
	}
	if v.desc.Type == TypeTime {
		sec, _ := v.raw.(int64)
		return time.Unix(sec, 0).UTC()
	}
	return v.raw
}

func (d *Descriptor) mismatch(x any, reason string) error {
	return &TypeMismatchError{Field: d.Name, Want: d.Type, Value: x, Reason: reason}
}

func (d *Descriptor) normalize(x any) (any, error) {
	if isNil(x) {
		if !d.Nullable {
			return nil, &NullNotAllowedError{Field: d.Name}
		}
		return nil, nil
	}
	switch d.Type {
	case TypeInt:
		if k, ok := x.(Keyed); ok && d.IsReference() {
			if k.TypeName() != d.Ref {
				return nil, d.mismatch(x, fmt.Sprintf("record of type %s, want %s", k.TypeName(), d.Ref))
			}
			key, ok := k.KeyValue()
			if !ok {
				return nil, d.mismatch(x, "referenced record has no primary key")
			}
			x = key
		}
		n, ok := toInt64(x)
		if !ok {
			return nil, d.mismatch(x, "")
		}
		if d.Unsigned && n < 0 {
			return nil, d.mismatch(x, "negative value for unsigned field")
		}
		return n, nil
	case TypeFloat:
		switch f := x.(type) {
		case float64:
			return f, nil
		case float32:
			return float64(f), nil
		}
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64 {
			return rv.Float(), nil
		}
		return nil, d.mismatch(x, "")
	case TypeBool:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
		return nil, d.mismatch(x, "")
	case TypeString:
		switch s := x.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		}
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.String {
			return rv.String(), nil
		}
		return nil, d.mismatch(x, "")
	case TypeTime:
		t, ok := x.(time.Time)
		if !ok {
			return nil, d.mismatch(x, "")
		}
		return t.Unix(), nil
	case TypeJSON:
		return d.encodeJSON(x)
	case TypeUUID:
		switch id := x.(type) {
		case uuid.UUID:
			return id.String(), nil
		case string:
			parsed, err := uuid.Parse(id)
			if err != nil {
				return nil, d.mismatch(x, err.Error())
			}
			return parsed.String(), nil
		}
		return nil, d.mismatch(x, "")
	default:
		return nil, d.mismatch(x, "unsupported field type")
	}
}

func (d *Descriptor) encodeJSON(x any) (any, error) {
	rv := reflect.ValueOf(x)
	switch d.JSON {
	case JSONMap:
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil, d.mismatch(x, "want a map with string keys")
		}
	case JSONList:
		isBytes := rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8
		if (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || isBytes {
			return nil, d.mismatch(x, "want a list")
		}
	}
	b, err := json.Marshal(x)
	if err != nil {
		return nil, d.mismatch(x, err.Error())
	}
	return string(b), nil
}

// decodeJSON decodes until the structural type matches, tolerating values
// stored as a JSON string that itself holds the encoded structure.
func (d *Descriptor) decodeJSON(text string) (any, error) {
	var cur any = text
	rounds := 0
	for rounds < maxDecodeRounds {
		s, ok := cur.(string)
		if !ok {
			break
		}
		rounds++
		out, err := unmarshalJSON(s)
		if err != nil {
			return nil, &CorruptEncodingError{Field: d.Name, Rounds: rounds, Err: err}
		}
		if d.matchesJSON(out) {
			return out, nil
		}
		cur = out
	}
	return nil, &CorruptEncodingError{Field: d.Name, Rounds: rounds}
}

// unmarshalJSON decodes one JSON value. Integral numbers decode as int64
// and the others as float64.
func unmarshalJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid data after top-level value")
	}
	return numbers(out), nil
}

func numbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, e := range x {
			x[k] = numbers(e)
		}
	case []any:
		for i, e := range x {
			x[i] = numbers(e)
		}
	}
	return v
}

func (d *Descriptor) matchesJSON(v any) bool {
	switch d.JSON {
	case JSONMap:
		_, ok := v.(map[string]any)
		return ok
	case JSONList:
		_, ok := v.([]any)
		return ok
	default:
		_, ok := v.(string)
		return !ok && v != nil
	}
}

func (d *Descriptor) fromDB(src any) (any, error) {
	if src == nil {
		return nil, nil
	}
	bad := func(err error) error {
		reason := "unexpected column value"
		if err != nil {
			reason = err.Error()
		}
		return d.mismatch(src, reason)
	}
	switch d.Type {
	case TypeInt:
		if n, ok := toInt64(src); ok {
			return n, nil
		}
		switch s := src.(type) {
		case []byte:
			n, err := strconv.ParseInt(string(s), 10, 64)
			if err != nil {
				return nil, bad(err)
			}
			return n, nil
		case string:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, bad(err)
			}
			return n, nil
		case float64:
			return int64(s), nil
		case bool:
			if s {
				return int64(1), nil
			}
			return int64(0), nil
		}
	case TypeFloat:
		switch s := src.(type) {
		case float64:
			return s, nil
		case float32:
			return float64(s), nil
		case []byte:
			f, err := strconv.ParseFloat(string(s), 64)
			if err != nil {
				return nil, bad(err)
			}
			return f, nil
		case string:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, bad(err)
			}
			return f, nil
		}
		if n, ok := toInt64(src); ok {
			return float64(n), nil
		}
	case TypeBool:
		switch s := src.(type) {
		case bool:
			return s, nil
		case []byte:
			b, err := strconv.ParseBool(string(s))
			if err != nil {
				return nil, bad(err)
			}
			return b, nil
		case string:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, bad(err)
			}
			return b, nil
		}
		if n, ok := toInt64(src); ok {
			return n != 0, nil
		}
	case TypeString, TypeJSON, TypeUUID:
		switch s := src.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		case uuid.UUID:
			return s.String(), nil
		}
	case TypeTime:
		switch s := src.(type) {
		case time.Time:
			return s.Unix(), nil
		case []byte:
			return parseTime(string(s), bad)
		case string:
			return parseTime(s, bad)
		}
		if n, ok := toInt64(src); ok {
			return n, nil
		}
	}
	return nil, bad(nil)
}

func parseTime(s string, bad func(error) error) (any, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.Unix(), nil
		}
		lastErr = err
	}
	return nil, bad(lastErr)
}

// toInt64 widens every integer kind to int64.
func toInt64(x any) (int64, bool) {
	switch n := x.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	default:
		return 0, false
	}
}

func isNil(x any) bool {
	if x == nil {
		return true
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
