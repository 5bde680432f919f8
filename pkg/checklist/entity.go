package checklist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the shape a field value arrived in from the backend.
type Kind int

const (
	KindMissing Kind = iota
	KindScalar
	KindRecord
	KindRecordList
)

// String returns a readable kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindRecord:
		return "record"
	case KindRecordList:
		return "record_list"
	default:
		return "missing"
	}
}

// Record is a single versioned sub-record (an uploaded licence, a mentor form, ...).
type Record map[string]interface{}

// ID returns the numeric backend identifier of the record.
func (r Record) ID() (float64, bool) {
	if r == nil {
		return 0, false
	}
	switch v := r["id"].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Reviewed reports whether the record carries was_reviewed == true.
func (r Record) Reviewed() bool {
	reviewed, ok := r["was_reviewed"].(bool)
	return ok && reviewed
}

// String returns the string form of a record attribute or "" when absent.
func (r Record) String(key string) string {
	return stringify(r[key])
}

// Value is a field value whose shape is decided once, when the entity is decoded.
type Value struct {
	kind   Kind
	scalar interface{}
	record Record
	list   []Record
}

// Missing returns the value used for keys absent from the entity.
func Missing() Value { return Value{} }

// Scalar wraps a plain value (string, number, bool, nil, list of primitives).
func Scalar(v interface{}) Value { return Value{kind: KindScalar, scalar: v} }

// Single wraps one sub-record.
func Single(r Record) Value { return Value{kind: KindRecord, record: r} }

// List wraps a collection of sub-records.
func List(records ...Record) Value {
	if records == nil {
		records = []Record{}
	}
	return Value{kind: KindRecordList, list: records}
}

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// Interface returns the scalar payload (nil for non-scalars).
func (v Value) Interface() interface{} { return v.scalar }

// Records returns the sub-records held by the value, if any.
func (v Value) Records() []Record {
	switch v.kind {
	case KindRecord:
		return []Record{v.record}
	case KindRecordList:
		return v.list
	default:
		return nil
	}
}

// IsEmpty reports whether a scalar holds nothing usable.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindMissing:
		return true
	case KindScalar:
		switch s := v.scalar.(type) {
		case nil:
			return true
		case string:
			return strings.TrimSpace(s) == ""
		case []interface{}:
			return len(s) == 0
		default:
			return false
		}
	case KindRecord:
		return len(v.record) == 0
	default:
		return len(v.list) == 0
	}
}

// ValueOf classifies a decoded JSON value.
func ValueOf(raw interface{}) Value {
	switch t := raw.(type) {
	case map[string]interface{}:
		return Single(Record(t))
	case []interface{}:
		if len(t) == 0 {
			return List()
		}
		records := make([]Record, 0, len(t))
		for _, item := range t {
			if obj, ok := item.(map[string]interface{}); ok {
				records = append(records, Record(obj))
			}
		}
		// Arrays holding at least one object are record lists; stray elements are dropped.
		if len(records) == 0 {
			return Scalar(t)
		}
		return List(records...)
	default:
		return Scalar(t)
	}
}

// Entity is a backend record (driver, employee, truck, ...) as seen by the checklist engine.
type Entity struct {
	Type         string
	ID           string
	Status       string
	UpdateStatus string
	Fields       map[string]Value
}

// Field returns the value stored under key, or Missing.
func (e Entity) Field(key string) Value {
	if e.Fields == nil {
		return Missing()
	}
	v, ok := e.Fields[key]
	if !ok {
		return Missing()
	}
	return v
}

// String returns the scalar string form of a field, "" for non-scalars.
func (e Entity) String(key string) string {
	v := e.Field(key)
	if v.kind != KindScalar {
		return ""
	}
	return stringify(v.scalar)
}

// UnmarshalJSON decodes a backend payload, keeping numbers exact so ids compare correctly.
func (e *Entity) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode entity: %w", err)
	}
	fields := make(map[string]Value, len(raw))
	for key, value := range raw {
		fields[key] = ValueOf(value)
	}
	e.Fields = fields
	e.ID = stringify(raw["id"])
	e.Status = stringify(raw["status"])
	e.UpdateStatus = stringify(raw["update_status"])
	return nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
