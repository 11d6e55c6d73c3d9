package types

import (
	"reflect"
	"strings"
)

// FieldKind is the presentation-level kind of a component field. Inspector
// tooling renders a generic editor widget per kind; script code sees the
// matching dynamic value type.
type FieldKind string

const (
	FieldBool   FieldKind = "boolean"
	FieldNumber FieldKind = "number"
	FieldString FieldKind = "string"
	FieldTable  FieldKind = "table"
)

// Field describes one component field for presentation purposes only. The
// engine never dispatches on Field; it exists so inspector panels can render
// arbitrary components without per-type glue.
type Field struct {
	Name string    `json:"name"`
	Kind FieldKind `json:"kind"`
}

// FieldsOf returns the fields of a struct component in declaration order,
// named the way they appear on the wire and in script tables (the json tag
// when present). Non-struct components yield no fields.
func FieldsOf(component Component) []Field {
	t := reflect.TypeOf(component)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag == "-" {
			continue
		} else if tag != "" {
			name = tag
		}
		fields = append(fields, Field{Name: name, Kind: kindOf(f.Type)})
	}
	return fields
}

func kindOf(t reflect.Type) FieldKind {
	switch t.Kind() {
	case reflect.Bool:
		return FieldBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return FieldNumber
	case reflect.String:
		return FieldString
	default:
		return FieldTable
	}
}
