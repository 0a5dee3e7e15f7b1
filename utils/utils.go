// Package utils converts typed entities to and from schema.Document values.
package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/asaidimu/go-memtable/core/schema"
)

// StructToDocument converts a Go struct into a schema.Document.
//
// The struct is marshaled to JSON and decoded back into a generic map, so
// `json:"tag"` names and `omitempty` are respected. Nested structs become
// nested maps and slices become []any, which the query engine reads as
// Object and Array values. Numbers are kept as json.Number to avoid losing
// integer precision. time.Time and *time.Time fields stay time.Time so
// that date conditions compare them as dates.
//
// The input must be a struct or a non-nil pointer to a struct.
//
// Example:
//
//	type User struct {
//		ID    string `json:"id"`
//		Email string `json:"email"`
//	}
//	doc, err := StructToDocument(User{ID: "u1", Email: "a@b.c"})
//	// doc == schema.Document{"id": "u1", "email": "a@b.c"}
func StructToDocument[T any](record T) (schema.Document, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}

	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("input record cannot be a nil pointer to a struct")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("StructToDocument: failed to marshal input record to JSON: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(jsonBytes))
	decoder.UseNumber()

	var doc schema.Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("StructToDocument: failed to decode JSON into a document: %w", err)
	}
	restoreTimes(doc, val)
	return doc, nil
}

var timeType = reflect.TypeOf(time.Time{})

// restoreTimes puts the time.Time values of the struct val back into doc,
// replacing the strings the JSON round-trip left behind. Nested structs are
// walked through their decoded maps and embedded structs are flattened the
// way encoding/json flattens them.
func restoreTimes(doc map[string]any, val reflect.Value) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, ok := jsonName(field)
		if !ok {
			continue
		}
		fv := val.Field(i)

		if field.Anonymous && name == "" {
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct && fv.Type() != timeType {
				restoreTimes(doc, fv)
			}
			continue
		}
		if name == "" {
			name = field.Name
		}
		if _, present := doc[name]; !present {
			continue
		}

		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		switch {
		case fv.Type() == timeType:
			doc[name] = fv.Interface().(time.Time)
		case fv.Kind() == reflect.Struct:
			if nested, ok := doc[name].(map[string]any); ok {
				restoreTimes(nested, fv)
			}
		}
	}
}

// jsonName returns the key encoding/json uses for field, empty when the
// field has no explicit name. ok is false for fields tagged "-".
func jsonName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	return name, true
}

// DocumentToStruct is the inverse of StructToDocument: it converts a
// document into a new instance of T, which must be a struct type or a
// pointer to one.
func DocumentToStruct[T any](input schema.Document) (T, error) {
	var zero T

	if input == nil {
		return zero, fmt.Errorf("DocumentToStruct: input document cannot be nil")
	}

	typ := reflect.TypeOf(zero)
	if typ == nil {
		return zero, fmt.Errorf("DocumentToStruct: generic type T must be a struct type (or pointer to struct), got interface")
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("DocumentToStruct: generic type T must be a struct type (or pointer to struct), got %s", typ.Kind())
	}

	jsonBytes, err := json.Marshal(input)
	if err != nil {
		return zero, fmt.Errorf("DocumentToStruct: failed to marshal document to JSON: %w", err)
	}

	var result T
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return zero, fmt.Errorf("DocumentToStruct: failed to unmarshal JSON to target struct: %w", err)
	}
	return result, nil
}
