package gemini

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

const (
	TypeObject  = "OBJECT"
	TypeArray   = "ARRAY"
	TypeString  = "STRING"
	TypeInteger = "INTEGER"
	TypeNumber  = "NUMBER"
	TypeBoolean = "BOOLEAN"
)

// Schema is the OpenAPI subset accepted by generationConfig.responseSchema.
type Schema struct {
	Type             string             `json:"type"`
	Description      string             `json:"description,omitempty"`
	Properties       map[string]*Schema `json:"properties,omitempty"`
	Required         []string           `json:"required,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
	Items            *Schema            `json:"items,omitempty"`
}

// SchemaFor builds a response schema from a struct value.
//
// Field names come from json tags and descriptions from description tags.
// Every field without omitempty is required.
func SchemaFor(v any) (*Schema, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, errors.New("schema value is nil")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema must be built from a struct, got %s", t.Kind())
	}
	return schemaForType(t, map[reflect.Type]bool{})
}

// MustSchemaFor is SchemaFor for package-level schemas.
func MustSchemaFor(v any) *Schema {
	s, err := SchemaFor(v)
	if err != nil {
		panic(err)
	}
	return s
}

func schemaForType(t reflect.Type, visited map[reflect.Type]bool) (*Schema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		if visited[t] {
			return nil, fmt.Errorf("recursive type not supported: %s", t.String())
		}
		visited[t] = true
		defer delete(visited, t)

		out := &Schema{
			Type:       TypeObject,
			Properties: map[string]*Schema{},
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}

			name, omitempty, skip := parseJSONTag(f)
			if skip {
				continue
			}

			fieldSchema, err := schemaForType(f.Type, visited)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			if desc := f.Tag.Get("description"); desc != "" {
				fieldSchema.Description = desc
			}

			out.Properties[name] = fieldSchema
			out.PropertyOrdering = append(out.PropertyOrdering, name)
			if !omitempty && f.Type.Kind() != reflect.Pointer {
				out.Required = append(out.Required, name)
			}
		}
		return out, nil

	case reflect.String:
		return &Schema{Type: TypeString}, nil
	case reflect.Bool:
		return &Schema{Type: TypeBoolean}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: TypeInteger}, nil
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: TypeNumber}, nil
	case reflect.Slice, reflect.Array:
		items, err := schemaForType(t.Elem(), visited)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: TypeArray, Items: items}, nil
	default:
		return nil, fmt.Errorf("unsupported kind: %s", t.Kind())
	}
}

func parseJSONTag(f reflect.StructField) (name string, omitempty bool, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	if tag == "" {
		return f.Name, false, false
	}

	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = f.Name
	}
	for _, p := range parts[1:] {
		if p == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty, false
}
