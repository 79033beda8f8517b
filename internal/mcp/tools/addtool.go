package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddTool registers a tool after checking its output type with
// CheckOutputSchema.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	sdkmcp.AddTool(srv, t, h)
}

// CheckOutputSchema panics when the zero value of T would be rejected by the
// output schema the SDK infers for T. Nil slices and maps marshal as null
// while the inferred schema says array or object; json.RawMessage marshals
// as inline JSON while the schema says array of integers. Both only surface
// when a handler returns, so registration is the place to catch them.
func CheckOutputSchema[T any](toolName string) {
	if err := outputSchemaError(reflect.TypeFor[T]()); err != nil {
		panic(fmt.Sprintf("AddTool %q: %v", toolName, err))
	}
}

var rawMessageType = reflect.TypeFor[json.RawMessage]()

func outputSchemaError(rt reflect.Type) error {
	if rt == reflect.TypeFor[any]() {
		return nil
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	if paths := rawMessagePaths(rt); len(paths) > 0 {
		return fmt.Errorf("output type %s has json.RawMessage at %s\n"+
			"  Fix: declare the field as any and fill it with query.ToValue",
			rt, strings.Join(paths, ", "))
	}

	// Inference and resolution failures are reported by the SDK itself.
	schema, err := jsonschema.ForType(rt, &jsonschema.ForOptions{})
	if err != nil {
		return nil
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil
	}

	data, err := json.Marshal(reflect.Zero(rt).Interface())
	if err != nil {
		return nil
	}
	var zero map[string]any
	if err := json.Unmarshal(data, &zero); err != nil {
		return nil
	}

	if err := resolved.Validate(&zero); err != nil {
		return fmt.Errorf("zero value of %s fails its schema: %v\n"+
			"  JSON: %s\n"+
			"  Fix: tag nil-defaulting slices and maps with omitzero or omitempty",
			rt, err, data)
	}
	return nil
}

// rawMessagePaths lists the dotted paths of every json.RawMessage reachable
// from t.
func rawMessagePaths(t reflect.Type) []string {
	var paths []string
	seen := make(map[reflect.Type]bool)

	var walk func(t reflect.Type, path string)
	walk = func(t reflect.Type, path string) {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t == rawMessageType {
			paths = append(paths, strings.TrimPrefix(path, "."))
			return
		}
		if seen[t] {
			return
		}
		seen[t] = true
		defer delete(seen, t)

		switch t.Kind() {
		case reflect.Struct:
			for i := range t.NumField() {
				if f := t.Field(i); f.IsExported() {
					walk(f.Type, path+"."+f.Name)
				}
			}
		case reflect.Slice, reflect.Array:
			walk(t.Elem(), path+".[]")
		case reflect.Map:
			walk(t.Elem(), path+".[value]")
		}
	}

	walk(t, "")
	return paths
}
