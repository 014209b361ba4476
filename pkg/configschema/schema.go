// Package configschema derives a JSON Schema from the server configuration.
package configschema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/neeprokriti/catalog-server/pkg/config"
)

var durationType = reflect.TypeOf(time.Duration(0))

// enums lists the closed value sets enforced by config validation.
var enums = map[string][]any{
	"http.router":              {config.RouterGin, config.RouterGorilla},
	"observability.log_level":  {"debug", "info", "warn", "error"},
	"observability.log_format": {"json", "text"},
}

// BuildSchemaWithDefaults returns a JSON Schema for config.Config keyed the way viper reads
// it, with the values of defaults (DefaultConfig when nil) as property defaults.
func BuildSchemaWithDefaults(defaults *config.Config) (*jsonschema.Schema, error) {
	if defaults == nil {
		defaults = config.DefaultConfig()
	}
	schema, err := jsonschema.ForType(reflect.TypeOf(config.Config{}), &jsonschema.ForOptions{IgnoreInvalidTypes: true})
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	reshape(schema, reflect.ValueOf(*defaults))
	for key, values := range enums {
		if node := Lookup(schema, key); node != nil {
			node.Enum = values
		}
	}

	name := strings.TrimSpace(defaults.Service.Name)
	if name == "" {
		name = "Service"
	}
	schema.Title = name + " Configuration"
	schema.Description = "Schema for " + name + " configuration."
	schema.Schema = "https://json-schema.org/draft/2020-12/schema"
	return schema, nil
}

// Lookup returns the schema node at a dotted configuration key, or nil.
func Lookup(schema *jsonschema.Schema, key string) *jsonschema.Schema {
	node := schema
	for _, part := range strings.Split(key, ".") {
		if node == nil {
			return nil
		}
		node = node.Properties[part]
	}
	return node
}

// reshape walks a struct schema alongside its default value. Properties are renamed from
// Go field names to mapstructure keys, durations become strings, leaves receive defaults,
// and a property stops being required once it has a default.
func reshape(schema *jsonschema.Schema, value reflect.Value) {
	if schema == nil || value.Kind() != reflect.Struct || len(schema.Properties) == 0 {
		return
	}
	renamed := make(map[string]string)
	t := value.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		prop, ok := schema.Properties[field.Name]
		if !field.IsExported() || !ok {
			continue
		}
		key := keyName(field)
		delete(schema.Properties, field.Name)
		renamed[field.Name] = key

		fieldVal := value.Field(i)
		if field.Type == durationType {
			prop = &jsonschema.Schema{Type: "string", Description: prop.Description}
		}
		if fieldVal.Kind() == reflect.Struct {
			reshape(prop, fieldVal)
		} else if prop.Default == nil {
			prop.Default = defaultJSON(fieldVal)
		}
		schema.Properties[key] = prop
	}

	required := make([]string, 0, len(schema.Required))
	for _, name := range schema.Required {
		if key, ok := renamed[name]; ok {
			name = key
		}
		if prop := schema.Properties[name]; prop == nil || (prop.Default == nil && len(prop.Properties) == 0) {
			required = append(required, name)
		}
	}
	schema.Required = required
	for i, name := range schema.PropertyOrder {
		if key, ok := renamed[name]; ok {
			schema.PropertyOrder[i] = key
		}
	}
}

func defaultJSON(value reflect.Value) json.RawMessage {
	var v any
	switch {
	case value.Type() == durationType:
		v = time.Duration(value.Int()).String()
	case value.Kind() == reflect.Slice && value.IsNil():
		return json.RawMessage("[]")
	default:
		v = value.Interface()
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return payload
}

func keyName(field reflect.StructField) string {
	for _, tag := range []string{"mapstructure", "yaml"} {
		name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return strings.ToLower(field.Name)
}
