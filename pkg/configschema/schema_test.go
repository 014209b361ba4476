package configschema

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/neeprokriti/catalog-server/pkg/config"
)

func TestBuildSchema_UsesConfigKeys(t *testing.T) {
	schema, err := BuildSchemaWithDefaults(nil)
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}

	for _, key := range []string{
		"http.port",
		"http.request_timeout",
		"database.database_name",
		"database.url_template",
		"database.slow_ping_threshold",
		"catalog.max_page_size",
		"catalog.search.pattern_mode",
		"observability.tracing.sample_rate",
	} {
		if Lookup(schema, key) == nil {
			t.Errorf("expected %s in generated schema", key)
		}
	}
	if Lookup(schema, "HTTP") != nil || Lookup(schema, "database.DatabaseName") != nil {
		t.Error("did not expect Go field names in generated schema")
	}
}

func TestBuildSchema_InjectsDefaults(t *testing.T) {
	schema, err := BuildSchemaWithDefaults(nil)
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}

	tests := map[string]string{
		"http.port":                 "5000",
		"management.port":           "9090",
		"database.database_name":    `"neeProkritiDB"`,
		"database.collection":       `"products"`,
		"database.query_timeout":    `"5s"`,
		"catalog.default_page_size": "10",
		"cors.allow_origins":        `["*"]`,
	}
	for key, want := range tests {
		node := Lookup(schema, key)
		if node == nil {
			t.Fatalf("missing %s", key)
		}
		if string(node.Default) != want {
			t.Errorf("%s default = %s, want %s", key, node.Default, want)
		}
	}

	if node := Lookup(schema, "database.connect_timeout"); node.Type != "string" {
		t.Errorf("durations must be strings, got %q", node.Type)
	}
}

func TestBuildSchema_NothingRequiredWhenDefaulted(t *testing.T) {
	schema, err := BuildSchemaWithDefaults(nil)
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	if len(schema.Required) != 0 {
		t.Errorf("root required = %v, want none", schema.Required)
	}
	if http := Lookup(schema, "http"); len(http.Required) != 0 {
		t.Errorf("http required = %v, want none", http.Required)
	}
}

func TestBuildSchema_EnumsAndMetadata(t *testing.T) {
	schema, err := BuildSchemaWithDefaults(nil)
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}

	router := Lookup(schema, "http.router")
	if len(router.Enum) != 2 || router.Enum[0] != config.RouterGin {
		t.Errorf("http.router enum = %v", router.Enum)
	}
	if schema.Title != "neeprokriti-catalog Configuration" {
		t.Errorf("Title = %q", schema.Title)
	}
	if schema.Schema != "https://json-schema.org/draft/2020-12/schema" {
		t.Errorf("$schema = %q", schema.Schema)
	}
	if _, err := json.Marshal(schema); err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
}

func TestBuildSchemaWithDefaults_Overrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Service.Name = "shop"
	cfg.HTTP.Port = 8080

	schema, err := BuildSchemaWithDefaults(cfg)
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	if got := string(Lookup(schema, "http.port").Default); got != "8080" {
		t.Errorf("http.port default = %s, want 8080", got)
	}
	if schema.Title != "shop Configuration" {
		t.Errorf("Title = %q", schema.Title)
	}
}

func TestKeyName(t *testing.T) {
	type sample struct {
		Tagged   int `mapstructure:"max_page_size,omitempty"`
		YAMLOnly int `yaml:"yaml_only"`
		Skipped  int `mapstructure:"-"`
		Plain    int
	}
	want := []string{"max_page_size", "yaml_only", "skipped", "plain"}
	st := reflect.TypeOf(sample{})
	for i, w := range want {
		if got := keyName(st.Field(i)); got != w {
			t.Errorf("keyName(%s) = %q, want %q", st.Field(i).Name, got, w)
		}
	}
}
