package jsonutil

import (
	"encoding/json"
	"testing"
)

func TestMarshalSettings(t *testing.T) {
	doc := map[string]json.RawMessage{
		"zeta":  json.RawMessage(`true`),
		"alpha": json.RawMessage(`{"nested": 1}`),
	}

	got, err := MarshalSettings(doc)
	if err != nil {
		t.Fatalf("MarshalSettings() error = %v", err)
	}

	want := `{
  "alpha": {
    "nested": 1
  },
  "zeta": true
}
`
	if string(got) != want {
		t.Errorf("MarshalSettings() =\n%s\nwant:\n%s", got, want)
	}
}

func TestMarshalSettingsDeterministic(t *testing.T) {
	doc := map[string]json.RawMessage{
		"b": json.RawMessage(`1`),
		"a": json.RawMessage(`2`),
		"c": json.RawMessage(`3`),
	}
	first, err := MarshalSettings(doc)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := MarshalSettings(doc)
		if err != nil {
			t.Fatal(err)
		}
		if string(again) != string(first) {
			t.Fatalf("serialization varies between calls:\n%s\n%s", first, again)
		}
	}
}

func TestMarshalSettingsEmptyDocument(t *testing.T) {
	got, err := MarshalSettings(map[string]json.RawMessage{})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "{}\n" {
		t.Errorf("MarshalSettings(empty) = %q, want %q", got, "{}\n")
	}
}
