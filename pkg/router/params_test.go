package router

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestParamParserString(t *testing.T) {
	type Params struct {
		ID string `param:"id"`
	}

	parser := NewParamParser()
	var p Params
	if err := parser.Parse(map[string]string{"id": "abc"}, &p); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.ID != "abc" {
		t.Errorf("ID = %q, want %q", p.ID, "abc")
	}
}

func TestParamParserNumbers(t *testing.T) {
	type Params struct {
		ID    int     `param:"id"`
		Page  uint16  `param:"page"`
		Score float64 `param:"score"`
		Draft bool    `param:"draft"`
	}

	parser := NewParamParser()
	var p Params
	params := map[string]string{"id": "123", "page": "7", "score": "1.5", "draft": "true"}
	if err := parser.Parse(params, &p); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.ID != 123 {
		t.Errorf("ID = %d, want %d", p.ID, 123)
	}
	if p.Page != 7 {
		t.Errorf("Page = %d, want %d", p.Page, 7)
	}
	if p.Score != 1.5 {
		t.Errorf("Score = %v, want %v", p.Score, 1.5)
	}
	if !p.Draft {
		t.Error("Draft = false, want true")
	}
}

func TestParamParserOverflow(t *testing.T) {
	type Params struct {
		N int8 `param:"n"`
	}

	var p Params
	if err := NewParamParser().Parse(map[string]string{"n": "300"}, &p); err == nil {
		t.Error("Parse() should reject a value that overflows int8")
	}
}

func TestParamParserInvalidInt(t *testing.T) {
	type Params struct {
		ID int `param:"id"`
	}

	var p Params
	if err := NewParamParser().Parse(map[string]string{"id": "abc"}, &p); err == nil {
		t.Error("Parse() should fail for non-numeric id")
	}
}

func TestParamParserUUID(t *testing.T) {
	type Params struct {
		Ticket uuid.UUID `param:"ticket"`
	}

	want := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	var p Params
	if err := NewParamParser().Parse(map[string]string{"ticket": want.String()}, &p); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.Ticket != want {
		t.Errorf("Ticket = %s, want %s", p.Ticket, want)
	}
}

func TestParamParserCatchAll(t *testing.T) {
	type Params struct {
		Path []string `param:"path"`
	}

	var p Params
	if err := NewParamParser().Parse(map[string]string{"path": "a/b/c"}, &p); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !reflect.DeepEqual(p.Path, []string{"a", "b", "c"}) {
		t.Errorf("Path = %v, want [a b c]", p.Path)
	}
}

func TestParamParserIgnoresUntaggedAndMissing(t *testing.T) {
	type Params struct {
		ID    string `param:"id"`
		Other string
		hide  string `param:"hide"`
	}

	p := Params{Other: "keep"}
	if err := NewParamParser().Parse(map[string]string{"hide": "x"}, &p); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.ID != "" || p.Other != "keep" || p.hide != "" {
		t.Errorf("Parse() changed fields unexpectedly: %+v", p)
	}
}

func TestParamParserRejectsNonPointer(t *testing.T) {
	type Params struct {
		ID string `param:"id"`
	}

	if err := NewParamParser().Parse(map[string]string{"id": "1"}, Params{}); err == nil {
		t.Error("Parse() should reject a non-pointer target")
	}
	n := 0
	if err := NewParamParser().Parse(map[string]string{"id": "1"}, &n); err == nil {
		t.Error("Parse() should reject a pointer to a non-struct")
	}
}

func TestResolvedBind(t *testing.T) {
	type EditEventProps struct {
		ID int `param:"id"`
	}

	table := MustTable(eventRoutes())
	r, err := table.Resolve("/events/42/edit")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	var props EditEventProps
	if err := r.Bind(&props); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if props.ID != 42 {
		t.Errorf("ID = %d, want 42", props.ID)
	}
}

func TestValidateParam(t *testing.T) {
	tests := []struct {
		value   string
		typ     string
		wantErr bool
	}{
		{"anything", "", false},
		{"anything", "string", false},
		{"42", "int", false},
		{"-42", "int64", false},
		{"x", "int", true},
		{"7", "uint", false},
		{"-7", "uint", true},
		{"127", "int8", false},
		{"300", "int8", true},
		{"-32768", "int16", false},
		{"40000", "int16", true},
		{"255", "uint8", false},
		{"256", "uint8", true},
		{"4294967296", "uint32", true},
		{"4294967296", "int64", false},
		{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", "uuid", false},
		{"nope", "uuid", true},
	}

	for _, tc := range tests {
		err := ValidateParam(tc.value, tc.typ)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidateParam(%q, %q) error = %v, wantErr %v", tc.value, tc.typ, err, tc.wantErr)
		}
	}
}

func TestKnownParamType(t *testing.T) {
	for _, typ := range []string{"", "string", "int", "uint8", "uuid"} {
		if !KnownParamType(typ) {
			t.Errorf("KnownParamType(%q) = false", typ)
		}
	}
	for _, typ := range []string{"date", "float", "[]string"} {
		if KnownParamType(typ) {
			t.Errorf("KnownParamType(%q) = true", typ)
		}
	}
}
