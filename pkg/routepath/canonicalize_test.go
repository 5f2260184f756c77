package routepath

import (
	"testing"
)

func TestCanonicalizePath(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantPath    string
		wantQuery   string
		wantChanged bool
	}{
		{name: "root", input: "/", wantPath: "/"},
		{name: "empty string", input: "", wantPath: "/", wantChanged: true},
		{name: "no leading slash", input: "events", wantPath: "/events", wantChanged: true},
		{name: "trailing slash", input: "/events/", wantPath: "/events", wantChanged: true},
		{name: "collapse slashes", input: "/events//42", wantPath: "/events/42", wantChanged: true},
		{name: "single dot", input: "/events/./42", wantPath: "/events/42", wantChanged: true},
		{name: "double dot", input: "/events/42/../add", wantPath: "/events/add", wantChanged: true},
		{name: "double dot to root", input: "/events/../", wantPath: "/", wantChanged: true},
		{name: "query preserved", input: "/events/42?tab=details", wantPath: "/events/42", wantQuery: "tab=details"},
		{name: "normalized path with query", input: "/events/42/?tab=details", wantPath: "/events/42", wantQuery: "tab=details", wantChanged: true},
		{name: "fragment dropped", input: "/events#top", wantPath: "/events"},
		{name: "query percent escapes not validated", input: "/events?bad=%GG", wantPath: "/events", wantQuery: "bad=%GG"},
		{name: "valid percent escapes", input: "/events/a%20b", wantPath: "/events/a%20b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := CanonicalizePath(tc.input)
			if err != nil {
				t.Fatalf("CanonicalizePath(%q) unexpected error = %v", tc.input, err)
			}
			if result.Path != tc.wantPath {
				t.Errorf("CanonicalizePath(%q).Path = %q, want %q", tc.input, result.Path, tc.wantPath)
			}
			if result.Query != tc.wantQuery {
				t.Errorf("CanonicalizePath(%q).Query = %q, want %q", tc.input, result.Query, tc.wantQuery)
			}
			if result.Changed != tc.wantChanged {
				t.Errorf("CanonicalizePath(%q).Changed = %v, want %v", tc.input, result.Changed, tc.wantChanged)
			}
		})
	}
}

func TestCanonicalizePathErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "backslash", input: "/events\\42", wantErr: ErrBackslashInPath},
		{name: "literal nul", input: "/events\x00", wantErr: ErrNullByteInPath},
		{name: "encoded nul", input: "/events/%00", wantErr: ErrNullByteInPath},
		{name: "bad escape", input: "/events/%GG", wantErr: ErrInvalidPercentEscape},
		{name: "truncated escape", input: "/events/%2", wantErr: ErrInvalidPercentEscape},
		{name: "escapes root", input: "/../secret", wantErr: ErrPathEscapesRoot},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CanonicalizePath(tc.input)
			if err != tc.wantErr {
				t.Errorf("CanonicalizePath(%q) error = %v, want %v", tc.input, err, tc.wantErr)
			}
		})
	}
}

func TestDecodeSegment(t *testing.T) {
	got, err := DecodeSegment("a%20b", false)
	if err != nil || got != "a b" {
		t.Errorf("DecodeSegment(a%%20b) = %q, %v; want %q, nil", got, err, "a b")
	}

	if _, err := DecodeSegment("a%2Fb", false); err != ErrEncodedSlashInSegment {
		t.Errorf("DecodeSegment(a%%2Fb) error = %v, want %v", err, ErrEncodedSlashInSegment)
	}

	got, err = DecodeSegment("a%2Fb", true)
	if err != nil || got != "a/b" {
		t.Errorf("DecodeSegment(a%%2Fb, catch-all) = %q, %v; want %q, nil", got, err, "a/b")
	}
}

func TestValidateNavPath(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "/events/", want: "/events"},
		{input: "/events/42?tab=x", want: "/events/42?tab=x"},
		{input: "events", wantErr: true},
		{input: "http://evil.example/", wantErr: true},
		{input: "https://evil.example/", wantErr: true},
		{input: "//evil.example/", wantErr: true},
		{input: "/../x", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ValidateNavPath(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidateNavPath(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ValidateNavPath(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestBase(t *testing.T) {
	if got := NormalizeBase(""); got != "/" {
		t.Errorf("NormalizeBase(\"\") = %q, want /", got)
	}
	if got := NormalizeBase("app/"); got != "/app" {
		t.Errorf("NormalizeBase(app/) = %q, want /app", got)
	}

	tests := []struct {
		base, path, want string
		ok               bool
	}{
		{base: "/", path: "/events", want: "/events", ok: true},
		{base: "/app", path: "/app", want: "/", ok: true},
		{base: "/app", path: "/app/events/42", want: "/events/42", ok: true},
		{base: "/app", path: "/app?x=1", want: "/?x=1", ok: true},
		{base: "/app", path: "/application", ok: false},
		{base: "/app", path: "/events", ok: false},
	}
	for _, tc := range tests {
		got, ok := StripBase(tc.base, tc.path)
		if ok != tc.ok || got != tc.want {
			t.Errorf("StripBase(%q, %q) = %q, %v; want %q, %v", tc.base, tc.path, got, ok, tc.want, tc.ok)
		}
		if ok {
			if back := JoinBase(tc.base, got); back != tc.path {
				t.Errorf("JoinBase(%q, %q) = %q, want %q", tc.base, got, back, tc.path)
			}
		}
	}
}
