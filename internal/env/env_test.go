package env

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestMergePrecedence(t *testing.T) {
	t.Setenv("HERMES_ENV_TEST_BASE", "os")
	t.Setenv("PORT", "1")

	e := New()
	e.Set("PORT", "3003")
	e.Set("HOST", "127.0.0.1")
	out := e.Merge([]string{"HOST=0.0.0.0", "EXTRA=x", "=skipped", "novalue"})

	want := []string{"EXTRA=x", "HERMES_ENV_TEST_BASE=os", "HOST=0.0.0.0", "PORT=3003"}
	for _, kv := range want {
		if !slices.Contains(out, kv) {
			t.Errorf("missing %q in merged env", kv)
		}
	}
	if !slices.IsSorted(out) {
		t.Errorf("merged env should be sorted")
	}
	for _, kv := range out {
		if kv == "=skipped" || kv == "novalue" {
			t.Errorf("malformed entry leaked: %q", kv)
		}
	}
}

func TestMergeExpandsReferences(t *testing.T) {
	e := New()
	e.Set("PORT", "3003")
	out := e.Merge([]string{"API_URL=http://127.0.0.1:${PORT}/api"})
	if !slices.Contains(out, "API_URL=http://127.0.0.1:3003/api") {
		t.Fatalf("expansion failed: %v", out)
	}
}

func TestExpandOnlyBracedReferences(t *testing.T) {
	m := Var{"X": "1", "word": "W", "PORT": "3003"}
	cases := []struct{ in, want string }{
		{"pa$word${X}", "pa$word1"},
		{"cost $$ ${PORT}", "cost $$ 3003"},
		{"${MISSING}-${X}", "${MISSING}-1"},
		{"open ${X", "open ${X"},
		{"${X}${X}", "11"},
		{"plain", "plain"},
	}
	for _, c := range cases {
		if got := expand(c.in, m); got != c.want {
			t.Errorf("expand(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestUnset(t *testing.T) {
	e := New()
	e.Set("A", "1")
	e.Unset("A")
	if _, ok := e.Var["A"]; ok {
		t.Fatalf("A should be unset")
	}
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".env")
	data := "# comment\n\nSUPABASE_URL = https://example.test\nNODE_ENV=production\nbroken line\n"
	if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := []string{"SUPABASE_URL=https://example.test", "NODE_ENV=production"}
	if !slices.Equal(got, want) {
		t.Fatalf("LoadFile = %v, want %v", got, want)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
