package tree

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustParse(t *testing.T, s string) *Node {
	t.Helper()
	n, err := Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse(%s): %v", s, err)
	}
	return n
}

func compact(t *testing.T, n *Node) string {
	t.Helper()
	b, err := n.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	return string(b)
}

func TestParsePreservesKeyOrderAndNumbers(t *testing.T) {
	n := mustParse(t, `{"zeta": 1.50, "alpha": {"b": true, "a": null}, "list": [3, "x", 1e3]}`)

	if got := n.Object().Keys(); strings.Join(got, ",") != "zeta,alpha,list" {
		t.Fatalf("Keys() = %v, want [zeta alpha list]", got)
	}

	want := `{"zeta":1.50,"alpha":{"b":true,"a":null},"list":[3,"x",1e3]}`
	if got := compact(t, n); got != want {
		t.Fatalf("round trip = %s, want %s", got, want)
	}
}

func TestParseDuplicateKeyKeepsFirstPosition(t *testing.T) {
	n := mustParse(t, `{"a": 1, "b": 2, "a": 3}`)
	if got := compact(t, n); got != `{"a":3,"b":2}` {
		t.Fatalf("duplicate keys = %s, want {\"a\":3,\"b\":2}", got)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{``, `{`, `{"a":}`, `[1,]`, `{"a":1} {"b":2}`, `{1: 2}`} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestMarshalIndent(t *testing.T) {
	n := mustParse(t, `{"a":"<b>&","b":[],"c":{},"d":[1,{"e":false}]}`)
	got, err := Marshal(n)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{
  "a": "<b>&",
  "b": [],
  "c": {},
  "d": [
    1,
    {
      "e": false
    }
  ]
}
`
	if string(got) != want {
		t.Fatalf("Marshal() =\n%s\nwant\n%s", got, want)
	}

	got4, err := MarshalIndent(mustParse(t, `{"a":1}`), "    ")
	if err != nil {
		t.Fatalf("MarshalIndent: %v", err)
	}
	if string(got4) != "{\n    \"a\": 1\n}\n" {
		t.Fatalf("MarshalIndent(4 spaces) = %q", got4)
	}
}

func TestEmpty(t *testing.T) {
	src := mustParse(t, `{"a":"hi","b":{"c":1,"d":["x",true,null,""]},"e":2.5}`)
	got := compact(t, Empty(src))
	want := `{"a":"","b":{"c":1,"d":["",true,null,""]},"e":2.5}`
	if got != want {
		t.Fatalf("Empty() = %s, want %s", got, want)
	}

	// The source must be untouched.
	if compact(t, src) != `{"a":"hi","b":{"c":1,"d":["x",true,null,""]},"e":2.5}` {
		t.Fatalf("Empty() modified its input: %s", compact(t, src))
	}

	if Empty(String("x")).Str() != "" {
		t.Fatal("Empty(string) should be blank")
	}
	if Empty(nil).Kind() != KindNull {
		t.Fatal("Empty(nil) should be null")
	}
}

func TestCloneIsDeep(t *testing.T) {
	src := mustParse(t, `{"a":{"b":["x"]}}`)
	c := Clone(src)
	if !Equal(src, c) {
		t.Fatal("Clone() not equal to source")
	}
	b, _ := c.Object().Get("a")
	list, _ := b.Object().Get("b")
	list.Items()[0].SetStr("changed")
	if compact(t, src) != `{"a":{"b":["x"]}}` {
		t.Fatalf("mutating clone changed source: %s", compact(t, src))
	}
}

func TestEqualAndSameShape(t *testing.T) {
	tests := []struct {
		a, b      string
		equal     bool
		sameShape bool
	}{
		{`{"a":1}`, `{"a":1}`, true, true},
		{`{"a":1}`, `{"a":"1"}`, false, true},
		{`{"a":1,"b":2}`, `{"b":2,"a":1}`, false, true},
		{`{"a":1}`, `{"b":1}`, false, false},
		{`[1,2]`, `[1]`, false, false},
		{`{"a":[]}`, `{"a":{}}`, false, false},
		{`{"a":null}`, `{"a":{}}`, false, false},
		{`"x"`, `3`, false, true},
	}
	for _, tc := range tests {
		a, b := mustParse(t, tc.a), mustParse(t, tc.b)
		if got := Equal(a, b); got != tc.equal {
			t.Errorf("Equal(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.equal)
		}
		if got := SameShape(a, b); got != tc.sameShape {
			t.Errorf("SameShape(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.sameShape)
		}
	}
}

func TestStringsOrderAndStats(t *testing.T) {
	n := mustParse(t, `{"b":"one","a":["two",{"z":"three","y":" "}],"c":4}`)
	var got []string
	for _, s := range Strings(n) {
		got = append(got, s.Str())
	}
	if strings.Join(got, "|") != "one|two|three| " {
		t.Fatalf("Strings() = %q", got)
	}

	total, filled := Stats(n)
	if total != 4 || filled != 3 {
		t.Fatalf("Stats() = (%d, %d), want (4, 3)", total, filled)
	}
}

func TestObjectDeleteKeepsOrder(t *testing.T) {
	o := NewObject()
	o.Set("a", Null())
	o.Set("b", Null())
	o.Set("c", Null())
	cp := o.Copy()
	o.Delete("b")
	o.Delete("missing")

	if got := strings.Join(o.Keys(), ","); got != "a,c" {
		t.Fatalf("Keys() after delete = %q, want a,c", got)
	}
	if got := strings.Join(cp.Keys(), ","); got != "a,b,c" {
		t.Fatalf("copy Keys() = %q, want a,b,c", got)
	}
}

func TestWriteFileAndParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "common.json")
	n := mustParse(t, `{"title":"Привет","count":2}`)

	if err := WriteFile(path, n, "    "); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "{\n    \"title\": \"Привет\",\n    \"count\": 2\n}\n" {
		t.Fatalf("file contents = %q", data)
	}

	back, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if !Equal(n, back) {
		t.Fatalf("ParseFile() = %s, want %s", compact(t, back), compact(t, n))
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, found %d entries", len(entries))
	}
}

func TestKindString(t *testing.T) {
	kinds := map[Kind]string{
		KindNull: "null", KindBool: "boolean", KindNumber: "number",
		KindString: "string", KindArray: "array", KindObject: "object",
	}
	for k, want := range kinds {
		if k.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), k.String(), want)
		}
	}
	if !KindArray.IsContainer() || !KindObject.IsContainer() || KindString.IsContainer() {
		t.Fatal("IsContainer() mismatch")
	}
}
