package reader

import (
	"strings"
	"testing"

	"github.com/lvillar/pdftpl/object"
)

func parseOne(t *testing.T, src string) object.Object {
	t.Helper()
	obj, err := newParser([]byte(src)).ParseObject()
	if err != nil {
		t.Fatalf("parsing %q: %v", src, err)
	}
	return obj
}

func TestParseScalars(t *testing.T) {
	tests := []struct {
		src  string
		want object.Object
	}{
		{"42", object.Integer(42)},
		{"-7", object.Integer(-7)},
		{"+3", object.Integer(3)},
		{"3.5", object.Real(3.5)},
		{"-.25", object.Real(-0.25)},
		{"true", object.Boolean(true)},
		{"false", object.Boolean(false)},
		{"null", object.Null{}},
		{"/Type", object.Name("Type")},
		{"/A#20B", object.Name("A B")},
		{"% a comment\n42", object.Integer(42)},
		{"10 0 R", object.Reference{Number: 10}},
		{"7 2 R", object.Reference{Number: 7, Generation: 2}},
	}
	for _, tt := range tests {
		if got := parseOne(t, tt.src); got != tt.want {
			t.Errorf("parse %q = %T(%v), want %T(%v)", tt.src, got, got, tt.want, tt.want)
		}
	}
}

func TestParseReferenceNeedsDelimiter(t *testing.T) {
	// "RG" is an operator, not the R of a reference.
	p := newParser([]byte("1 0 RG"))
	obj, err := p.ParseObject()
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if v, ok := obj.(object.Integer); !ok || v != 1 {
		t.Errorf("expected Integer(1), got %T(%v)", obj, obj)
	}
}

func TestParseStrings(t *testing.T) {
	tests := []struct {
		src   string
		value string
		hex   bool
	}{
		{"(Hello World)", "Hello World", false},
		{"(Hello (nested) World)", "Hello (nested) World", false},
		{`(Line1\nLine2\r\t\\)`, "Line1\nLine2\r\t\\", false},
		{"<48656C6C6F>", "Hello", true},
		{"<48 65 6c 6C 6F>", "Hello", true},
	}
	for _, tt := range tests {
		s, ok := parseOne(t, tt.src).(object.String)
		if !ok {
			t.Errorf("parse %q: expected String", tt.src)
			continue
		}
		if string(s.Value) != tt.value || s.IsHex != tt.hex {
			t.Errorf("parse %q = %q (hex %v), want %q (hex %v)", tt.src, s.Value, s.IsHex, tt.value, tt.hex)
		}
	}
}

func TestParseArray(t *testing.T) {
	arr, ok := parseOne(t, "[1 2.5 /Name (text) 4 0 R]").(object.Array)
	if !ok {
		t.Fatal("expected Array")
	}
	if len(arr) != 5 {
		t.Fatalf("expected 5 elements, got %d", len(arr))
	}
	if _, ok := arr[0].(object.Integer); !ok {
		t.Errorf("element 0: expected Integer, got %T", arr[0])
	}
	if _, ok := arr[1].(object.Real); !ok {
		t.Errorf("element 1: expected Real, got %T", arr[1])
	}
	if _, ok := arr[2].(object.Name); !ok {
		t.Errorf("element 2: expected Name, got %T", arr[2])
	}
	if _, ok := arr[3].(object.String); !ok {
		t.Errorf("element 3: expected String, got %T", arr[3])
	}
	if ref, ok := arr[4].(object.Reference); !ok || ref.Number != 4 {
		t.Errorf("element 4: expected 4 0 R, got %v", arr[4])
	}
}

func TestParseDict(t *testing.T) {
	d, ok := parseOne(t, "<< /Type /Page /Count 3 /Gone null /Kids [1 0 R] >>").(object.Dict)
	if !ok {
		t.Fatal("expected Dict")
	}
	if d.GetName("Type") != "Page" {
		t.Errorf("Type = %v, want Page", d["Type"])
	}
	if v, ok := d.GetInt("Count"); !ok || v != 3 {
		t.Errorf("Count = %v, want 3", d["Count"])
	}
	if _, ok := d["Gone"]; ok {
		t.Error("null value should be dropped")
	}
	if len(d.GetArray("Kids")) != 1 {
		t.Errorf("Kids = %v", d["Kids"])
	}
}

func TestParseNestingLimit(t *testing.T) {
	src := strings.Repeat("[", maxNesting+1) + strings.Repeat("]", maxNesting+1)
	if _, err := newParser([]byte(src)).ParseObject(); err == nil {
		t.Error("expected nesting error")
	}
	ok := strings.Repeat("[", 10) + strings.Repeat("]", 10)
	if _, err := newParser([]byte(ok)).ParseObject(); err != nil {
		t.Errorf("moderate nesting: %v", err)
	}
}

func TestParseIndirectObject(t *testing.T) {
	p := newParser([]byte("5 0 obj\n<< /Type /Page >>\nendobj"))
	obj, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if obj.Number != 5 || obj.Generation != 0 {
		t.Errorf("expected 5 0 obj, got %d %d obj", obj.Number, obj.Generation)
	}
	d, ok := obj.Value.(object.Dict)
	if !ok {
		t.Fatalf("expected Dict value, got %T", obj.Value)
	}
	if d.GetName("Type") != "Page" {
		t.Errorf("Type = %v, want Page", d.GetName("Type"))
	}
}

func TestParseStream(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"exact length", "1 0 obj\n<< /Length 5 >>\nstream\nhello\nendstream\nendobj", "hello"},
		{"wrong length", "1 0 obj\n<< /Length 99 >>\nstream\nhello\nendstream\nendobj", "hello"},
		{"crlf", "1 0 obj\n<< /Length 3 >>\nstream\r\nabc\r\nendstream\nendobj", "abc"},
		{"indirect length unresolved", "1 0 obj\n<< /Length 9 0 R >>\nstream\nq Q\nendstream\nendobj", "q Q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := newParser([]byte(tt.src)).ParseIndirectObject()
			if err != nil {
				t.Fatalf("parsing: %v", err)
			}
			s, ok := obj.Value.(object.Stream)
			if !ok {
				t.Fatalf("expected Stream, got %T", obj.Value)
			}
			if string(s.Data) != tt.want {
				t.Errorf("data = %q, want %q", s.Data, tt.want)
			}
		})
	}
}

func TestParseStreamIndirectLength(t *testing.T) {
	src := "1 0 obj\n<< /Length 2 0 R >>\nstream\nab endstream inside\nendstream\nendobj"
	p := newParser([]byte(src))
	p.length = func(ref object.Reference) (int, bool) {
		return len("ab endstream inside"), ref.Number == 2
	}
	obj, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if s := obj.Value.(object.Stream); string(s.Data) != "ab endstream inside" {
		t.Errorf("data = %q", s.Data)
	}
}
