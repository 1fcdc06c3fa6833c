package inlay

import (
	"testing"

	"github.com/tack-ls/tack/protocol"
)

const source = `struct Widget {}

fn make(count: usize, label: &str) -> Widget {
    Widget {}
}

fn main() {
    let w = Widget::new();
    let m = make(3, "x");
    let s = String::new();
    let annotated: i32 = 7;
}
`

func fullRange() protocol.Range {
	return protocol.Range{End: protocol.Position{Line: 99, Character: 0}}
}

func buildIndex(texts ...string) *Index {
	ix := NewIndex()
	for _, t := range texts {
		ix.AddSource(t)
	}
	return ix
}

func findHint(hints []protocol.InlayHint, label string) *protocol.InlayHint {
	for i := range hints {
		if hints[i].Label == label {
			return &hints[i]
		}
	}
	return nil
}

func TestComputeLetConstructorHint(t *testing.T) {
	hints := Compute(source, buildIndex(source), fullRange())

	h := findHint(hints, ": Widget")
	if h == nil {
		t.Fatalf("no ': Widget' hint in %+v", hints)
	}
	if h.Kind != protocol.InlayHintType {
		t.Errorf("kind = %v, want type hint", h.Kind)
	}
	// The first one sits right after "w" on the Widget::new() line.
	want := protocol.Position{Line: 7, Character: 9}
	if h.Position != want {
		t.Errorf("position = %+v, want %+v", h.Position, want)
	}
}

func TestComputeLetCallReturnHint(t *testing.T) {
	hints := Compute(source, buildIndex(source), fullRange())

	var onCallLine []protocol.InlayHint
	for _, h := range hints {
		if h.Position.Line == 8 {
			onCallLine = append(onCallLine, h)
		}
	}
	if len(onCallLine) != 3 {
		t.Fatalf("line 8 hints = %+v, want type + two params", onCallLine)
	}
	if onCallLine[0].Label != ": Widget" {
		t.Errorf("first hint = %q", onCallLine[0].Label)
	}
}

func TestComputeParameterHints(t *testing.T) {
	hints := Compute(source, buildIndex(source), fullRange())

	count := findHint(hints, "count:")
	label := findHint(hints, "label:")
	if count == nil || label == nil {
		t.Fatalf("missing parameter hints in %+v", hints)
	}
	if count.Kind != protocol.InlayHintParameter || !count.PaddingRight {
		t.Errorf("count hint = %+v", count)
	}
	if count.Position.Line != 8 || label.Position.Line != 8 {
		t.Errorf("parameter hints on wrong line: %+v %+v", count.Position, label.Position)
	}
	if count.Position.Character >= label.Position.Character {
		t.Errorf("hints out of order: count at %d, label at %d",
			count.Position.Character, label.Position.Character)
	}
}

func TestComputeSkipsAnnotatedAndUnknown(t *testing.T) {
	hints := Compute(source, buildIndex(source), fullRange())

	for _, h := range hints {
		if h.Position.Line == 9 || h.Position.Line == 10 {
			t.Errorf("unexpected hint on line %d: %+v", h.Position.Line, h)
		}
	}
}

func TestComputeSkipsArgMatchingParamName(t *testing.T) {
	text := "fn main() {\n    let count = 1;\n    make(count, \"x\");\n}\n"
	hints := Compute(text, buildIndex(source), fullRange())

	if h := findHint(hints, "count:"); h != nil {
		t.Errorf("hinted an argument already named like the parameter: %+v", h)
	}
	if h := findHint(hints, "label:"); h == nil {
		t.Error("missing label: hint for the literal argument")
	}
}

func TestComputeSkipsDefinitionLines(t *testing.T) {
	hints := Compute(source, buildIndex(source), fullRange())
	for _, h := range hints {
		if h.Position.Line == 2 {
			t.Errorf("hint on the fn definition line: %+v", h)
		}
	}
}

func TestComputeRangeFilterAndOrder(t *testing.T) {
	// Only the make() call line is requested.
	rng := protocol.Range{
		Start: protocol.Position{Line: 8, Character: 0},
		End:   protocol.Position{Line: 8, Character: 99},
	}
	hints := Compute(source, buildIndex(source), rng)

	if len(hints) != 3 {
		t.Fatalf("got %d hints, want 3: %+v", len(hints), hints)
	}
	for i := 1; i < len(hints); i++ {
		prev, cur := hints[i-1].Position, hints[i].Position
		if cur.Line < prev.Line || (cur.Line == prev.Line && cur.Character < prev.Character) {
			t.Errorf("hints not sorted: %+v before %+v", prev, cur)
		}
	}
}

func TestComputeCrossFileIndex(t *testing.T) {
	lib := "pub fn connect(host: &str, port: u16) -> Widget {}\npub struct Widget {}\n"
	app := "fn main() {\n    let c = connect(\"db\", 5432);\n}\n"

	hints := Compute(app, buildIndex(lib, app), fullRange())
	if findHint(hints, ": Widget") == nil {
		t.Errorf("return type from another buffer not used: %+v", hints)
	}
	if findHint(hints, "host:") == nil || findHint(hints, "port:") == nil {
		t.Errorf("parameter names from another buffer not used: %+v", hints)
	}
}

func TestIndexArityOverloadSelection(t *testing.T) {
	multi := "fn go(a: i32) -> One {}\nfn go(a: i32, b: i32) -> Two {}\n"
	ix := buildIndex(multi)

	sig, ok := ix.signatureFor("go", 2)
	if !ok || sig.Return != "Two" {
		t.Errorf("arity 2 resolved to %+v", sig)
	}
	sig, ok = ix.signatureFor("go", 5)
	if !ok || sig.Return != "One" {
		t.Errorf("unmatched arity should fall back to first, got %+v", sig)
	}
}
