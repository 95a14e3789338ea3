package pdf

import "testing"

// fakeGetter is a minimal in-memory Getter for testing Resolve and the
// Get* helpers without needing a full Document.
type fakeGetter map[Reference]Object

func (f fakeGetter) Get(ref Reference) (Object, error) {
	obj, ok := f[ref]
	if !ok {
		return nil, &MalformedFileError{Err: ErrInvalidXRefReference}
	}
	return obj, nil
}

func TestResolveDirect(t *testing.T) {
	g := fakeGetter{}
	got, err := Resolve(g, Integer(5))
	if err != nil || got != Integer(5) {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestResolveChain(t *testing.T) {
	g := fakeGetter{
		{Number: 1}: Reference{Number: 2},
		{Number: 2}: Reference{Number: 3},
		{Number: 3}: Name("done"),
	}
	got, err := Resolve(g, Reference{Number: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Name("done") {
		t.Fatalf("got %v", got)
	}
}

func TestResolveLoop(t *testing.T) {
	g := fakeGetter{
		{Number: 1}: Reference{Number: 2},
		{Number: 2}: Reference{Number: 1},
	}
	_, err := Resolve(g, Reference{Number: 1})
	if err == nil {
		t.Fatalf("expected a reference loop error")
	}
}

func TestGetIntegerRoundsReal(t *testing.T) {
	g := fakeGetter{}
	n, err := GetInteger(g, Real(3.6))
	if err != nil || n != 4 {
		t.Fatalf("got %v, %v", n, err)
	}
}

func TestGetDictTypedMismatch(t *testing.T) {
	g := fakeGetter{}
	dict := Dict{"Type": Name("Page")}
	if _, err := GetDictTyped(g, dict, "Catalog"); err == nil {
		t.Fatalf("expected a type mismatch error")
	}
}

func TestGetFiltersArray(t *testing.T) {
	g := fakeGetter{}
	dict := Dict{"Filter": Array{Name("ASCIIHexDecode"), Name("FlateDecode")}}
	names, err := GetFilters(g, dict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "ASCIIHexDecode" || names[1] != "FlateDecode" {
		t.Fatalf("got %v", names)
	}
}
