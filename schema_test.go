package pdf

import (
	"errors"
	"testing"
)

type testRecord struct {
	_ struct{} `pdf:"Type=TestType"`

	Name     Name
	Count    Integer `pdf:"optional"`
	Children []Integer
}

type strictRecord struct {
	_ struct{} `pdf:"strict"`

	Name Name
}

type fixedArrayRecord struct {
	Point [3]float64
}

type asArrayRecord struct {
	Values []Integer `pdf:"asarray"`
}

func TestDecodeBasic(t *testing.T) {
	g := fakeGetter{}
	dict := Dict{
		"Type":     Name("TestType"),
		"Name":     Name("hello"),
		"Count":    Integer(3),
		"Children": Array{Integer(1), Integer(2), Integer(3)},
	}

	var rec testRecord
	if err := Decode(g, dict, &rec); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Name != "hello" || rec.Count != 3 {
		t.Fatalf("got %+v", rec)
	}
	if len(rec.Children) != 3 || rec.Children[2] != 3 {
		t.Fatalf("got %+v", rec.Children)
	}
}

func TestDecodeMissingRequired(t *testing.T) {
	g := fakeGetter{}
	dict := Dict{"Type": Name("TestType")}
	var rec testRecord
	if err := Decode(g, dict, &rec); err == nil {
		t.Fatalf("expected an error for a missing required field")
	}
}

func TestDecodeWrongDictType(t *testing.T) {
	g := fakeGetter{}
	dict := Dict{"Type": Name("Other"), "Name": Name("x"), "Children": Array{}}
	var rec testRecord
	if err := Decode(g, dict, &rec); err == nil {
		t.Fatalf("expected a /Type mismatch error")
	}
}

func TestDecodeUnknownKeyStrict(t *testing.T) {
	g := fakeGetter{}
	dict := Dict{"Name": Name("x"), "Bogus": Integer(1)}
	var rec strictRecord
	err := Decode(g, dict, &rec)
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("got %v, want ErrUnknownKey", err)
	}
}

func TestDecodeUnknownKeyPermissiveByDefault(t *testing.T) {
	// testRecord has no "strict" sentinel opt, so an extra key is ignored.
	g := fakeGetter{}
	dict := Dict{
		"Type":     Name("TestType"),
		"Name":     Name("hello"),
		"Children": Array{},
		"Bogus":    Integer(1),
	}
	var rec testRecord
	if err := Decode(g, dict, &rec); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestParseDuplicateKey(t *testing.T) {
	c := NewParseCtx([]byte("<< /Name /A /Name /B >>"))
	_, _, err := c.ParseObject(0)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("got %v, want ErrDuplicateKey", err)
	}
}

func TestDecodeFixedArray(t *testing.T) {
	g := fakeGetter{}
	dict := Dict{"Point": Array{Real(1), Real(2), Real(3)}}
	var rec fixedArrayRecord
	if err := Decode(g, dict, &rec); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Point != ([3]float64{1, 2, 3}) {
		t.Fatalf("got %+v", rec.Point)
	}
}

func TestDecodeFixedArrayWrongLength(t *testing.T) {
	g := fakeGetter{}
	dict := Dict{"Point": Array{Real(1), Real(2)}}
	var rec fixedArrayRecord
	if err := Decode(g, dict, &rec); err == nil {
		t.Fatalf("expected an error for a short fixed array")
	}
}

func TestDecodeAsArrayOfAcceptsBareValue(t *testing.T) {
	g := fakeGetter{}
	dict := Dict{"Values": Integer(5)}
	var rec asArrayRecord
	if err := Decode(g, dict, &rec); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rec.Values) != 1 || rec.Values[0] != 5 {
		t.Fatalf("got %+v", rec.Values)
	}
}

func TestExtractCatalog(t *testing.T) {
	g := fakeGetter{}
	dict := Dict{
		"Type":  Name("Catalog"),
		"Pages": Reference{Number: 5, Generation: 0},
	}
	cat, err := ExtractCatalog(g, dict)
	if err != nil {
		t.Fatalf("ExtractCatalog: %v", err)
	}
	if cat.Pages != (Reference{Number: 5}) {
		t.Fatalf("got %+v", cat.Pages)
	}
}
