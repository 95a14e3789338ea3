package pdf

import (
	"fmt"
	"reflect"
	"strings"
)

// Decode projects obj (resolved to a Dict) onto target, a pointer to a
// struct whose fields carry `pdf:"..."` tags describing how each dictionary
// entry should be read: Scalar, Optional, Resolvable (a field of type
// Reference is left unresolved), ArrayOf/AsArrayOf (a slice field, the
// latter also accepting a bare value as a 1-element array), FixedArray (a
// fixed-size Go array field, [n]T), and Ignored (a field of interface type
// Object accepts any value without further interpretation).
//
// By default unrecognized dictionary keys are ignored (allow_unknown_fields
// is effectively true), matching how most real-world producers attach
// vendor extensions to well-known dictionaries. A struct opts into strict
// checking by tagging its `_` sentinel field with "strict": every dict key
// then has to match a field name or flow into an `extra` catch-all field,
// and an unmatched key is ErrUnknownKey.
func Decode(r Getter, obj Object, target any) error {
	dict, err := GetDict(r, obj)
	if err != nil {
		return Wrap(err, "Decode")
	}
	if dict == nil {
		return &MalformedFileError{Err: fmt.Errorf("Decode: expected a dictionary, got null")}
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("Decode: target must be a pointer to a struct, got %T", target)
	}
	sv := v.Elem()
	st := sv.Type()

	extraField := -1
	strict := false
	seen := make(map[Name]bool, st.NumField())

	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		tag := field.Tag.Get("pdf")
		opts := strings.Split(tag, ",")

		if field.Name == "_" {
			strict = hasOpt(opts, "strict")
			for _, opt := range opts {
				if name, ok := strings.CutPrefix(opt, "Type="); ok {
					if err := CheckDictType(r, dict, Name(name)); err != nil {
						return Wrap(err, "Decode")
					}
				}
			}
			continue
		}

		if hasOpt(opts, "extra") {
			extraField = i
			continue
		}

		optional := hasOpt(opts, "optional")
		key := Name(field.Name)
		seen[key] = true
		raw, present := dict[key]

		if !present || raw == nil {
			if !optional {
				return &MalformedFileError{Err: fmt.Errorf("Decode: missing required field %s", key)}
			}
			continue
		}

		fv := sv.Field(i)
		if err := decodeField(r, raw, fv, opts); err != nil {
			return Wrap(err, fmt.Sprintf("Decode: field %s", key))
		}
	}

	if extraField >= 0 {
		fv := sv.Field(extraField)
		if fv.Kind() == reflect.Map && fv.Type().Key().Kind() == reflect.String {
			m := reflect.MakeMap(fv.Type())
			for k, val := range dict {
				if seen[k] {
					continue
				}
				resolved, err := Resolve(r, val)
				if err != nil {
					return Wrap(err, "Decode: extra field")
				}
				if s, ok := resolved.(String); ok {
					m.SetMapIndex(reflect.ValueOf(string(k)), reflect.ValueOf(string(s.AsTextString())))
				}
			}
			fv.Set(m)
		}
	} else if strict {
		for k := range dict {
			if !seen[k] {
				return &MalformedFileError{Err: fmt.Errorf("%w: %s", ErrUnknownKey, k)}
			}
		}
	}

	return nil
}

func hasOpt(opts []string, name string) bool {
	for _, o := range opts {
		if o == name {
			return true
		}
	}
	return false
}

var (
	typeReference  = reflect.TypeOf(Reference{})
	typeName       = reflect.TypeOf(Name(""))
	typeInteger    = reflect.TypeOf(Integer(0))
	typeReal       = reflect.TypeOf(Real(0))
	typeBoolean    = reflect.TypeOf(Boolean(false))
	typeTextString = reflect.TypeOf(TextString(""))
	typeDate       = reflect.TypeOf(Date{})
	typeDict       = reflect.TypeOf(Dict(nil))
)

// decodeField assigns raw (an unresolved dictionary value) into fv according
// to fv's static type, dispatching on the declared field type rather than
// the dynamic type of raw so that an interface-typed field (Object) can
// still accept the Ignored/opaque case below. opts carries the field's own
// pdf tag options (e.g. "asarray"); recursive calls decoding array/slice
// elements pass nil.
func decodeField(r Getter, raw Object, fv reflect.Value, opts []string) error {
	switch {
	case fv.Type() == typeReference:
		// Resolvable: the field wants the reference itself, unresolved, so
		// the caller can defer following it.
		ref, ok := raw.(Reference)
		if !ok {
			return &MalformedFileError{Err: fmt.Errorf("%w: expected an indirect reference, got %T", ErrIncorrectType, raw)}
		}
		fv.Set(reflect.ValueOf(ref))
		return nil

	case fv.Kind() == reflect.Interface:
		// Ignored/opaque: accept any resolved value without further checks.
		resolved, err := Resolve(r, raw)
		if err != nil {
			return err
		}
		if resolved != nil {
			fv.Set(reflect.ValueOf(resolved))
		}
		return nil

	case fv.Type() == typeName:
		n, err := GetName(r, raw)
		if err != nil {
			return err
		}
		fv.SetString(string(n))
		return nil

	case fv.Type() == typeInteger:
		n, err := GetInteger(r, raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(n))
		return nil

	case fv.Type() == typeReal:
		n, err := GetReal(r, raw)
		if err != nil {
			return err
		}
		fv.SetFloat(float64(n))
		return nil

	case fv.Type() == typeBoolean:
		b, err := GetBoolean(r, raw)
		if err != nil {
			return err
		}
		fv.SetBool(bool(b))
		return nil

	case fv.Type() == typeTextString:
		s, err := GetTextString(r, raw)
		if err != nil {
			return err
		}
		fv.SetString(string(s))
		return nil

	case fv.Type() == typeDate:
		d, err := GetDate(r, raw)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(d))
		return nil

	case fv.Type() == typeDict:
		d, err := GetDict(r, raw)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(d))
		return nil

	case fv.Kind() == reflect.Float64:
		// a plain float64 field (not the named Real type), used by fixed
		// geometry arrays such as color.CalRGB's Gamma/Matrix.
		n, err := GetNumber(r, raw)
		if err != nil {
			return err
		}
		fv.SetFloat(float64(n))
		return nil
	}

	// AsArrayOf<T>: a bare T is accepted in place of a 1-element array.
	if fv.Kind() == reflect.Slice && hasOpt(opts, "asarray") {
		resolved, err := Resolve(r, raw)
		if err != nil {
			return err
		}
		if _, isArray := resolved.(Array); !isArray {
			raw = Array{resolved}
		}
	}

	// ArrayOf: a slice field, each element decoded via a recursive call.
	if fv.Kind() == reflect.Slice {
		arr, err := GetArray(r, raw)
		if err != nil {
			return err
		}
		out := reflect.MakeSlice(fv.Type(), 0, len(arr))
		for i, elem := range arr {
			ev := reflect.New(fv.Type().Elem()).Elem()
			if err := decodeField(r, elem, ev, nil); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			out = reflect.Append(out, ev)
		}
		fv.Set(out)
		return nil
	}

	// FixedArray<T, n>: a fixed-size Go array field, n encoded in the type.
	if fv.Kind() == reflect.Array {
		arr, err := GetArray(r, raw)
		if err != nil {
			return err
		}
		if len(arr) != fv.Len() {
			return &MalformedFileError{Err: fmt.Errorf("expected an array of %d elements, got %d", fv.Len(), len(arr))}
		}
		for i := 0; i < fv.Len(); i++ {
			ev := reflect.New(fv.Type().Elem()).Elem()
			if err := decodeField(r, arr[i], ev, nil); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			fv.Index(i).Set(ev)
		}
		return nil
	}

	return fmt.Errorf("Decode: unsupported field type %s", fv.Type())
}
