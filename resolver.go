package pdf

import (
	"fmt"
	"math"
)

// Getter is implemented by anything that can look up an indirect object by
// its reference. *Document is the only implementation in this package; it
// exists as an interface so the schema deserializer and the Get* helpers
// below don't need to import the concrete Document type.
type Getter interface {
	Get(ref Reference) (Object, error)
}

const maxRefDepth = 32

// Resolve follows a chain of indirect references until it reaches a
// non-reference object. If obj is not a Reference, it is returned
// unchanged. A chain longer than maxRefDepth is ErrReferenceLoop.
func Resolve(r Getter, obj Object) (Object, error) {
	if obj == nil {
		return nil, nil
	}

	ref, isReference := obj.(Reference)
	if !isReference {
		return obj, nil
	}

	origRef := ref
	for count := 0; ; count++ {
		if count > maxRefDepth {
			return nil, &MalformedFileError{Err: fmt.Errorf("%w: starting at %s", ErrReferenceLoop, origRef)}
		}

		next, err := r.Get(ref)
		if err != nil {
			return nil, err
		}
		ref, isReference = next.(Reference)
		if !isReference {
			return next, nil
		}
	}
}

func resolveAndCast[T Object](r Getter, obj Object) (x T, err error) {
	resolved, err := Resolve(r, obj)
	if err != nil {
		return x, err
	}
	if resolved == nil {
		return x, nil
	}
	if _, isNull := resolved.(Null); isNull {
		return x, nil
	}

	x, isCorrectType := resolved.(T)
	if isCorrectType {
		return x, nil
	}
	return x, &MalformedFileError{Err: fmt.Errorf("%w: expected %T but got %T", ErrIncorrectType, x, resolved)}
}

// Get* helpers each resolve obj and assert its concrete type. If the
// resolved object is null, the zero value is returned without error; if it
// is some other type, ErrIncorrectType (wrapped in a MalformedFileError) is
// returned.
var (
	GetArray  = resolveAndCast[Array]
	GetBoolean = resolveAndCast[Boolean]
	GetDict   = resolveAndCast[Dict]
	GetName   = resolveAndCast[Name]
	GetReal   = resolveAndCast[Real]
	GetStream = resolveAndCast[*Stream]
	GetString = resolveAndCast[String]
)

// GetInteger resolves obj and returns it as an Integer. Real values are
// rounded to the nearest integer, matching how lenient PDF readers treat a
// "1.0" where an integer is expected.
func GetInteger(r Getter, obj Object) (Integer, error) {
	resolved, err := Resolve(r, obj)
	if err != nil || resolved == nil {
		return 0, err
	}
	switch x := resolved.(type) {
	case Integer:
		return x, nil
	case Real:
		return Integer(math.Round(float64(x))), nil
	case Null:
		return 0, nil
	default:
		return 0, &MalformedFileError{Err: fmt.Errorf("%w: expected Integer but got %T", ErrIncorrectType, resolved)}
	}
}

// GetFloatArray resolves obj as an Array and converts every element to
// float64 via GetNumber.
func GetFloatArray(r Getter, obj Object) ([]float64, error) {
	array, err := GetArray(r, obj)
	if err != nil {
		return nil, err
	}
	if array == nil {
		return nil, nil
	}

	result := make([]float64, len(array))
	for i, item := range array {
		num, err := GetNumber(r, item)
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", i, err)
		}
		result[i] = float64(num)
	}
	return result, nil
}

// GetDictTyped resolves obj as a Dict and checks that its /Type entry, if
// present, equals wantType.
func GetDictTyped(r Getter, obj Object, wantType Name) (Dict, error) {
	dict, err := GetDict(r, obj)
	if dict == nil || err != nil {
		return nil, err
	}
	if err := CheckDictType(r, dict, wantType); err != nil {
		return nil, err
	}
	return dict, nil
}

// CheckDictType checks that dict's /Type entry, if present, equals wantType.
func CheckDictType(r Getter, dict Dict, wantType Name) error {
	haveType, err := GetName(r, dict["Type"])
	if err != nil {
		return err
	}
	if haveType != wantType && haveType != "" {
		return &MalformedFileError{Err: fmt.Errorf("expected /Type %s but got %s", wantType, haveType)}
	}
	return nil
}

// GetFilters returns the stream filter names listed in dict's /Filter
// entry, normalizing the single-name and array-of-names forms PDF allows.
func GetFilters(r Getter, dict Dict) ([]string, error) {
	filter, err := Resolve(r, dict["Filter"])
	if err != nil {
		return nil, err
	}
	switch f := filter.(type) {
	case nil, Null:
		return nil, nil
	case Name:
		return []string{string(f)}, nil
	case Array:
		names := make([]string, len(f))
		for i, item := range f {
			n, err := GetName(r, item)
			if err != nil {
				return nil, err
			}
			names[i] = string(n)
		}
		return names, nil
	default:
		return nil, &MalformedFileError{Err: fmt.Errorf("%w: expected Name or Array for /Filter, got %T", ErrIncorrectType, filter)}
	}
}
