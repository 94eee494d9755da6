package interfaces

import (
	"strconv"
)

// ParamValue is a single value in a request parameter structure.
// It is a closed set: Scalar, ScalarList and EntryList are the only implementations.
type ParamValue interface {
	isParamValue()
}

// Params is the nested parameter structure carried by every API call.
type Params map[string]ParamValue

// FlatParams is a parameter structure after bracket-index flattening.
type FlatParams map[string]string

// Scalar is a string, integer or boolean parameter value.
type Scalar struct {
	raw string
}

func (Scalar) isParamValue() {}

// String returns the form encoding of the scalar.
func (s Scalar) String() string {
	return s.raw
}

// String creates a string scalar.
func String(v string) Scalar {
	return Scalar{raw: v}
}

// Int creates an integer scalar rendered in base 10.
func Int(v int64) Scalar {
	return Scalar{raw: strconv.FormatInt(v, 10)}
}

// Bool creates a boolean scalar. The service expects "True" and "False".
func Bool(v bool) Scalar {
	if v {
		return Scalar{raw: "True"}
	}
	return Scalar{raw: "False"}
}

// ScalarList is an ordered sequence of scalars, flattened to key[i].
type ScalarList []Scalar

func (ScalarList) isParamValue() {}

// Strings creates a ScalarList of string scalars.
func Strings(values ...string) ScalarList {
	list := make(ScalarList, 0, len(values))
	for _, v := range values {
		list = append(list, String(v))
	}
	return list
}

// Entry is a one-key mapping from a short type tag to a scalar,
// such as {"DNS": "www.example.com"}.
type Entry struct {
	Tag   string
	Value Scalar
}

// EntryList is an ordered sequence of entries, flattened to key[i][tag].
type EntryList []Entry

func (EntryList) isParamValue() {}

// Entries creates an EntryList.
func Entries(entries ...Entry) EntryList {
	return EntryList(entries)
}

// Clone returns a shallow copy of the parameter map.
// Values are immutable so the copy is safe to extend.
func (p Params) Clone() Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}
