package cryptoutils

import (
	"fmt"

	"github.com/ruteri/tinycert-go/interfaces"
)

// Flatten expands sequence values into bracket-indexed keys:
//
//	{"SANs": [{"DNS": "a"}, {"DNS": "b"}]} -> {"SANs[0][DNS]": "a", "SANs[1][DNS]": "b"}
//	{"names": ["a", "b"]}                 -> {"names[0]": "a", "names[1]": "b"}
//
// Scalars keep their key. Input iteration order does not matter; ordering is
// applied when the flattened parameters are encoded. A literal key that equals
// a generated bracket key, e.g. "SANs[0][DNS]" next to a SANs list, is
// rejected since either value could win.
func Flatten(params interfaces.Params) (interfaces.FlatParams, error) {
	flat := make(interfaces.FlatParams, len(params))
	set := func(key, value string) error {
		if _, ok := flat[key]; ok {
			return fmt.Errorf("%w: duplicate flattened key %q", interfaces.ErrMalformedParams, key)
		}
		flat[key] = value
		return nil
	}

	for key, value := range params {
		switch v := value.(type) {
		case interfaces.Scalar:
			if err := set(key, v.String()); err != nil {
				return nil, err
			}
		case interfaces.ScalarList:
			for i, elem := range v {
				if err := set(fmt.Sprintf("%s[%d]", key, i), elem.String()); err != nil {
					return nil, err
				}
			}
		case interfaces.EntryList:
			for i, entry := range v {
				if entry.Tag == "" {
					return nil, fmt.Errorf("%w: %s[%d] has an empty tag", interfaces.ErrMalformedParams, key, i)
				}
				if err := set(fmt.Sprintf("%s[%d][%s]", key, i, entry.Tag), entry.Value.String()); err != nil {
					return nil, err
				}
			}
		default:
			return nil, fmt.Errorf("%w: unsupported value %T for %q", interfaces.ErrMalformedParams, value, key)
		}
	}
	return flat, nil
}
