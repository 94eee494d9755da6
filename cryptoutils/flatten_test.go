package cryptoutils

import (
	"testing"

	"github.com/ruteri/tinycert-go/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name     string
		params   interfaces.Params
		expected interfaces.FlatParams
	}{
		{
			name: "entry list",
			params: interfaces.Params{
				"SANs": interfaces.Entries(
					interfaces.Entry{Tag: "DNS", Value: interfaces.String("www.example.com")},
					interfaces.Entry{Tag: "DNS", Value: interfaces.String("example.com")},
				),
			},
			expected: interfaces.FlatParams{
				"SANs[0][DNS]": "www.example.com",
				"SANs[1][DNS]": "example.com",
			},
		},
		{
			name: "mixed entry tags",
			params: interfaces.Params{
				"SANs": interfaces.Entries(
					interfaces.Entry{Tag: "IP", Value: interfaces.String("127.0.0.1")},
					interfaces.Entry{Tag: "IP", Value: interfaces.String("::1")},
					interfaces.Entry{Tag: "DNS", Value: interfaces.String("localhost")},
				),
			},
			expected: interfaces.FlatParams{
				"SANs[0][IP]":  "127.0.0.1",
				"SANs[1][IP]":  "::1",
				"SANs[2][DNS]": "localhost",
			},
		},
		{
			name:   "scalar list",
			params: interfaces.Params{"names": interfaces.Strings("a", "b")},
			expected: interfaces.FlatParams{
				"names[0]": "a",
				"names[1]": "b",
			},
		},
		{
			name: "scalars pass through",
			params: interfaces.Params{
				"ca_id": interfaces.Int(123),
				"what":  interfaces.String("cert"),
				"flag":  interfaces.Bool(true),
				"off":   interfaces.Bool(false),
			},
			expected: interfaces.FlatParams{
				"ca_id": "123",
				"what":  "cert",
				"flag":  "True",
				"off":   "False",
			},
		},
		{
			name:     "empty list emits nothing",
			params:   interfaces.Params{"SANs": interfaces.Entries()},
			expected: interfaces.FlatParams{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flat, err := Flatten(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, flat)
		})
	}
}

func TestFlatten_Pure(t *testing.T) {
	params := interfaces.Params{"names": interfaces.Strings("a", "b"), "id": interfaces.Int(1)}
	first, err := Flatten(params)
	require.NoError(t, err)
	second, err := Flatten(params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, params, 2)
}

func TestFlatten_RejectsEmptyTag(t *testing.T) {
	_, err := Flatten(interfaces.Params{
		"SANs": interfaces.Entries(interfaces.Entry{Tag: "", Value: interfaces.String("x")}),
	})
	assert.ErrorIs(t, err, interfaces.ErrMalformedParams)
}

func TestFlatten_RejectsNilValue(t *testing.T) {
	_, err := Flatten(interfaces.Params{"bad": nil})
	assert.ErrorIs(t, err, interfaces.ErrMalformedParams)
}

func TestFlatten_RejectsCollidingKeys(t *testing.T) {
	tests := []struct {
		name   string
		params interfaces.Params
	}{
		{
			name: "literal key equals entry key",
			params: interfaces.Params{
				"SANs[0][DNS]": interfaces.String("evil.com"),
				"SANs":         interfaces.Entries(interfaces.Entry{Tag: "DNS", Value: interfaces.String("good.com")}),
			},
		},
		{
			name: "literal key equals list key",
			params: interfaces.Params{
				"names[1]": interfaces.String("x"),
				"names":    interfaces.Strings("a", "b"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Map iteration order is random; every order must be rejected.
			for range 100 {
				_, err := Flatten(tt.params)
				require.ErrorIs(t, err, interfaces.ErrMalformedParams)

				_, err = SignPayload([]byte("somekey"), tt.params)
				require.ErrorIs(t, err, interfaces.ErrMalformedParams)
			}
		})
	}
}
