package cryptoutils

import (
	"testing"

	"github.com/ruteri/tinycert-go/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func certParams() interfaces.Params {
	return interfaces.Params{
		"token": interfaces.String("d7dd6880c206216a9ed74f92ca8edaef88728bbb2c8b23020c624de9a7d08d6f"),
		"ca_id": interfaces.Int(123),
		"CN":    interfaces.String("example.com"),
		"O":     interfaces.String("ACME, Inc."),
		"OU":    interfaces.String("IT Department"),
		"C":     interfaces.String("US"),
		"ST":    interfaces.String("Illinois"),
		"L":     interfaces.String("Chicago"),
		"SANs": interfaces.Entries(
			interfaces.Entry{Tag: "DNS", Value: interfaces.String("www.example.com")},
			interfaces.Entry{Tag: "DNS", Value: interfaces.String("example.com")},
		),
	}
}

func TestSignPayload_KnownVector(t *testing.T) {
	expected := "C=US" +
		"&CN=example.com" +
		"&L=Chicago" +
		"&O=ACME%2C+Inc." +
		"&OU=IT+Department" +
		"&SANs%5B0%5D%5BDNS%5D=www.example.com" +
		"&SANs%5B1%5D%5BDNS%5D=example.com" +
		"&ST=Illinois" +
		"&ca_id=123" +
		"&token=d7dd6880c206216a9ed74f92ca8edaef88728bbb2c8b23020c624de9a7d08d6f" +
		"&digest=16b436bd8779dadf0327a97eac54b631e02c4643cbf52ccc1358431691f74b21"

	payload, err := SignPayload([]byte("ThisIsMySuperSecretAPIKey"), certParams())
	require.NoError(t, err)
	assert.Equal(t, expected, payload)
}

func TestSignPayload_ConnectAndDisconnect(t *testing.T) {
	key := []byte("somekey")

	connect, err := SignPayload(key, interfaces.Params{
		"email":      interfaces.String("me@foo.com"),
		"passphrase": interfaces.String("my passphrase"),
	})
	require.NoError(t, err)
	assert.Equal(t, "email=me%40foo.com&passphrase=my+passphrase&digest=9b8062b8ab91dd2ff4bb9d24d7be5234659ba94c772a8e056d26388e052b8537", connect)

	disconnect, err := SignPayload(key, interfaces.Params{"token": interfaces.String("sometoken")})
	require.NoError(t, err)
	assert.Equal(t, "token=sometoken&digest=a83d65e81eb4e6cae1b0fc95c26f6ac838e278f22b0a94d8a42c4a193a58420d", disconnect)
}

func TestSignPayload_Deterministic(t *testing.T) {
	key := []byte("ThisIsMySuperSecretAPIKey")
	first, err := SignPayload(key, certParams())
	require.NoError(t, err)

	// Map iteration order is randomized per range, so repeated runs cover
	// different insertion and iteration orders.
	for i := 0; i < 20; i++ {
		again, err := SignPayload(key, certParams().Clone())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCanonicalQuery_SortIsIdempotent(t *testing.T) {
	flat, err := Flatten(certParams())
	require.NoError(t, err)

	query := CanonicalQuery(flat)
	values, err := VerifyPayload([]byte("k"), query+"&digest="+Digest([]byte("k"), query))
	require.NoError(t, err)

	resorted := make(interfaces.FlatParams, len(values))
	for k := range values {
		resorted[k] = values.Get(k)
	}
	assert.Equal(t, query, CanonicalQuery(resorted))
}

func TestCanonicalQuery_ByteOrder(t *testing.T) {
	flat := interfaces.FlatParams{"b": "2", "B": "1", "a": "3", "_": "0"}
	// Uppercase sorts before underscore, which sorts before lowercase.
	assert.Equal(t, "B=1&_=0&a=3&b=2", CanonicalQuery(flat))
}

func TestSignPayload_EmptyParams(t *testing.T) {
	payload, err := SignPayload([]byte("somekey"), interfaces.Params{})
	require.NoError(t, err)
	assert.Equal(t, "&digest=edc361c04aac22013a952de2367cfb7419649881a7cb5f8c9eb5abfb6d8f5d0f", payload)
}

func TestSignPayload_MalformedParams(t *testing.T) {
	_, err := SignPayload([]byte("k"), interfaces.Params{
		"SANs": interfaces.Entries(interfaces.Entry{Value: interfaces.String("x")}),
	})
	assert.ErrorIs(t, err, interfaces.ErrMalformedParams)
}

func TestVerifyPayload(t *testing.T) {
	key := []byte("ThisIsMySuperSecretAPIKey")
	payload, err := SignPayload(key, certParams())
	require.NoError(t, err)

	values, err := VerifyPayload(key, payload)
	require.NoError(t, err)
	assert.Equal(t, "ACME, Inc.", values.Get("O"))
	assert.Equal(t, "example.com", values.Get("SANs[1][DNS]"))
	assert.Empty(t, values.Get(DigestParam))

	_, err = VerifyPayload([]byte("wrong key"), payload)
	assert.ErrorIs(t, err, interfaces.ErrInvalidDigest)

	tampered := "C=DE" + payload[len("C=US"):]
	_, err = VerifyPayload(key, tampered)
	assert.ErrorIs(t, err, interfaces.ErrInvalidDigest)

	_, err = VerifyPayload(key, "C=US")
	assert.ErrorIs(t, err, interfaces.ErrInvalidDigest)
}
