package cryptoutils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/ruteri/tinycert-go/interfaces"
)

// DigestParam is the name of the parameter carrying the request digest.
const DigestParam = "digest"

const digestSeparator = "&" + DigestParam + "="

// SignPayload builds the signed form body for a request:
//
//  1. Flatten params into bracket-indexed keys
//  2. Sort the keys byte-wise
//  3. Form-url-encode as k1=v1&k2=v2...
//  4. HMAC-SHA256 the query string keyed by secretKey, lowercase hex
//  5. Append &digest=<hex>
//
// The service repeats these steps and rejects the request on mismatch, so the
// output must be byte-exact.
func SignPayload(secretKey []byte, params interfaces.Params) (string, error) {
	flat, err := Flatten(params)
	if err != nil {
		return "", err
	}

	query := CanonicalQuery(flat)
	return query + digestSeparator + Digest(secretKey, query), nil
}

// CanonicalQuery encodes flattened parameters in ascending key order.
func CanonicalQuery(flat interfaces.FlatParams) string {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var buf strings.Builder
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(k))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(flat[k]))
	}
	return buf.String()
}

// Digest computes the lowercase hex HMAC-SHA256 of payload keyed by secretKey.
func Digest(secretKey []byte, payload string) string {
	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayload checks the trailing digest of a signed body against secretKey
// and returns the decoded parameters without the digest.
// The digest is recomputed over the exact bytes preceding it.
func VerifyPayload(secretKey []byte, body string) (url.Values, error) {
	idx := strings.LastIndex(body, digestSeparator)
	if idx < 0 {
		return nil, fmt.Errorf("%w: missing digest", interfaces.ErrInvalidDigest)
	}

	payload := body[:idx]
	got := body[idx+len(digestSeparator):]
	expected := Digest(secretKey, payload)
	if !hmac.Equal([]byte(got), []byte(expected)) {
		return nil, interfaces.ErrInvalidDigest
	}

	values, err := url.ParseQuery(payload)
	if err != nil {
		return nil, fmt.Errorf("could not parse signed payload: %w", err)
	}
	return values, nil
}
