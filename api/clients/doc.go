/*
Package clients implements a client for the TinyCert v1 API.

Every call is an HTTP POST of a form-encoded body signed with the account's
API key. The body is the canonical query string of the request parameters
(keys sorted, nested keys flattened to bracket notation) followed by a
digest parameter carrying the lowercase hex HMAC-SHA256 of that query
string.

# Sessions

A Session holds the API key and, once connected, the session token. Connect
exchanges the account credentials for a token; Disconnect retires it. While
connected, Request adds the token to the parameters of every call; while
unauthenticated it fails with interfaces.ErrNoSession without sending
anything, which also stops resource clients kept past Disconnect.

	cfg := &clients.Config{APIKey: apiKey, Log: logger}
	err := clients.WithSession(ctx, cfg, "me@example.com", passphrase, func(s *clients.Session) error {
	    cas, err := s.CA()
	    if err != nil {
	        return err
	    }
	    list, err := cas.List(ctx)
	    ...
	})

WithSession disconnects when the function returns, also on error or panic.

# Resource clients

CAClient and CertClient wrap the ca/* and cert/* endpoints. They are obtained
from an authenticated Session, or built directly around any
interfaces.Requester, which is how the tests use MockRequester.

Responses are passed through: every typed record keeps the JSON it was
decoded from in its Raw field, so fields the record does not model are not
lost. Delete and SetStatus return the response body itself.

# Errors

Non-2xx responses are returned as *interfaces.HTTPError carrying the endpoint
path, the status code and the raw body. Bodies that are not valid JSON yield
interfaces.ErrInvalidResponse.
*/
package clients
