/*
Package httpserver implements a local stand-in for the TinyCert v1 API.

It serves the same endpoints as the hosted service from memory, so the client
library and the CLI can be exercised end to end without an account:

  - Request bodies are verified byte-exactly against the HMAC-SHA256 digest
    computed with the configured API key; mismatches are rejected with 401
  - Accounts hold Argon2id hashes of their passphrases
  - Sessions are random tokens issued by connect and retired by disconnect
  - CAs and certificates are real ECDSA P-256 x509 material

# API Endpoints

All endpoints accept POST with an application/x-www-form-urlencoded body:

	/api/v1/connect       email, passphrase -> {"token": ...}
	/api/v1/disconnect    token
	/api/v1/ca/list       token
	/api/v1/ca/details    token, ca_id
	/api/v1/ca/get        token, ca_id, what=cert
	/api/v1/ca/delete     token, ca_id
	/api/v1/ca/new        token, C, O, L, ST, hash_method
	/api/v1/cert/list     token, ca_id, what=<state bitmask>
	/api/v1/cert/details  token, cert_id
	/api/v1/cert/get      token, cert_id, what=cert|chain|csr|key.dec
	/api/v1/cert/reissue  token, cert_id
	/api/v1/cert/status   token, cert_id, status=good|hold|revoked
	/api/v1/cert/new      token, ca_id, C, CN, O, OU, L, ST, SANs[i][TYPE]

Errors are returned as {"error": "..."} with 400, 401 or 404.

# Operational Endpoints

	GET /livez     liveness
	GET /readyz    readiness, 503 while draining
	GET /drain     mark not ready
	GET /undrain   mark ready

Encrypted key download (key.enc) is not supported.
*/
package httpserver
