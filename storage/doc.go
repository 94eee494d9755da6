// Package storage keeps downloaded certificate material in content-addressed
// backends selected by URI.
//
// Content is identified by the SHA-256 hash of its bytes and stored under a
// namespace per content type (cert, chain, csr, key):
//
//	file:///var/lib/tinycert
//	s3://ACCESS:SECRET@bucket/prefix?region=eu-west-1&endpoint=minio:9000
//	vault://vault.example.com:8200/secret/tinycert?token=s.xxx
//	ipfs://localhost:5001?timeout=30s
//
// S3 objects are published public-read and IPFS content is public by nature,
// so both refuse private keys with interfaces.ErrSecretNotAllowed. Keys belong
// in a file or Vault backend.
//
// Use StorageBackendFactory.CreateMultiBackend to write to several backends at
// once; fetches are served by the first backend holding the content.
package storage
