// Package cryptoutils implements request signing for the TinyCert API and
// the certificate helpers used by the CLI and the fake server.
package cryptoutils
