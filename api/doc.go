/*
Package api holds the wire types of the TinyCert v1 API and the configuration
of the HTTP server that serves it.

The response types mirror the JSON objects returned by the TinyCert endpoints.
Client code lives in the clients subpackage; the httpserver package serves an
in-memory implementation of the same API for development and tests.
*/
package api
