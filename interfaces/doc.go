// Package interfaces defines the types shared between the TinyCert client,
// the fake server and the storage backends.
//
// Params is the request parameter model: a map of scalar values, scalar
// lists or lists of tagged entries, flattened to bracket notation before
// signing. Requester is the transport seam used by the resource clients.
//
// StorageBackend is content-addressed storage for downloaded certificate
// material. Content IDs are SHA-256 hashes of the stored bytes, and private
// keys are marked secret so that public backends can refuse them.
package interfaces
