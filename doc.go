// Package grove implements the Grove/Forest subsystem of an embedded,
// single-writer, log-structured-merge storage engine: a Grove is one
// object tree plus its generated index trees for a single record schema,
// and a Forest is the fixed set of Groves owned by one replica,
// coordinating their shared open/compact/checkpoint lifecycle against a
// shared block grid and node pool.
//
// A Grove is built from a Schema[R], which declares R's timestamp field,
// the fields to ignore, and any derived fields; every other exported
// field of R becomes an index automatically and must be an unsigned
// integer, an unsigned-tag enum, or Uint128. See examples/account for a
// complete worked schema and the conventional way to assemble a
// multi-Grove Forest for an application.
package grove
