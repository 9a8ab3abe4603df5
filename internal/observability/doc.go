// Package observability provides structured logging and the append-only
// audit trail of record mutations.
package observability
