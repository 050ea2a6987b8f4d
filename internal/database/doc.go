// Package database provides PostgreSQL connection pool plumbing for the
// session recorder.
package database
