// Package recorder archives the session to PostgreSQL for offline replay.
//
// Applied snapshots and polled event batches are buffered and written in
// batches on a flush interval. Inserts are append-only with ON CONFLICT DO
// NOTHING, so a re-polled event batch never duplicates rows. The recorder is
// optional; when disabled the rest of the client never touches the database.
package recorder
