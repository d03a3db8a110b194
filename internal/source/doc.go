// Package source is the read-only extraction layer over the osTicket MySQL
// schema: ticket snapshots, ordered thread entries, collaborators, attachment
// records, and the dual-backend content resolver for attachment bytes.
package source
