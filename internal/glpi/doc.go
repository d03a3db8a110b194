// Package glpi is the replication client for the GLPI REST API: session
// lifecycle and impersonation, user search and creation, ticket, watcher, and
// followup creation, and the multipart document upload/link/delete
// operations.
package glpi
