// Package migrate replicates osTicket cases onto a GLPI instance. The Engine
// handles one ticket at a time: create, attach watchers, replay the
// conversation, and transfer attachments. The Runner drives a whole batch
// under an instance lock and records progress so interrupted runs resume
// where they stopped.
package migrate
