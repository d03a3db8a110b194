// Package config loads, normalizes, and validates the TOML configuration for
// ticketferry: source database access, GLPI connection settings, identity
// sentinels, enumeration mappings, and run-state location.
package config
