// Package services holds the error taxonomy shared by the source extraction
// layer, the GLPI client, and the migration engine.
package services
