// Command ticketferry migrates a frozen osTicket database into a GLPI
// instance through its REST API.
package main
