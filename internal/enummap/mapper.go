// Package enummap provides the static cross-system enumeration lookups:
// osTicket department to GLPI entity, status to status, staff to technician.
// Absent keys are expected and fall back to fixed defaults; there are no
// failure modes.
package enummap

import (
	"strconv"

	"ticketferry/internal/config"
)

// GLPI fallback ids used when a source id has no configured mapping.
const (
	DefaultEntityID     int64 = 0 // root entity
	DefaultStatusID     int64 = 1 // "New"
	DefaultTechnicianID int64 = 0 // unassigned
)

// Mapper holds the immutable enumeration tables for one migration run.
type Mapper struct {
	departments map[int64]int64
	statuses    map[int64]int64
	staff       map[int64]int64
}

// New builds a Mapper from the configured tables. Keys are parsed into ids
// up front so lookups stay allocation free; config validation has already
// rejected non-numeric keys.
func New(m config.Mappings) *Mapper {
	return &Mapper{
		departments: parseTable(m.Departments),
		statuses:    parseTable(m.Statuses),
		staff:       parseTable(m.Staff),
	}
}

// Entity maps an osTicket department id to a GLPI entity id, defaulting to
// the root entity.
func (m *Mapper) Entity(departmentID int64) int64 {
	if id, ok := m.departments[departmentID]; ok {
		return id
	}
	return DefaultEntityID
}

// Status maps an osTicket status id to a GLPI status id, defaulting to New.
func (m *Mapper) Status(statusID int64) int64 {
	if id, ok := m.statuses[statusID]; ok {
		return id
	}
	return DefaultStatusID
}

// Technician maps an osTicket staff id to a GLPI technician id. Staff id 0
// and unmapped staff both yield unassigned.
func (m *Mapper) Technician(staffID int64) int64 {
	if staffID == 0 {
		return DefaultTechnicianID
	}
	if id, ok := m.staff[staffID]; ok {
		return id
	}
	return DefaultTechnicianID
}

func parseTable(table map[string]int64) map[int64]int64 {
	parsed := make(map[int64]int64, len(table))
	for key, value := range table {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		parsed[id] = value
	}
	return parsed
}
