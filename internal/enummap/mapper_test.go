package enummap_test

import (
	"testing"

	"ticketferry/internal/config"
	"ticketferry/internal/enummap"
)

func newMapper() *enummap.Mapper {
	return enummap.New(config.Mappings{
		Departments: map[string]int64{"1": 5, "2": 7},
		Statuses:    map[string]int64{"1": 1, "3": 6},
		Staff:       map[string]int64{"1": 3},
	})
}

func TestEntityMapping(t *testing.T) {
	m := newMapper()
	if got := m.Entity(1); got != 5 {
		t.Fatalf("Entity(1) = %d, want 5", got)
	}
	if got := m.Entity(99); got != enummap.DefaultEntityID {
		t.Fatalf("Entity(99) = %d, want root entity", got)
	}
}

func TestStatusMapping(t *testing.T) {
	m := newMapper()
	if got := m.Status(3); got != 6 {
		t.Fatalf("Status(3) = %d, want 6", got)
	}
	if got := m.Status(42); got != enummap.DefaultStatusID {
		t.Fatalf("Status(42) = %d, want New", got)
	}
}

func TestTechnicianMapping(t *testing.T) {
	m := newMapper()
	if got := m.Technician(1); got != 3 {
		t.Fatalf("Technician(1) = %d, want 3", got)
	}
	if got := m.Technician(0); got != enummap.DefaultTechnicianID {
		t.Fatalf("Technician(0) = %d, want unassigned", got)
	}
	if got := m.Technician(17); got != enummap.DefaultTechnicianID {
		t.Fatalf("Technician(17) = %d, want unassigned", got)
	}
}

func TestMapperCopiesTables(t *testing.T) {
	tables := config.Mappings{Departments: map[string]int64{"1": 5}}
	m := enummap.New(tables)
	tables.Departments["1"] = 99
	if got := m.Entity(1); got != 5 {
		t.Fatalf("mapper observed config mutation: Entity(1) = %d", got)
	}
}
