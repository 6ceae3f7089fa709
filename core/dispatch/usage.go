package dispatch

import "github.com/kilianp07/sortie/core/model"

// UsageReader exposes how many sessions a simulator already holds on a date.
// The engine only reads it; the caller owns the counting.
type UsageReader interface {
	Used(simID, date string) int
}

type usageKey struct {
	sim  string
	date string
}

// SimUsage counts simulator sessions per date across one roster scan.
type SimUsage struct {
	counts map[usageKey]int
}

// NewSimUsage returns an empty counter.
func NewSimUsage() *SimUsage {
	return &SimUsage{counts: make(map[usageKey]int)}
}

// Used implements UsageReader.
func (u *SimUsage) Used(simID, date string) int {
	return u.counts[usageKey{simID, date}]
}

// Record counts one session.
func (u *SimUsage) Record(simID, date string) {
	u.counts[usageKey{simID, date}]++
}

// RecordSlot counts the slot when it is a simulator session.
func (u *SimUsage) RecordSlot(s model.RosterSlot) {
	if s.Activity == model.ActivitySim && s.ResourceID != "" {
		u.Record(s.ResourceID, s.Date)
	}
}
