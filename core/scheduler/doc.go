// Package scheduler builds the weekly training roster. It pairs students with
// instructors and aircraft (or simulators as a fallback) slot by slot, first
// fit in input order, while a BookingState ledger enforces overlap, duty-hour
// and daily/weekly count limits.
package scheduler
