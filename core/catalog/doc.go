// Package catalog loads the reference data a roster is generated from:
// students, instructors, aircraft, simulators and time slots.
package catalog
