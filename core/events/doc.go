// Package events defines the roster events emitted on the event bus.
//
// Available event types:
//   - RosterEvent: a roster version was committed, either by generation or
//     by a reallocation
package events
