// Package weather supplies the weather reports dispatch decisions are made
// against. Service fetches METAR observations for an airfield, parses them
// and caches the result for a freshness window. Any failure degrades to a
// report of unknown confidence, never to an error. Mock serves fixed named
// scenarios for reproducible runs.
package weather
