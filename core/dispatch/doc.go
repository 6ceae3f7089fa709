// Package dispatch decides whether each rostered sortie may fly under the
// current weather. Flights below minima are converted to simulator sessions
// when a simulator has capacity left for the day.
package dispatch
