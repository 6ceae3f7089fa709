// Package reallocation replans a committed roster after a disruption and
// reports the change as a slot diff and churn rate.
package reallocation
