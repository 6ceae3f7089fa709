// Package history keeps the committed versions of each weekly roster.
//
// Every generation and every reallocation is committed as a new Version with
// a number one above the latest of its week. Backends are selected through
// New with a factory.ModuleConfig of type memory, jsonl, jsonl_rotating or
// sqlite.
package history
