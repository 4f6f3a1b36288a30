// Package store persists the game library state machine: games, libraries,
// folders, grab attempts, download history, detected updates, and scan
// entries. SQLite is the single source of truth shared by every periodic and
// on-demand task; the duplicate-grab and duplicate-update guards live here as
// single guarded statements rather than process-level locks.
package store
