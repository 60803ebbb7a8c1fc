//go:build !irguard_release

package ir

// debugChecks enables the race guard and the active-execution flag.
const debugChecks = true
