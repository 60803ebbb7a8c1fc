//go:build irguard_release

package ir

// Release builds pass calls straight through; violations the race guard would
// catch are undefined behaviour of the native library.
const debugChecks = false
