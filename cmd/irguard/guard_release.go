//go:build irguard_release

package main

const guardEnabled = false
