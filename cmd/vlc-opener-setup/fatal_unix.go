//go:build !windows

package main

// showFatalError does nothing outside Windows; the terminal already shows
// the error on stderr.
func showFatalError(string) {}
