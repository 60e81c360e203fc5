//go:build windows

package main

import (
	"golang.org/x/sys/windows"
)

const (
	mbOK          = 0x00000000
	mbIconError   = 0x00000010
	mbSystemModal = 0x00001000
)

// showFatalError displays a message box so the error is seen when the
// installer was started by double-clicking it.
func showFatalError(msg string) {
	title, err := windows.UTF16PtrFromString("VLC Opener Setup - Error")
	if err != nil {
		return
	}
	text, err := windows.UTF16PtrFromString(msg)
	if err != nil {
		return
	}
	windows.MessageBox(0, text, title, mbOK|mbIconError|mbSystemModal)
}
