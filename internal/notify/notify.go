// Package notify sends desktop notifications over the session bus.
package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyService   = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"
	notifyInterface = "org.freedesktop.Notifications"
)

// Send shows a transient desktop notification. An icon path may be empty.
func Send(summary, body, icon string) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object(notifyService, notifyPath)
	call := obj.Call(notifyInterface+".Notify", 0,
		"waygrab",                 // app name
		uint32(0),                 // replaces id
		icon,                      // app icon
		summary,                   // summary
		body,                      // body
		[]string{},                // actions
		map[string]dbus.Variant{}, // hints
		int32(5000),               // timeout ms
	)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	return nil
}
