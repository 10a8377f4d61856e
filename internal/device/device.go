// Package device detects the host profile that shapes audio behavior.
package device

import "runtime"

// Profile captures the host capabilities the engine cares about. It is
// detected once at startup and never changes for the life of the
// session.
type Profile struct {
	// TouchCapable marks hosts whose audio sink cannot start without
	// an explicit user action and whose volume is owned by the OS
	// rather than the application.
	TouchCapable bool
}

// Detect inspects the host. force comes from configuration: "on" and
// "off" override detection, anything else (normally "auto") defers to
// the platform.
func Detect(force string) Profile {
	return detect(runtime.GOOS, force)
}

func detect(goos, force string) Profile {
	switch force {
	case "on":
		return Profile{TouchCapable: true}
	case "off":
		return Profile{TouchCapable: false}
	}

	switch goos {
	case "android", "ios":
		return Profile{TouchCapable: true}
	}
	return Profile{TouchCapable: false}
}
