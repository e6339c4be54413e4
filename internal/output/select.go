package output

import (
	"sort"
	"strings"
	"sync"

	"tonearm/internal/playback"
)

var (
	backendsMu sync.Mutex
	backends   = map[string]func() (playback.Output, error){}
	// devicePreference orders device backends for "auto" selection.
	devicePreference []string
)

// register wires a backend factory under a name. Device backends are
// considered by "auto" in registration order.
func register(name string, device bool, factory func() (playback.Output, error)) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = factory
	if device {
		devicePreference = append(devicePreference, name)
	}
}

// Names lists the backends compiled into this build.
func Names() []string {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForName constructs the named backend. "auto" picks the first available
// device backend and falls back to headless in builds without one.
func ForName(name string) (playback.Output, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		backendsMu.Lock()
		preferred := append([]string(nil), devicePreference...)
		backendsMu.Unlock()
		for _, candidate := range preferred {
			out, err := ForName(candidate)
			if err == nil {
				return out, nil
			}
		}
		return ForName("headless")
	}

	backendsMu.Lock()
	factory, ok := backends[name]
	backendsMu.Unlock()
	if !ok {
		return nil, playback.Errorf(playback.KindUnsupported, "audio backend %q not available in this build", name)
	}
	return factory()
}
