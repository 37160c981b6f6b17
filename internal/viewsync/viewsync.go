// Package viewsync copies view changes from the viewport a user interacts
// with to its loaded peers.
package viewsync

import (
	"fmt"
	"strings"

	"github.com/wethinkt/go-niiview/internal/scene"
	"github.com/wethinkt/go-niiview/internal/viewport"
)

// Policy decides which peers receive a change.
type Policy int

const (
	// OptIn syncs only viewports whose SyncEnabled flag is set, except
	// during middle or right button drags which always broadcast.
	OptIn Policy = iota
	// Always syncs every loaded viewport.
	Always
)

// ParsePolicy accepts "optin" and "always".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "optin", "opt-in", "":
		return OptIn, nil
	case "always":
		return Always, nil
	}
	return OptIn, fmt.Errorf("unknown sync policy %q", s)
}

// Axes is a set of independently synced parts of the view.
type Axes uint8

const (
	// Planar covers 2D pan, zoom and the crosshair.
	Planar Axes = 1 << iota
	// Rotational covers 3D azimuth and elevation.
	Rotational
)

// Button is the pointer button held during an interaction.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// Interaction is a view change made on one viewport.
type Interaction struct {
	View   scene.View
	Button Button
}

// Syncer broadcasts view and frame changes. Peers are looked up from the
// instance list on every call. Calls must be serialized by the owner.
type Syncer struct {
	Policy Policy
	Axes   Axes

	active bool
}

// New returns a syncer for both axes.
func New(p Policy) *Syncer {
	return &Syncer{Policy: p, Axes: Planar | Rotational}
}

// Toggle switches an axis on or off.
func (s *Syncer) Toggle(a Axes, on bool) {
	if on {
		s.Axes |= a
	} else {
		s.Axes &^= a
	}
}

// Broadcast stores it.View on the source and copies the enabled axes to
// every eligible peer. It returns the indices that received the change. A
// call made while another broadcast is in progress does nothing.
func (s *Syncer) Broadcast(src int, items []*viewport.Instance, it Interaction) []int {
	if src < 0 || src >= len(items) || s.active {
		return nil
	}
	s.active = true
	defer func() { s.active = false }()

	from := items[src]
	from.Scene.View = it.View

	drag := it.Button == ButtonMiddle || it.Button == ButtonRight
	var out []int
	for i, peer := range items {
		if i == src || !peer.Loaded {
			continue
		}
		synced := s.Policy == Always || (from.SyncEnabled && peer.SyncEnabled)
		v := &peer.Scene.View
		switch {
		case !synced && !drag:
			continue
		case !synced:
			// drags move the pan of every loaded peer, nothing else
			v.Pan = it.View.Pan
			out = append(out, i)
			continue
		}
		if s.Axes&Planar != 0 {
			v.Pan = it.View.Pan
			v.Crosshair = it.View.Crosshair
		}
		if s.Axes&Rotational != 0 {
			v.Azimuth = it.View.Azimuth
			v.Elevation = it.View.Elevation
		}
		out = append(out, i)
	}
	if len(out) > 0 {
		broadcastsTotal.WithLabelValues("view").Inc()
	}
	return out
}

// BroadcastFrame pushes frame from src to peers that are opted in and have
// a 4D series containing that frame. Peers already on it are skipped.
func (s *Syncer) BroadcastFrame(src int, items []*viewport.Instance, frame int) []int {
	if src < 0 || src >= len(items) || s.active || !items[src].SyncEnabled {
		return nil
	}
	s.active = true
	defer func() { s.active = false }()

	var out []int
	for i, peer := range items {
		if i == src || !peer.SyncEnabled || peer.Nav == nil || len(peer.Scene.Volumes) == 0 {
			continue
		}
		if peer.Frames() <= 1 || frame >= peer.Frames() {
			continue
		}
		if peer.Nav.Receive(frame) {
			peer.Scene.Volumes[0].Frame = frame
			out = append(out, i)
		}
	}
	if len(out) > 0 {
		broadcastsTotal.WithLabelValues("frame").Inc()
	}
	return out
}
