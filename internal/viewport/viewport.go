// Package viewport holds the ordered collection of viewer instances.
package viewport

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/wethinkt/go-niiview/internal/layout"
	"github.com/wethinkt/go-niiview/internal/nav4d"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/scene"
)

// ErrIndexOutOfRange is returned when an index does not name a viewport.
var ErrIndexOutOfRange = errors.New("viewport index out of range")

// Key identifies an instance for its whole lifetime.
type Key uint64

var lastKey atomic.Uint64

// NextKey returns a process-wide unique key.
func NextKey() Key {
	return Key(lastKey.Add(1))
}

// Frame is what a renderer is asked to draw.
type Frame struct {
	Scene     scene.Scene
	SliceType scene.SliceType
	Size      layout.Size
}

// Renderer draws one viewport. Each instance owns its renderer.
type Renderer interface {
	Draw(f Frame) error
	Close() error
}

// Decoder turns payload bytes into scene layers.
type Decoder interface {
	Volume(ctx context.Context, p protocol.Payload) (scene.Volume, error)
	Mesh(ctx context.Context, p protocol.Payload) (scene.Mesh, error)
	Layer(ctx context.Context, p protocol.Payload) (scene.MeshLayer, error)
}

// Instance is one viewport.
type Instance struct {
	Key         Key
	IsNew       bool
	Loaded      bool
	Pending     *protocol.Payload
	URI         string
	Scene       scene.Scene
	LoadErr     error
	SyncEnabled bool
	Nav         *nav4d.Controller

	renderer Renderer
	gen      uint64
}

// NewInstance creates an empty instance owning r.
func NewInstance(r Renderer) *Instance {
	return &Instance{
		Key:      NextKey(),
		IsNew:    true,
		Scene:    scene.Scene{View: scene.DefaultView()},
		renderer: r,
	}
}

// Attach makes p the pending payload and returns the load generation it
// belongs to. A later Attach supersedes an earlier one still decoding.
func (in *Instance) Attach(p protocol.Payload) uint64 {
	in.IsNew = false
	in.Pending = &p
	in.URI = p.Name()
	in.LoadErr = nil
	in.gen++
	return in.gen
}

// Current reports whether gen is the latest load generation.
func (in *Instance) Current(gen uint64) bool {
	return gen == in.gen
}

// Consume clears the pending payload and returns it.
func (in *Instance) Consume() (protocol.Payload, bool) {
	if in.Pending == nil {
		return protocol.Payload{}, false
	}
	p := *in.Pending
	in.Pending = nil
	return p, true
}

// MarkLoaded flips Loaded once a layer is attached.
func (in *Instance) MarkLoaded() {
	if !in.Scene.Empty() {
		in.Loaded = true
		in.LoadErr = nil
	}
}

// Fail records a load failure for this instance only.
func (in *Instance) Fail(err error) {
	in.LoadErr = err
}

// Frames is the 4D frame count of the base volume.
func (in *Instance) Frames() int {
	if len(in.Scene.Volumes) == 0 {
		return 1
	}
	return in.Scene.Volumes[0].Header.Frames()
}

// Draw asks the renderer to draw the current scene.
func (in *Instance) Draw(st scene.SliceType, size layout.Size) error {
	if in.renderer == nil {
		return nil
	}
	return in.renderer.Draw(Frame{Scene: in.Scene.Clone(), SliceType: st, Size: size})
}

// Close stops the frame timer and releases the renderer.
func (in *Instance) Close() error {
	if in.Nav != nil {
		in.Nav.Close()
		in.Nav = nil
	}
	if in.renderer == nil {
		return nil
	}
	err := in.renderer.Close()
	in.renderer = nil
	if err != nil {
		return fmt.Errorf("close renderer: %w", err)
	}
	return nil
}
