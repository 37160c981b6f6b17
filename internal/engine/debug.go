package engine

import (
	"errors"
	"fmt"

	"github.com/wethinkt/go-niiview/internal/protocol"
)

// Debug tags answered by debugRequest.
const (
	DebugNCanvas     = "getNCanvas"
	DebugMinMaxFirst = "getMinMaxOfFirstImage"
	DebugNVolumes    = "getNVolumes"
	DebugNames       = "getNames"
	DebugLayout      = "getLayout"
	DebugFrames      = "getFrames"
)

var (
	errUnknownDebugTag = errors.New("unknown debug tag")
	errNoImage         = errors.New("no image loaded")
)

// debug answers a read-only query. Tags it cannot answer get no reply.
func (e *Engine) debug(tag string) error {
	body, err := e.debugBody(tag)
	if err != nil {
		return fmt.Errorf("debug %q: %w", tag, err)
	}
	env, err := protocol.DebugAnswer(body)
	if err != nil {
		return fmt.Errorf("debug %q: %w", tag, err)
	}
	e.send(env)
	return nil
}

func (e *Engine) debugBody(tag string) (any, error) {
	switch tag {
	case DebugNCanvas:
		return e.coll.Len(), nil
	case DebugMinMaxFirst:
		in, err := e.coll.At(0)
		if err != nil || len(in.Scene.Volumes) == 0 {
			return nil, errNoImage
		}
		v := in.Scene.Volumes[0]
		return [2]float64{v.CalMin, v.CalMax}, nil
	case DebugNVolumes:
		in, err := e.coll.At(0)
		if err != nil {
			return nil, errNoImage
		}
		return len(in.Scene.Volumes), nil
	case DebugNames:
		return e.displayNames(), nil
	case DebugLayout:
		return e.canvas, nil
	case DebugFrames:
		out := make([]int, e.coll.Len())
		for i, in := range e.coll.All() {
			if in.Nav != nil {
				out[i] = in.Nav.Frame()
			}
		}
		return out, nil
	}
	return nil, errUnknownDebugTag
}
