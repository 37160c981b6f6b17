// Package protocol defines the messages exchanged between a host and the
// viewport engine, and their JSON envelope.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the "type" field of an envelope.
type Kind string

// Inbound kinds.
const (
	KindInitCanvas         Kind = "initCanvas"
	KindAddImage           Kind = "addImage"
	KindOverlay            Kind = "overlay"
	KindAddMeshOverlay     Kind = "addMeshOverlay"
	KindAddMeshCurvature   Kind = "addMeshCurvature"
	KindReplaceMeshOverlay Kind = "replaceMeshOverlay"
	KindDebugRequest       Kind = "debugRequest"
	KindInitSettings       Kind = "initSettings"
)

// Outbound kinds.
const (
	KindReady        Kind = "ready"
	KindDebugAnswer  Kind = "debugAnswer"
	KindAddOverlay   Kind = "addOverlay"
	KindAddImages    Kind = "addImages"
	KindAddDcmFolder Kind = "addDcmFolder"
	KindNotify       Kind = "notify"
	KindState        Kind = "state"
)

var (
	// ErrUnknownKind is returned for envelopes whose type has no decoder.
	ErrUnknownKind = errors.New("unknown message kind")
	// ErrInvalidBody is returned when a known kind carries a malformed body.
	ErrInvalidBody = errors.New("invalid message body")
)

// Envelope is the wire form of every message.
type Envelope struct {
	Type Kind            `json:"type"`
	Body json.RawMessage `json:"body,omitempty"`
}

// Message is a decoded inbound message.
type Message interface {
	Kind() Kind
}

// InitCanvas appends N empty viewports.
type InitCanvas struct {
	N int
}

// AddImage attaches a payload to the next unclaimed viewport.
type AddImage struct {
	Payload
}

// Overlay adds a volume or mesh on top of the viewport at Index.
type Overlay struct {
	Payload
	Index int
}

// MeshLayer adds a scalar layer to the first mesh of the viewport at Index.
// Op is one of the three mesh layer kinds.
type MeshLayer struct {
	Payload
	Index int
	Op    Kind
}

// DebugRequest asks for a read-only answer.
type DebugRequest struct {
	Tag string
}

// InitSettings carries a partial settings object to merge.
type InitSettings struct {
	Settings json.RawMessage
}

func (InitCanvas) Kind() Kind   { return KindInitCanvas }
func (AddImage) Kind() Kind     { return KindAddImage }
func (Overlay) Kind() Kind      { return KindOverlay }
func (m MeshLayer) Kind() Kind  { return m.Op }
func (DebugRequest) Kind() Kind { return KindDebugRequest }
func (InitSettings) Kind() Kind { return KindInitSettings }

// Decode parses one JSON envelope into a Message.
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return env.Message()
}

// Message validates the body for the envelope's kind.
func (e Envelope) Message() (Message, error) {
	switch e.Type {
	case KindInitCanvas:
		var b struct {
			N *int `json:"n"`
		}
		if err := unmarshalBody(e, &b); err != nil {
			return nil, err
		}
		if b.N == nil || *b.N < 0 {
			return nil, fmt.Errorf("%w: initCanvas needs n >= 0", ErrInvalidBody)
		}
		return InitCanvas{N: *b.N}, nil

	case KindAddImage:
		var b payloadJSON
		if err := unmarshalBody(e, &b); err != nil {
			return nil, err
		}
		p, err := b.payload()
		if err != nil {
			return nil, fmt.Errorf("addImage: %w", err)
		}
		return AddImage{Payload: p}, nil

	case KindOverlay, KindAddMeshOverlay, KindAddMeshCurvature, KindReplaceMeshOverlay:
		var b struct {
			payloadJSON
			Index *int `json:"index"`
		}
		if err := unmarshalBody(e, &b); err != nil {
			return nil, err
		}
		if b.Index == nil || *b.Index < 0 {
			return nil, fmt.Errorf("%w: %s needs a non-negative index", ErrInvalidBody, e.Type)
		}
		p, err := b.payload()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Type, err)
		}
		if e.Type == KindOverlay {
			return Overlay{Payload: p, Index: *b.Index}, nil
		}
		return MeshLayer{Payload: p, Index: *b.Index, Op: e.Type}, nil

	case KindDebugRequest:
		var tag string
		if err := unmarshalBody(e, &tag); err != nil {
			return nil, err
		}
		return DebugRequest{Tag: tag}, nil

	case KindInitSettings:
		if len(e.Body) == 0 {
			return nil, fmt.Errorf("%w: initSettings needs a body", ErrInvalidBody)
		}
		return InitSettings{Settings: e.Body}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Type)
}

func unmarshalBody(e Envelope, v any) error {
	if len(e.Body) == 0 {
		return fmt.Errorf("%w: %s has no body", ErrInvalidBody, e.Type)
	}
	if err := json.Unmarshal(e.Body, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidBody, e.Type, err)
	}
	return nil
}

// Encode builds the envelope for an inbound message, the inverse of
// Envelope.Message. Hosts use it to forward messages to a remote engine.
func Encode(m Message) (Envelope, error) {
	switch m := m.(type) {
	case InitCanvas:
		return NewEnvelope(KindInitCanvas, map[string]int{"n": m.N})
	case AddImage:
		return NewEnvelope(KindAddImage, m.Payload.toJSON())
	case Overlay:
		return NewEnvelope(KindOverlay, struct {
			payloadJSON
			Index int `json:"index"`
		}{m.Payload.toJSON(), m.Index})
	case MeshLayer:
		return NewEnvelope(m.Op, struct {
			payloadJSON
			Index int `json:"index"`
		}{m.Payload.toJSON(), m.Index})
	case DebugRequest:
		return NewEnvelope(KindDebugRequest, m.Tag)
	case InitSettings:
		return Envelope{Type: KindInitSettings, Body: m.Settings}, nil
	}
	return Envelope{}, fmt.Errorf("%w: %T", ErrUnknownKind, m)
}

// NewEnvelope marshals body under the given kind. A nil body is omitted.
func NewEnvelope(kind Kind, body any) (Envelope, error) {
	env := Envelope{Type: kind}
	if body == nil {
		return env, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return env, fmt.Errorf("marshal %s body: %w", kind, err)
	}
	env.Body = data
	return env, nil
}
