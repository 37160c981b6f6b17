package protocol

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Payload is the image or mesh carried by a load message. Data is empty when
// the bytes still have to be fetched from URI. A DICOM series carries one
// data entry per URI.
type Payload struct {
	Data [][]byte
	URI  []string
}

// NewPayload is a single-file payload.
func NewPayload(uri string, data []byte) Payload {
	p := Payload{URI: []string{uri}}
	if len(data) > 0 {
		p.Data = [][]byte{data}
	}
	return p
}

// Name is the URI of the first file.
func (p Payload) Name() string {
	if len(p.URI) == 0 {
		return ""
	}
	return p.URI[0]
}

// HasData reports whether any bytes are attached.
func (p Payload) HasData() bool {
	for _, d := range p.Data {
		if len(d) > 0 {
			return true
		}
	}
	return false
}

// Series reports whether the payload names more than one file.
func (p Payload) Series() bool {
	return len(p.URI) > 1
}

type payloadJSON struct {
	Data json.RawMessage `json:"data,omitempty"`
	URI  json.RawMessage `json:"uri"`
}

func (p Payload) toJSON() payloadJSON {
	var out payloadJSON
	if len(p.URI) == 1 {
		out.URI, _ = json.Marshal(p.URI[0])
	} else {
		out.URI, _ = json.Marshal(p.URI)
	}
	switch {
	case len(p.Data) == 1:
		out.Data, _ = json.Marshal(base64.StdEncoding.EncodeToString(p.Data[0]))
	case len(p.Data) > 1:
		enc := make([]string, len(p.Data))
		for i, d := range p.Data {
			enc[i] = base64.StdEncoding.EncodeToString(d)
		}
		out.Data, _ = json.Marshal(enc)
	}
	return out
}

func (pj payloadJSON) payload() (Payload, error) {
	var p Payload

	uris, err := stringOrList(pj.URI)
	if err != nil {
		return p, fmt.Errorf("uri: %w", err)
	}
	if len(uris) == 0 || (len(uris) == 1 && uris[0] == "") {
		return p, fmt.Errorf("%w: uri is required", ErrInvalidBody)
	}
	p.URI = uris

	data, err := stringOrList(pj.Data)
	if err != nil {
		return p, fmt.Errorf("data: %w", err)
	}
	for i, s := range data {
		if s == "" {
			continue
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return p, fmt.Errorf("%w: data[%d] is not base64: %v", ErrInvalidBody, i, err)
		}
		if p.Data == nil {
			p.Data = make([][]byte, len(data))
		}
		p.Data[i] = b
	}
	if len(p.Data) > 1 && len(p.Data) != len(p.URI) {
		return p, fmt.Errorf("%w: %d data entries for %d uris", ErrInvalidBody, len(p.Data), len(p.URI))
	}
	return p, nil
}

// stringOrList accepts a JSON string, a list of strings, or null.
func stringOrList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		return list, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return []string{s}, nil
}
