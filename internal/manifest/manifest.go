// Package manifest reads compare manifests: YAML files listing the images
// to open side by side, each with optional overlays.
//
//	title: pre vs post
//	slice_type: axial
//	images:
//	  - uri: pre.nii.gz
//	  - uri: post.nii.gz
//	    overlays: [lesion.nii.gz]
package manifest

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/scene"
)

// Image is one viewport of a manifest.
type Image struct {
	URI      string   `yaml:"uri"`
	Overlays []string `yaml:"overlays,omitempty"`
}

// Manifest is a parsed compare manifest.
type Manifest struct {
	Title     string  `yaml:"title,omitempty"`
	SliceType string  `yaml:"slice_type,omitempty"`
	Sync      bool    `yaml:"sync,omitempty"`
	Images    []Image `yaml:"images"`
}

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Images) == 0 {
		return nil, errors.New("manifest lists no images")
	}
	for i, img := range m.Images {
		if strings.TrimSpace(img.URI) == "" {
			return nil, fmt.Errorf("image %d: uri is required", i)
		}
	}
	if m.SliceType != "" {
		if _, err := scene.ParseSliceType(m.SliceType); err != nil {
			return nil, fmt.Errorf("slice_type: %w", err)
		}
	}
	return &m, nil
}

// Load reads the manifest at path and resolves relative file URIs against
// its directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range m.Images {
		m.Images[i].URI = resolve(dir, m.Images[i].URI)
		for j, o := range m.Images[i].Overlays {
			m.Images[i].Overlays[j] = resolve(dir, o)
		}
	}
	return m, nil
}

func resolve(dir, uri string) string {
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return uri
	}
	if filepath.IsAbs(uri) {
		return uri
	}
	return filepath.Join(dir, uri)
}

// Messages expands m into the messages a host would send: one initCanvas,
// one addImage per image and one overlay per overlay, all URI-only.
func (m *Manifest) Messages() []protocol.Message {
	out := []protocol.Message{protocol.InitCanvas{N: len(m.Images)}}
	for _, img := range m.Images {
		out = append(out, protocol.AddImage{Payload: protocol.NewPayload(img.URI, nil)})
	}
	for i, img := range m.Images {
		for _, o := range img.Overlays {
			out = append(out, protocol.Overlay{Payload: protocol.NewPayload(o, nil), Index: i})
		}
	}
	return out
}
