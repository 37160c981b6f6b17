package engine

import (
	"github.com/wethinkt/go-niiview/internal/layout"
	"github.com/wethinkt/go-niiview/internal/names"
	"github.com/wethinkt/go-niiview/internal/nav4d"
	"github.com/wethinkt/go-niiview/internal/prefs"
	"github.com/wethinkt/go-niiview/internal/scene"
	"github.com/wethinkt/go-niiview/internal/viewport"
)

// ShortNameWidth is the width of ViewportState.ShortName in terminal cells.
const ShortNameWidth = 20

// ViewportState is the published view of one viewport.
type ViewportState struct {
	Key         viewport.Key   `json:"key"`
	Index       int            `json:"index"`
	Name        string         `json:"name"`
	ShortName   string         `json:"shortName"`
	URI         string         `json:"uri,omitempty"`
	IsNew       bool           `json:"isNew"`
	Loaded      bool           `json:"loaded"`
	Loading     bool           `json:"loading"`
	Error       string         `json:"error,omitempty"`
	Selected    bool           `json:"selected"`
	SyncEnabled bool           `json:"syncEnabled"`
	Frame       int            `json:"frame"`
	Frames      int            `json:"frames"`
	Playing     bool           `json:"playing"`
	Editing     bool           `json:"editing"`
	Field       string         `json:"field,omitempty"`
	Volumes     []scene.Volume `json:"volumes"`
	Meshes      []scene.Mesh   `json:"meshes"`
	View        scene.View     `json:"view"`
	Colorbar    bool           `json:"colorbar"`
	Graph       scene.Graph    `json:"graph"`
}

// Snapshot is an immutable copy of the engine state after one event.
type Snapshot struct {
	Viewports     []ViewportState `json:"viewports"`
	Canvas        layout.Grid     `json:"canvas"`
	Container     layout.Size     `json:"container"`
	SliceType     scene.SliceType `json:"sliceType"`
	HideUI        int             `json:"hideUI"`
	SelectionMode string          `json:"selectionMode"`
	Selected      []int           `json:"selected"`
	Target        int             `json:"target"`
	Settings      prefs.Settings  `json:"settings"`
	Location      string          `json:"location,omitempty"`
	Ready         bool            `json:"ready"`
}

// Viewport returns the state of the viewport at i.
func (s Snapshot) Viewport(i int) (ViewportState, bool) {
	if i < 0 || i >= len(s.Viewports) {
		return ViewportState{}, false
	}
	return s.Viewports[i], true
}

// displayNames are the disambiguated labels of every viewport. A label the
// diff reduces to nothing, as with a lone viewport, stays whole.
func (e *Engine) displayNames() []string {
	items := e.coll.All()
	entries := make([]names.Entry, len(items))
	for i, in := range items {
		en := names.Entry{URI: in.URI}
		for _, v := range in.Scene.Volumes {
			en.Volumes = append(en.Volumes, v.Name)
		}
		for _, m := range in.Scene.Meshes {
			en.Meshes = append(en.Meshes, m.Name)
		}
		if len(in.Scene.Meshes) > 0 {
			if ls := in.Scene.Meshes[0].Layers; len(ls) > 0 {
				en.LastMeshLayer = ls[len(ls)-1].Name
			}
		}
		entries[i] = en
	}
	full := names.Display(entries)
	short := names.Diff(full)
	for i, s := range short {
		if s == "" {
			short[i] = full[i]
		}
	}
	return short
}

func (e *Engine) snapshot() Snapshot {
	n := e.coll.Len()
	labels := e.displayNames()
	s := Snapshot{
		Viewports:     make([]ViewportState, n),
		Canvas:        e.canvas,
		Container:     e.container,
		SliceType:     e.sliceType,
		HideUI:        e.hideUI,
		SelectionMode: e.sel.Mode().String(),
		Selected:      e.sel.Indices(),
		Target:        e.sel.Target(n),
		Settings:      e.settings,
		Location:      e.location,
		Ready:         e.ready.sent,
	}
	for i, in := range e.coll.All() {
		sc := in.Scene.Clone()
		vs := ViewportState{
			Key:         in.Key,
			Index:       i,
			Name:        labels[i],
			ShortName:   names.Short(labels[i], ShortNameWidth),
			URI:         in.URI,
			IsNew:       in.IsNew,
			Loaded:      in.Loaded,
			Loading:     e.loading[in.Key] > 0,
			Selected:    e.sel.Selected(i),
			SyncEnabled: in.SyncEnabled,
			Frames:      in.Frames(),
			Volumes:     sc.Volumes,
			Meshes:      sc.Meshes,
			View:        sc.View,
			Colorbar:    sc.Colorbar,
			Graph:       sc.Graph,
		}
		if in.LoadErr != nil {
			vs.Error = in.LoadErr.Error()
		}
		if c := in.Nav; c != nil {
			vs.Frame = c.Frame()
			vs.Playing = c.State() == nav4d.Playing
			vs.Editing = c.Editing()
			vs.Field = c.Field()
		}
		s.Viewports[i] = vs
	}
	return s
}
