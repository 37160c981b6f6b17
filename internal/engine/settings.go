package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wethinkt/go-niiview/internal/i18n"
	"github.com/wethinkt/go-niiview/internal/prefs"
	"github.com/wethinkt/go-niiview/internal/presets"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

// initSettings merges a partial settings object from the host, applies it
// and persists the result.
func (e *Engine) initSettings(raw json.RawMessage) error {
	s, err := prefs.Merge(e.settings, raw)
	if err != nil {
		return err
	}
	e.setSettings(s, true)
	return nil
}

// setSettings applies s to every viewport and optionally saves it.
func (e *Engine) setSettings(s prefs.Settings, persist bool) {
	e.settings = s
	for _, in := range e.coll.All() {
		in.Scene.Colorbar = s.Colorbar
	}
	e.redrawAll = true
	if !persist || e.store == nil {
		return
	}
	if err := prefs.Save(e.ctx, e.store, s); err != nil {
		tuilog.Log.Warn("engine: saving preferences failed", "error", err)
		e.bridge.Notify(protocol.LevelWarning,
			i18n.Tf("engine.notify.prefsSaveFailed", "Could not save preferences: %v", err))
	}
}

// UpdateSettings replaces the settings and persists them.
func (e *Engine) UpdateSettings(s prefs.Settings) {
	e.enqueue(func() { e.setSettings(s, true) })
}

// ReloadSettings re-reads the settings from the store without writing them
// back. File watchers call it after external edits.
func (e *Engine) ReloadSettings() {
	e.enqueue(func() {
		if e.store == nil {
			return
		}
		s, err := prefs.Load(e.ctx, e.store)
		if err != nil {
			tuilog.Log.Warn("engine: reloading preferences failed", "error", err)
			return
		}
		if s == e.settings {
			return
		}
		tuilog.Log.Info("engine: preferences changed on disk")
		e.setSettings(s, false)
	})
}

// ApplyPreset applies p to the settings and to the targeted viewports.
func (e *Engine) ApplyPreset(p presets.Preset) {
	e.command("apply preset", func() error {
		s := p.Settings.Apply(e.settings)
		targets := e.targets()

		for _, in := range targets {
			vols := in.Scene.Volumes
			if p.Settings.DefaultVolumeColormap != "" && len(vols) > 0 {
				vols[0].Colormap = p.Settings.DefaultVolumeColormap
			}
			if p.Settings.DefaultOverlayColormap != "" && len(vols) > 1 {
				vols[1].Colormap = p.Settings.DefaultOverlayColormap
			}
			if p.Overlay != nil {
				for i := range vols {
					p.Overlay.Apply(&vols[i])
				}
			}
			if v := p.View; v != nil {
				g := &in.Scene.Graph
				if v.AutoSizeMultiplanar != nil {
					g.AutoSizeMultiplanar = *v.AutoSizeMultiplanar
				}
				if v.MultiplanarForceRender != nil {
					g.MultiplanarForceRender = *v.MultiplanarForceRender
				}
				if v.NormalizeValues != nil {
					g.NormalizeValues = *v.NormalizeValues
				}
				if v.GraphOpacity != nil {
					g.Opacity = *v.GraphOpacity
				}
			}
			e.touch(in)
		}
		if v := p.View; v != nil {
			if v.SliceType != nil {
				e.sliceType = *v.SliceType
			}
			if v.HideUI != nil {
				e.hideUI = clampHideUI(*v.HideUI)
			}
		}
		e.setSettings(s, true)
		tuilog.Log.Info("engine: preset applied", "preset", p.ID, "targets", len(targets))
		return nil
	})
}

// ApplyPresetByID looks id up in store (or the built-ins when store is nil)
// and applies it.
func (e *Engine) ApplyPresetByID(ctx context.Context, store *presets.Store, id string) error {
	var (
		p   presets.Preset
		err error
	)
	if store != nil {
		p, err = store.Get(id)
	} else {
		p, err = presets.Find(presets.Builtin(), id)
	}
	if err != nil {
		return fmt.Errorf("apply preset %q: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e.ApplyPreset(p)
	return nil
}
