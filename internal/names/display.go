package names

import (
	"net/url"

	"github.com/charmbracelet/x/ansi"
)

// Entry is the naming-relevant view of one viewport.
type Entry struct {
	Volumes       []string // volume names, base layer first
	Meshes        []string // mesh names, base mesh first
	LastMeshLayer string   // name of the newest scalar layer on the first mesh
	URI           string   // pending payload URI for viewports still loading
}

// Display returns one base label per entry: the first volume, else the first
// mesh, else the pending URI. Entries whose base label collides with
// another entry's are labelled by their newest overlay instead, so two
// copies of the same template with different overlays stay distinguishable.
func Display(entries []Entry) []string {
	base := make([]string, len(entries))
	counts := make(map[string]int, len(entries))
	for i, e := range entries {
		switch {
		case len(e.Volumes) > 0:
			base[i] = unescape(e.Volumes[0])
		case len(e.Meshes) > 0:
			base[i] = unescape(e.Meshes[0])
		default:
			base[i] = unescape(e.URI)
		}
		counts[base[i]]++
	}

	out := make([]string, len(entries))
	for i, e := range entries {
		if counts[base[i]] <= 1 {
			out[i] = base[i]
			continue
		}
		switch {
		case len(e.Volumes) > 1:
			out[i] = unescape(e.Volumes[len(e.Volumes)-1])
		case len(e.Volumes) > 0:
			out[i] = base[i]
		case len(e.Meshes) > 0 && e.LastMeshLayer != "":
			out[i] = unescape(e.LastMeshLayer)
		case len(e.Meshes) > 0:
			out[i] = base[i]
		}
	}
	return out
}

// Short keeps the last width cells of name behind a "..." marker.
func Short(name string, width int) string {
	w := ansi.StringWidth(name)
	if width <= 0 || w <= width {
		return name
	}
	return ansi.TruncateLeft(name, w-width, "...")
}

func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
