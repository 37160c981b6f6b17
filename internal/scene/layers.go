package scene

// LayerKind selects the defaults for a mesh scalar layer.
type LayerKind int

const (
	LayerOverlay LayerKind = iota
	LayerCurvature
	LayerReplace
)

// LayerDefaults returns the initial rendering parameters for a new mesh
// layer of the given kind.
func LayerDefaults(kind LayerKind) MeshLayer {
	switch kind {
	case LayerCurvature:
		return MeshLayer{
			Opacity:         0.7,
			Colormap:        "gray",
			CalMin:          0.3,
			CalMax:          0.5,
			ColorbarVisible: false,
		}
	default:
		return MeshLayer{
			Opacity:         0.7,
			Colormap:        "hsv",
			ColorbarVisible: true,
		}
	}
}

// AddMeshLayer appends layer to the first mesh. It returns false when the
// scene has no mesh.
func (s *Scene) AddMeshLayer(layer MeshLayer) bool {
	if len(s.Meshes) == 0 {
		return false
	}
	m := &s.Meshes[0]
	m.Layers = append(m.Layers, layer)
	s.Colorbar = true
	return true
}

// PopMeshLayer drops the newest layer of the first mesh.
func (s *Scene) PopMeshLayer() bool {
	if len(s.Meshes) == 0 || len(s.Meshes[0].Layers) == 0 {
		return false
	}
	m := &s.Meshes[0]
	m.Layers = m.Layers[:len(m.Layers)-1]
	return true
}

// RemoveLastOverlay drops the newest overlay volume, keeping the base image.
func (s *Scene) RemoveLastOverlay() bool {
	if len(s.Volumes) < 2 {
		return false
	}
	s.Volumes = s.Volumes[:len(s.Volumes)-1]
	return true
}
