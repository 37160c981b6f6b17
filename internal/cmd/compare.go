package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wethinkt/go-niiview/internal/manifest"
	"github.com/wethinkt/go-niiview/internal/scene"
)

var compareCmd = &cobra.Command{
	Use:   "compare <manifest.yaml>",
	Short: "Open a compare manifest in the terminal viewer",
	Long: `Open the images listed in a YAML compare manifest side by side, each with
its overlays. Relative paths resolve against the manifest's directory.

  title: pre vs post
  slice_type: axial
  sync: true
  images:
    - uri: pre.nii.gz
    - uri: post.nii.gz
      overlays: [lesion.nii.gz]

Examples:
  niiview compare study.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	m, err := manifest.Load(args[0])
	if err != nil {
		return err
	}
	return runViewer(nil, func(v *viewer) { openManifest(v, m) })
}

// openManifest posts the manifest's messages and applies its view options.
func openManifest(v *viewer, m *manifest.Manifest) {
	for _, msg := range m.Messages() {
		v.engine.Post(msg)
	}
	if m.SliceType != "" {
		if st, err := scene.ParseSliceType(m.SliceType); err == nil {
			v.engine.SetSliceType(st)
		}
	}
	if m.Sync {
		for i := range m.Images {
			v.engine.ToggleSync(i)
		}
	}
}
