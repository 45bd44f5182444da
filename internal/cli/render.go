package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gantryml/gantry/pkg/render"
)

// newRenderCmd creates the render command, which emits the declared
// pipeline graph as DOT or SVG.
func newRenderCmd() *cobra.Command {
	var (
		configPath string
		format     string
		output     string
		detailed   bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the pipeline graph",
		Long:  `Render builds the pipeline from a TOML job declaration and writes its graph as Graphviz DOT or SVG. The unfit graph is rendered, so estimator and delegating nodes are visible.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			p, err := BuildPipeline(cfg)
			if err != nil {
				return err
			}

			dot := render.ToDOT(p.Graph(), render.Options{Detailed: detailed})

			var out []byte
			switch format {
			case "dot":
				out = []byte(dot)
			case "svg":
				out, err = render.RenderSVG(dot)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (known: dot, svg)", format)
			}

			if output == "" || output == "-" {
				_, err = os.Stdout.Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return err
			}
			logger.Info("wrote graph", "path", output, "format", format, "bytes", len(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "gantry.toml", "path to the TOML job declaration")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include node indices and kinds in labels")
	return cmd
}
