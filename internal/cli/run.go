package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gantryml/gantry/pkg/pipeline"
	"github.com/gantryml/gantry/pkg/pipeline/optimize"
)

// newRunCmd creates the run command, which loads a TOML job declaration,
// fits the declared pipeline on the training data, bulk applies it to
// the input, and prints the results.
func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fit and apply a declared pipeline",
		Long:  `Run loads a TOML job declaration, builds the pipeline it describes, fits it on the training data, and bulk applies the fitted pipeline to the input collection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}

			p, err := BuildPipeline(cfg)
			if err != nil {
				return err
			}
			logger.Debug("built pipeline", "name", cfg.Pipeline.Name, "nodes", p.NodeCount())

			colls, err := buildCollections(ctx, cfg)
			if err != nil {
				return err
			}
			defer colls.cleanup(ctx)

			if NeedsLabels(cfg) && colls.labels == nil {
				return fmt.Errorf("config: pipeline has a label-estimator stage but no labels")
			}

			var opt pipeline.Optimizer
			if cfg.Optimize.Enabled {
				opt = optimize.Standard()
			}
			runner := pipeline.NewRunner(opt, logger)

			spinner := newSpinner(ctx, "fitting pipeline...")
			spinner.Start()

			var result *pipeline.Result
			if colls.labels != nil {
				result, err = runner.ExecuteLabeled(ctx, p, colls.train, colls.labels, colls.input)
			} else {
				result, err = runner.Execute(ctx, p, colls.train, colls.input)
			}
			spinner.Stop()
			if err != nil {
				fmt.Fprintln(os.Stderr, styleIconError.Render("✗"), "run failed")
				return err
			}

			items, err := result.Output.Collect(ctx)
			if err != nil {
				return err
			}

			name := cfg.Pipeline.Name
			if name == "" {
				name = "pipeline"
			}
			fmt.Println(StyleTitle.Render(name))
			fmt.Println(StyleDim.Render(fmt.Sprintf("run %s · %d nodes · fit %s · apply %s",
				result.RunID,
				result.Stats.Nodes,
				result.Stats.FitTime.Round(time.Microsecond),
				result.Stats.ApplyTime.Round(time.Microsecond))))
			for _, item := range items {
				fmt.Println(item)
			}
			fmt.Println(StyleSuccess.Render(fmt.Sprintf("✓ %d items", len(items))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "gantry.toml", "path to the TOML job declaration")
	return cmd
}
