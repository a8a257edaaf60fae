package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/pipeline"
	"github.com/jackzampolin/primer/internal/pipeline/stages"
)

// stageCommand builds a command that runs one pipeline stage in-process.
func stageCommand(stage, use, short, long string) *cobra.Command {
	var opts pipeline.StageOptions
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := localServices()
			if err != nil {
				return err
			}
			results, err := svc.Runner.RunStage(cmd.Context(), args[0], stage, opts)
			if err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(results)
			}
			for _, res := range results {
				renderStageResult(os.Stdout, res)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "LLM provider name (default: defaults.llm_provider)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Model override")
	return cmd
}

var catalogCmd = stageCommand(stages.CatalogStageName, "catalog <book>",
	"Extract and reconcile a book's catalog",
	`Read the table of contents from the book's first pages, resolve the
printed-to-physical page offset and write catalog.json.

Node-level problems (pages out of range, inverted ranges, missing printed
pages) are reported as diagnostics; the catalog is written regardless.

Examples:
  primer catalog algebra
  primer catalog algebra --provider openrouter --model qwen/qwen-2.5-72b-instruct
  primer catalog algebra -o json`)

var segmentCmd = stageCommand(stages.SegmentStageName, "segment <book>",
	"Extract knowledge points for every catalog leaf",
	`Send each resolved leaf's page text to the LLM and write
catalog_with_segments.json. Builds the catalog first if it is missing.

Examples:
  primer segment algebra
  primer segment algebra --provider gemini`)

var mindmapCmd = stageCommand(stages.MindmapStageName, "mindmap <book>",
	"Draw a Mermaid mind map of the book",
	`Send each resolved leaf's page text to the LLM for a chapter mind map,
then merge them along the catalog into mindmap.mmd. The per-leaf maps are
kept in mindmap_leaves.json. Builds the catalog first if it is missing.

Examples:
  primer mindmap algebra
  primer mindmap algebra --provider openrouter`)

var indexCmd = stageCommand(stages.IndexStageName, "index <book>",
	"Embed knowledge points for search",
	`Embed every distinct knowledge point of catalog_with_segments.json and
write knowledge_index.json. --provider overrides search.embedding_provider.
Runs catalog and segment first if they are missing.

Examples:
  primer index algebra
  primer index algebra --provider openai`)

var runAllForce bool

var runAllCmd = &cobra.Command{
	Use:   "run <book>",
	Short: "Run every stage that is not yet complete",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := localServices()
		if err != nil {
			return err
		}
		provider, _ := cmd.Flags().GetString("provider")
		model, _ := cmd.Flags().GetString("model")
		results, err := svc.Runner.RunAll(cmd.Context(), args[0], pipeline.StageOptions{
			Provider: provider,
			Model:    model,
			Force:    runAllForce,
		})
		if err != nil {
			return err
		}
		if api.IsStructuredOutput() {
			return api.Output(results)
		}
		for _, res := range results {
			renderStageResult(os.Stdout, res)
		}
		return nil
	},
}

func init() {
	runAllCmd.Flags().String("provider", "", "LLM provider name (default: defaults.llm_provider)")
	runAllCmd.Flags().String("model", "", "Model override")
	runAllCmd.Flags().BoolVar(&runAllForce, "force", false, "Re-run stages that are already complete")

	rootCmd.AddCommand(catalogCmd, segmentCmd, mindmapCmd, indexCmd, runAllCmd)
}
