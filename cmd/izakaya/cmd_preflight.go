package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"izakaya/internal/preflight"
)

var (
	embeddingModel  string
	foundationModel string
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Check that the embedding and foundation models can be invoked",
	Long: `Calls each model once. Run this before deploying: Bedrock model access is
granted per account and a missing grant otherwise surfaces only when an
ingestion job or the agent fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		embedding := firstNonEmpty(embeddingModel, settings.EmbeddingModel)
		foundation := firstNonEmpty(foundationModel, settings.FoundationModel)
		if embedding == "" || foundation == "" {
			return fmt.Errorf("set --embedding-model and --foundation-model or put them in the settings file")
		}

		ctx := cmd.Context()
		cfg, err := loadAWS(ctx)
		if err != nil {
			return err
		}
		chk := preflight.NewCheckerFromConfig(cfg)

		emb, err := chk.Embedding(ctx, embedding)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d dimensions)\n", emb.ModelID, emb.Dimensions)

		fm, err := chk.Foundation(ctx, foundation)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%q)\n", fm.ModelID, fm.Text)
		return nil
	},
}

func init() {
	preflightCmd.Flags().StringVar(&embeddingModel, "embedding-model", "", "embedding model id")
	preflightCmd.Flags().StringVar(&foundationModel, "foundation-model", "", "foundation model id")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
