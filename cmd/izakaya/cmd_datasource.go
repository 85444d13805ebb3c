package main

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"izakaya/internal/datasource"
	"izakaya/internal/stackparams"
)

var (
	assetDir    string
	waitIngest  bool
	waitTimeout time.Duration
)

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload knowledge base documents to the data source bucket",
	Long: `Uploads files from --dir to the data source bucket, keyed by base name.
Without arguments the dataSourceFiles from the settings are uploaded
(izakaya_menu.txt and izakaya_guidance.pdf by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadAWS(ctx)
		if err != nil {
			return err
		}
		outs, err := loadOutputs(ctx, cfg)
		if err != nil {
			return err
		}
		return runUpload(cmd, cfg, outs, args)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync [files...]",
	Short: "Upload documents and ingest them into the knowledge base",
	RunE:  runSync,
}

func init() {
	for _, c := range []*cobra.Command{uploadCmd, syncCmd} {
		c.Flags().StringVar(&assetDir, "dir", "", "directory holding the documents (default assets)")
	}
	syncCmd.Flags().BoolVar(&waitIngest, "wait", true, "wait for the ingestion job to finish")
	syncCmd.Flags().DurationVar(&waitTimeout, "timeout", 10*time.Minute, "how long to wait for ingestion")
}

func runUpload(cmd *cobra.Command, cfg aws.Config, outs stackparams.Outputs, args []string) error {
	dir := assetDir
	if dir == "" {
		dir = settings.AssetDir
	}
	files := args
	if len(files) == 0 {
		files = settings.DataSourceFiles
	}

	res, err := datasource.NewUploader(s3.NewFromConfig(cfg), logger).Upload(cmd.Context(), outs.BucketName, dir, files)
	if err != nil {
		return err
	}
	for _, r := range res {
		fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s\t%d bytes\t%s\n", outs.BucketName, r.Key, r.Size, r.ContentType)
	}
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadAWS(ctx)
	if err != nil {
		return err
	}
	outs, err := loadOutputs(ctx, cfg)
	if err != nil {
		return err
	}
	if err := runUpload(cmd, cfg, outs, args); err != nil {
		return err
	}

	ing := datasource.NewIngestor(bedrockagent.NewFromConfig(cfg), logger)
	jobID, err := ing.Start(ctx, outs.KnowledgeBaseID, outs.DataSourceID)
	if err != nil {
		return err
	}
	if !waitIngest {
		fmt.Fprintf(cmd.OutOrStdout(), "ingestion job %s started\n", jobID)
		return nil
	}

	res, err := ing.Wait(ctx, outs.KnowledgeBaseID, outs.DataSourceID, jobID, datasource.WaitOptions{MaxWait: waitTimeout})
	if err != nil {
		return err
	}
	logger.Info("ingestion finished", zap.String("jobId", res.JobID), zap.Duration("took", res.UpdatedAt.Sub(res.StartedAt)))
	fmt.Fprintf(cmd.OutOrStdout(), "ingestion %s: scanned=%d indexed=%d modified=%d deleted=%d failed=%d\n",
		res.Status, res.Scanned, res.Indexed, res.Modified, res.Deleted, res.Failed)
	return nil
}
