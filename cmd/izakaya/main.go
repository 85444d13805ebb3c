package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"izakaya/internal/awsx"
	"izakaya/internal/config"
	"izakaya/internal/logging"
	"izakaya/internal/stackparams"
)

var (
	// Global flags
	verbose      bool
	region       string
	profile      string
	prefix       string
	settingsPath string
	tracing      bool

	logger   *zap.Logger
	settings config.Settings
	segment  *xray.Segment
)

var rootCmd = &cobra.Command{
	Use:   "izakaya",
	Short: "Operate the agent-izakaya Bedrock agent",
	Long: `izakaya works against a deployed AgentIzakayaStack.

It uploads the knowledge base documents, runs ingestion, talks to the agent
and checks model access. Resource ids are read from the SSM parameters the
stack writes under --prefix.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.NewCLILogger(verbose)
		if err != nil {
			return err
		}
		settings, err = config.LoadSettings(settingsPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("prefix") {
			settings.ParameterPrefix = prefix
		}
		if region != "" {
			settings.Region = region
		}
		if tracing {
			startTrace(cmd)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		endTrace(nil)
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "AWS region (default from environment)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "AWS shared config profile")
	rootCmd.PersistentFlags().StringVar(&prefix, "prefix", config.DefaultParameterPrefix, "SSM prefix holding the stack ids")
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "config", "c", "", "YAML settings file")
	rootCmd.PersistentFlags().BoolVar(&tracing, "trace", false, "record AWS calls with X-Ray")

	rootCmd.AddCommand(uploadCmd, syncCmd, askCmd, retrieveCmd, preflightCmd, invokeLocalCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRun is skipped when the command fails.
	endTrace(err)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// startTrace opens the root segment the instrumented SDK clients attach
// their subsegments to.
func startTrace(cmd *cobra.Command) {
	ctx, seg := xray.BeginSegment(cmd.Context(), "izakaya")
	_ = seg.AddAnnotation("command", cmd.Name())
	cmd.SetContext(ctx)
	segment = seg
}

func endTrace(err error) {
	if segment == nil {
		return
	}
	segment.Close(err)
	segment = nil
}

func loadAWS(ctx context.Context) (aws.Config, error) {
	return awsx.LoadConfig(ctx, awsx.Options{
		Region:  settings.Region,
		Profile: profile,
		Tracing: tracing,
	})
}

func loadOutputs(ctx context.Context, cfg aws.Config) (stackparams.Outputs, error) {
	out, err := stackparams.NewStoreFromConfig(cfg).Load(ctx, settings.ParameterPrefix)
	if err != nil {
		return stackparams.Outputs{}, fmt.Errorf("is the stack deployed? %w", err)
	}
	logger.Debug("stack outputs",
		zap.String("bucket", out.BucketName),
		zap.String("knowledgeBaseId", out.KnowledgeBaseID),
		zap.String("dataSourceId", out.DataSourceID),
		zap.String("agentId", out.AgentID),
	)
	return out, nil
}
