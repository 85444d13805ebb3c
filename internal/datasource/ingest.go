package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagent/types"
	"go.uber.org/zap"
)

type BedrockAgentClient interface {
	StartIngestionJob(ctx context.Context, params *bedrockagent.StartIngestionJobInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.StartIngestionJobOutput, error)
	GetIngestionJob(ctx context.Context, params *bedrockagent.GetIngestionJobInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.GetIngestionJobOutput, error)
}

type WaitOptions struct {
	MaxWait      time.Duration
	PollInterval time.Duration
}

// IngestionResult summarises a finished ingestion job.
type IngestionResult struct {
	JobID     string
	Status    string
	Scanned   int64
	Indexed   int64
	Modified  int64
	Deleted   int64
	Failed    int64
	StartedAt time.Time
	UpdatedAt time.Time
}

type IngestionError struct {
	JobID   string
	Status  string
	Reasons []string
}

func (e *IngestionError) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("ingestion %s (job=%s)", e.Status, e.JobID)
	}
	return fmt.Sprintf("ingestion %s: %s (job=%s)", e.Status, strings.Join(e.Reasons, "; "), e.JobID)
}

type Ingestor struct {
	agent BedrockAgentClient
	log   *zap.Logger
	sleep func(context.Context, time.Duration) error
}

func NewIngestor(c BedrockAgentClient, log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{agent: c, log: log, sleep: sleepCtx}
}

// Start kicks off a sync of the data source into the knowledge base.
func (in *Ingestor) Start(ctx context.Context, kbID, dsID string) (string, error) {
	if kbID == "" || dsID == "" {
		return "", fmt.Errorf("missing knowledge base or data source id")
	}
	out, err := in.agent.StartIngestionJob(ctx, &bedrockagent.StartIngestionJobInput{
		KnowledgeBaseId: aws.String(kbID),
		DataSourceId:    aws.String(dsID),
	})
	if err != nil {
		return "", fmt.Errorf("bedrock StartIngestionJob: %w", err)
	}
	if out.IngestionJob == nil {
		return "", fmt.Errorf("bedrock StartIngestionJob: empty job")
	}
	jobID := aws.ToString(out.IngestionJob.IngestionJobId)
	in.log.Info("ingestion started", zap.String("knowledgeBaseId", kbID), zap.String("jobId", jobID))
	return jobID, nil
}

// Wait polls the job until it completes, fails, is stopped or MaxWait passes.
func (in *Ingestor) Wait(ctx context.Context, kbID, dsID, jobID string, opt WaitOptions) (*IngestionResult, error) {
	if opt.MaxWait == 0 {
		opt.MaxWait = 10 * time.Minute
	}
	if opt.PollInterval == 0 {
		opt.PollInterval = 5 * time.Second
	}

	deadline := time.Now().Add(opt.MaxWait)
	for {
		out, err := in.agent.GetIngestionJob(ctx, &bedrockagent.GetIngestionJobInput{
			KnowledgeBaseId: aws.String(kbID),
			DataSourceId:    aws.String(dsID),
			IngestionJobId:  aws.String(jobID),
		})
		if err != nil {
			return nil, fmt.Errorf("bedrock GetIngestionJob: %w", err)
		}
		job := out.IngestionJob
		if job == nil {
			return nil, fmt.Errorf("bedrock GetIngestionJob: empty job")
		}

		switch job.Status {
		case agenttypes.IngestionJobStatusComplete:
			return toResult(job), nil
		case agenttypes.IngestionJobStatusFailed, agenttypes.IngestionJobStatusStopped:
			return toResult(job), &IngestionError{JobID: jobID, Status: string(job.Status), Reasons: job.FailureReasons}
		}

		in.log.Debug("ingestion in progress", zap.String("jobId", jobID), zap.String("status", string(job.Status)))
		if time.Now().Add(opt.PollInterval).After(deadline) {
			return nil, &IngestionError{JobID: jobID, Status: "TIMEOUT", Reasons: []string{"job did not finish in " + opt.MaxWait.String()}}
		}
		if err := in.sleep(ctx, opt.PollInterval); err != nil {
			return nil, err
		}
	}
}

func toResult(job *agenttypes.IngestionJob) *IngestionResult {
	r := &IngestionResult{
		JobID:     aws.ToString(job.IngestionJobId),
		Status:    string(job.Status),
		StartedAt: aws.ToTime(job.StartedAt),
		UpdatedAt: aws.ToTime(job.UpdatedAt),
	}
	if s := job.Statistics; s != nil {
		r.Scanned = s.NumberOfDocumentsScanned
		r.Indexed = s.NumberOfNewDocumentsIndexed
		r.Modified = s.NumberOfModifiedDocumentsIndexed
		r.Deleted = s.NumberOfDocumentsDeleted
		r.Failed = s.NumberOfDocumentsFailed
	}
	return r
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
