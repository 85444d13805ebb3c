package agentclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	rttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventStream is the subset of the InvokeAgent response stream we read.
type EventStream interface {
	Events() <-chan rttypes.ResponseStream
	Close() error
	Err() error
}

type RuntimeClient interface {
	InvokeAgent(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput) (EventStream, error)
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

// sdkRuntime adapts the SDK client, whose InvokeAgent output wraps the stream.
type sdkRuntime struct {
	*bedrockagentruntime.Client
}

func (c sdkRuntime) InvokeAgent(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput) (EventStream, error) {
	out, err := c.Client.InvokeAgent(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.GetStream(), nil
}

type Client struct {
	rt  RuntimeClient
	log *zap.Logger
}

func New(rt RuntimeClient, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{rt: rt, log: log}
}

func NewFromConfig(cfg aws.Config, log *zap.Logger) *Client {
	return New(sdkRuntime{bedrockagentruntime.NewFromConfig(cfg)}, log)
}

type AskInput struct {
	AgentID                 string
	AliasID                 string
	SessionID               string
	Text                    string
	SessionAttributes       map[string]string
	PromptSessionAttributes map[string]string
}

type AskOutput struct {
	SessionID string
	Text      string
	Chunks    int
}

// Ask sends one user turn to the agent and collects the streamed answer.
// An empty SessionID starts a new conversation.
func (c *Client) Ask(ctx context.Context, in AskInput) (*AskOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("empty question")
	}
	if in.AgentID == "" || in.AliasID == "" {
		return nil, fmt.Errorf("missing agent id or alias id")
	}
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	req := &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(in.AgentID),
		AgentAliasId: aws.String(in.AliasID),
		SessionId:    aws.String(sessionID),
		InputText:    aws.String(text),
	}
	if len(in.SessionAttributes) > 0 || len(in.PromptSessionAttributes) > 0 {
		req.SessionState = &rttypes.SessionState{
			SessionAttributes:       in.SessionAttributes,
			PromptSessionAttributes: in.PromptSessionAttributes,
		}
	}

	stream, err := c.rt.InvokeAgent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bedrock InvokeAgent: %w", err)
	}
	defer stream.Close()

	var sb strings.Builder
	chunks := 0
	for ev := range stream.Events() {
		switch v := ev.(type) {
		case *rttypes.ResponseStreamMemberChunk:
			sb.Write(v.Value.Bytes)
			chunks++
		case *rttypes.ResponseStreamMemberReturnControl:
			c.log.Warn("agent requested return of control; not supported", zap.String("sessionId", sessionID))
		default:
			c.log.Debug("ignoring agent event", zap.String("type", fmt.Sprintf("%T", ev)))
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("bedrock InvokeAgent stream: %w", err)
	}

	return &AskOutput{SessionID: sessionID, Text: sb.String(), Chunks: chunks}, nil
}

type Passage struct {
	Text  string
	Score float64
	URI   string
}

// Retrieve runs a vector search against the knowledge base without the agent.
func (c *Client) Retrieve(ctx context.Context, kbID, query string, n int) ([]Passage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if n <= 0 {
		n = 5
	}

	out, err := c.rt.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(kbID),
		RetrievalQuery:  &rttypes.KnowledgeBaseQuery{Text: aws.String(query)},
		RetrievalConfiguration: &rttypes.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &rttypes.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults: aws.Int32(int32(n)),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock Retrieve: %w", err)
	}

	passages := make([]Passage, 0, len(out.RetrievalResults))
	for _, r := range out.RetrievalResults {
		p := Passage{Score: aws.ToFloat64(r.Score)}
		if r.Content != nil {
			p.Text = aws.ToString(r.Content.Text)
		}
		if r.Location != nil && r.Location.S3Location != nil {
			p.URI = aws.ToString(r.Location.S3Location.Uri)
		}
		passages = append(passages, p)
	}
	return passages, nil
}
