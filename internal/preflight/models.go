package preflight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	bedrockruntime "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type BedrockClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Checker confirms the account can call the models the stack is wired to.
// Model access is granted per account in the Bedrock console, and a missing
// grant otherwise only shows up when the agent or an ingestion job fails.
type Checker struct {
	br BedrockClient
}

func NewChecker(br BedrockClient) *Checker {
	return &Checker{br: br}
}

func NewCheckerFromConfig(cfg aws.Config) *Checker {
	return NewChecker(bedrockruntime.NewFromConfig(cfg))
}

type Result struct {
	ModelID    string
	Dimensions int    // embedding models
	Text       string // text models
}

// Embedding sends a Titan style embedding request.
func (c *Checker) Embedding(ctx context.Context, modelID string) (*Result, error) {
	body, _ := json.Marshal(map[string]any{"inputText": "居酒屋"})

	out, err := c.invoke(ctx, modelID, body)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("embedding response unmarshal (%s): %w", modelID, err)
	}
	if len(raw.Embedding) == 0 {
		return nil, fmt.Errorf("model %s returned no embedding", modelID)
	}
	return &Result{ModelID: modelID, Dimensions: len(raw.Embedding)}, nil
}

// Foundation sends a one-line Anthropic messages request.
func (c *Checker) Foundation(ctx context.Context, modelID string) (*Result, error) {
	body, _ := json.Marshal(map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        32,
		"temperature":       0.0,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": "「OK」とだけ返答してください。"},
				},
			},
		},
	})

	out, err := c.invoke(ctx, modelID, body)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("model response unmarshal (%s): %w", modelID, err)
	}

	var text string
	for _, c := range raw.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}
	return &Result{ModelID: modelID, Text: strings.TrimSpace(text)}, nil
}

func (c *Checker) invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, fmt.Errorf("missing model id")
	}
	out, err := c.br.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock InvokeModel %s: %w", modelID, err)
	}
	return out.Body, nil
}
