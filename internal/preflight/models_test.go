package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	bedrockruntime "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBedrock struct {
	in   *bedrockruntime.InvokeModelInput
	body string
	err  error
}

func (f *fakeBedrock) InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestEmbedding(t *testing.T) {
	br := &fakeBedrock{body: `{"embedding":[0.1,0.2,0.3],"inputTextTokenCount":2}`}

	res, err := NewChecker(br).Embedding(context.Background(), "amazon.titan-embed-text-v1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Dimensions)
	assert.Equal(t, "amazon.titan-embed-text-v1", aws.ToString(br.in.ModelId))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(br.in.Body, &sent))
	assert.Equal(t, "居酒屋", sent["inputText"])
}

func TestEmbeddingEmpty(t *testing.T) {
	_, err := NewChecker(&fakeBedrock{body: `{"embedding":[]}`}).Embedding(context.Background(), "amazon.titan-embed-text-v1")
	assert.Error(t, err)
}

func TestFoundation(t *testing.T) {
	br := &fakeBedrock{body: `{"content":[{"type":"text","text":" OK "}],"stop_reason":"end_turn"}`}

	res, err := NewChecker(br).Foundation(context.Background(), "anthropic.claude-3-haiku-20240307-v1:0")
	require.NoError(t, err)
	assert.Equal(t, "OK", res.Text)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(br.in.Body, &sent))
	assert.Equal(t, "bedrock-2023-05-31", sent["anthropic_version"])
}

func TestInvokeErrors(t *testing.T) {
	_, err := NewChecker(&fakeBedrock{}).Foundation(context.Background(), " ")
	assert.Error(t, err)

	boom := errors.New("AccessDeniedException")
	_, err = NewChecker(&fakeBedrock{err: boom}).Embedding(context.Background(), "amazon.titan-embed-text-v1")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "amazon.titan-embed-text-v1")

	_, err = NewChecker(&fakeBedrock{body: "not json"}).Foundation(context.Background(), "m")
	assert.Error(t, err)
}
