package agentclient

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	rttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	events []rttypes.ResponseStream
	err    error
	closed bool
}

func (s *fakeStream) Events() <-chan rttypes.ResponseStream {
	ch := make(chan rttypes.ResponseStream, len(s.events))
	for _, ev := range s.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func (s *fakeStream) Close() error { s.closed = true; return nil }
func (s *fakeStream) Err() error   { return s.err }

type fakeRuntime struct {
	invoked   *bedrockagentruntime.InvokeAgentInput
	stream    *fakeStream
	retrieved *bedrockagentruntime.RetrieveInput
	results   []rttypes.KnowledgeBaseRetrievalResult
	err       error
}

func (f *fakeRuntime) InvokeAgent(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput) (EventStream, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.invoked = in
	return f.stream, nil
}

func (f *fakeRuntime) Retrieve(ctx context.Context, in *bedrockagentruntime.RetrieveInput, _ ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.retrieved = in
	return &bedrockagentruntime.RetrieveOutput{RetrievalResults: f.results}, nil
}

func chunk(s string) rttypes.ResponseStream {
	return &rttypes.ResponseStreamMemberChunk{Value: rttypes.PayloadPart{Bytes: []byte(s)}}
}

func TestAskConcatenatesChunks(t *testing.T) {
	rt := &fakeRuntime{stream: &fakeStream{events: []rttypes.ResponseStream{
		chunk("5月1日19時、"),
		&rttypes.ResponseStreamMemberTrace{},
		chunk("2名様で承りました。"),
	}}}

	out, err := New(rt, nil).Ask(context.Background(), AskInput{
		AgentID:           "AG1",
		AliasID:           "TSTALIASID",
		Text:              " 5月1日19時に2人で予約したい ",
		SessionAttributes: map[string]string{"customer": "tanaka"},
	})
	require.NoError(t, err)

	assert.Equal(t, "5月1日19時、2名様で承りました。", out.Text)
	assert.Equal(t, 2, out.Chunks)
	_, err = uuid.Parse(out.SessionID)
	assert.NoError(t, err)
	assert.True(t, rt.stream.closed)

	assert.Equal(t, "5月1日19時に2人で予約したい", aws.ToString(rt.invoked.InputText))
	assert.Equal(t, out.SessionID, aws.ToString(rt.invoked.SessionId))
	require.NotNil(t, rt.invoked.SessionState)
	assert.Equal(t, "tanaka", rt.invoked.SessionState.SessionAttributes["customer"])
}

func TestAskKeepsSession(t *testing.T) {
	rt := &fakeRuntime{stream: &fakeStream{events: []rttypes.ResponseStream{chunk("はい")}}}

	out, err := New(rt, nil).Ask(context.Background(), AskInput{AgentID: "AG1", AliasID: "TSTALIASID", SessionID: "s-1", Text: "おすすめは?"})
	require.NoError(t, err)
	assert.Equal(t, "s-1", out.SessionID)
	assert.Nil(t, rt.invoked.SessionState)
}

func TestAskErrors(t *testing.T) {
	c := New(&fakeRuntime{stream: &fakeStream{}}, nil)
	_, err := c.Ask(context.Background(), AskInput{AgentID: "AG1", AliasID: "A", Text: "  "})
	assert.Error(t, err)
	_, err = c.Ask(context.Background(), AskInput{Text: "hi"})
	assert.Error(t, err)

	boom := errors.New("access denied")
	_, err = New(&fakeRuntime{err: boom}, nil).Ask(context.Background(), AskInput{AgentID: "AG1", AliasID: "A", Text: "hi"})
	assert.ErrorIs(t, err, boom)

	streamErr := errors.New("connection reset")
	_, err = New(&fakeRuntime{stream: &fakeStream{err: streamErr}}, nil).Ask(context.Background(), AskInput{AgentID: "AG1", AliasID: "A", Text: "hi"})
	assert.ErrorIs(t, err, streamErr)
}

func TestRetrieve(t *testing.T) {
	rt := &fakeRuntime{results: []rttypes.KnowledgeBaseRetrievalResult{
		{
			Content: &rttypes.RetrievalResultContent{Text: aws.String("焼き鳥盛り合わせ 980円")},
			Score:   aws.Float64(0.82),
			Location: &rttypes.RetrievalResultLocation{
				S3Location: &rttypes.RetrievalResultS3Location{Uri: aws.String("s3://agent-izakaya-123456789012/izakaya_menu.txt")},
			},
		},
		{Content: &rttypes.RetrievalResultContent{Text: aws.String("営業時間は17時から")}},
	}}

	got, err := New(rt, nil).Retrieve(context.Background(), "KB1", "焼き鳥", 0)
	require.NoError(t, err)
	assert.Equal(t, []Passage{
		{Text: "焼き鳥盛り合わせ 980円", Score: 0.82, URI: "s3://agent-izakaya-123456789012/izakaya_menu.txt"},
		{Text: "営業時間は17時から"},
	}, got)
	assert.Equal(t, int32(5), aws.ToInt32(rt.retrieved.RetrievalConfiguration.VectorSearchConfiguration.NumberOfResults))

	_, err = New(rt, nil).Retrieve(context.Background(), "KB1", "", 3)
	assert.Error(t, err)
}
