package stackparams

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

const (
	KeyBucketName      = "bucketName"
	KeyKnowledgeBaseID = "knowledgeBaseId"
	KeyDataSourceID    = "dataSourceId"
	KeyAgentID         = "agentId"
)

// Keys is every parameter the stack writes, in a stable order.
var Keys = []string{KeyBucketName, KeyKnowledgeBaseID, KeyDataSourceID, KeyAgentID}

var ErrMissingParameter = errors.New("stack parameter not found")

// Name joins prefix and key into an SSM parameter name.
func Name(prefix, key string) string {
	return strings.TrimRight(prefix, "/") + "/" + key
}

// Outputs are the ids the CLI needs to work with a deployed stack.
type Outputs struct {
	BucketName      string
	KnowledgeBaseID string
	DataSourceID    string
	AgentID         string
}

type SSMClient interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

type Store struct {
	ssm SSMClient
}

func NewStore(c SSMClient) *Store {
	return &Store{ssm: c}
}

func NewStoreFromConfig(cfg aws.Config) *Store {
	return NewStore(ssm.NewFromConfig(cfg))
}

// Load reads every parameter under prefix. All of Keys must be present.
func (s *Store) Load(ctx context.Context, prefix string) (Outputs, error) {
	path := strings.TrimRight(prefix, "/")
	if path == "" {
		return Outputs{}, fmt.Errorf("empty parameter prefix")
	}

	values := map[string]string{}
	var nextToken *string
	for {
		out, err := s.ssm.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
			Path:      aws.String(path),
			NextToken: nextToken,
		})
		if err != nil {
			return Outputs{}, fmt.Errorf("ssm GetParametersByPath %s: %w", path, err)
		}
		for _, p := range out.Parameters {
			name := aws.ToString(p.Name)
			values[strings.TrimPrefix(name, path+"/")] = strings.TrimSpace(aws.ToString(p.Value))
		}
		if aws.ToString(out.NextToken) == "" {
			break
		}
		nextToken = out.NextToken
	}

	var missing []string
	for _, k := range Keys {
		if values[k] == "" {
			missing = append(missing, Name(path, k))
		}
	}
	if len(missing) > 0 {
		return Outputs{}, fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(missing, ", "))
	}

	return Outputs{
		BucketName:      values[KeyBucketName],
		KnowledgeBaseID: values[KeyKnowledgeBaseID],
		DataSourceID:    values[KeyDataSourceID],
		AgentID:         values[KeyAgentID],
	}, nil
}
