package stack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/jsii-runtime-go"

	"izakaya/internal/config"
)

// contextReader is the part of constructs.Node the stack reads context from.
type contextReader interface {
	TryGetContext(key *string) interface{}
}

// resolveSettings overlays `cdk -c key=value` and cdk.json context on s.
func resolveSettings(node contextReader, s config.Settings) config.Settings {
	overrideString(node, "embeddingModel", &s.EmbeddingModel)
	overrideString(node, "foundationModel", &s.FoundationModel)
	overrideString(node, "pineconeEndpoint", &s.PineconeEndpoint)
	overrideString(node, "pineconeSecretArn", &s.PineconeSecretArn)
	overrideString(node, "instructionFile", &s.InstructionFile)
	overrideString(node, "functionAssetDir", &s.FunctionAssetDir)
	overrideString(node, "parameterPrefix", &s.ParameterPrefix)
	overrideString(node, "logLevel", &s.LogLevel)

	if v, ok := contextString(node, "tracing"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Tracing = b
		}
	}
	s.ApplyDefaults()
	return s
}

func overrideString(node contextReader, key string, dst *string) {
	if v, ok := contextString(node, key); ok {
		*dst = v
	}
}

// contextString returns the context value for key. Values passed with -c
// arrive as strings; cdk.json may hold booleans.
func contextString(node contextReader, key string) (string, bool) {
	raw := node.TryGetContext(jsii.String(key))
	if raw == nil {
		return "", false
	}
	var v string
	switch t := raw.(type) {
	case string:
		v = t
	case *string:
		if t == nil {
			return "", false
		}
		v = *t
	default:
		v = fmt.Sprint(t)
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
