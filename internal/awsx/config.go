package awsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
)

type Options struct {
	Region  string
	Profile string
	// Tracing records every SDK call as an X-Ray subsegment.
	Tracing bool
}

// LoadConfig resolves credentials the usual way (env, profile, role).
func LoadConfig(ctx context.Context, opt Options) (aws.Config, error) {
	var optFns []func(*config.LoadOptions) error
	if r := strings.TrimSpace(opt.Region); r != "" {
		optFns = append(optFns, config.WithRegion(r))
	}
	if p := strings.TrimSpace(opt.Profile); p != "" {
		optFns = append(optFns, config.WithSharedConfigProfile(p))
	}

	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region == "" {
		return aws.Config{}, fmt.Errorf("load aws config: no region (set AWS_REGION or --region)")
	}
	if opt.Tracing {
		awsv2.AWSV2Instrumentor(&cfg.APIOptions)
	}
	return cfg, nil
}
