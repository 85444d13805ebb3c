package stack

import (
	"fmt"
	"os"
	"strconv"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsbedrock"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsssm"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"izakaya/internal/config"
	"izakaya/internal/reservation"
	"izakaya/internal/stackparams"
)

type AgentIzakayaStackProps struct {
	awscdk.StackProps
	// Settings provides defaults; CDK context keys of the same name win.
	Settings config.Settings
}

// NewAgentIzakayaStack declares the Bedrock agent, its Pinecone backed
// knowledge base, the S3 data source and the reservation Lambda.
func NewAgentIzakayaStack(scope constructs.Construct, id string, props *AgentIzakayaStackProps) (awscdk.Stack, error) {
	var sprops awscdk.StackProps
	var settings config.Settings
	if props != nil {
		sprops = props.StackProps
		settings = props.Settings
	}
	stack := awscdk.NewStack(scope, &id, &sprops)

	settings = resolveSettings(stack.Node(), settings)
	if err := settings.ValidateStack(); err != nil {
		return nil, err
	}
	instruction, err := os.ReadFile(settings.InstructionFile)
	if err != nil {
		return nil, fmt.Errorf("read agent instruction: %w", err)
	}

	tag := config.DefaultTag
	bucketName := fmt.Sprintf("%s-%s", tag, *stack.Account())
	functionName := fmt.Sprintf("%s-function", tag)
	embeddingModelArn := fmt.Sprintf("arn:aws:bedrock:%s::foundation-model/%s", *stack.Region(), settings.EmbeddingModel)
	foundationModelArn := fmt.Sprintf("arn:aws:bedrock:%s::foundation-model/%s", *stack.Region(), settings.FoundationModel)

	dataSourceBucket := awss3.NewBucket(stack, jsii.String("DataSourceBucket"), &awss3.BucketProps{
		BucketName:    jsii.String(bucketName),
		RemovalPolicy: awscdk.RemovalPolicy_DESTROY,
	})

	// Knowledge base
	knowledgeBaseRole := awsiam.NewRole(stack, jsii.String("KnowledgeBaseRole"), &awsiam.RoleProps{
		RoleName:  jsii.String(fmt.Sprintf("%s_kb-role", tag)),
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("bedrock.amazonaws.com"), nil),
		InlinePolicies: &map[string]awsiam.PolicyDocument{
			"inlinePolicy1": awsiam.NewPolicyDocument(&awsiam.PolicyDocumentProps{
				Statements: &[]awsiam.PolicyStatement{
					awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
						Resources: jsii.Strings(settings.PineconeSecretArn),
						Actions:   jsii.Strings("secretsmanager:GetSecretValue"),
					}),
					awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
						Resources: jsii.Strings(embeddingModelArn),
						Actions:   jsii.Strings("bedrock:InvokeModel"),
					}),
					awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
						Resources: jsii.Strings(
							fmt.Sprintf("arn:aws:s3:::%s", bucketName),
							fmt.Sprintf("arn:aws:s3:::%s/*", bucketName),
						),
						Actions: jsii.Strings("s3:ListBucket", "s3:GetObject"),
					}),
				},
			}),
		},
	})

	knowledgeBase := awsbedrock.NewCfnKnowledgeBase(stack, jsii.String("KnowledgeBase"), &awsbedrock.CfnKnowledgeBaseProps{
		Name:        jsii.String(tag),
		Description: jsii.String("IZAKAYA knowledge base"),
		RoleArn:     knowledgeBaseRole.RoleArn(),
		KnowledgeBaseConfiguration: &awsbedrock.CfnKnowledgeBase_KnowledgeBaseConfigurationProperty{
			Type: jsii.String("VECTOR"),
			VectorKnowledgeBaseConfiguration: &awsbedrock.CfnKnowledgeBase_VectorKnowledgeBaseConfigurationProperty{
				EmbeddingModelArn: jsii.String(embeddingModelArn),
			},
		},
		StorageConfiguration: &awsbedrock.CfnKnowledgeBase_StorageConfigurationProperty{
			Type: jsii.String("PINECONE"),
			PineconeConfiguration: &awsbedrock.CfnKnowledgeBase_PineconeConfigurationProperty{
				ConnectionString:     jsii.String(settings.PineconeEndpoint),
				CredentialsSecretArn: jsii.String(settings.PineconeSecretArn),
				FieldMapping: &awsbedrock.CfnKnowledgeBase_PineconeFieldMappingProperty{
					MetadataField: jsii.String("metadata"),
					TextField:     jsii.String("text"),
				},
			},
		},
	})

	dataSource := awsbedrock.NewCfnDataSource(stack, jsii.String("BedrockKnowledgeBaseDataStore"), &awsbedrock.CfnDataSourceProps{
		Name:            jsii.String(fmt.Sprintf("%s-data-source", tag)),
		KnowledgeBaseId: knowledgeBase.Ref(),
		DataSourceConfiguration: &awsbedrock.CfnDataSource_DataSourceConfigurationProperty{
			Type: jsii.String("S3"),
			S3Configuration: &awsbedrock.CfnDataSource_S3DataSourceConfigurationProperty{
				BucketArn: dataSourceBucket.BucketArn(),
			},
		},
	})

	// Lambda
	reservationFunctionRole := awsiam.NewRole(stack, jsii.String("LambdaFunctionRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("lambda.amazonaws.com"), nil),
		ManagedPolicies: &[]awsiam.IManagedPolicy{
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("service-role/AWSLambdaBasicExecutionRole")),
		},
	})

	tracing := awslambda.Tracing_DISABLED
	if settings.Tracing {
		tracing = awslambda.Tracing_ACTIVE
	}
	reservationFunction := awslambda.NewFunction(stack, jsii.String("LambdaFunction"), &awslambda.FunctionProps{
		FunctionName: jsii.String(functionName),
		Code:         awslambda.Code_FromAsset(jsii.String(settings.FunctionAssetDir), nil),
		Handler:      jsii.String("bootstrap"),
		Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
		Architecture: awslambda.Architecture_ARM_64(),
		Timeout:      awscdk.Duration_Seconds(jsii.Number(30)),
		Role:         reservationFunctionRole,
		Tracing:      tracing,
		Environment: &map[string]*string{
			"TZ":              jsii.String("Asia/Tokyo"),
			"LOG_LEVEL":       jsii.String(settings.LogLevel),
			"TRACING_ENABLED": jsii.String(strconv.FormatBool(settings.Tracing)),
		},
	})

	// Agent
	agentsRole := awsiam.NewRole(stack, jsii.String("AgentRole"), &awsiam.RoleProps{
		RoleName:  jsii.String(fmt.Sprintf("%s_agents_role", tag)),
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("bedrock.amazonaws.com"), nil),
		InlinePolicies: &map[string]awsiam.PolicyDocument{
			"agentPoliciy": awsiam.NewPolicyDocument(&awsiam.PolicyDocumentProps{
				Statements: &[]awsiam.PolicyStatement{
					awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
						Effect:    awsiam.Effect_ALLOW,
						Actions:   jsii.Strings("bedrock:InvokeModel"),
						Resources: jsii.Strings(foundationModelArn),
					}),
					awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
						Effect:    awsiam.Effect_ALLOW,
						Actions:   jsii.Strings("bedrock:Retrieve"),
						Resources: &[]*string{knowledgeBase.AttrKnowledgeBaseArn()},
					}),
				},
			}),
		},
	})

	agent := awsbedrock.NewCfnAgent(stack, jsii.String("BedrockAgents"), &awsbedrock.CfnAgentProps{
		AgentName:            jsii.String(tag),
		Description:          jsii.String("agent izakaya"),
		AgentResourceRoleArn: agentsRole.RoleArn(),
		FoundationModel:      jsii.String(settings.FoundationModel),
		Instruction:          jsii.String(string(instruction)),
		KnowledgeBases: &[]interface{}{
			&awsbedrock.CfnAgent_AgentKnowledgeBaseProperty{
				Description:        jsii.String("居酒屋案内のナレッジベース"),
				KnowledgeBaseId:    knowledgeBase.Ref(),
				KnowledgeBaseState: jsii.String("ENABLED"),
			},
		},
		ActionGroups: &[]interface{}{
			reservationActionGroup(reservationFunction.FunctionArn()),
		},
	})

	// Only this agent may call the function.
	principal := awsiam.NewServicePrincipal(jsii.String("bedrock.amazonaws.com"), &awsiam.ServicePrincipalOpts{
		Conditions: &map[string]interface{}{
			"ArnLike": map[string]interface{}{
				"aws:SourceArn": agent.AttrAgentArn(),
			},
		},
	})
	reservationFunction.GrantInvoke(principal)

	// Outputs
	for _, file := range settings.DataSourceFiles {
		uploadCommand := fmt.Sprintf("aws s3 cp assets/%s s3://%s/%s", file, bucketName, file)
		awscdk.NewCfnOutput(stack, jsii.String("UploadCommand_"+file), &awscdk.CfnOutputProps{
			Value:       jsii.String(uploadCommand),
			Description: jsii.String("AWS CLI command to upload a file to the S3 bucket"),
		})
	}

	exportParameters(stack, settings.ParameterPrefix, map[string]*string{
		stackparams.KeyBucketName:      dataSourceBucket.BucketName(),
		stackparams.KeyKnowledgeBaseID: knowledgeBase.AttrKnowledgeBaseId(),
		stackparams.KeyDataSourceID:    dataSource.AttrDataSourceId(),
		stackparams.KeyAgentID:         agent.AttrAgentId(),
	})

	return stack, nil
}

func reservationActionGroup(executorArn *string) *awsbedrock.CfnAgent_AgentActionGroupProperty {
	return &awsbedrock.CfnAgent_AgentActionGroupProperty{
		ActionGroupName:  jsii.String(reservation.ActionGroupName),
		Description:      jsii.String("予約API"),
		ActionGroupState: jsii.String("ENABLED"),
		FunctionSchema: &awsbedrock.CfnAgent_FunctionSchemaProperty{
			Functions: &[]interface{}{
				&awsbedrock.CfnAgent_FunctionProperty{
					Name:        jsii.String(reservation.FunctionName),
					Description: jsii.String("予約API"),
					Parameters: &map[string]interface{}{
						reservation.KeyDate: &awsbedrock.CfnAgent_ParameterDetailProperty{
							Type:        jsii.String("string"),
							Description: jsii.String("予約日"),
							Required:    jsii.Bool(true),
						},
						reservation.KeyHour: &awsbedrock.CfnAgent_ParameterDetailProperty{
							Type:        jsii.String("integer"),
							Description: jsii.String("予約時間"),
							Required:    jsii.Bool(true),
						},
						reservation.KeyNumberOfPeople: &awsbedrock.CfnAgent_ParameterDetailProperty{
							Type:        jsii.String("integer"),
							Description: jsii.String("予約人数"),
							Required:    jsii.Bool(true),
						},
					},
				},
			},
		},
		ActionGroupExecutor: &awsbedrock.CfnAgent_ActionGroupExecutorProperty{
			Lambda: executorArn,
		},
	}
}

// exportParameters records resource ids in SSM and as stack outputs so the
// izakaya CLI can find them without parsing CloudFormation.
func exportParameters(stack awscdk.Stack, prefix string, values map[string]*string) {
	for _, key := range stackparams.Keys {
		value := values[key]
		awsssm.NewStringParameter(stack, jsii.String("Param_"+key), &awsssm.StringParameterProps{
			ParameterName: jsii.String(stackparams.Name(prefix, key)),
			StringValue:   value,
		})
		awscdk.NewCfnOutput(stack, jsii.String("Output_"+key), &awscdk.CfnOutputProps{
			Value: value,
		})
	}
}
