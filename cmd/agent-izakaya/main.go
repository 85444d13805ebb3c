package main

import (
	"log"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"izakaya/internal/config"
	"izakaya/internal/stack"
)

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)

	// Optional YAML defaults; cdk.json context and -c flags override them.
	settingsFile := ""
	if v, ok := app.Node().TryGetContext(jsii.String("settingsFile")).(string); ok {
		settingsFile = v
	}
	settings, err := config.LoadSettings(settingsFile)
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}

	_, err = stack.NewAgentIzakayaStack(app, "AgentIzakayaStack", &stack.AgentIzakayaStackProps{
		StackProps: awscdk.StackProps{Env: env()},
		Settings:   settings,
	})
	if err != nil {
		log.Fatalf("build stack: %v", err)
	}

	app.Synth(nil)
}

// env pins the stack to the account and region the CDK CLI resolved, so the
// bucket name is concrete at synth time.
func env() *awscdk.Environment {
	account := os.Getenv("CDK_DEFAULT_ACCOUNT")
	region := os.Getenv("CDK_DEFAULT_REGION")
	if account == "" || region == "" {
		return nil
	}
	return &awscdk.Environment{
		Account: jsii.String(account),
		Region:  jsii.String(region),
	}
}
