package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"izakaya/internal/agentclient"
)

var (
	sessionID   string
	aliasID     string
	numResults  int
	sessionAttr map[string]string
)

var askCmd = &cobra.Command{
	Use:   "ask [text]",
	Short: "Send one message to the agent and print its answer",
	Long: `Invokes the deployed agent. Pass --session to continue a conversation;
the session id is printed on stderr after every answer.

Example:
  izakaya ask "5月1日の19時に4人で予約できますか"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadAWS(ctx)
		if err != nil {
			return err
		}
		outs, err := loadOutputs(ctx, cfg)
		if err != nil {
			return err
		}

		alias := aliasID
		if alias == "" {
			alias = settings.AgentAliasID
		}
		res, err := agentclient.NewFromConfig(cfg, logger).Ask(ctx, agentclient.AskInput{
			AgentID:           outs.AgentID,
			AliasID:           alias,
			SessionID:         sessionID,
			Text:              strings.Join(args, " "),
			SessionAttributes: sessionAttr,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		fmt.Fprintf(cmd.ErrOrStderr(), "session: %s\n", res.SessionID)
		return nil
	},
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Search the knowledge base directly",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadAWS(ctx)
		if err != nil {
			return err
		}
		outs, err := loadOutputs(ctx, cfg)
		if err != nil {
			return err
		}

		passages, err := agentclient.NewFromConfig(cfg, logger).Retrieve(ctx, outs.KnowledgeBaseID, strings.Join(args, " "), numResults)
		if err != nil {
			return err
		}
		if len(passages) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no results")
			return nil
		}
		for i, p := range passages {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. [%.3f] %s\n%s\n\n", i+1, p.Score, p.URI, p.Text)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&sessionID, "session", "", "session id to continue")
	askCmd.Flags().StringVar(&aliasID, "alias", "", "agent alias id (default TSTALIASID, the draft alias)")
	askCmd.Flags().StringToStringVar(&sessionAttr, "attr", nil, "session attributes, key=value")
	retrieveCmd.Flags().IntVarP(&numResults, "results", "n", 5, "number of passages")
}
