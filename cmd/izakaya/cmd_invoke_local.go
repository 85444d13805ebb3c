package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"izakaya/internal/agentapi"
	"izakaya/internal/handlers"
	"izakaya/internal/reservation"
)

var (
	localDate   string
	localHour   string
	localPeople string
	localEvent  bool
)

var invokeLocalCmd = &cobra.Command{
	Use:   "invoke-local",
	Short: "Run the reservation function locally on a synthesized agent event",
	Long: `Builds the event Bedrock would send for reservationActionGroup/reserve and
prints the function's response. Flags left unset are omitted from the
parameter list, as the agent would do.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ev := localFunctionEvent(cmd)
		if localEvent {
			if err := printJSON(cmd, ev); err != nil {
				return err
			}
		}

		resp, err := handlers.NewReserveHandler(logger, tracing).Handle(cmd.Context(), ev)
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	},
}

func init() {
	invokeLocalCmd.Flags().StringVar(&localDate, "date", "", "reservation date")
	invokeLocalCmd.Flags().StringVar(&localHour, "hour", "", "reservation hour")
	invokeLocalCmd.Flags().StringVar(&localPeople, "people", "", "number of people")
	invokeLocalCmd.Flags().BoolVar(&localEvent, "print-event", false, "print the event before the response")
}

func localFunctionEvent(cmd *cobra.Command) agentapi.FunctionEvent {
	var params []reservation.Parameter
	add := func(flag, name, typ, value string) {
		if cmd.Flags().Changed(flag) {
			params = append(params, reservation.Parameter{Name: name, Type: typ, Value: value})
		}
	}
	add("date", reservation.KeyDate, "string", localDate)
	add("hour", reservation.KeyHour, "integer", localHour)
	add("people", reservation.KeyNumberOfPeople, "integer", localPeople)

	return agentapi.FunctionEvent{
		MessageVersion:          agentapi.MessageVersion,
		Agent:                   agentapi.Agent{Name: "agent-izakaya", ID: "LOCAL", Alias: "TSTALIASID", Version: "DRAFT"},
		SessionID:               uuid.NewString(),
		ActionGroup:             reservation.ActionGroupName,
		Function:                reservation.FunctionName,
		Parameters:              params,
		SessionAttributes:       map[string]string{},
		PromptSessionAttributes: map[string]string{},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
