package agentapi

import "izakaya/internal/reservation"

// MessageVersion is the only response version Bedrock agents accept.
const MessageVersion = "1.0"

type Agent struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Alias   string `json:"alias"`
	Version string `json:"version"`
}

// FunctionEvent is the payload an agent sends to a Lambda executor for an
// action group defined with a function schema.
type FunctionEvent struct {
	MessageVersion          string                  `json:"messageVersion"`
	Agent                   Agent                   `json:"agent"`
	InputText               string                  `json:"inputText"`
	SessionID               string                  `json:"sessionId"`
	ActionGroup             string                  `json:"actionGroup"`
	Function                string                  `json:"function"`
	Parameters              []reservation.Parameter `json:"parameters"`
	SessionAttributes       map[string]string       `json:"sessionAttributes"`
	PromptSessionAttributes map[string]string       `json:"promptSessionAttributes"`
}

// FunctionResponse leaves out session maps the event did not carry; an
// empty but present map is echoed as {}.
type FunctionResponse struct {
	MessageVersion          string            `json:"messageVersion"`
	Response                FunctionResult    `json:"response"`
	SessionAttributes       map[string]string `json:"sessionAttributes,omitzero"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes,omitzero"`
}

type FunctionResult struct {
	ActionGroup      string       `json:"actionGroup"`
	Function         string       `json:"function"`
	FunctionResponse FunctionBody `json:"functionResponse"`
}

type FunctionBody struct {
	ResponseBody ResponseBody `json:"responseBody"`
}

type ResponseBody struct {
	TEXT TextBody `json:"TEXT"`
}

type TextBody struct {
	Body string `json:"body"`
}

// NewTextResponse answers ev with a plain text body. Session attribute maps
// are handed back as-is so the agent keeps its session state.
func NewTextResponse(ev FunctionEvent, body string) FunctionResponse {
	return FunctionResponse{
		MessageVersion: MessageVersion,
		Response: FunctionResult{
			ActionGroup: ev.ActionGroup,
			Function:    ev.Function,
			FunctionResponse: FunctionBody{
				ResponseBody: ResponseBody{TEXT: TextBody{Body: body}},
			},
		},
		SessionAttributes:       ev.SessionAttributes,
		PromptSessionAttributes: ev.PromptSessionAttributes,
	}
}
