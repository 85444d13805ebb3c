package handlers

import (
	"context"

	"github.com/aws/aws-xray-sdk-go/xray"
	"go.uber.org/zap"

	"izakaya/internal/agentapi"
	"izakaya/internal/reservation"
)

// ReplyOK is what the reserve function answers, whatever it was given.
const ReplyOK = "OK"

type ReserveHandler struct {
	log     *zap.Logger
	tracing bool
}

func NewReserveHandler(log *zap.Logger, tracing bool) *ReserveHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReserveHandler{log: log, tracing: tracing}
}

// Handle is the action group executor for reservationActionGroup/reserve.
// It never returns an error: the agent always gets "OK" back.
func (h *ReserveHandler) Handle(ctx context.Context, ev agentapi.FunctionEvent) (agentapi.FunctionResponse, error) {
	params := h.extract(ctx, ev.Parameters)

	h.log.Info("reservation requested",
		zap.String("date", params.Date),
		zap.String("hour", params.Hour),
		zap.String("numberOfPeople", params.NumberOfPeople),
		zap.String("actionGroup", ev.ActionGroup),
		zap.String("function", ev.Function),
		zap.String("sessionId", ev.SessionID),
	)

	// The reply stays "OK" even when the agent left required fields out.
	if missing := params.Missing(); len(missing) > 0 {
		h.log.Warn("reservation is missing fields", zap.Strings("missing", missing))
	}

	return agentapi.NewTextResponse(ev, ReplyOK), nil
}

func (h *ReserveHandler) extract(ctx context.Context, in []reservation.Parameter) reservation.Params {
	if !h.tracing {
		return reservation.Extract(in)
	}

	var params reservation.Params
	err := xray.Capture(ctx, "extract-reservation", func(ctx context.Context) error {
		params = reservation.Extract(in)
		return xray.AddMetadata(ctx, "parameters", len(in))
	})
	if err != nil {
		h.log.Debug("xray capture failed", zap.Error(err))
	}
	return params
}
