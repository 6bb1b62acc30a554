package server

import (
	"context"

	"github.com/gate4ai/a2a/a2a"
	"go.uber.org/zap"
)

// SendMessage implements message/send: blocking by default, or
// non-blocking when params.Configuration.Blocking is explicitly false.
func (h *DefaultRequestHandler) SendMessage(ctx context.Context, call *a2a.ServerCallContext, params a2a.MessageSendParams) (a2a.SendMessageResult, error) {
	reqCtx, err := h.buildRequestContext(ctx, call, params)
	if err != nil {
		return nil, err
	}
	_, rm, queue := h.startExecution(ctx, reqCtx)

	if params.Configuration.IsBlocking() {
		defer queue.Stop()
		if err := h.drainIntoResultManager(ctx, queue, rm, nil); err != nil {
			return nil, err
		}
		result, err := rm.GetFinalResult()
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, a2a.NewInternalError("agent executor produced no result")
		}
		return asSendMessageResult(result)
	}

	firstResult := make(chan a2a.Event, 1)
	go func() {
		defer queue.Stop()
		if err := h.drainIntoResultManager(ctx, queue, rm, firstResult); err != nil {
			h.logger.Error("background event processing loop failed", zap.Error(err))
		}
		close(firstResult)
	}()

	select {
	case result, ok := <-firstResult:
		if !ok {
			return nil, a2a.NewInternalError("agent executor produced no result")
		}
		return asSendMessageResult(result)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func asSendMessageResult(event a2a.Event) (a2a.SendMessageResult, error) {
	switch v := event.(type) {
	case *a2a.Message:
		return v, nil
	case *a2a.Task:
		return v, nil
	default:
		return nil, a2a.NewInternalError("unexpected fold result type")
	}
}

// SendMessageStream implements message/stream: same request-context
// setup as SendMessage, but yield is called once per event in
// publication order while a second internal queue independently drives
// the ResultManager and push-notification fan-out. The stream ends when
// the bus finishes or yield returns an error (e.g. the client
// disconnected).
func (h *DefaultRequestHandler) SendMessageStream(ctx context.Context, call *a2a.ServerCallContext, params a2a.MessageSendParams, yield func(a2a.Event) error) error {
	if !h.agentCard.Capabilities.Streaming {
		return a2a.NewUnsupportedOperationError("message/stream")
	}
	reqCtx, err := h.buildRequestContext(ctx, call, params)
	if err != nil {
		return err
	}
	bus, rm, persistQueue := h.startExecution(ctx, reqCtx)
	go func() {
		defer persistQueue.Stop()
		if err := h.drainIntoResultManager(ctx, persistQueue, rm, nil); err != nil {
			h.logger.Error("background persistence loop failed", zap.Error(err))
		}
	}()

	streamQueue := bus.Attach()
	defer streamQueue.Stop()
	for {
		event, ok, err := streamQueue.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := yield(event); err != nil {
			return err
		}
	}
}
