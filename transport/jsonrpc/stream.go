package jsonrpc

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gate4ai/a2a/a2a"
	"go.uber.org/zap"
)

func (h *Handler) handleMessageStream(w http.ResponseWriter, r *http.Request, req *a2a.JSONRPCRequest, call *a2a.ServerCallContext) {
	var params a2a.MessageSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.writeError(w, req.ID, a2a.NewInvalidParamsError(err.Error()))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, req.ID, a2a.NewInternalError("streaming unsupported by this response writer"))
		return
	}

	headersSent := false
	err := h.handler.SendMessageStream(r.Context(), call, params, func(event a2a.Event) error {
		if !headersSent {
			h.startSSE(w)
			headersSent = true
		}
		return writeSSEEvent(w, flusher, req.ID, event)
	})
	h.finishStream(w, flusher, req.ID, headersSent, err)
}

func (h *Handler) handleResubscribe(w http.ResponseWriter, r *http.Request, req *a2a.JSONRPCRequest) {
	var params a2a.TaskQueryParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.writeError(w, req.ID, a2a.NewInvalidParamsError(err.Error()))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, req.ID, a2a.NewInternalError("streaming unsupported by this response writer"))
		return
	}

	headersSent := false
	err := h.handler.Resubscribe(r.Context(), params, func(event a2a.Event) error {
		if !headersSent {
			h.startSSE(w)
			headersSent = true
		}
		return writeSSEEvent(w, flusher, req.ID, event)
	})
	h.finishStream(w, flusher, req.ID, headersSent, err)
}

func (h *Handler) startSSE(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

// writeSSEEvent wraps event in a JSON-RPC response carrying the original
// request id and emits it as one `data:` line.
func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, id a2a.RequestID, event a2a.Event) error {
	resp, err := a2a.NewJSONRPCResultResponse(id, event)
	if err != nil {
		return err
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// finishStream emits a trailing `event: error` frame for a failure that
// occurred after headers were already flushed; a failure before the
// first event is instead reported as a normal unary JSON-RPC error.
func (h *Handler) finishStream(w http.ResponseWriter, flusher http.Flusher, id a2a.RequestID, headersSent bool, err error) {
	if err == nil {
		return
	}
	rpcErr := a2a.AsJSONRPCError(err)
	if !headersSent {
		h.writeError(w, id, rpcErr)
		return
	}
	h.logger.Warn("stream terminated with error after headers were flushed", zap.Error(err))
	resp := a2a.NewJSONRPCErrorResponse(id, rpcErr)
	data, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		return
	}
	fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
	flusher.Flush()
}
