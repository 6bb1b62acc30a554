package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gate4ai/a2a/a2a"
	"go.uber.org/zap"
)

func (h *Handler) handleMessageStream(w http.ResponseWriter, r *http.Request) {
	call := h.buildCallContext(w, r)
	if call == nil {
		return
	}
	var params a2a.MessageSendParams
	if !h.decodeBody(w, call, r, &params) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, call, a2a.NewInternalError(errStreamingUnsupported.Error()))
		return
	}

	headersSent := false
	err := h.handler.SendMessageStream(r.Context(), call, params, func(event a2a.Event) error {
		if !headersSent {
			h.startSSE(w, call)
			headersSent = true
		}
		return writeSSEEvent(w, flusher, event)
	})
	h.finishStream(w, call, flusher, headersSent, err)
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	call := h.buildCallContext(w, r)
	if call == nil {
		return
	}
	params := a2a.TaskQueryParams{ID: r.PathValue("taskId")}
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, call, a2a.NewInternalError(errStreamingUnsupported.Error()))
		return
	}

	headersSent := false
	err := h.handler.Resubscribe(r.Context(), params, func(event a2a.Event) error {
		if !headersSent {
			h.startSSE(w, call)
			headersSent = true
		}
		return writeSSEEvent(w, flusher, event)
	})
	h.finishStream(w, call, flusher, headersSent, err)
}

func (h *Handler) startSSE(w http.ResponseWriter, call *a2a.ServerCallContext) {
	h.setExtensionsHeader(w, call)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

// writeSSEEvent emits the bare event as one `data:` line, unlike the
// JSON-RPC transport which wraps every frame in the original request id.
func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event a2a.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// finishStream mirrors the JSON-RPC transport's rule: a failure before
// the first event still produces a normal HTTP error status; a failure
// after headers are flushed is reported as a trailing `event: error`
// frame since the status line has already gone out as 200.
func (h *Handler) finishStream(w http.ResponseWriter, call *a2a.ServerCallContext, flusher http.Flusher, headersSent bool, err error) {
	if err == nil {
		return
	}
	if !headersSent {
		h.writeError(w, call, err)
		return
	}
	h.logger.Warn("stream terminated with error after headers were flushed", zap.Error(err))
	rpcErr := a2a.AsJSONRPCError(err)
	data, marshalErr := json.Marshal(rpcErr)
	if marshalErr != nil {
		return
	}
	fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
	flusher.Flush()
}
