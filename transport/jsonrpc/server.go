// Package jsonrpc implements the JSON-RPC 2.0 wire transport for the
// engine in server/, the way server/transport/handle-a2a-POST.go maps
// one HTTP POST onto one JSON-RPC request/response pair, including its
// SSE framing for streaming methods.
package jsonrpc

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server"
	"go.uber.org/zap"
)

// Methods recognized on the JSON-RPC endpoint.
const (
	MethodMessageSend                  = "message/send"
	MethodMessageStream                = "message/stream"
	MethodTasksGet                     = "tasks/get"
	MethodTasksCancel                  = "tasks/cancel"
	MethodTasksResubscribe             = "tasks/resubscribe"
	MethodPushConfigSet                = "tasks/pushNotificationConfig/set"
	MethodPushConfigGet                = "tasks/pushNotificationConfig/get"
	MethodPushConfigList               = "tasks/pushNotificationConfig/list"
	MethodPushConfigDelete             = "tasks/pushNotificationConfig/delete"
	MethodGetAuthenticatedExtendedCard = "agent/getAuthenticatedExtendedCard"
)

// Handler adapts a server.DefaultRequestHandler to net/http as the
// JSON-RPC 2.0 transport.
type Handler struct {
	handler     *server.DefaultRequestHandler
	logger      *zap.Logger
	userBuilder a2a.UserBuilder
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger attaches a logger. The zero value is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithUserBuilder resolves the authenticated User for each request,
// mirroring server/transport/authentication.go's per-request identity
// resolution.
func WithUserBuilder(builder a2a.UserBuilder) Option {
	return func(h *Handler) { h.userBuilder = builder }
}

// NewHandler wraps rh as an http.Handler speaking JSON-RPC 2.0.
func NewHandler(rh *server.DefaultRequestHandler, opts ...Option) *Handler {
	h := &Handler{handler: rh, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, a2a.NullRequestID(), a2a.NewParseError(err.Error()))
		return
	}
	defer r.Body.Close()

	req, id, rpcErr := decodeRequest(body)
	if rpcErr != nil {
		h.writeError(w, id, rpcErr)
		return
	}

	call, rpcErr := h.buildCallContext(r)
	if rpcErr != nil {
		h.writeError(w, req.ID, rpcErr)
		return
	}

	ctx := r.Context()
	switch req.Method {
	case MethodMessageSend:
		h.handleMessageSend(ctx, w, req, call)
	case MethodMessageStream:
		h.handleMessageStream(w, r, req, call)
	case MethodTasksGet:
		h.handleTasksGet(ctx, w, req)
	case MethodTasksCancel:
		h.handleTasksCancel(ctx, w, req)
	case MethodTasksResubscribe:
		h.handleResubscribe(w, r, req)
	case MethodPushConfigSet:
		h.handlePushConfigSet(ctx, w, req)
	case MethodPushConfigGet:
		h.handlePushConfigGet(ctx, w, req)
	case MethodPushConfigList:
		h.handlePushConfigList(ctx, w, req)
	case MethodPushConfigDelete:
		h.handlePushConfigDelete(ctx, w, req)
	case MethodGetAuthenticatedExtendedCard:
		h.handleGetExtendedCard(ctx, w, req, call)
	default:
		h.writeError(w, req.ID, a2a.NewMethodNotFoundError(req.Method))
	}
}

func decodeRequest(body []byte) (*a2a.JSONRPCRequest, a2a.RequestID, *a2a.JSONRPCError) {
	var req a2a.JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, a2a.NullRequestID(), a2a.NewParseError(err.Error())
	}
	if req.JSONRPC != a2a.JSONRPCVersion {
		return nil, req.ID, a2a.NewInvalidRequestError("jsonrpc must be \"2.0\"")
	}
	if req.Method == "" {
		return nil, req.ID, a2a.NewInvalidRequestError("method is required")
	}
	if len(req.Params) > 0 {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(req.Params, &probe); err != nil {
			return nil, req.ID, a2a.NewInvalidParamsError("params must be an object")
		}
		if probe == nil {
			return nil, req.ID, a2a.NewInvalidParamsError("params must not be null")
		}
		for k := range probe {
			if k == "" {
				return nil, req.ID, a2a.NewInvalidParamsError("params must not contain empty-string keys")
			}
		}
	}
	return &req, req.ID, nil
}

func (h *Handler) buildCallContext(r *http.Request) (*a2a.ServerCallContext, *a2a.JSONRPCError) {
	var user a2a.User
	if h.userBuilder != nil {
		resolved, err := h.userBuilder(requestMetadata(r))
		if err != nil {
			return nil, a2a.NewInternalError(err.Error())
		}
		user = resolved
	}
	requested := parseExtensionsHeader(r.Header.Get("X-A2A-Extensions"))
	return a2a.NewServerCallContext(user, requested), nil
}

func requestMetadata(r *http.Request) a2a.RequestMetadata {
	return a2a.RequestMetadata{Headers: map[string][]string(r.Header), Remote: r.RemoteAddr}
}

func (h *Handler) writeError(w http.ResponseWriter, id a2a.RequestID, err *a2a.JSONRPCError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(a2a.NewJSONRPCErrorResponse(id, err))
}

func (h *Handler) writeResult(w http.ResponseWriter, id a2a.RequestID, result interface{}) {
	resp, err := a2a.NewJSONRPCResultResponse(id, result)
	if err != nil {
		h.writeError(w, id, a2a.NewInternalError(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func parseExtensionsHeader(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(value); i++ {
		if i == len(value) || value[i] == ',' {
			if tok := trimSpace(value[start:i]); tok != "" {
				out = append(out, tok)
			}
			start = i + 1
		}
	}
	return out
}

func trimSpace(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}
