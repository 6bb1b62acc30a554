// Package rest implements the HTTP+JSON REST wire transport for the
// engine in server/, the way server/transport/transport.go registers
// one http.ServeMux handler per route and authenticates each request
// the same way regardless of path.
package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server"
	"go.uber.org/zap"
)

// Handler adapts a server.DefaultRequestHandler to net/http as the
// HTTP+REST transport described in the routes table.
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

// WithUserBuilder resolves the authenticated User for each request.
func WithUserBuilder(builder a2a.UserBuilder) Option {
	return func(h *Handler) { h.userBuilder = builder }
}

// NewHandler wraps rh as an http.Handler speaking the REST transport.
func NewHandler(rh *server.DefaultRequestHandler, opts ...Option) *Handler {
	h := &Handler{handler: rh, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires every §4.6 route onto mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/card", h.handleGetCard)
	mux.HandleFunc("POST /v1/message:send", h.handleMessageSend)
	mux.HandleFunc("POST /v1/message:stream", h.handleMessageStream)
	mux.HandleFunc("GET /v1/tasks/{taskId}", h.handleGetTask)
	mux.HandleFunc("POST /v1/tasks/{taskId}:cancel", h.handleCancelTask)
	mux.HandleFunc("POST /v1/tasks/{taskId}:subscribe", h.handleSubscribe)
	mux.HandleFunc("POST /v1/tasks/{taskId}/pushNotificationConfigs", h.handleCreatePushConfig)
	mux.HandleFunc("GET /v1/tasks/{taskId}/pushNotificationConfigs", h.handleListPushConfigs)
	mux.HandleFunc("GET /v1/tasks/{taskId}/pushNotificationConfigs/{configId}", h.handleGetPushConfig)
	mux.HandleFunc("DELETE /v1/tasks/{taskId}/pushNotificationConfigs/{configId}", h.handleDeletePushConfig)
	h.logger.Info("registered REST routes")
}

func (h *Handler) handleGetCard(w http.ResponseWriter, r *http.Request) {
	call := h.buildCallContext(w, r)
	if call == nil {
		return
	}
	card, err := h.handler.GetAuthenticatedExtendedAgentCard(r.Context(), call)
	if err != nil {
		h.writeError(w, call, err)
		return
	}
	h.writeJSON(w, call, http.StatusOK, card)
}

func (h *Handler) handleMessageSend(w http.ResponseWriter, r *http.Request) {
	call := h.buildCallContext(w, r)
	if call == nil {
		return
	}
	var params a2a.MessageSendParams
	if !h.decodeBody(w, call, r, &params) {
		return
	}
	result, err := h.handler.SendMessage(r.Context(), call, params)
	if err != nil {
		h.writeError(w, call, err)
		return
	}
	h.writeJSON(w, call, http.StatusCreated, result)
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	call := h.buildCallContext(w, r)
	if call == nil {
		return
	}
	params := a2a.TaskQueryParams{ID: r.PathValue("taskId")}
	if raw := r.URL.Query().Get("historyLength"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, call, a2a.NewInvalidParamsError("historyLength must be an integer"))
			return
		}
		params.HistoryLength = &n
	}
	task, err := h.handler.GetTask(r.Context(), params)
	if err != nil {
		h.writeError(w, call, err)
		return
	}
	h.writeJSON(w, call, http.StatusOK, task)
}

func (h *Handler) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	call := h.buildCallContext(w, r)
	if call == nil {
		return
	}
	task, err := h.handler.CancelTask(r.Context(), a2a.TaskIDParams{ID: r.PathValue("taskId")})
	if err != nil {
		h.writeError(w, call, err)
		return
	}
	h.writeJSON(w, call, http.StatusAccepted, task)
}

func (h *Handler) handleCreatePushConfig(w http.ResponseWriter, r *http.Request) {
	call := h.buildCallContext(w, r)
	if call == nil {
		return
	}
	var config a2a.PushNotificationConfig
	if !h.decodeBody(w, call, r, &config) {
		return
	}
	result, err := h.handler.SetTaskPushNotificationConfig(r.Context(), r.PathValue("taskId"), config)
	if err != nil {
		h.writeError(w, call, err)
		return
	}
	h.writeJSON(w, call, http.StatusCreated, result)
}

func (h *Handler) handleGetPushConfig(w http.ResponseWriter, r *http.Request) {
	call := h.buildCallContext(w, r)
	if call == nil {
		return
	}
	params := a2a.GetTaskPushNotificationConfigParams{ID: r.PathValue("taskId"), ConfigID: r.PathValue("configId")}
	result, err := h.handler.GetTaskPushNotificationConfig(r.Context(), params)
	if err != nil {
		h.writeError(w, call, err)
		return
	}
	h.writeJSON(w, call, http.StatusOK, result)
}

func (h *Handler) handleListPushConfigs(w http.ResponseWriter, r *http.Request) {
	call := h.buildCallContext(w, r)
	if call == nil {
		return
	}
	result, err := h.handler.ListTaskPushNotificationConfig(r.Context(), a2a.ListTaskPushNotificationConfigParams{ID: r.PathValue("taskId")})
	if err != nil {
		h.writeError(w, call, err)
		return
	}
	h.writeJSON(w, call, http.StatusOK, result)
}

func (h *Handler) handleDeletePushConfig(w http.ResponseWriter, r *http.Request) {
	call := h.buildCallContext(w, r)
	if call == nil {
		return
	}
	params := a2a.DeleteTaskPushNotificationConfigParams{ID: r.PathValue("taskId"), ConfigID: r.PathValue("configId")}
	if err := h.handler.DeleteTaskPushNotificationConfig(r.Context(), params); err != nil {
		h.writeError(w, call, err)
		return
	}
	h.setExtensionsHeader(w, call)
	w.WriteHeader(http.StatusNoContent)
}

// buildCallContext resolves the caller's identity and requested
// extensions. On a UserBuilder failure it writes a 500 itself and
// returns nil, signalling the caller to stop processing.
func (h *Handler) buildCallContext(w http.ResponseWriter, r *http.Request) *a2a.ServerCallContext {
	var user a2a.User
	if h.userBuilder != nil {
		resolved, err := h.userBuilder(a2a.RequestMetadata{Headers: map[string][]string(r.Header), Remote: r.RemoteAddr})
		if err != nil {
			h.writeError(w, a2a.NewServerCallContext(nil, nil), a2a.NewInternalError(err.Error()))
			return nil
		}
		user = resolved
	}
	requested := parseExtensionsHeader(r.Header.Get("X-A2A-Extensions"))
	return a2a.NewServerCallContext(user, requested)
}

// decodeBody reads and JSON-decodes the request body into target after
// normalizing snake_case keys to camelCase, per §4.6's dual-case rule.
func (h *Handler) decodeBody(w http.ResponseWriter, call *a2a.ServerCallContext, r *http.Request, target interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, call, a2a.NewParseError(err.Error()))
		return false
	}
	defer r.Body.Close()
	if len(body) == 0 {
		return true
	}
	normalized, err := normalizeKeys(body)
	if err != nil {
		h.writeError(w, call, a2a.NewParseError(err.Error()))
		return false
	}
	if err := json.Unmarshal(normalized, target); err != nil {
		h.writeError(w, call, a2a.NewParseError(err.Error()))
		return false
	}
	return true
}

func (h *Handler) setExtensionsHeader(w http.ResponseWriter, call *a2a.ServerCallContext) {
	if activated := call.ActivatedExtensionsList(); len(activated) > 0 {
		for _, ext := range activated {
			w.Header().Add("X-A2A-Extensions", ext)
		}
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, call *a2a.ServerCallContext, status int, body interface{}) {
	h.setExtensionsHeader(w, call)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, call *a2a.ServerCallContext, err error) {
	rpcErr := a2a.AsJSONRPCError(err)
	status := a2a.CodeToHTTPStatus(rpcErr.Code)
	if call != nil {
		h.setExtensionsHeader(w, call)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rpcErr)
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

var errStreamingUnsupported = errors.New("streaming unsupported by this response writer")
