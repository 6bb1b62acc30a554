package jsonrpc

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gate4ai/a2a/a2a"
)

func (h *Handler) handleMessageSend(ctx context.Context, w http.ResponseWriter, req *a2a.JSONRPCRequest, call *a2a.ServerCallContext) {
	var params a2a.MessageSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.writeError(w, req.ID, a2a.NewInvalidParamsError(err.Error()))
		return
	}
	result, err := h.handler.SendMessage(ctx, call, params)
	if err != nil {
		h.writeError(w, req.ID, a2a.AsJSONRPCError(err))
		return
	}
	h.writeResult(w, req.ID, result)
}

func (h *Handler) handleTasksGet(ctx context.Context, w http.ResponseWriter, req *a2a.JSONRPCRequest) {
	var params a2a.TaskQueryParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.writeError(w, req.ID, a2a.NewInvalidParamsError(err.Error()))
		return
	}
	task, err := h.handler.GetTask(ctx, params)
	if err != nil {
		h.writeError(w, req.ID, a2a.AsJSONRPCError(err))
		return
	}
	h.writeResult(w, req.ID, task)
}

func (h *Handler) handleTasksCancel(ctx context.Context, w http.ResponseWriter, req *a2a.JSONRPCRequest) {
	var params a2a.TaskIDParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.writeError(w, req.ID, a2a.NewInvalidParamsError(err.Error()))
		return
	}
	task, err := h.handler.CancelTask(ctx, params)
	if err != nil {
		h.writeError(w, req.ID, a2a.AsJSONRPCError(err))
		return
	}
	h.writeResult(w, req.ID, task)
}

func (h *Handler) handlePushConfigSet(ctx context.Context, w http.ResponseWriter, req *a2a.JSONRPCRequest) {
	var params a2a.TaskPushNotificationConfig
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.writeError(w, req.ID, a2a.NewInvalidParamsError(err.Error()))
		return
	}
	result, err := h.handler.SetTaskPushNotificationConfig(ctx, params.TaskID, params.Config)
	if err != nil {
		h.writeError(w, req.ID, a2a.AsJSONRPCError(err))
		return
	}
	h.writeResult(w, req.ID, result)
}

func (h *Handler) handlePushConfigGet(ctx context.Context, w http.ResponseWriter, req *a2a.JSONRPCRequest) {
	var params a2a.GetTaskPushNotificationConfigParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.writeError(w, req.ID, a2a.NewInvalidParamsError(err.Error()))
		return
	}
	result, err := h.handler.GetTaskPushNotificationConfig(ctx, params)
	if err != nil {
		h.writeError(w, req.ID, a2a.AsJSONRPCError(err))
		return
	}
	h.writeResult(w, req.ID, result)
}

func (h *Handler) handlePushConfigList(ctx context.Context, w http.ResponseWriter, req *a2a.JSONRPCRequest) {
	var params a2a.ListTaskPushNotificationConfigParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.writeError(w, req.ID, a2a.NewInvalidParamsError(err.Error()))
		return
	}
	result, err := h.handler.ListTaskPushNotificationConfig(ctx, params)
	if err != nil {
		h.writeError(w, req.ID, a2a.AsJSONRPCError(err))
		return
	}
	h.writeResult(w, req.ID, result)
}

func (h *Handler) handlePushConfigDelete(ctx context.Context, w http.ResponseWriter, req *a2a.JSONRPCRequest) {
	var params a2a.DeleteTaskPushNotificationConfigParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.writeError(w, req.ID, a2a.NewInvalidParamsError(err.Error()))
		return
	}
	if err := h.handler.DeleteTaskPushNotificationConfig(ctx, params); err != nil {
		h.writeError(w, req.ID, a2a.AsJSONRPCError(err))
		return
	}
	h.writeResult(w, req.ID, struct{}{})
}

func (h *Handler) handleGetExtendedCard(ctx context.Context, w http.ResponseWriter, req *a2a.JSONRPCRequest, call *a2a.ServerCallContext) {
	card, err := h.handler.GetAuthenticatedExtendedAgentCard(ctx, call)
	if err != nil {
		h.writeError(w, req.ID, a2a.AsJSONRPCError(err))
		return
	}
	h.writeResult(w, req.ID, card)
}
