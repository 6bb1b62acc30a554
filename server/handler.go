// Package server implements the task lifecycle engine: the
// transport-agnostic DefaultRequestHandler that orchestrates an
// AgentExecutor, its per-task eventbus.Bus, a resultmanager.ResultManager,
// and the pushsender.Sender, the way server/a2a/capability.go orchestrates
// a session's input processor, output channel, and subscription manager
// in the teacher codebase.
package server

import (
	"context"
	"fmt"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server/eventbus"
	"github.com/gate4ai/a2a/server/pushsender"
	"github.com/gate4ai/a2a/server/pushstore"
	"github.com/gate4ai/a2a/server/resultmanager"
	"github.com/gate4ai/a2a/server/taskstore"
	"go.uber.org/zap"
)

// ExtendedAgentCardProvider resolves the authenticated extended
// AgentCard for one call. Returning (nil, nil) tells the handler to fall
// back to the configured static card, if any.
type ExtendedAgentCardProvider func(ctx context.Context, call *a2a.ServerCallContext) (*a2a.AgentCard, error)

// DefaultRequestHandler implements every A2A protocol operation on top
// of one AgentExecutor. It is transport-agnostic: transport/jsonrpc and
// transport/rest both call into the same handler instance.
type DefaultRequestHandler struct {
	logger    *zap.Logger
	agentCard a2a.AgentCard
	executor  AgentExecutor
	taskStore taskstore.Store
	buses     eventbus.Manager

	pushStore  pushstore.Store
	pushSender *pushsender.Sender

	extendedCardProvider ExtendedAgentCardProvider
	extendedCardStatic   *a2a.AgentCard
}

// Option configures a DefaultRequestHandler.
type Option func(*DefaultRequestHandler)

// WithLogger attaches a logger. The zero value is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *DefaultRequestHandler) { h.logger = logger }
}

// WithBusManager overrides the default in-memory eventbus.Manager.
func WithBusManager(m eventbus.Manager) Option {
	return func(h *DefaultRequestHandler) { h.buses = m }
}

// WithPushNotifications enables the pushNotifications capability's
// handler-side plumbing: config storage and delivery. Without this
// option, push-notification config operations fail with
// PushNotificationNotSupported regardless of what the AgentCard claims.
func WithPushNotifications(store pushstore.Store, sender *pushsender.Sender) Option {
	return func(h *DefaultRequestHandler) {
		h.pushStore = store
		h.pushSender = sender
	}
}

// WithExtendedAgentCardProvider configures a callback invoked per-request
// for the authenticated extended card.
func WithExtendedAgentCardProvider(provider ExtendedAgentCardProvider) Option {
	return func(h *DefaultRequestHandler) { h.extendedCardProvider = provider }
}

// WithStaticExtendedAgentCard configures a fixed extended card, returned
// only to authenticated callers.
func WithStaticExtendedAgentCard(card a2a.AgentCard) Option {
	return func(h *DefaultRequestHandler) { h.extendedCardStatic = &card }
}

// NewDefaultRequestHandler wires executor into a handler serving
// agentCard, persisting tasks via taskStore.
func NewDefaultRequestHandler(agentCard a2a.AgentCard, executor AgentExecutor, taskStore taskstore.Store, opts ...Option) *DefaultRequestHandler {
	h := &DefaultRequestHandler{
		logger:    zap.NewNop(),
		agentCard: agentCard,
		executor:  executor,
		taskStore: taskStore,
		buses:     eventbus.NewManager(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// buildRequestContext implements step 2-4 of sendMessage/sendMessageStream:
// loading/validating the prior task, deriving task/context ids, resolving
// references, narrowing extensions, and storing an inline push config.
func (h *DefaultRequestHandler) buildRequestContext(ctx context.Context, call *a2a.ServerCallContext, params a2a.MessageSendParams) (*RequestContext, error) {
	if params.Message.MessageID == "" {
		return nil, a2a.NewInvalidParamsError("message.messageId is required")
	}

	var task *a2a.Task
	var taskID string
	if params.Message.TaskID != nil && *params.Message.TaskID != "" {
		loaded, err := h.taskStore.Load(ctx, *params.Message.TaskID)
		if err != nil {
			return nil, err
		}
		if loaded.Status.State.IsTerminal() {
			return nil, a2a.NewInvalidRequestError(fmt.Sprintf("task %s is in a terminal state", loaded.ID))
		}
		loaded.History = append(loaded.History, params.Message)
		if err := h.taskStore.Save(ctx, loaded); err != nil {
			return nil, err
		}
		task = loaded
		taskID = loaded.ID
	} else {
		taskID = a2a.NewTaskID()
	}

	var contextID string
	switch {
	case params.Message.ContextID != nil && *params.Message.ContextID != "":
		contextID = *params.Message.ContextID
	case task != nil:
		contextID = task.ContextID
	default:
		contextID = a2a.NewContextID()
	}
	params.Message.TaskID = &taskID
	params.Message.ContextID = &contextID

	var refs []*a2a.Task
	for _, refID := range params.Message.ReferenceTaskIDs {
		ref, err := h.taskStore.Load(ctx, refID)
		if err != nil {
			h.logger.Warn("referenced task not found, skipping", zap.String("taskId", refID), zap.Error(err))
			continue
		}
		refs = append(refs, ref)
	}

	call.Activate(h.agentCard.Capabilities.Extensions)

	if params.Configuration != nil && params.Configuration.PushNotificationConfig != nil {
		if !h.agentCard.Capabilities.PushNotifications || h.pushStore == nil {
			return nil, a2a.NewPushNotificationNotSupportedError()
		}
		if _, err := h.pushStore.Save(ctx, taskID, *params.Configuration.PushNotificationConfig); err != nil {
			return nil, err
		}
	}

	return &RequestContext{
		TaskID:         taskID,
		ContextID:      contextID,
		Message:        params.Message,
		Task:           task,
		ReferenceTasks: refs,
		Call:           call,
	}, nil
}

// startExecution acquires the task's bus, seeds a ResultManager from any
// prior task, attaches the ResultManager's own queue, and spawns the
// executor. It returns the bus (for streaming callers to attach their
// own queue to) and the ResultManager's queue/fold loop inputs.
func (h *DefaultRequestHandler) startExecution(ctx context.Context, reqCtx *RequestContext) (eventbus.Bus, *resultmanager.ResultManager, eventbus.Queue) {
	bus := h.buses.CreateOrGetByTaskID(reqCtx.TaskID, eventbus.WithLogger(h.logger))
	rm := resultmanager.New(h.taskStore, h.logger)
	if reqCtx.Task != nil {
		rm.Seed(reqCtx.Task)
	}
	queue := bus.Attach()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.handleExecutorFailure(reqCtx, bus, fmt.Errorf("agent executor panicked: %v", r))
			}
		}()
		if err := h.executor.Execute(ctx, reqCtx, bus); err != nil {
			h.handleExecutorFailure(reqCtx, bus, err)
		}
	}()

	return bus, rm, queue
}

// handleExecutorFailure publishes a synthetic failed status-update and
// finishes the bus, the contract every consumer (ResultManager, stream
// forwarders, resubscribers) relies on to learn that execution ended
// badly rather than hanging forever.
func (h *DefaultRequestHandler) handleExecutorFailure(reqCtx *RequestContext, bus eventbus.Bus, cause error) {
	if bus.IsFinished() {
		return
	}
	h.logger.Error("agent executor failed", zap.Error(cause))
	failureMsg := a2a.Message{
		MessageID: a2a.NewMessageID(),
		Role:      a2a.RoleAgent,
		Parts:     []a2a.Part{a2a.NewTextPart(cause.Error())},
		Kind:      "message",
	}
	bus.Publish(&a2a.TaskStatusUpdateEvent{
		TaskID:    reqCtx.TaskID,
		ContextID: reqCtx.ContextID,
		Status:    a2a.TaskStatus{State: a2a.TaskStateFailed, Message: &failureMsg},
		Final:     true,
		Kind:      "status-update",
	})
	bus.Finished()
}

// drainIntoResultManager runs the fold+persist+push loop until the bus
// finishes or ctx is done. firstResult, if non-nil, is sent the first
// Message or Task-shaped fold result exactly once, non-blocking on
// subsequent sends.
func (h *DefaultRequestHandler) drainIntoResultManager(ctx context.Context, queue eventbus.Queue, rm *resultmanager.ResultManager, firstResult chan<- a2a.Event) error {
	firstSent := false
	for {
		event, ok, err := queue.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := rm.ProcessEvent(ctx, event); err != nil {
			h.logger.Error("failed to persist folded event", zap.Error(err))
		}
		if h.pushSender != nil {
			if current := rm.GetCurrentTask(); current != nil {
				h.pushSender.Notify(ctx, current)
			}
		}
		if firstResult != nil && !firstSent {
			if result, ok := firstResultFor(event, rm); ok {
				firstSent = true
				firstResult <- result
			}
		}
	}
}

// firstResultFor reports the value sendMessage's non-blocking mode
// should resolve with upon observing event, if any: the first bare
// Message, or the first Task-shaped fold result.
func firstResultFor(event a2a.Event, rm *resultmanager.ResultManager) (a2a.Event, bool) {
	switch event.(type) {
	case *a2a.Message:
		if current := rm.GetCurrentTask(); current == nil {
			return event, true
		}
		return rm.GetCurrentTask(), true
	case *a2a.Task, *a2a.TaskStatusUpdateEvent, *a2a.TaskArtifactUpdateEvent:
		return rm.GetCurrentTask(), true
	default:
		return nil, false
	}
}
