package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server"
	"github.com/gate4ai/a2a/server/eventbus"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// taskRun tracks the in-flight cancel func for one task plus the guard
// that makes sure Execute's own termination and a concurrent CancelTask
// never both try to publish the terminal event on the same bus.
type taskRun struct {
	cancel context.CancelFunc
	once   *sync.Once
}

// Executor is a scripted AgentExecutor: it parses the last message's
// text parts as a sequence of Commands (see ParseCommands) and executes
// them in order, publishing Task/status/artifact events to the bus
// exactly as a real executor would, generalized from the teacher's
// DemoAgentHandler/ScenarioBasedA2AHandler into this engine's
// Execute/CancelTask shape.
type Executor struct {
	logger *zap.Logger

	mu      sync.Mutex
	running map[string]*taskRun
}

// New builds a scripted Executor. logger defaults to a no-op logger.
func New(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{logger: logger, running: make(map[string]*taskRun)}
}

var _ server.AgentExecutor = (*Executor)(nil)

func (e *Executor) Execute(ctx context.Context, reqCtx *server.RequestContext, bus eventbus.Bus) error {
	runCtx, cancel := context.WithCancel(ctx)
	run := &taskRun{cancel: cancel, once: &sync.Once{}}
	e.mu.Lock()
	e.running[reqCtx.TaskID] = run
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.running, reqCtx.TaskID)
		e.mu.Unlock()
		cancel()
	}()

	text := lastText(reqCtx.Message)
	commands := ParseCommands(text)
	log := e.logger.With(zap.String("taskId", reqCtx.TaskID))
	log.Info("executing scripted commands", zap.Int("count", len(commands)))

	bus.Publish(&a2a.Task{
		ID:        reqCtx.TaskID,
		ContextID: reqCtx.ContextID,
		Status:    a2a.TaskStatus{State: a2a.TaskStateSubmitted, Timestamp: time.Now()},
		Kind:      "task",
	})
	bus.Publish(&a2a.TaskStatusUpdateEvent{
		TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
		Status: a2a.TaskStatus{State: a2a.TaskStateWorking, Timestamp: time.Now()},
		Kind:   "status-update",
	})

	artifactIndex := 0
	for i, cmd := range commands {
		select {
		case <-runCtx.Done():
			e.publishCanceled(reqCtx, bus, run)
			return runCtx.Err()
		default:
		}

		switch cmd.Type {
		case "wait":
			select {
			case <-time.After(time.Duration(cmd.N) * time.Second):
			case <-runCtx.Done():
				e.publishCanceled(reqCtx, bus, run)
				return runCtx.Err()
			}

		case "respond":
			artifact, err := buildArtifact(cmd, artifactIndex)
			if err != nil {
				e.publishFailed(reqCtx, bus, run, err.Error())
				return err
			}
			artifactIndex++
			bus.Publish(&a2a.TaskArtifactUpdateEvent{
				TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
				Artifact: artifact, Kind: "artifact-update",
			})

		case "stream":
			name := fmt.Sprintf("stream-%d", artifactIndex)
			artifactID := uuid.NewString()
			artifactIndex++
			for chunk := 1; chunk <= cmd.N; chunk++ {
				select {
				case <-runCtx.Done():
					e.publishCanceled(reqCtx, bus, run)
					return runCtx.Err()
				default:
				}
				text := fmt.Sprintf("chunk %d of %d", chunk, cmd.N)
				bus.Publish(&a2a.TaskArtifactUpdateEvent{
					TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
					Artifact: a2a.Artifact{
						ArtifactID: artifactID,
						Name:       &name,
						Parts:      []a2a.Part{a2a.NewTextPart(text)},
					},
					Append:    chunk > 1,
					LastChunk: chunk == cmd.N,
					Kind:      "artifact-update",
				})
			}

		case "ask":
			e.publishTerminal(bus, run, &a2a.TaskStatusUpdateEvent{
				TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
				Status: a2a.TaskStatus{
					State:     a2a.TaskStateInputRequired,
					Message:   &a2a.Message{MessageID: uuid.NewString(), Role: a2a.RoleAgent, Parts: []a2a.Part{a2a.NewTextPart(cmd.Payload)}, Kind: "message"},
					Timestamp: time.Now(),
				},
				Final: true,
				Kind:  "status-update",
			})
			return nil

		case "error":
			if cmd.N != 0 {
				err := &a2a.JSONRPCError{Code: cmd.N, Message: fmt.Sprintf("scripted error %d", cmd.N)}
				e.publishFailed(reqCtx, bus, run, err.Error())
				return err
			}
			err := fmt.Errorf("scripted failure")
			e.publishFailed(reqCtx, bus, run, err.Error())
			return err

		default:
			log.Warn("unknown scripted command", zap.Int("index", i), zap.String("type", cmd.Type))
		}
	}

	e.publishTerminal(bus, run, &a2a.TaskStatusUpdateEvent{
		TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
		Status: a2a.TaskStatus{State: a2a.TaskStateCompleted, Timestamp: time.Now()},
		Final:  true,
		Kind:   "status-update",
	})
	return nil
}

// CancelTask asks the running execution to stop and publishes the
// canceled status itself only if it wins the race with Execute's own
// termination path — publishTerminal's sync.Once guarantees whichever
// of the two reaches the bus first is the only one that does.
func (e *Executor) CancelTask(ctx context.Context, taskID string, bus eventbus.Bus) error {
	e.mu.Lock()
	run, ok := e.running[taskID]
	e.mu.Unlock()
	if !ok {
		return nil
	}
	run.cancel()
	e.publishTerminal(bus, run, &a2a.TaskStatusUpdateEvent{
		TaskID: taskID,
		Status: a2a.TaskStatus{State: a2a.TaskStateCanceled, Timestamp: time.Now()},
		Final:  true,
		Kind:   "status-update",
	})
	return nil
}

// publishTerminal publishes event and finishes bus at most once per
// run, so Execute's own termination and a concurrent CancelTask never
// both call Publish/Finished on the same bus.
func (e *Executor) publishTerminal(bus eventbus.Bus, run *taskRun, event a2a.Event) {
	run.once.Do(func() {
		bus.Publish(event)
		bus.Finished()
	})
}

func (e *Executor) publishFailed(reqCtx *server.RequestContext, bus eventbus.Bus, run *taskRun, reason string) {
	e.publishTerminal(bus, run, &a2a.TaskStatusUpdateEvent{
		TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateFailed,
			Message:   &a2a.Message{MessageID: uuid.NewString(), Role: a2a.RoleAgent, Parts: []a2a.Part{a2a.NewTextPart(reason)}, Kind: "message"},
			Timestamp: time.Now(),
		},
		Final: true,
		Kind:  "status-update",
	})
}

func (e *Executor) publishCanceled(reqCtx *server.RequestContext, bus eventbus.Bus, run *taskRun) {
	e.publishTerminal(bus, run, &a2a.TaskStatusUpdateEvent{
		TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
		Status: a2a.TaskStatus{State: a2a.TaskStateCanceled, Timestamp: time.Now()},
		Final:  true,
		Kind:   "status-update",
	})
}

func buildArtifact(cmd Command, index int) (a2a.Artifact, error) {
	name := fmt.Sprintf("artifact-%d", index)
	if cmd.Kind == "data" {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(cmd.Payload), &data); err != nil {
			return a2a.Artifact{}, fmt.Errorf("scenario: invalid JSON payload for respond data: %w", err)
		}
		return a2a.Artifact{
			ArtifactID: uuid.NewString(),
			Name:       &name,
			Parts:      []a2a.Part{{Kind: a2a.PartKindData, Data: data}},
		}, nil
	}
	return a2a.Artifact{
		ArtifactID: uuid.NewString(),
		Name:       &name,
		Parts:      []a2a.Part{a2a.NewTextPart(cmd.Payload)},
	}, nil
}

func lastText(msg a2a.Message) string {
	for i := len(msg.Parts) - 1; i >= 0; i-- {
		if msg.Parts[i].Kind == a2a.PartKindText && msg.Parts[i].Text != nil {
			return *msg.Parts[i].Text
		}
	}
	return ""
}
