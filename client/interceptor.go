package client

import (
	"context"

	"github.com/gate4ai/a2a/a2a"
)

// InterceptorCall carries the method name and mutable params/result for
// one call across its interceptor chain.
type InterceptorCall struct {
	Method string
	Params interface{}
}

// CallInterceptor observes or mutates every client call. Before may
// short-circuit the real call by returning earlyReturn=true along with
// the result/err to use instead; in that case only the After hooks of
// interceptors that already ran execute (in reverse order), exactly as
// if the call itself had produced that result.
type CallInterceptor interface {
	Before(ctx context.Context, call *InterceptorCall) (earlyReturn bool, result interface{}, err error)
	After(ctx context.Context, call *InterceptorCall, result interface{}, err error) (interface{}, error)
}

// runInterceptors drives one non-streaming call through the chain,
// mirroring shared.Input.Put's copy-under-lock-then-iterate shape: a
// snapshot of the chain is taken once, Before hooks run in order until
// one short-circuits, then After hooks of every interceptor that ran
// execute in reverse order regardless of how the result was produced.
func runInterceptors(ctx context.Context, chain []CallInterceptor, call *InterceptorCall, invoke func(ctx context.Context, params interface{}) (interface{}, error)) (interface{}, error) {
	ran := make([]CallInterceptor, 0, len(chain))
	var result interface{}
	var err error
	shortCircuited := false

	for _, ic := range chain {
		ran = append(ran, ic)
		early, res, icErr := ic.Before(ctx, call)
		if early {
			result, err = res, icErr
			shortCircuited = true
			break
		}
	}

	if !shortCircuited {
		result, err = invoke(ctx, call.Params)
	}

	for i := len(ran) - 1; i >= 0; i-- {
		result, err = ran[i].After(ctx, call, result, err)
	}
	return result, err
}

// applyStreamInterceptors runs every interceptor's After hook once per
// streamed item, per spec §4.7 ("for streaming methods interceptors run
// once per iterator item"). Before hooks do not apply to individual
// items; a streaming call's one-time setup uses runInterceptors itself
// if the transport needs to fall back to a unary send.
func applyStreamInterceptors(ctx context.Context, chain []CallInterceptor, call *InterceptorCall, in <-chan StreamEvent) <-chan StreamEvent {
	if len(chain) == 0 {
		return in
	}
	out := make(chan StreamEvent, cap(in))
	go func() {
		defer close(out)
		for item := range in {
			result, err := interface{}(item.Event), item.Err
			for i := len(chain) - 1; i >= 0; i-- {
				result, err = chain[i].After(ctx, call, result, err)
			}
			event, _ := result.(a2a.Event)
			out <- StreamEvent{Event: event, Err: err}
		}
	}()
	return out
}
