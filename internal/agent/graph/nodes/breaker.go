package nodes

import (
	"context"
	"errors"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sony/gobreaker"

	"github.com/study-buddy-core/server/internal/agent/model"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

// BreakerChatModel fails fast while the provider keeps erroring.
type BreakerChatModel struct {
	inner einomodel.ToolCallingChatModel
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerChatModel(inner einomodel.ToolCallingChatModel, name string, cfg model.BreakerConfig) *BreakerChatModel {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A caller giving up says nothing about the provider.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logx.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Chat model circuit breaker state changed")
		},
	})
	return &BreakerChatModel{inner: inner, cb: cb}
}

func (b *BreakerChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Generate(ctx, input, opts...)
	})
	if err != nil {
		return nil, err
	}
	return res.(*schema.Message), nil
}

func (b *BreakerChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Stream(ctx, input, opts...)
	})
	if err != nil {
		return nil, err
	}
	return res.(*schema.StreamReader[*schema.Message]), nil
}

// WithTools binds tools on the wrapped model; the copy shares this breaker.
func (b *BreakerChatModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	inner, err := b.inner.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &BreakerChatModel{inner: inner, cb: b.cb}, nil
}

func (b *BreakerChatModel) State() gobreaker.State {
	return b.cb.State()
}

var _ einomodel.ToolCallingChatModel = (*BreakerChatModel)(nil)
