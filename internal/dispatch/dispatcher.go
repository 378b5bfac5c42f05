// Package dispatch routes queue items to their action handlers and shields
// the poll loop from handler faults.
package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/delivery"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/discord"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/domain"
)

type handlerFunc func(ctx context.Context, item domain.QueueItem) domain.DispatchOutcome

// Dispatcher holds the fixed action table and the collaborators every
// handler shares. All dependencies are constructor-injected; there is no
// global state.
type Dispatcher struct {
	resolver   discord.Resolver
	retrier    *delivery.Retrier
	limiter    *delivery.SendLimiter
	guildID    string
	chunkLimit int
	logger     *zap.Logger

	handlers map[domain.Action]handlerFunc
}

func New(
	resolver discord.Resolver,
	retrier *delivery.Retrier,
	limiter *delivery.SendLimiter,
	guildID string,
	chunkLimit int,
	logger *zap.Logger,
) *Dispatcher {
	d := &Dispatcher{
		resolver:   resolver,
		retrier:    retrier,
		limiter:    limiter,
		guildID:    guildID,
		chunkLimit: chunkLimit,
		logger:     logger,
	}
	d.handlers = map[domain.Action]handlerFunc{
		domain.ActionWarAlert:            d.handleWarAlert,
		domain.ActionAllianceDeparture:   d.handleAllianceDeparture,
		domain.ActionInactivityAlert:     d.handleInactivityAlert,
		domain.ActionAllianceRoleRemoval: d.handleRoleRemoval,
		domain.ActionBeigeAlert:          d.handleBeige,
		domain.ActionWarRoomCreate:       d.handleWarRoom,
	}
	return d
}

// Dispatch routes one item to its handler and returns a uniform outcome.
// A panicking handler is converted to a handler_error outcome: one
// malformed item must never abort the poll cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, item domain.QueueItem) (out domain.DispatchOutcome) {
	if item.Action == "" {
		d.logger.Warn("queue item has no usable action", zap.String("id", item.ID))
		return domain.Failed(domain.ReasonInvalidAction)
	}

	handler, ok := d.handlers[item.Action]
	if !ok {
		d.logger.Warn("no handler for action",
			zap.String("id", item.ID),
			zap.String("action", string(item.Action)),
		)
		return domain.Failed(domain.ReasonUnsupportedAction)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panicked",
				zap.String("id", item.ID),
				zap.String("action", string(item.Action)),
				zap.Any("panic", r),
			)
			out = domain.Failed(domain.ReasonHandlerError)
		}
	}()

	return handler(ctx, item)
}

// send delivers one artifact to a channel through the rate limiter and the
// rate-limit-aware retrier. Every outbound channel message goes through here.
func (d *Dispatcher) send(ctx context.Context, ch discord.Channel, a *discord.Artifact) error {
	return d.retrier.Do(ctx, func(ctx context.Context) error {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
		return ch.Send(ctx, a)
	})
}

// sendThread is send for thread destinations.
func (d *Dispatcher) sendThread(ctx context.Context, th discord.Thread, a *discord.Artifact) error {
	return d.retrier.Do(ctx, func(ctx context.Context) error {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
		return th.Send(ctx, a)
	})
}

// channel resolves a destination channel; failures are soft.
func (d *Dispatcher) channel(ctx context.Context, id string) (discord.Channel, bool) {
	ch, err := d.resolver.Channel(ctx, id)
	if err != nil || ch == nil {
		d.logger.Warn("channel unavailable", zap.String("channel_id", id), zap.Error(err))
		return nil, false
	}
	return ch, true
}
