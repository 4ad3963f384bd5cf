package dispatch

import (
	"context"

	"github.com/codewandler/redispatch-go/core/es"
)

// EventContext is the scope of one handler invocation. It is owned
// exclusively by that invocation: handlers read aggregates and the
// stream's shared items through it and enqueue the commands they
// produce. Not safe for use after the handler returns.
type EventContext struct {
	ctx      context.Context
	repo     es.Repository
	items    map[string]string
	commands []any
}

func newEventContext(ctx context.Context, repo es.Repository, items map[string]string) *EventContext {
	return &EventContext{
		ctx:   ctx,
		repo:  repo,
		items: items,
	}
}

func (c *EventContext) Context() context.Context { return c.ctx }

// Item returns a shared item from the triggering stream.
func (c *EventContext) Item(key string) (string, bool) {
	v, ok := c.items[key]
	return v, ok
}

// LoadAggregate rehydrates the aggregate with the given id into agg.
func (c *EventContext) LoadAggregate(aggID string, agg any) error {
	return c.repo.Load(c.ctx, aggID, agg)
}

// AddCommand enqueues a command to be sent to the downstream process
// manager once the handler returns successfully.
func (c *EventContext) AddCommand(cmd any) {
	c.commands = append(c.commands, cmd)
}

// Commands returns the commands enqueued so far.
func (c *EventContext) Commands() []any { return c.commands }

// LoadAggregate rehydrates the aggregate with the given id into a fresh
// *T.
func LoadAggregate[T any](c *EventContext, aggID string) (*T, error) {
	agg := new(T)
	if err := c.LoadAggregate(aggID, agg); err != nil {
		return nil, err
	}
	return agg, nil
}
