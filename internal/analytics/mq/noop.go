package mq

import "context"

type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (n *Noop) PublishEvent(context.Context, Event) error { return nil }
func (n *Noop) Close() error                             { return nil }
