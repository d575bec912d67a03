// Copyright © 2018 One Concern

package importer

import (
	"context"
)

// DefaultChannelSize is the default capacity of the import channel
const DefaultChannelSize = 1000

// Channel is the bounded FIFO between the converter and the consumer.
//
// Send blocks while the channel is full. Closing the channel lets the
// consumer drain the remaining items, then Receive reports the end of stream.
type Channel struct {
	items chan WorkItem
}

// NewChannel builds an import channel with some capacity
func NewChannel(size int) *Channel {
	if size < 1 {
		size = 1
	}
	return &Channel{items: make(chan WorkItem, size)}
}

// Send an item, waiting for room in the channel
func (c *Channel) Send(ctx context.Context, item WorkItem) error {
	select {
	case c.items <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive the next item. ok is false once the channel is closed and drained.
func (c *Channel) Receive(ctx context.Context) (item WorkItem, ok bool, err error) {
	select {
	case item, ok = <-c.items:
		return item, ok, nil
	case <-ctx.Done():
		return WorkItem{}, false, ctx.Err()
	}
}

// Close the sending side. Only the producer closes the channel.
func (c *Channel) Close() {
	close(c.items)
}

// Len is the number of queued items
func (c *Channel) Len() int {
	return len(c.items)
}

// Cap is the capacity of the channel
func (c *Channel) Cap() int {
	return cap(c.items)
}
