// Package events carries window lifecycle notifications between the daemon
// and every window of the application.
package events

import "context"

// Event names as seen by window code.
const (
	EventQuickCopyClosed = "quick-copy-closed"
)

// Topic constants.
const (
	TopicPrefix          = "quickcopy.window."
	TopicQuickCopyClosed = TopicPrefix + EventQuickCopyClosed

	// TopicAll matches every window lifecycle topic.
	TopicAll = TopicPrefix + ">"
)

// QuickCopyClosed is broadcast when the auxiliary window goes away so that
// windows showing a "pinned" indicator can reset it. It has no fields.
type QuickCopyClosed struct{}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
