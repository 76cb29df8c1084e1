package port

import "context"

// RequestPublisher enqueues capture request messages for the worker pool.
type RequestPublisher interface {
	PublishRequest(ctx context.Context, msg []byte) error
}

// StatusPublisher broadcasts job lifecycle transitions.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

// DLQPublisher parks messages that will never be processed again.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
