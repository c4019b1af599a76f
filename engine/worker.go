package engine

import "context"

// CommandSink is how a pipeline publishes commands to its bound workers. A
// concrete implementation might write to a Kafka topic (bus/kafka) or call a
// worker directly in tests. Send must not block indefinitely; transient
// failures are the adapter's concern (retried with backoff inside the
// worker, per the spec's error handling design), so Send returning an error
// here means the command could not even be handed off.
type CommandSink interface {
	Send(ctx context.Context, cmd Command) error
}

// CommandSinkFunc adapts a plain function to a CommandSink.
type CommandSinkFunc func(ctx context.Context, cmd Command) error

func (f CommandSinkFunc) Send(ctx context.Context, cmd Command) error { return f(ctx, cmd) }
