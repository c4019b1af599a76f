// Package kafka backs the engine's process-wide router (SPEC_FULL.md §11)
// with a Kafka reader/writer pair, partitioned by pipeline id: workers
// publish events to an events topic for the router to consume and dispatch,
// and the engine publishes commands to a commands topic for workers running
// out-of-process to consume.
package kafka

import (
	"context"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
	kafkacore "github.com/MyCarrier-DevOps/pr-merge-sync/kafka"
	"github.com/MyCarrier-DevOps/pr-merge-sync/logger"
)

// Config layers the events/commands topic names on top of the teacher's
// connection settings (address, SASL credentials, group id).
type Config struct {
	Connection    kafkacore.KafkaConfig
	EventsTopic   string
	CommandsTopic string
}

// EventProducer publishes engine events onto the events topic, keyed by
// pipeline id so a single partition always sees one pipeline's events in
// order.
type EventProducer struct {
	writer *kafkago.Writer
	log    logger.Logger
}

// NewEventProducer builds an EventProducer writing to cfg.EventsTopic.
func NewEventProducer(cfg Config, log logger.Logger) (*EventProducer, error) {
	if log == nil {
		log = &logger.NopLogger{}
	}
	conn := cfg.Connection
	conn.Topic = cfg.EventsTopic
	writer, err := kafkacore.InitializeKafkaWriter(&conn)
	if err != nil {
		return nil, fmt.Errorf("initialize events writer: %w", err)
	}
	return &EventProducer{writer: writer, log: log}, nil
}

// Publish implements the worker-facing side of the events topic.
func (p *EventProducer) Publish(ctx context.Context, ev engine.Event) error {
	data, err := EncodeEvent(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(ev.PipelineID()),
		Value: data,
	})
}

// Close releases the underlying writer.
func (p *EventProducer) Close() error { return p.writer.Close() }

// EventConsumer reads the events topic and dispatches decoded events to the
// router, driving the in-process pipelines exactly as if they had been
// dispatched locally.
type EventConsumer struct {
	reader *kafkago.Reader
	log    logger.Logger
}

// NewEventConsumer builds an EventConsumer reading cfg.EventsTopic.
func NewEventConsumer(cfg Config, log logger.Logger) (*EventConsumer, error) {
	if log == nil {
		log = &logger.NopLogger{}
	}
	conn := cfg.Connection
	conn.Topic = cfg.EventsTopic
	reader, err := kafkacore.InitializeKafkaReader(&conn)
	if err != nil {
		return nil, fmt.Errorf("initialize events reader: %w", err)
	}
	return &EventConsumer{reader: reader, log: log}, nil
}

// Run consumes events until ctx is cancelled, dispatching each to router. A
// decode failure or an unregistered pipeline is logged and skipped rather
// than stopping the loop — one bad message should not stall the bus.
func (c *EventConsumer) Run(ctx context.Context, router *engine.Router) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event message: %w", err)
		}

		ev, err := DecodeEvent(msg.Value)
		if err != nil {
			c.log.Error(ctx, "failed to decode event from bus", err, nil)
			continue
		}
		if err := router.Dispatch(ctx, ev); err != nil {
			c.log.Error(ctx, "failed to dispatch event from bus", err, map[string]interface{}{
				"pipeline": ev.PipelineID(),
			})
		}
	}
}

// Close releases the underlying reader.
func (c *EventConsumer) Close() error { return c.reader.Close() }

// CommandProducer implements engine.CommandSink by publishing onto the
// commands topic, keyed by pipeline id, for out-of-process workers to
// consume.
type CommandProducer struct {
	writer *kafkago.Writer
	log    logger.Logger
}

// NewCommandProducer builds a CommandProducer writing to cfg.CommandsTopic.
func NewCommandProducer(cfg Config, log logger.Logger) (*CommandProducer, error) {
	if log == nil {
		log = &logger.NopLogger{}
	}
	conn := cfg.Connection
	conn.Topic = cfg.CommandsTopic
	writer, err := kafkacore.InitializeKafkaWriter(&conn)
	if err != nil {
		return nil, fmt.Errorf("initialize commands writer: %w", err)
	}
	return &CommandProducer{writer: writer, log: log}, nil
}

// Send implements engine.CommandSink.
func (p *CommandProducer) Send(ctx context.Context, cmd engine.Command) error {
	data, err := EncodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(cmd.PipelineID()),
		Value: data,
	})
}

// Close releases the underlying writer.
func (p *CommandProducer) Close() error { return p.writer.Close() }

// CommandConsumer reads the commands topic and forwards decoded commands to
// a local engine.CommandSink — typically a fanout over the gitvcs/githubui/
// httpci workers running in this process.
type CommandConsumer struct {
	reader *kafkago.Reader
	log    logger.Logger
}

// NewCommandConsumer builds a CommandConsumer reading cfg.CommandsTopic.
func NewCommandConsumer(cfg Config, log logger.Logger) (*CommandConsumer, error) {
	if log == nil {
		log = &logger.NopLogger{}
	}
	conn := cfg.Connection
	conn.Topic = cfg.CommandsTopic
	reader, err := kafkacore.InitializeKafkaReader(&conn)
	if err != nil {
		return nil, fmt.Errorf("initialize commands reader: %w", err)
	}
	return &CommandConsumer{reader: reader, log: log}, nil
}

// Run consumes commands until ctx is cancelled, forwarding each to sink.
func (c *CommandConsumer) Run(ctx context.Context, sink engine.CommandSink) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read command message: %w", err)
		}

		cmd, err := DecodeCommand(msg.Value)
		if err != nil {
			c.log.Error(ctx, "failed to decode command from bus", err, nil)
			continue
		}
		if err := sink.Send(ctx, cmd); err != nil {
			c.log.Error(ctx, "failed to forward command from bus", err, map[string]interface{}{
				"pipeline": cmd.PipelineID(),
			})
		}
	}
}

// Close releases the underlying reader.
func (c *CommandConsumer) Close() error { return c.reader.Close() }
