package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
)

// envelope wraps a Command or Event with the type discriminator needed to
// decode it back into its concrete type on the receiving side of the topic.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeEvent serializes ev into a self-describing envelope for the events
// topic.
func EncodeEvent(ev engine.Event) ([]byte, error) {
	var typeName string
	switch ev.(type) {
	case engine.UIApproved:
		typeName = "UIApproved"
	case engine.UICancelled:
		typeName = "UICancelled"
	case engine.VCSMerged:
		typeName = "VCSMerged"
	case engine.VCSMergeFailed:
		typeName = "VCSMergeFailed"
	case engine.VCSFastForwardOK:
		typeName = "VCSFastForwardOK"
	case engine.VCSFastForwardStale:
		typeName = "VCSFastForwardStale"
	case engine.CIStarted:
		typeName = "CIStarted"
	case engine.CISucceeded:
		typeName = "CISucceeded"
	case engine.CIFailed:
		typeName = "CIFailed"
	default:
		return nil, fmt.Errorf("kafka: unknown event type %T", ev)
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return json.Marshal(envelope{Type: typeName, Payload: payload})
}

// DecodeEvent reverses EncodeEvent.
func DecodeEvent(data []byte) (engine.Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "UIApproved":
		var ev engine.UIApproved
		return ev, json.Unmarshal(env.Payload, &ev)
	case "UICancelled":
		var ev engine.UICancelled
		return ev, json.Unmarshal(env.Payload, &ev)
	case "VCSMerged":
		var ev engine.VCSMerged
		return ev, json.Unmarshal(env.Payload, &ev)
	case "VCSMergeFailed":
		var ev engine.VCSMergeFailed
		return ev, json.Unmarshal(env.Payload, &ev)
	case "VCSFastForwardOK":
		var ev engine.VCSFastForwardOK
		return ev, json.Unmarshal(env.Payload, &ev)
	case "VCSFastForwardStale":
		var ev engine.VCSFastForwardStale
		return ev, json.Unmarshal(env.Payload, &ev)
	case "CIStarted":
		var ev engine.CIStarted
		return ev, json.Unmarshal(env.Payload, &ev)
	case "CISucceeded":
		var ev engine.CISucceeded
		return ev, json.Unmarshal(env.Payload, &ev)
	case "CIFailed":
		var ev engine.CIFailed
		return ev, json.Unmarshal(env.Payload, &ev)
	default:
		return nil, fmt.Errorf("kafka: unknown event envelope type %q", env.Type)
	}
}

// EncodeCommand serializes cmd into a self-describing envelope for the
// commands topic.
func EncodeCommand(cmd engine.Command) ([]byte, error) {
	var typeName string
	switch cmd.(type) {
	case engine.VCSMerge:
		typeName = "VCSMerge"
	case engine.VCSFastForward:
		typeName = "VCSFastForward"
	case engine.VCSQueryTip:
		typeName = "VCSQueryTip"
	case engine.CIStart:
		typeName = "CIStart"
	case engine.CICancel:
		typeName = "CICancel"
	case engine.CIQueryStatus:
		typeName = "CIQueryStatus"
	case engine.UIComment:
		typeName = "UIComment"
	case engine.UIStatus:
		typeName = "UIStatus"
	default:
		return nil, fmt.Errorf("kafka: unknown command type %T", cmd)
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshal command payload: %w", err)
	}
	return json.Marshal(envelope{Type: typeName, Payload: payload})
}

// DecodeCommand reverses EncodeCommand.
func DecodeCommand(data []byte) (engine.Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "VCSMerge":
		var cmd engine.VCSMerge
		return cmd, json.Unmarshal(env.Payload, &cmd)
	case "VCSFastForward":
		var cmd engine.VCSFastForward
		return cmd, json.Unmarshal(env.Payload, &cmd)
	case "VCSQueryTip":
		var cmd engine.VCSQueryTip
		return cmd, json.Unmarshal(env.Payload, &cmd)
	case "CIStart":
		var cmd engine.CIStart
		return cmd, json.Unmarshal(env.Payload, &cmd)
	case "CICancel":
		var cmd engine.CICancel
		return cmd, json.Unmarshal(env.Payload, &cmd)
	case "CIQueryStatus":
		var cmd engine.CIQueryStatus
		return cmd, json.Unmarshal(env.Payload, &cmd)
	case "UIComment":
		var cmd engine.UIComment
		return cmd, json.Unmarshal(env.Payload, &cmd)
	case "UIStatus":
		var cmd engine.UIStatus
		return cmd, json.Unmarshal(env.Payload, &cmd)
	default:
		return nil, fmt.Errorf("kafka: unknown command envelope type %q", env.Type)
	}
}
