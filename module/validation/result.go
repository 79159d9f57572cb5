package validation

import (
	pubsub "github.com/libp2p/go-libp2p-pubsub"
)

// Result is the decision of the validation gate.
type Result uint8

const (
	// Accept means the item is valid and new and should be ingested and relayed.
	Accept Result = iota
	// Ignore means the item is dropped without blaming the sender.
	Ignore
	// Reject means the item is invalid and the sender should be penalized.
	Reject
)

func (r Result) String() string {
	switch r {
	case Accept:
		return "accept"
	case Ignore:
		return "ignore"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// PubSub maps the result onto the gossip validation result.
func (r Result) PubSub() pubsub.ValidationResult {
	switch r {
	case Accept:
		return pubsub.ValidationAccept
	case Reject:
		return pubsub.ValidationReject
	default:
		return pubsub.ValidationIgnore
	}
}
