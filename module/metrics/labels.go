package metrics

const (
	LabelResource = "resource"
	LabelKind     = "kind"
	LabelResult   = "result"
	LabelReason   = "reason"
	LabelOutcome  = "outcome"
	LabelProtocol = "protocol"
	LabelTopic    = "topic"
)

const (
	ResourceBlock        = "block"
	ResourcePendingBlock = "pending_block"
	ResourceCanonical    = "canonical_index"
)

const (
	KindBlock = "block"
	KindVote  = "vote"
)

const (
	ReasonQueueFull    = "queue_full"
	ReasonShuttingDown = "shutting_down"
	ReasonInvalid      = "invalid"
)

const (
	OutcomeSuccess   = "success"
	OutcomeTimeout   = "timeout"
	OutcomeFailure   = "failure"
	OutcomeMalformed = "malformed"
	OutcomeCancelled = "cancelled"
)
