package topics

const (
	// Pool lifecycle (create/commit/reveal/lock/settle/claim/refund/sweep)
	PoolEvents = "pool_events"

	// Match lifecycle and round commit-reveal gate
	ArenaEvents = "arena_events"

	// DLQs
	PoolEventsDLQ  = "pool_events_dlq"
	ArenaEventsDLQ = "arena_events_dlq"
)
