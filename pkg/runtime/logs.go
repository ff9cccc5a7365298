package runtime

// LogCollector captures program log output up to a fixed byte budget.
// Once the budget is spent, further messages are dropped and the truncation
// is recorded: logging must never be a vector for unbounded host memory
// growth.
type LogCollector struct {
	messages  []string
	bytesUsed uint64
	limit     uint64
	truncated bool
}

// NewLogCollector creates a collector with the given byte capacity.
func NewLogCollector(limit uint64) *LogCollector {
	return &LogCollector{limit: limit}
}

// Log appends a message if the byte budget allows it.
func (lc *LogCollector) Log(msg string) {
	if lc.truncated {
		return
	}
	if lc.bytesUsed+uint64(len(msg)) > lc.limit {
		lc.truncated = true
		lc.messages = append(lc.messages, "Log truncated")
		return
	}
	lc.bytesUsed += uint64(len(msg))
	lc.messages = append(lc.messages, msg)
}

// Messages returns the captured log lines.
func (lc *LogCollector) Messages() []string {
	return lc.messages
}

// Truncated reports whether any output was dropped.
func (lc *LogCollector) Truncated() bool {
	return lc.truncated
}
