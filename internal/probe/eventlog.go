package probe

// EventLog keeps the most recent entries up to a fixed capacity. Entries
// are read back newest first.
type EventLog struct {
	r *ring[LogEntry]
}

// NewEventLog returns an empty log holding at most capacity entries.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultConfig().LogCapacity
	}
	return &EventLog{r: newRing[LogEntry](capacity)}
}

// Add inserts e at the head; the oldest entry is dropped once full.
func (l *EventLog) Add(e LogEntry) { l.r.push(e) }

func (l *EventLog) Len() int { return l.r.len() }

// Entries returns a copy of the log, newest first.
func (l *EventLog) Entries() []LogEntry {
	out := l.r.snapshot()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (l *EventLog) Reset() { l.r.reset() }
