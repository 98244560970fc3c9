package session

// State represents the playback session state machine.
//
// Transitions:
//
//	Idle → Negotiating            playQueueItem / track change
//	Negotiating → Ready           negotiation success
//	Negotiating → Error           negotiation failure
//	Ready → Playing               auto-start (or caller-requested pause → Paused)
//	Playing ⇄ Paused              transport controls, primitive events
//	Playing/Paused → Buffering    primitive waiting signal
//	Buffering → Playing/Paused    primitive resumes
//	Playing/Paused → Seeking      seek request
//	Seeking → Playing/Paused      primitive seeked signal
//	any → Ended                   primitive ended signal
//	any → Error                   decode or IO failure
//	any → Idle                    stop / close
//
// Idle is the only state with no bound item. Ended is terminal for the
// session; auto-advance creates a fresh session for the next queue entry.
// Error is never auto-recovered: the caller retries or advances.
type State int

const (
	Idle State = iota
	Negotiating
	Ready
	Playing
	Paused
	Buffering
	Seeking
	Ended
	Error
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Negotiating:
		return "Negotiating"
	case Ready:
		return "Ready"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Buffering:
		return "Buffering"
	case Seeking:
		return "Seeking"
	case Ended:
		return "Ended"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive returns true while an item is bound and playback has neither
// ended nor failed.
func (s State) IsActive() bool {
	switch s {
	case Negotiating, Ready, Playing, Paused, Buffering, Seeking:
		return true
	default:
		return false
	}
}

// Reportable returns true in states where progress heartbeats are sent.
// Heartbeats are suppressed while negotiating, buffering or seeking.
func (s State) Reportable() bool {
	return s == Playing
}
