package session

// State is the phase the scrape loop is in.
type State int

const (
	StateInit State = iota
	StateLoadingCheckpoint
	StateScrapingPage
	StateAwaitingIntervention
	StateCheckpointing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateLoadingCheckpoint:
		return "LOADING_CHECKPOINT"
	case StateScrapingPage:
		return "SCRAPING_PAGE"
	case StateAwaitingIntervention:
		return "AWAITING_MANUAL_INTERVENTION"
	case StateCheckpointing:
		return "CHECKPOINTING"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// StopReason says why a run ended.
type StopReason string

const (
	StopCompleted             StopReason = "completed"
	StopEmptyPage             StopReason = "empty page"
	StopInterventionExhausted StopReason = "intervention exhausted"
	StopCanceled              StopReason = "canceled"
	StopFailed                StopReason = "failed"
)
