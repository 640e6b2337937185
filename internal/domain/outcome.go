package domain

// Stage is the furthest point an event reached in the pipeline.
type Stage uint8

const (
	StageUnqualified Stage = iota + 1
	StageQualified
	StageTriggered
	StageFilled
	StageClosed
	StageErrored
)

func (s Stage) String() string {
	switch s {
	case StageUnqualified:
		return "unqualified"
	case StageQualified:
		return "qualified"
	case StageTriggered:
		return "triggered"
	case StageFilled:
		return "filled"
	case StageClosed:
		return "closed"
	case StageErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Outcome is the per-event state. The concrete types are the only
// implementations, so states like "filled without entry" cannot be built.
type Outcome interface {
	EventID() string
	Stage() Stage
	outcome()
}

// Unqualified: no pregame data (Pregame nil) or favorite threshold not met.
type Unqualified struct {
	Event   string
	Pregame *float64
}

// Qualified: favorite qualified, no trigger inside the monitoring window.
type Qualified struct {
	Event   string
	Pregame float64
}

// Triggered: trigger found but no trade inside the grace window.
type Triggered struct {
	Event   string
	Pregame float64
	Trigger TriggerEvent
}

// Filled: entry executed, exit pending. Only the live poller holds this state.
type Filled struct {
	Event   string
	Pregame float64
	Trigger TriggerEvent
	Entry   EntryFill
}

// Closed: entry and exit resolved into a TradeRecord.
type Closed struct {
	Record TradeRecord
}

// Errored: the event data violated the engine's input contract.
type Errored struct {
	Event string
	Err   error
}

func (o Unqualified) EventID() string { return o.Event }
func (o Qualified) EventID() string   { return o.Event }
func (o Triggered) EventID() string   { return o.Event }
func (o Filled) EventID() string      { return o.Event }
func (o Closed) EventID() string      { return o.Record.EventID }
func (o Errored) EventID() string     { return o.Event }

func (Unqualified) Stage() Stage { return StageUnqualified }
func (Qualified) Stage() Stage   { return StageQualified }
func (Triggered) Stage() Stage   { return StageTriggered }
func (Filled) Stage() Stage      { return StageFilled }
func (Closed) Stage() Stage      { return StageClosed }
func (Errored) Stage() Stage     { return StageErrored }

func (Unqualified) outcome() {}
func (Qualified) outcome()   {}
func (Triggered) outcome()   {}
func (Filled) outcome()      {}
func (Closed) outcome()      {}
func (Errored) outcome()     {}

// HasPregameData devuelve false si no hubo ninguna observación pregame.
func (o Unqualified) HasPregameData() bool {
	return o.Pregame != nil
}
