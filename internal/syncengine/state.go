package syncengine

// State names the engine's position in the state machine spec §4.4 draws:
//
//	Idle → ConnectIndexer → (LoadCheckpoint | RebuildFromCache | FetchTreeState)
//	     → for each batch: FetchBlocks → Decrypt → UpdateFrontiers
//	                     → DeriveNullifiers → PersistNotes → ApplySpends
//	                     → MaybeCheckpoint → AdvanceLocalHeight
//	     → (TailFollow | Done | Cancelled | Interrupted)
type State int

const (
	StateIdle State = iota
	StateConnectIndexer
	StateLoadCheckpoint
	StateRebuildFromCache
	StateFetchTreeState
	StateFetchBlocks
	StateDecrypt
	StateUpdateFrontiers
	StateDeriveNullifiers
	StatePersistNotes
	StateApplySpends
	StateMaybeCheckpoint
	StateAdvanceLocalHeight
	StateTailFollow
	StateDone
	StateCancelled
	StateInterrupted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnectIndexer:
		return "ConnectIndexer"
	case StateLoadCheckpoint:
		return "LoadCheckpoint"
	case StateRebuildFromCache:
		return "RebuildFromCache"
	case StateFetchTreeState:
		return "FetchTreeState"
	case StateFetchBlocks:
		return "FetchBlocks"
	case StateDecrypt:
		return "Decrypt"
	case StateUpdateFrontiers:
		return "UpdateFrontiers"
	case StateDeriveNullifiers:
		return "DeriveNullifiers"
	case StatePersistNotes:
		return "PersistNotes"
	case StateApplySpends:
		return "ApplySpends"
	case StateMaybeCheckpoint:
		return "MaybeCheckpoint"
	case StateAdvanceLocalHeight:
		return "AdvanceLocalHeight"
	case StateTailFollow:
		return "TailFollow"
	case StateDone:
		return "Done"
	case StateCancelled:
		return "Cancelled"
	case StateInterrupted:
		return "Interrupted"
	default:
		return "Unknown"
	}
}
