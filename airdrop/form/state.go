// Package form runs the multi-step conversation that collects one airdrop
// record per user and commits it on confirmation.
package form

// State is the step a session is waiting on.
type State int

const (
	StateName State = iota
	StateTwitter
	StateDiscord
	StateTelegram
	StateLink
	StateType
	StateDeadline
	StateReward
	StateNetwork
	StateConfirm
	StateEnd
)

var stateNames = [...]string{
	"name", "twitter", "discord", "telegram", "link", "type",
	"deadline", "reward", "network", "confirm", "end",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further input is accepted.
func (s State) Terminal() bool { return s == StateEnd }

// Outcomes reported with a Reply.
const (
	OutcomeCommitted = "committed"
	OutcomeDeclined  = "declined"
	OutcomeFailed    = "fail"
	OutcomeCancelled = "cancelled"
	OutcomeExpired   = "expired"
)

// Reply is the single message a transition produces.
type Reply struct {
	Text string
	// Choices, when set, are offered as a one-time reply keyboard.
	Choices [][]string
	// RemoveKeyboard hides a keyboard shown by an earlier reply.
	RemoveKeyboard bool
	// State is the session state after the transition.
	State State
	// Outcome is set on the final transition of a session.
	Outcome string
}
