// Interaction history: a bounded log of player interactions per actor.
package agents

import "time"

const MaxHistory = 50

// Interaction records one player interaction.
type Interaction struct {
	Player  string          `json:"player_id"`
	Type    InteractionType `json:"interaction_type"`
	Change  float64         `json:"loyalty_change"`
	Loyalty float64         `json:"current_loyalty"`
	Age     int             `json:"age"` // Actor age when it happened
	At      time.Time       `json:"timestamp"`
}

// record appends to the history. When full, the oldest entry is dropped.
func (a *Actor) record(in Interaction) {
	if len(a.History) >= MaxHistory {
		copy(a.History, a.History[1:])
		a.History = a.History[:len(a.History)-1]
	}
	a.History = append(a.History, in)
}

// RecentInteractions returns the most recent n interactions, newest first.
func (a *Actor) RecentInteractions(n int) []Interaction {
	if n > len(a.History) {
		n = len(a.History)
	}
	out := make([]Interaction, 0, n)
	for i := len(a.History) - 1; i >= len(a.History)-n; i-- {
		out = append(out, a.History[i])
	}
	return out
}

// InteractionsWith returns the recorded interactions with one player, oldest first.
func (a *Actor) InteractionsWith(player string) []Interaction {
	var out []Interaction
	for _, in := range a.History {
		if in.Player == player {
			out = append(out, in)
		}
	}
	return out
}
