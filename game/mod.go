package game

import "fmt"

// Player identifies one of the two sides of an alternating-move game.
type Player int

const (
	Player1 Player = iota
	Player2
)

// Opponent returns the other side.
func (p Player) Opponent() Player {
	return 1 - p
}

func (p Player) String() string {
	return fmt.Sprintf("player%d", int(p)+1)
}

type StateHash uint64

// State should be immutable - Result always returns a new copy and never
// mutates the receiver. Actions must enumerate in a stable order so a search
// can expand each action at most once per node.
type State[A comparable] interface {
	Actions() []A
	Result(action A) State[A]
	IsTerminal() bool
	PlayerToMove() Player
	// HasLiberties reports whether player still has at least one legal
	// continuation in this state. Only evaluated at terminal states to sign
	// rollout rewards.
	HasLiberties(player Player) bool
}

// PlyCounter is implemented by states that know how many moves were played.
type PlyCounter interface {
	PlyCount() int
}

// Hasher is implemented by states that can identify themselves, which lets a
// search verify a retained subtree belongs to the position it is handed.
type Hasher interface {
	Hash() StateHash
}
