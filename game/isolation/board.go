package isolation

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"

	"isolation/game"

	"github.com/pkg/errors"
)

// Unplaced marks a player whose knight has not been put on the board yet.
const Unplaced = -1

// MaxSide bounds both board dimensions.
const MaxSide = 64

// Action is the index of the destination cell, row-major from the top-left.
type Action int

// Knight move offsets (dx, dy), in the enumeration order used by Actions.
var knightOffsets = [8][2]int{
	{1, -2}, {2, -1}, {2, 1}, {1, 2},
	{-1, 2}, {-2, 1}, {-2, -1}, {-1, -2},
}

// Board is a knight's Isolation position. Each player owns a knight; the first
// ply of each player places it on any open cell, afterwards it moves like a
// chess knight. Every cell a knight lands on stays blocked for the rest of the
// game. The player to move loses when its knight has nowhere to go.
type Board struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Blocked []bool `json:"blocked"`
	Locs    [2]int `json:"locs"`
	Ply     int    `json:"ply"`
}

// New returns an empty board with the given cells blocked upfront.
func New(width, height int, blocked ...int) *Board {
	b := &Board{
		Width:   width,
		Height:  height,
		Blocked: make([]bool, width*height),
		Locs:    [2]int{Unplaced, Unplaced},
	}
	for _, cell := range blocked {
		if cell >= 0 && cell < len(b.Blocked) {
			b.Blocked[cell] = true
		}
	}
	return b
}

// Validate checks a board decoded from an untrusted source.
func (b *Board) Validate() error {
	if b.Width <= 0 || b.Height <= 0 || b.Width > MaxSide || b.Height > MaxSide {
		return errors.Errorf("invalid board dimensions: %dx%d", b.Width, b.Height)
	}
	if len(b.Blocked) != b.Width*b.Height {
		return errors.Errorf("blocked has %d cells, want %d", len(b.Blocked), b.Width*b.Height)
	}
	if b.Ply < 0 {
		return errors.Errorf("negative ply count %d", b.Ply)
	}
	for p, loc := range b.Locs {
		if loc == Unplaced {
			continue
		}
		if loc < 0 || loc >= len(b.Blocked) {
			return errors.Errorf("%s location %d is off the board", game.Player(p), loc)
		}
		if !b.Blocked[loc] {
			return errors.Errorf("%s location %d is not blocked", game.Player(p), loc)
		}
	}
	return nil
}

func (b *Board) Cell(x, y int) int {
	return y*b.Width + x
}

func (b *Board) XY(cell int) (x, y int) {
	return cell % b.Width, cell / b.Width
}

func (b *Board) open(x, y int) bool {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return false
	}
	return !b.Blocked[b.Cell(x, y)]
}

// Liberties lists the open cells reachable from loc. An unplaced knight may
// go to any open cell.
func (b *Board) Liberties(loc int) []Action {
	var actions []Action
	if loc == Unplaced {
		for cell, blocked := range b.Blocked {
			if !blocked {
				actions = append(actions, Action(cell))
			}
		}
		return actions
	}

	x, y := b.XY(loc)
	for _, off := range knightOffsets {
		nx, ny := x+off[0], y+off[1]
		if b.open(nx, ny) {
			actions = append(actions, Action(b.Cell(nx, ny)))
		}
	}
	return actions
}

func (b *Board) Actions() []Action {
	return b.Liberties(b.Locs[b.PlayerToMove()])
}

func (b *Board) Result(action Action) game.State[Action] {
	next := b.Copy()
	player := b.PlayerToMove()
	next.Blocked[action] = true
	next.Locs[player] = int(action)
	next.Ply++
	return next
}

func (b *Board) IsTerminal() bool {
	return !b.HasLiberties(b.PlayerToMove())
}

func (b *Board) PlayerToMove() game.Player {
	return game.Player(b.Ply % 2)
}

func (b *Board) HasLiberties(player game.Player) bool {
	loc := b.Locs[player]
	if loc == Unplaced {
		for _, blocked := range b.Blocked {
			if !blocked {
				return true
			}
		}
		return false
	}

	x, y := b.XY(loc)
	for _, off := range knightOffsets {
		if b.open(x+off[0], y+off[1]) {
			return true
		}
	}
	return false
}

func (b *Board) PlyCount() int {
	return b.Ply
}

// Winner returns the opponent of the immobilized player once the game is over.
func (b *Board) Winner() (game.Player, bool) {
	if !b.IsTerminal() {
		return 0, false
	}
	return b.PlayerToMove().Opponent(), true
}

func (b *Board) Copy() *Board {
	blocked := make([]bool, len(b.Blocked))
	copy(blocked, b.Blocked)
	return &Board{
		Width:   b.Width,
		Height:  b.Height,
		Blocked: blocked,
		Locs:    b.Locs,
		Ply:     b.Ply,
	}
}

func (b *Board) Hash() game.StateHash {
	hasher := fnv.New64a()

	binary.Write(hasher, binary.LittleEndian, int64(b.Width))
	binary.Write(hasher, binary.LittleEndian, int64(b.Ply))
	for _, loc := range b.Locs {
		binary.Write(hasher, binary.LittleEndian, int64(loc))
	}

	// Pack blocked cells into bytes
	var acc byte
	for i, blocked := range b.Blocked {
		if blocked {
			acc |= 1 << (i % 8)
		}
		if i%8 == 7 {
			hasher.Write([]byte{acc})
			acc = 0
		}
	}
	hasher.Write([]byte{acc})

	return game.StateHash(hasher.Sum64())
}

// FormatAction renders an action as board coordinates.
func (b *Board) FormatAction(a Action) string {
	x, y := b.XY(int(a))
	return fmt.Sprintf("(%d, %d)", x, y)
}

func (b *Board) String() string {
	var sb strings.Builder
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			cell := b.Cell(x, y)
			switch {
			case cell == b.Locs[game.Player1]:
				sb.WriteString(" 1")
			case cell == b.Locs[game.Player2]:
				sb.WriteString(" 2")
			case b.Blocked[cell]:
				sb.WriteString(" #")
			default:
				sb.WriteString(" .")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
