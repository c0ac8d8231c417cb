// meta/meta.go
package meta

import "time"

// GO_ROUTINES defines the number of goroutines a search runs iterations on.
const GO_ROUTINES = 1

// ITERATIONS defines the number of select/simulate/backup iterations per search.
const ITERATIONS = 150

// EXPLORE_FACTOR weights the exploration term of the confidence bound.
const EXPLORE_FACTOR = 0.05

// RANDOM_PLIES is the number of opening plies played at random instead of searched.
const RANDOM_PLIES = 2

// MAX_TURNS caps the length of a local game.
const MAX_TURNS = 300

// TIME_LIMIT is the default wall-clock budget for a single move.
const TIME_LIMIT = 150 * time.Millisecond

// BOARD_WIDTH and BOARD_HEIGHT are the default isolation board dimensions.
const BOARD_WIDTH = 11
const BOARD_HEIGHT = 9
