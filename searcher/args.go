package searcher

// Hyperparameters for MCTS

const C_SQUARED = 2.0 // Scales ln(N) inside the exploration term

const WIN = 1.0   // Reward for winning outcome
const LOSS = -WIN // Reward for loss outcome (negate from opponent perspective)
