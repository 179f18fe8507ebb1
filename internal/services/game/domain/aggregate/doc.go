// Package aggregate holds the complete state of one game.
//
// State is the Entity Registry (players, companies, certificates, trains and
// map locations), the portfolio ledger, the stock market, the phase and train
// managers, and the cursor of the active round. Entities reference each other
// by identifier only, so State serialises as a plain JSON value and Clone
// produces an independent copy.
//
// Rounds mutate a clone of the committed state and the engine commits the
// clone only when the whole action succeeded. The helpers here are the shared
// building blocks those rounds use: certificate transfers with presidency
// checks, floating, private company closing, train rusting and phase effects.
package aggregate
