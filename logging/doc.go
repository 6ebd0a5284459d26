// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer ChorusLogger with contextual
// helpers (component, turn) and domain specific logging helpers for strategy
// selection, phase execution and aggregation.
package logging
