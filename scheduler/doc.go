// Package scheduler selects a scheduling strategy for a classified scene and
// materializes an execution plan from it. Selection is a pure scoring
// function over a registration-ordered catalog of Strategy values; there is
// no type switching and no ambient global catalog.
//
// The scoring blends three signals: the strategy's self-reported
// applicability, its historical success rate, and a context-fitness bonus for
// known scene/strategy affinities. Hard overrides (urgency, emotional
// support, creative brainstorming) precede scoring but only apply when the
// preferred strategy is itself applicable.
//
// Schedule never fails: when no strategy applies or plan construction errors,
// it falls back to a single-phase sequential plan over the top responders in
// registry order.
package scheduler
