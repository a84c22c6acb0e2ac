// Package budget holds the pure cost-estimation and branch-policy leaves
// consumed by the execution orchestrator.
//
// The gating rule is deliberately narrow: a pass is budget-gated only if
// at least one of its agents both uses a paid inference service and is not
// the designated free local agent. Everything else runs no matter how much
// of the budget is gone.
//
// Monthly spend is tracked in a small JSON ledger under the cache
// directory; it exists for the gating decision only, not for billing.
package budget
