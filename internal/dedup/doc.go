// Package dedup collapses equivalent findings under two distinct
// policies.
//
// Complete findings (from agents that finished successfully) dedup on an
// agent-independent fingerprint: two agents reporting the same issue
// yield one surviving finding. Partial findings (salvaged from failed
// agents) dedup per agent: the same apparent issue from two different
// failed agents stays as two findings, because conflating independent
// low-confidence salvage would misstate confidence.
//
// Both functions are idempotent and order-independent in the sets they
// produce; only the arbitrary survivor of a duplicate pair can vary.
package dedup
