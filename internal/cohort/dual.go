package cohort

// DualCounts combines a base aggregation with an upstream-conditioned one
// into a single (n, k) pair.
//
// A query conditioned on an upstream event already excludes arrivals that did
// not pass the condition, so its own n double-counts the condition. The base
// query (condition stripped) supplies the denominator - all arrivals at the
// from-node - while the conditioned query supplies k, the arrivals that passed
// the condition and converted.
//
// When the edge names an explicit n-query, useCompletions is true and the base
// query's completion count (its k, not its n) becomes the denominator: the
// n-query defines arrival by completing some reference step.
func DualCounts(base, conditioned *Aggregation, useCompletions bool) (n, k float64) {
	k = conditioned.K
	if useCompletions {
		n = base.K
	} else {
		n = base.N
	}
	return n, k
}
