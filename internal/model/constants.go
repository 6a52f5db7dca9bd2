package model

// DefaultT95Days is the maturity horizon assumed for an edge whose latency is
// enabled but carries no fitted t95 of its own.
const DefaultT95Days = 30.0
