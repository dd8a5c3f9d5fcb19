// Package impact models per-asset hazard impact distributions and their
// sampling views.
//
// An impact distribution describes the uncertain fractional effect of a hazard
// on one asset: either a damage fraction (permanent loss of asset value) or a
// disruption fraction (loss of periodic cashflow). Distributions are produced
// by an external impact source and consumed by the aggregation engine, which
// only needs three things from them: the impact type, the hazard event they
// belong to, and an exceedance curve to sample from.
//
// # Exceedance Curves
//
// An exceedance curve maps exceedance probability (the probability that the
// impact meets or exceeds a magnitude) to that magnitude. Because the mapping
// is monotonic it is invertible, so feeding uniform(0,1) draws through the
// curve yields samples from the underlying distribution. Curve implementations
// must be pure functions of their draws: no hidden state, so that sampling is
// reproducible given a fixed random source.
//
// ExceedCurve is the provided implementation: a piecewise-linear curve over
// explicit (probability, value) points with monotonicity validation. Distrib
// derives one from histogram bins. Callers with analytic curves can implement
// Curve directly.
//
// # Impact Sources
//
// Source is the contract for the external component that computes impact
// distributions for a batch of assets under a scenario and projection year.
// The engine treats it as opaque and deterministic for fixed inputs.
package impact
