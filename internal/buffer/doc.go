// Package buffer implements the per-tenant accumulation point of the
// correlation pipeline: a lazily-populated tenant registry, a sliding
// flush window (every new alarm postpones the flush), and a size
// threshold that detaches and correlates a batch immediately.
//
// Locking discipline: one coarse lock for registry insertion, one fine
// lock per tenant guarding its record slice and timer handle. Batches
// are detached under the tenant lock; correlation and publishing always
// run outside it.
package buffer
