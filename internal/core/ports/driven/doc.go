// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the FreshRSS content source, the vector
// store, and the embedding and rerank HTTP services.
package driven
