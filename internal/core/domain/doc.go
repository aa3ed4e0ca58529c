// Package domain contains the core types of the feedlens index:
// entries read from FreshRSS, the chunks derived from them, query
// candidates, and the persisted sync checkpoint.
package domain
