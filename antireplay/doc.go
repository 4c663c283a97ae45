// Package antireplay detects duplicated broadcast frames.
//
// The verifier of the authenticated market-data channel rejects frames
// whose sequence number does not advance, but frames replayed under a
// fresh capture window still need a digest memory. This package keeps
// that memory in a Stable Bloom Filter: constant space, a configurable
// false positive rate, and no false negatives within the stable window.
//
// Defaults are 1 MB of memory and a 1% false positive rate, which is a
// reasonable balance for a single gateway's broadcast volume. A false
// positive drops a legitimate frame; market-data consumers already
// tolerate UDP loss, so the occasional rejection is acceptable.
//
// Based on "Approximately Detecting Duplicates for Streaming Data using
// Stable Bloom Filters" by Deng and Rafiei (2006).
package antireplay
