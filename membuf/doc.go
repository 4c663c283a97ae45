// membuf provides bounded memory primitives used on message parsing
// paths: a guard-page protected scratch buffer, fixed-capacity buffers
// and strings with hard-fail overflow semantics, and owning wrappers
// for file descriptors and typed allocations.
//
// A failed operation never mutates prior state. Overflow failures are
// reported as *OverflowError and denote a framing or protocol bug in
// the caller, not an expected runtime condition.
package membuf
