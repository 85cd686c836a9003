// Package gauge implements the two core operations of stack painting:
// the one-time sentinel fill of a stack region and the read-only
// contiguous-prefix scan that estimates unused stack space.
//
// A Gauge binds a memory window (offset 0 at the deep end of the region)
// to a sentinel byte. Paint overwrites the whole window once, before the
// region is first used as a stack. Unused counts sentinel bytes from
// offset 0 upward and stops at the first mismatch; the count is the number
// of bytes never touched since Paint.
//
// Ordering is the caller's contract: painting after the stack is live
// corrupts it, and scanning before painting returns a meaningless number.
// Neither is detected at runtime.
package gauge
