// Package segalloc implements a segregated explicit free-list allocator
// over a single contiguous, monotonically-growing heap region.
//
// Blocks are laid out with boundary tags. An allocated block has no
// footer; a free block has one unless it is exactly MIN_BLOCK bytes
// (footer elision), in which case its size is recovered from the
// PREV_MIN bit carried in its successor's header instead.
//
//	allocated block:            free block (size > MIN_BLOCK):
//	+----------------+          +----------------+
//	| header (8B)    |          | header (8B)    |
//	+----------------+          +----------------+
//	| payload        |          | next (8B)      |
//	| ...            |          +----------------+
//	+----------------+          | prev (8B)      |
//	                            +----------------+
//	                            | ... (unused)   |
//	                            +----------------+
//	                            | footer (8B)    |
//	                            +----------------+
//
//	minimum free block (size == MIN_BLOCK == 16, no footer):
//	+----------------+
//	| header (8B)    |
//	+----------------+
//	| next (8B)      |  singly-linked: only one pointer fits
//	+----------------+
//
// Each header word packs the block size into bits 63..4 and three
// single-bit tags into bits 2..0: PREV_MIN (bit 2), PREV_ALLOC (bit 1)
// and ALLOC (bit 0). PREV_ALLOC and PREV_MIN describe the block
// immediately before this one, not this block itself, which is what
// lets an allocated predecessor's footer be omitted entirely.
//
// The allocator itself never touches the OS: it is driven through the
// simheap.Accessor interface, which models sbrk-style heap growth over
// a fixed-address backing slab.
package segalloc
