// Package runs implements array runs: tables of fixed-layout records laid over
// a ROM buffer and described by a compact format string.
//
// # Format Grammar
//
//	[name""10 hp. atk. ptr<> kind.types]151
//	^[entry:: next<>]
//
// The bracketed part lists segments, each a name followed by a type token:
//
//	""N   text of N bytes (pcs encoded, 0xFF terminated)
//	.     1-byte integer
//	:     2-byte integer
//	.:    3-byte integer (also :.)
//	::    4-byte integer
//	<>    4-byte pointer
//
// An integer token directly followed by an identifier is an enum: the value
// indexes into the array anchored by that name, whose first segment is text.
//
// The token after the closing bracket sets the element count: empty means
// detect it from the data, a number fixes it, and a name copies the count of
// the array anchored by that name. A leading ^ lets pointers target
// individual elements, not just the start of the array.
//
// # Values
//
// Runs are values. Append, Move and the source operations return a new
// ArrayRun and leave the receiver unchanged; the model holds the current one.
//
// # Lookups
//
// Enum options are read from other arrays. A Lookup caches them per buffer
// revision; every function that takes a *Lookup also accepts nil, which
// disables caching.
package runs
