// Package splitplan resolves where an audio stream gets cut.
//
// Explicit split points and quiet-point search ranges merge into one ordered
// plan: a sorted point list plus a delay vector with one entry per resulting
// segment. The plan is handed read-only to the assembler, which never has to
// re-derive boundary arithmetic.
package splitplan
