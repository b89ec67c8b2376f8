// Package diff computes the merge patch that converges an observed
// document onto a desired one.
//
// Only keys the desired document mentions are considered; anything
// the external system adds on its own (timestamps, generated IDs,
// extra annotations) is left alone. An explicit null in the desired
// document is a tombstone: the key should not exist.
//
// Mappings are merged key by key, because keys give fields a stable
// identity. Sequences are not: either every element converges
// pairwise, in which case the sequence is left out of the patch, or
// the desired sequence replaces the observed one wholesale.
package diff
