// Package branchconfig resolves and saves the per branch overrides of setting definitions.
//
// Resolution merges the active "branches" definitions with the stored overrides of every
// branch of a market and tells for each cell whether the acting role may edit it. Saving
// applies a batch of submitted cells, dropping those the role may not touch, and never
// stores a value equal to the definition default.
package branchconfig
