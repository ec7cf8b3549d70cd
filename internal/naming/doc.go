// Package naming provides filesystem-safe name normalization and greedy
// truncation of word sequences.
package naming
