// Package model defines the catalog tree and the download log shared by the
// crawler, the download manager and the report writers.
//
// The tree is Category -> Forum -> (Forum | Topic). Every Forum owns its
// topics and nested forums through pointers held by its parent; ParentID is
// a back-reference used only for lookup. Aggregated statistics are derived
// from the raw topic data by Aggregate and are recomputed after every crawl.
//
// All types serialize to JSON so that a category snapshot can be stored in
// the history document as a single value.
package model
