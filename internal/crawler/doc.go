// Package crawler walks the tracker catalog and builds a model.Category.
//
// # Architecture
//
// Crawler drives the walk and Parser extracts data from single pages. The
// walk is strictly sequential: the category page lists the top forums, and
// every forum page may list nested forums next to its topics. Forum pages
// are paginated by TOPICS_PER_PAGE; the page count is the larger of the
// pager and the topic count declared by the parent listing.
//
// # Failure handling
//
// A failed category page is an error and no snapshot is produced. A failed
// forum page truncates that forum's topic list at the last page that loaded
// and the walk goes on with the remaining forums. Nodes that cannot be
// parsed are logged and left without data.
//
// # Usage
//
//	c := crawler.New(client, crawler.WithMaxDepth(4))
//	category, err := c.Category(ctx, "14")
package crawler
