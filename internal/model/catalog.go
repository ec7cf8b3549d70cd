package model

import "github.com/nao1215/nnmdl/internal/sizer"

// Medals that mark a topic as a promotional free download.
const (
	MedalPlatinum = "platinum"
	MedalGold     = "gold"
)

// Topic is a single catalog entry.
type Topic struct {
	// ID is the topic id (viewtopic.php?t=<ID>).
	ID string `json:"t_id"`

	// Name is the topic title.
	Name string `json:"name"`

	// DownloadID identifies the torrent payload; 0 when the topic has none.
	DownloadID int64 `json:"dl_id"`

	// Alive is true when the topic had at least one seeder at crawl time.
	Alive bool `json:"alive"`

	// Bytes is the payload size parsed from Size.
	Bytes int64 `json:"bytes"`

	// Size is the size string as printed by the site.
	Size string `json:"size,omitempty"`

	// Medal is the promotional tag of the topic, empty when there is none.
	Medal string `json:"medal,omitempty"`
}

// Downloadable reports whether the topic carries a torrent payload.
func (t Topic) Downloadable() bool {
	return t.DownloadID > 0
}

// Free reports whether the topic carries a free-download medal.
func (t Topic) Free() bool {
	return t.Medal == MedalPlatinum || t.Medal == MedalGold
}

// Stats holds the aggregates of a subtree.
type Stats struct {
	// TopicsCnt counts every topic of the subtree.
	TopicsCnt int `json:"topics_cnt"`

	// TotalCnt counts downloadable topics.
	TotalCnt int `json:"total_cnt"`

	// AliveCnt counts downloadable topics that are alive.
	AliveCnt int `json:"alive_cnt"`

	// TotalBytes sums the size of every topic.
	TotalBytes int64 `json:"total_bytes"`

	// AliveBytes sums the size of alive topics.
	AliveBytes int64 `json:"alive_bytes"`

	// TotalSize is TotalBytes formatted for display.
	TotalSize string `json:"total_size"`

	// AliveSize is AliveBytes formatted for display.
	AliveSize string `json:"alive_size"`
}

// add accumulates other into s.
func (s *Stats) add(other Stats) {
	s.TopicsCnt += other.TopicsCnt
	s.TotalCnt += other.TotalCnt
	s.AliveCnt += other.AliveCnt
	s.TotalBytes += other.TotalBytes
	s.AliveBytes += other.AliveBytes
}

// format fills the display sizes from the byte counters.
func (s *Stats) format() {
	s.TotalSize = sizer.Format(s.TotalBytes)
	s.AliveSize = sizer.Format(s.AliveBytes)
}

// TopicStats computes the aggregates of a flat list of topics.
func TopicStats(topics []Topic) Stats {
	var s Stats
	for _, t := range topics {
		s.TopicsCnt++
		s.TotalBytes += t.Bytes
		if t.Alive {
			s.AliveBytes += t.Bytes
		}
		if t.Downloadable() {
			s.TotalCnt++
			if t.Alive {
				s.AliveCnt++
			}
		}
	}
	return s
}

// Forum is a listing page that owns topics and may contain nested forums.
type Forum struct {
	ID       string `json:"f_id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`

	// DeclaredTopics is the topic count reported by the parent listing.
	DeclaredTopics int `json:"declared_topics"`

	Stats

	Topics []Topic   `json:"topics"`
	Forums []*Forum `json:"forums"`
}

// Aggregate recomputes the statistics of the forum and of every nested
// forum from their topics.
func (f *Forum) Aggregate() {
	stats := TopicStats(f.Topics)
	for _, child := range f.Forums {
		child.Aggregate()
		stats.add(child.Stats)
	}
	stats.format()
	f.Stats = stats
}

// DownloadableTopics returns the forum's own downloadable topics in listing order.
func (f *Forum) DownloadableTopics() []Topic {
	result := make([]Topic, 0, len(f.Topics))
	for _, t := range f.Topics {
		if t.Downloadable() {
			result = append(result, t)
		}
	}
	return result
}

// Category is the root of a catalog snapshot.
type Category struct {
	ID   string `json:"c_id"`
	Name string `json:"name"`

	Stats

	Forums []*Forum `json:"forums"`
}

// Aggregate recomputes the statistics of the whole tree.
func (c *Category) Aggregate() {
	var stats Stats
	for _, f := range c.Forums {
		f.Aggregate()
		stats.add(f.Stats)
	}
	stats.format()
	c.Stats = stats
}

// Walk calls fn for every forum in depth-first document order. Forums
// directly under the category have depth 1.
func (c *Category) Walk(fn func(f *Forum, depth int)) {
	var walk func(forums []*Forum, depth int)
	walk = func(forums []*Forum, depth int) {
		for _, f := range forums {
			fn(f, depth)
			walk(f.Forums, depth+1)
		}
	}
	walk(c.Forums, 1)
}

// Forum finds a forum anywhere in the tree by id.
func (c *Category) Forum(id string) (*Forum, bool) {
	var found *Forum
	c.Walk(func(f *Forum, _ int) {
		if found == nil && f.ID == id {
			found = f
		}
	})
	return found, found != nil
}

// Parent returns the parent forum of f, or nil when f hangs directly off the category.
func (c *Category) Parent(f *Forum) *Forum {
	if f.ParentID == "" || f.ParentID == c.ID {
		return nil
	}
	parent, _ := c.Forum(f.ParentID)
	return parent
}
