package model

import "time"

// DownloadRecord is the ordered set of download ids a user already fetched.
type DownloadRecord struct {
	User string
	ids  []int64
	seen map[int64]struct{}
}

// NewDownloadRecord builds a record from the persisted id list.
func NewDownloadRecord(user string, ids []int64) *DownloadRecord {
	r := &DownloadRecord{
		User: user,
		ids:  make([]int64, 0, len(ids)),
		seen: make(map[int64]struct{}, len(ids)),
	}
	for _, id := range ids {
		r.Add(id)
	}
	return r
}

// Contains reports whether id was already downloaded.
func (r *DownloadRecord) Contains(id int64) bool {
	_, ok := r.seen[id]
	return ok
}

// Add appends id, ignoring duplicates. It reports whether id was new.
func (r *DownloadRecord) Add(id int64) bool {
	if r.Contains(id) {
		return false
	}
	r.seen[id] = struct{}{}
	r.ids = append(r.ids, id)
	return true
}

// IDs returns the ids in the order they were recorded.
func (r *DownloadRecord) IDs() []int64 {
	out := make([]int64, len(r.ids))
	copy(out, r.ids)
	return out
}

// Len returns the number of recorded ids.
func (r *DownloadRecord) Len() int {
	return len(r.ids)
}

// DownloadEntry is a journal line for one fetched payload.
type DownloadEntry struct {
	User       string
	DownloadID int64
	TopicID    string
	Filename   string
	Bytes      int64
	At         time.Time
}
