package downloader

import (
	"fmt"

	"github.com/nao1215/nnmdl/internal/model"
)

// Flatten returns the downloadable topics under forumID in document order:
// each forum contributes at most limit of its own topics, followed by the
// flattened lists of its nested forums. Passing the category id selects
// every forum. A limit of zero or less means no limit.
func Flatten(category *model.Category, forumID string, limit int) ([]model.Topic, error) {
	var forums []*model.Forum
	if forumID == category.ID {
		forums = category.Forums
	} else {
		f, ok := category.Forum(forumID)
		if !ok {
			return nil, fmt.Errorf("%w: %s in category %s", ErrForumNotFound, forumID, category.ID)
		}
		forums = []*model.Forum{f}
	}

	topics := []model.Topic{}
	for _, f := range forums {
		topics = appendForum(topics, f, limit)
	}
	return topics, nil
}

func appendForum(dst []model.Topic, f *model.Forum, limit int) []model.Topic {
	own := f.DownloadableTopics()
	if limit > 0 && len(own) > limit {
		own = own[:limit]
	}
	dst = append(dst, own...)
	for _, child := range f.Forums {
		dst = appendForum(dst, child, limit)
	}
	return dst
}

// FreeOnly keeps the topics that carry a free-download medal.
func FreeOnly(topics []model.Topic) []model.Topic {
	free := make([]model.Topic, 0, len(topics))
	for _, t := range topics {
		if t.Free() {
			free = append(free, t)
		}
	}
	return free
}
