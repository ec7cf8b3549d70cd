package downloader

import (
	"errors"
	"slices"
	"testing"

	"github.com/nao1215/nnmdl/internal/model"
)

func ids(topics []model.Topic) []int64 {
	out := make([]int64, 0, len(topics))
	for _, t := range topics {
		out = append(out, t.DownloadID)
	}
	return out
}

func flattenCategory() *model.Category {
	return &model.Category{
		ID: "14",
		Forums: []*model.Forum{
			{
				ID: "100",
				Topics: []model.Topic{
					{ID: "1", DownloadID: 1, Medal: model.MedalGold},
					{ID: "2"},
					{ID: "3", DownloadID: 3},
					{ID: "4", DownloadID: 4},
				},
				Forums: []*model.Forum{
					{ID: "101", ParentID: "100", Topics: []model.Topic{
						{ID: "5", DownloadID: 5, Medal: model.MedalPlatinum},
						{ID: "6", DownloadID: 6},
					}},
				},
			},
			{
				ID:     "200",
				Topics: []model.Topic{{ID: "7", DownloadID: 7, Medal: "silver"}},
			},
		},
	}
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		forumID string
		limit   int
		want    []int64
	}{
		{name: "forum with nested forum", forumID: "100", limit: 0, want: []int64{1, 3, 4, 5, 6}},
		{name: "limit applies per forum", forumID: "100", limit: 1, want: []int64{1, 5}},
		{name: "nested forum alone", forumID: "101", limit: 0, want: []int64{5, 6}},
		{name: "category id selects every forum", forumID: "14", limit: 2, want: []int64{1, 3, 5, 6, 7}},
		{name: "negative limit is unlimited", forumID: "200", limit: -1, want: []int64{7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Flatten(flattenCategory(), tt.forumID, tt.limit)
			if err != nil {
				t.Fatalf("Flatten() error = %v", err)
			}
			if !slices.Equal(ids(got), tt.want) {
				t.Errorf("Flatten() = %v, want %v", ids(got), tt.want)
			}
		})
	}

	t.Run("unknown forum", func(t *testing.T) {
		t.Parallel()
		if _, err := Flatten(flattenCategory(), "999", 0); !errors.Is(err, ErrForumNotFound) {
			t.Errorf("Flatten() error = %v, want ErrForumNotFound", err)
		}
	})
}

func TestFreeOnly(t *testing.T) {
	t.Parallel()

	all, err := Flatten(flattenCategory(), "14", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(FreeOnly(all)); !slices.Equal(got, []int64{1, 5}) {
		t.Errorf("FreeOnly() = %v, want [1 5]", got)
	}
	if got := FreeOnly(nil); len(got) != 0 {
		t.Errorf("FreeOnly(nil) = %v", got)
	}
}
