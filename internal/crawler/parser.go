package crawler

import (
	"log/slog"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/nnmdl/internal/model"
	"github.com/nao1215/nnmdl/internal/sizer"
)

const (
	// categoryForumSelector matches forums on a category page.
	categoryForumSelector = "h3.forumlink"

	// nestedForumSelector matches forums listed on a forum page.
	nestedForumSelector = "h2.forumlink"

	topicSelector = "h2.topictitle"

	// pagerAnchor is the footer text the pager links sit next to.
	pagerAnchor = "Часовой пояс: GMT + 3"

	// medalMarker is part of the alt text of medal images.
	medalMarker = "раздача"
)

// Parser extracts catalog data from tracker pages.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// CategoryName returns the display name of category id, or "" if the page
// does not carry it.
func (p *Parser) CategoryName(doc *goquery.Document, id string) string {
	selector := `tr[onclick="CFIG_slideCat('` + id + `', false);"]`
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// CategoryForums returns the top forums listed on a category page.
func (p *Parser) CategoryForums(doc *goquery.Document, categoryID string) []*model.Forum {
	return p.forums(doc.Find(categoryForumSelector), categoryID)
}

// NestedForums returns the forums listed on a forum page.
func (p *Parser) NestedForums(doc *goquery.Document, parentID string) []*model.Forum {
	return p.forums(doc.Find(nestedForumSelector), parentID)
}

func (p *Parser) forums(heads *goquery.Selection, parentID string) []*model.Forum {
	var forums []*model.Forum
	seen := make(map[string]struct{})
	heads.Each(func(_ int, h *goquery.Selection) {
		href, _ := h.Find("a").First().Attr("href")
		id := queryParam(href, "f")
		if id == "" {
			p.logger.Warn("forum link without id", "parent", parentID, "href", href)
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		declared := 0
		cell := strings.TrimSpace(h.Parent().Parent().Find("td.row2").First().Text())
		if n, err := strconv.Atoi(cell); err == nil {
			declared = n
		} else if cell != "" {
			p.logger.Warn("unreadable topic count", "forum", id, "value", cell)
		}

		forums = append(forums, &model.Forum{
			ID:             id,
			Name:           strings.TrimSpace(h.Text()),
			ParentID:       parentID,
			DeclaredTopics: declared,
		})
	})
	return forums
}

// Topics returns the topics of a forum page in listing order.
func (p *Parser) Topics(doc *goquery.Document, forumID string) []model.Topic {
	var topics []model.Topic
	doc.Find(topicSelector).Each(func(_ int, h *goquery.Selection) {
		href, _ := h.Find("a").First().Attr("href")
		id := queryParam(href, "t")
		if id == "" {
			p.logger.Warn("topic link without id", "forum", forumID, "href", href)
			return
		}
		topic := model.Topic{ID: id, Name: strings.TrimSpace(h.Text())}

		cell := h.Parent()
		if cell.Find("span.tDL").Length() > 0 {
			p.fillDownload(&topic, h, forumID)
		}
		topics = append(topics, topic)
	})
	return topics
}

// fillDownload reads the download cell of a downloadable topic row.
func (p *Parser) fillDownload(topic *model.Topic, h *goquery.Selection, forumID string) {
	seeds := h.Parent().Parent().Find("td.row2").First()
	link := seeds.Find("a").First()
	if link.Length() == 0 {
		return
	}

	href, _ := link.Attr("href")
	dl, err := strconv.ParseInt(queryParam(href, "id"), 10, 64)
	if err != nil {
		p.logger.Warn("unreadable download id", "forum", forumID, "topic", topic.ID, "href", href)
		return
	}
	topic.DownloadID = dl

	if n, err := strconv.Atoi(strings.TrimSpace(seeds.Find("span.seedmed").First().Text())); err == nil {
		topic.Alive = n > 0
	}

	topic.Size = strings.TrimSpace(strings.ReplaceAll(link.Text(), "\u00a0", " "))
	if topic.Bytes, err = sizer.Parse(topic.Size); err != nil {
		p.logger.Warn("unreadable topic size", "forum", forumID, "topic", topic.ID, "error", err)
	}

	topic.Medal = medal(h.Parent())
}

// medal returns the file stem of the medal image in cell, if any.
func medal(cell *goquery.Selection) string {
	var stem string
	cell.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		alt, _ := img.Attr("alt")
		if !strings.Contains(alt, medalMarker) {
			return true
		}
		src, _ := img.Attr("src")
		base := path.Base(src)
		stem = strings.TrimSuffix(base, path.Ext(base))
		return false
	})
	return stem
}

// PageCount returns the number of listing pages announced by the pager.
// A page without a pager has one page.
func (p *Parser) PageCount(doc *goquery.Document) int {
	count := 1
	doc.Find("span.gensmall").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != pagerAnchor {
			return true
		}
		s.Parent().Find("a").Each(func(_ int, a *goquery.Selection) {
			if n, err := strconv.Atoi(strings.TrimSpace(a.Text())); err == nil && n > count {
				count = n
			}
		})
		return false
	})
	return count
}

// queryParam returns a query parameter of a possibly relative link.
func queryParam(href, key string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}
