package craw

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

type Reply struct {
	AuthorName string
	AuthorId   string
	Content    string
}

type Floor struct {
	Index      int
	AuthorName string
	AuthorId   string
	Date       string
	Time       string
	Content    string
	Replies    []*Reply
}

// Page is one rendered page of a forum thread.
type Page struct {
	Title    string
	LastPage int
	Floors   []*Floor
}

func getAuthorIdFromHref(href string) string {
	parts := strings.Split(strings.TrimRight(href, "/"), "/")
	return parts[len(parts)-1]
}

// cleanText trims every line of s and drops leading and trailing blank lines,
// matching how message bodies are stored in an archive file.
func cleanText(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

func parseReplies(selection *goquery.Selection) []*Reply {
	replies := make([]*Reply, 0)
	selection.Find("div.c-reply__item>div>div.reply-content").Each(func(i int, s *goquery.Selection) {
		user := s.Find("a.reply-content__user")
		href, exist := user.Attr("href")
		if !exist {
			logrus.Errorf("reply %d: a.reply-content__user href not found", i)
			return
		}
		replies = append(replies, &Reply{
			AuthorName: strings.TrimSpace(user.Text()),
			AuthorId:   getAuthorIdFromHref(href),
			Content:    cleanText(s.Find("article.c-article>span.comment_content").Text()),
		})
	})
	return replies
}

func parseFloor(selection *goquery.Selection) (*Floor, error) {
	if id, exist := selection.Attr("id"); !exist || strings.Contains(id, "disable") {
		return nil, nil
	}

	main := selection.Find("div.c-section__main")
	author := main.Find("div.c-post__header__author")
	floorIndex, exist := author.Find("a.floor").Attr("data-floor")
	if !exist {
		return nil, errors.New("floor index not found")
	}
	index, err := strconv.Atoi(floorIndex)
	if err != nil {
		logrus.WithError(err).Errorf("strconv.Atoi %s failed", floorIndex)
		return nil, err
	}

	floor := &Floor{
		Index:      index,
		AuthorName: strings.TrimSpace(author.Find("a.username").Text()),
		AuthorId:   strings.TrimSpace(author.Find("a.userid").Text()),
		Content:    cleanText(main.Find("div.c-article__content").Text()),
		Replies:    parseReplies(main.Find("div.c-reply")),
	}
	// data-mtime looks like "2024-07-01 08:00:00".
	if mtime, ok := main.Find("div.c-post__header__info a.edittime").Attr("data-mtime"); ok {
		floor.Date, floor.Time, _ = strings.Cut(strings.TrimSpace(mtime), " ")
	}
	return floor, nil
}

// ParsePage reads one thread page. Floors that cannot be read are logged and skipped.
func ParsePage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		logrus.WithError(err).Error("goquery.NewDocumentFromReader failed")
		return nil, err
	}

	page := &Page{
		Title:    strings.TrimSpace(doc.Find("div.c-post__header>h1.c-post__header__title").First().Text()),
		LastPage: 1,
		Floors:   make([]*Floor, 0),
	}
	if last, err := strconv.Atoi(strings.TrimSpace(doc.Find("p.BH-pagebtnA>a").Last().Text())); err == nil && last > 1 {
		page.LastPage = last
	}

	doc.Find("section.c-section[id]").Each(func(i int, s *goquery.Selection) {
		floor, err := parseFloor(s)
		if err != nil {
			logrus.WithError(err).Errorf("parseFloor %d failed", i)
			return
		}
		if floor != nil {
			page.Floors = append(page.Floors, floor)
		}
	})
	return page, nil
}
