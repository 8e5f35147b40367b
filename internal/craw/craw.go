package craw

import (
	"bytes"
	"fmt"
	"time"

	"github.com/davidleitw/msgarchive/internal/parser"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout   = 30 * time.Second
	scrapingInterval = 1 * time.Second
)

type Crawler interface {
	// Fetch returns the raw body of url. It serves remote includes.
	Fetch(url string) ([]byte, error)

	// ImportThread reads every page of the thread at url.
	ImportThread(url string) (*Import, error)
}

type crawler struct {
	client   *resty.Client
	interval time.Duration
}

var (
	_ Crawler        = (*crawler)(nil)
	_ parser.Fetcher = (*crawler)(nil)
)

type Option func(*crawler)

func Timeout(timeout time.Duration) Option {
	return func(c *crawler) {
		c.client.SetTimeout(timeout)
	}
}

// Interval sets the pause between two page requests of one import.
func Interval(interval time.Duration) Option {
	return func(c *crawler) {
		c.interval = interval
	}
}

func NewCrawler(opts ...Option) Crawler {
	c := &crawler{
		client: resty.New().
			SetHeader("User-Agent", "Mozilla/5.0").
			SetTimeout(defaultTimeout),
		interval: scrapingInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *crawler) Fetch(url string) ([]byte, error) {
	res, err := c.client.R().Get(url)
	if err != nil {
		logrus.WithError(err).Errorf("GET %s failed", url)
		return nil, err
	}
	if res.IsError() {
		err := fmt.Errorf("GET %s: %s", url, res.Status())
		logrus.WithError(err).Error("unexpected response status")
		return nil, err
	}
	return res.Body(), nil
}

func (c *crawler) fetchPage(url string) (*Page, error) {
	body, err := c.Fetch(url)
	if err != nil {
		return nil, err
	}
	page, err := ParsePage(bytes.NewReader(body))
	if err != nil {
		logrus.WithError(err).Error("ParsePage failed")
		return nil, err
	}
	return page, nil
}

func (c *crawler) ImportThread(url string) (*Import, error) {
	target, err := GetTargetFromUrl(url)
	if err != nil {
		logrus.WithError(err).Error("GetTargetFromUrl failed")
		return nil, err
	}

	first, err := c.fetchPage(target.PageUrl(1))
	if err != nil {
		return nil, err
	}
	floors := first.Floors
	for page := 2; page <= first.LastPage; page++ {
		time.Sleep(c.interval)
		next, err := c.fetchPage(target.PageUrl(page))
		if err != nil {
			logrus.WithError(err).Errorf("fetch page %d failed", page)
			return nil, err
		}
		floors = append(floors, next.Floors...)
	}
	logrus.WithField("floors", len(floors)).Debugf("imported %d pages of %s", first.LastPage, first.Title)

	return BuildImport(target.Sna, first.Title, floors)
}
