package craw

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Target identifies a forum thread page by the board (bsn) and thread (snA)
// query parameters used by the forum's thread URLs.
type Target struct {
	url *url.URL

	Bsn  int
	Sna  int
	Page int
}

func (target *Target) validate() error {
	if target == nil {
		return fmt.Errorf("target is nil")
	}
	if target.Bsn < 0 || target.Sna < 0 || target.Page < 0 {
		return fmt.Errorf("target is invalid")
	}
	return nil
}

// PageUrl returns the thread url with its page parameter replaced.
func (target *Target) PageUrl(page int) string {
	u := *target.url
	params := u.Query()
	params.Set("page", strconv.Itoa(page))
	u.RawQuery = params.Encode()
	return u.String()
}

func queryInt(params url.Values, key string) (int, error) {
	value := params.Get(key)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithError(err).Error("strconv.Atoi failed")
		return 0, err
	}
	return n, nil
}

func GetTargetFromUrl(rawURL string) (*Target, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		logrus.WithError(err).Error("url.Parse failed")
		return nil, err
	}

	target := &Target{url: parsedURL}
	params := parsedURL.Query()
	if target.Bsn, err = queryInt(params, "bsn"); err != nil {
		return nil, err
	}
	if target.Sna, err = queryInt(params, "snA"); err != nil {
		return nil, err
	}
	if target.Page, err = queryInt(params, "page"); err != nil {
		return nil, err
	}
	if err := target.validate(); err != nil {
		return nil, err
	}
	return target, nil
}
