// Package wiki talks to a MediaWiki api.php endpoint using the
// action=query family of requests.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/config"
)

type Client struct {
	apiURL    string
	userAgent string
	pageLimit int
	delay     time.Duration
	client    *http.Client
}

func NewClient(cfg config.Config, httpClient *http.Client) *Client {
	return &Client{
		apiURL:    strings.TrimSuffix(cfg.BaseURL, "/") + "/api.php",
		userAgent: cfg.UserAgent,
		pageLimit: cfg.PageLimit,
		delay:     cfg.Delay,
		client:    httpClient,
	}
}

// TitleList is the outcome of paginating list=allpages. Titles holds
// whatever was accumulated in server order. Complete reports whether the
// listing reached the end of the wiki; when false, Err carries the cause
// and Titles is a partial result.
type TitleList struct {
	Titles   []string
	Complete bool
	Err      error
}

type listResponse struct {
	Continue struct {
		Apcontinue string `json:"apcontinue"`
	} `json:"continue"`
	Query struct {
		AllPages []struct {
			Title string `json:"title"`
		} `json:"allpages"`
	} `json:"query"`
}

type revisionsResponse struct {
	Query struct {
		Pages map[string]struct {
			Revisions []struct {
				Slots struct {
					Main struct {
						Content string `json:"*"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// ListTitles enumerates every main-namespace page title, following the
// apcontinue cursor until the server stops returning one. A fixed delay is
// inserted between listing requests.
func (c *Client) ListTitles(ctx context.Context) TitleList {
	var titles []string
	continueToken := ""
	for {
		params := url.Values{}
		params.Set("action", "query")
		params.Set("list", "allpages")
		params.Set("aplimit", strconv.Itoa(c.pageLimit))
		params.Set("apnamespace", "0")
		params.Set("format", "json")
		if continueToken != "" {
			params.Set("apcontinue", continueToken)
		}

		var page listResponse
		if err := c.get(ctx, params, &page); err != nil {
			return TitleList{Titles: titles, Complete: false, Err: err}
		}
		for _, p := range page.Query.AllPages {
			titles = append(titles, p.Title)
		}
		if page.Continue.Apcontinue == "" {
			return TitleList{Titles: titles, Complete: true}
		}
		continueToken = page.Continue.Apcontinue

		if !sleep(ctx, c.delay) {
			return TitleList{Titles: titles, Complete: false, Err: ctx.Err()}
		}
	}
}

// PageContent fetches the latest revision markup for a title. The second
// return is false when the page has no revisions.
func (c *Client) PageContent(ctx context.Context, title string) (string, bool, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "revisions")
	params.Set("titles", title)
	params.Set("rvprop", "content")
	params.Set("rvslots", "main")
	params.Set("format", "json")

	var resp revisionsResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return "", false, err
	}
	for _, page := range resp.Query.Pages {
		if len(page.Revisions) > 0 {
			return page.Revisions[0].Slots.Main.Content, true, nil
		}
	}
	return "", false, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	target := c.apiURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query failed for %s: %s", c.apiURL, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", c.apiURL, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
