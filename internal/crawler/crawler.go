// Package crawler enumerates the in-scope URLs of a single site and
// fetches their content. Discovery prefers /sitemap.xml and falls back
// to homepage anchors. Everything off-host is filtered out and the set
// is capped, preserving discovery order.
package crawler

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/Golden-YG/Chatbox/config"
	"github.com/Golden-YG/Chatbox/internal/fetch"
)

type Crawler struct {
	site     *url.URL
	fetcher  fetch.Fetcher
	limiter  *rate.Limiter
	maxPages int
	logger   *log.Logger
}

// New creates a crawler scoped to cfg.Site.
func New(fetcher fetch.Fetcher, cfg config.CrawlConfig, logger *log.Logger) (*Crawler, error) {
	site, err := url.Parse(strings.TrimSpace(cfg.Site))
	if err != nil {
		return nil, fmt.Errorf("invalid site url %q: %w", cfg.Site, err)
	}
	if (site.Scheme != "http" && site.Scheme != "https") || site.Host == "" {
		return nil, fmt.Errorf("site url must be absolute http(s), got %q", cfg.Site)
	}

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 40
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 4
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[CRAWL] ", log.LstdFlags)
	}

	return &Crawler{
		site:     site,
		fetcher:  fetcher,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		maxPages: maxPages,
		logger:   logger,
	}, nil
}

// Site returns the configured origin URL.
func (c *Crawler) Site() string { return c.site.String() }

// Discover returns the in-scope page URLs, same-host filtered, deduped
// and capped at the configured limit. A missing or empty sitemap is not
// an error; the homepage fallback kicks in.
func (c *Crawler) Discover(ctx context.Context) ([]string, error) {
	candidates, err := c.fromSitemap(ctx)
	if err != nil || len(candidates) == 0 {
		if err != nil {
			c.logger.Printf("WARN sitemap unavailable for %s: %v", c.site, err)
		}
		candidates, err = c.fromHomepage(ctx)
		if err != nil {
			return nil, fmt.Errorf("discover urls for %s: %w", c.site, err)
		}
	}
	return c.filter(candidates), nil
}

// Fetch retrieves a single page through the politeness limiter.
func (c *Crawler) Fetch(ctx context.Context, pageURL string) (fetch.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return fetch.Result{}, err
	}
	return c.fetcher.Fetch(ctx, pageURL)
}

func (c *Crawler) fromSitemap(ctx context.Context) ([]string, error) {
	sitemapURL := c.site.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
	res, err := c.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	locs, err := parseLocs(strings.NewReader(res.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}
	return locs, nil
}

func (c *Crawler) fromHomepage(ctx context.Context) ([]string, error) {
	res, err := c.Fetch(ctx, c.site.String())
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse homepage: %w", err)
	}

	// The homepage itself is a retrieval source too, not just a link hub.
	urls := []string{c.site.String()}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		urls = append(urls, c.site.ResolveReference(ref).String())
	})
	return urls, nil
}

// filter applies the same-host rule, dedupes on the canonical form and
// truncates to maxPages, keeping discovery order.
func (c *Crawler) filter(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, candidate := range raw {
		u, err := url.Parse(strings.TrimSpace(candidate))
		if err != nil {
			continue
		}
		if !sameHost(c.site, u) {
			continue
		}
		key := canonical(u)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
		if len(out) >= c.maxPages {
			break
		}
	}
	return out
}

// parseLocs scans XML for <loc> character data. Working on tokens keeps
// it agnostic to whether the document is a urlset or a sitemapindex.
func parseLocs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var locs []string
	inLoc := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inLoc = t.Name.Local == "loc"
		case xml.EndElement:
			inLoc = false
		case xml.CharData:
			if inLoc {
				if loc := strings.TrimSpace(string(t)); loc != "" {
					locs = append(locs, loc)
				}
			}
		}
	}
	return locs, nil
}
