package fetch

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/erik-esparza/rival-review/internal/model"
)

// Selectors for the marketplace search result markup.
const (
	selectorAppCard     = "[data-controller='app-card']"
	selectorCardLink    = "a[href^='https://apps.shopify.com/']"
	selectorAdMarker    = "[data-controller='popover-modal']"
	selectorBFSBadge    = ".built-for-shopify-badge"
	selectorEmptyHeader = "#app-header > div > p"
)

// emptyResultsPrefix is how the marketplace announces an exhausted listing.
const emptyResultsPrefix = "Sorry, nothing here"

// badURLPatterns matches listing links that are navigation chrome rather
// than app pages.
var badURLPatterns = regexp.MustCompile(`(categories|stories|sitemap|login|help|about|support)`)

// digitsOnly matches card titles that are pagination numbers.
var digitsOnly = regexp.MustCompile(`^\d+$`)

// FetchRanking fetches the ranked search listing for cfg's query, walking
// pages until the marketplace reports no more results or maxPages is
// reached. The returned snapshot holds every card in page order, ads
// included; only organic cards carry ranks, dense from 1.
func (c *Client) FetchRanking(ctx context.Context, searchURL, query string, maxPages int) (*model.Snapshot, error) {
	snapshot := model.NewSnapshot(query)
	snapshot.CapturedAt = time.Now()

	// Duplicate suppression is tracked separately for ads and organic
	// results: the same app may legitimately appear once as each.
	seenAds := make(map[string]bool)
	seenOrganic := make(map[string]bool)
	rank := 0

	for page := 1; page <= maxPages; page++ {
		pageURL, err := searchPageURL(searchURL, query, page)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("fetching search page", "page", page, "url", pageURL)
		doc, err := c.GetDocument(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}

		if header := doc.Find(selectorEmptyHeader).First(); header.Length() > 0 {
			if strings.HasPrefix(strings.TrimSpace(header.Text()), emptyResultsPrefix) {
				c.logger.Debug("listing exhausted", "page", page)
				break
			}
		}

		cards := parseSearchPage(doc)
		if len(cards) == 0 {
			c.logger.Debug("no app cards on page", "page", page)
			break
		}

		for _, app := range cards {
			if app.Ad {
				if seenAds[app.URL] {
					continue
				}
				seenAds[app.URL] = true
			} else {
				if seenOrganic[app.URL] {
					continue
				}
				seenOrganic[app.URL] = true
				rank++
				app.Rank = rank
			}
			snapshot.Apps = append(snapshot.Apps, app)
		}
	}

	return snapshot, nil
}

// parseSearchPage extracts the app cards from one search result page.
// Cards without both a usable title and link are dropped here; rank
// assignment and deduplication are the caller's concern.
func parseSearchPage(doc *goquery.Document) []model.App {
	var apps []model.App

	doc.Find(selectorAppCard).Each(func(_ int, card *goquery.Selection) {
		link := card.Find(selectorCardLink).First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		title := strings.TrimSpace(link.Text())
		cleaned := cleanURL(href)

		if title == "" || cleaned == "" {
			return
		}
		if badURLPatterns.MatchString(cleaned) {
			return
		}
		if digitsOnly.MatchString(title) || title == "Previous" || title == "Next" {
			return
		}

		apps = append(apps, model.App{
			Name:            title,
			URL:             cleaned,
			Ad:              card.Find(selectorAdMarker).Length() > 0,
			BuiltForShopify: card.Find(selectorBFSBadge).Length() > 0,
		})
	})

	return apps
}

// searchPageURL builds the URL for one search result page.
func searchPageURL(searchURL, query string, page int) (string, error) {
	u, err := url.Parse(searchURL)
	if err != nil {
		return "", fmt.Errorf("invalid search URL %q: %w", searchURL, err)
	}
	q := u.Query()
	q.Set("q", query)
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// cleanURL strips the entire query string when any tracking ("surface")
// parameter is present, leaving the canonical listing URL.
func cleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	for key := range u.Query() {
		if strings.Contains(strings.ToLower(key), "surface") {
			u.RawQuery = ""
			u.Fragment = ""
			return u.String()
		}
	}
	return raw
}
