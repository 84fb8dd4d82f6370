package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/erik-esparza/rival-review/internal/model"
)

// Selectors for the review page markup.
const (
	selectorReviewCard   = "[data-merchant-review]"
	selectorStarRating   = "[aria-label$='out of 5 stars']"
	selectorReviewBody   = "[data-truncate-content-copy] > p"
	selectorOverallScore = ".app-reviews-metrics [aria-label$='out of 5 stars']"
	selectorNextPage     = "a[rel='next']"
)

// reviewDateLayouts are the date formats the marketplace renders review
// dates in. Rows matching none of them are discarded: an undated review
// cannot participate in window aggregation.
var reviewDateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
}

// FetchReviews walks an app's review pages and returns all parsed reviews.
// The overall score is read once from the first page and stamped onto every
// review from this run; it is never borrowed from another app's page.
func (c *Client) FetchReviews(ctx context.Context, app model.App) ([]model.Review, error) {
	collectedAt := time.Now()
	var reviews []model.Review
	var overall *float64

	for page := 1; ; page++ {
		pageURL, err := reviewPageURL(app.URL, page)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("fetching review page", "app", app.Name, "page", page)
		doc, err := c.GetDocument(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("reviews for %s page %d: %w", app.Name, page, err)
		}

		if page == 1 {
			overall = parseOverallScore(doc)
			if overall == nil {
				c.logger.Debug("overall rating not found", "app", app.Name)
			}
		}

		parsed, dropped := parseReviewPage(doc, app, overall, collectedAt)
		if dropped > 0 {
			c.logger.Debug("dropped reviews with unparseable dates",
				"app", app.Name,
				"page", page,
				"dropped", dropped,
			)
		}
		if len(parsed) == 0 && dropped == 0 {
			break // no reviews on this page means no more pages
		}
		reviews = append(reviews, parsed...)

		if doc.Find(selectorNextPage).Length() == 0 {
			break
		}
	}

	return reviews, nil
}

// FetchAllReviews fetches reviews for several apps, at most concurrency at
// a time. Results preserve the order of the input apps. A failure for one
// app fails the whole fetch: partial review history would silently skew the
// window aggregation.
func (c *Client) FetchAllReviews(ctx context.Context, apps []model.App, concurrency int) ([]model.Review, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	perApp := make([][]model.Review, len(apps))
	var mu sync.Mutex

	for i, app := range apps {
		g.Go(func() error {
			reviews, err := c.FetchReviews(ctx, app)
			if err != nil {
				return err
			}
			mu.Lock()
			perApp[i] = reviews
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Review
	for _, reviews := range perApp {
		all = append(all, reviews...)
	}
	return all, nil
}

// parseReviewPage extracts the reviews from one review page. It returns the
// parsed reviews and the count of rows dropped for unparseable dates.
func parseReviewPage(doc *goquery.Document, app model.App, overall *float64, collectedAt time.Time) ([]model.Review, int) {
	var reviews []model.Review
	dropped := 0

	doc.Find(selectorReviewCard).Each(func(_ int, card *goquery.Selection) {
		ratingSel := card.Find(selectorStarRating).First()
		rating, ok := parseStarRating(ratingSel)
		if !ok {
			dropped++
			return
		}

		// The review date sits in the div immediately after the rating.
		dateText := strings.TrimSpace(ratingSel.Next().Text())
		dateText = strings.TrimPrefix(dateText, "Edited ")
		reviewDate, ok := parseReviewDate(dateText)
		if !ok {
			dropped++
			return
		}

		reviews = append(reviews, model.Review{
			AppName:      app.Name,
			AppURL:       app.URL,
			ReviewDate:   reviewDate,
			StarRating:   rating,
			OverallScore: overall,
			Content:      strings.TrimSpace(card.Find(selectorReviewBody).First().Text()),
			CollectedAt:  collectedAt,
		})
	})

	return reviews, dropped
}

// parseOverallScore reads the app's aggregate rating from the review page
// metrics block. Nil when the block is missing or unreadable.
func parseOverallScore(doc *goquery.Document) *float64 {
	sel := doc.Find(selectorOverallScore).First()
	if score, ok := parseStarRating(sel); ok {
		return &score
	}
	return nil
}

// parseStarRating extracts the numeric rating from an element whose
// aria-label reads like "5 out of 5 stars".
func parseStarRating(sel *goquery.Selection) (float64, bool) {
	label, ok := sel.Attr("aria-label")
	if !ok {
		return 0, false
	}
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return 0, false
	}
	rating, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || rating < 0 || rating > 5 {
		return 0, false
	}
	return rating, true
}

// parseReviewDate parses a rendered review date.
func parseReviewDate(s string) (time.Time, bool) {
	for _, layout := range reviewDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// reviewPageURL builds the URL for one page of an app's reviews.
func reviewPageURL(appURL string, page int) (string, error) {
	u, err := url.Parse(appURL)
	if err != nil {
		return "", fmt.Errorf("invalid app URL %q: %w", appURL, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/reviews"
	q := u.Query()
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
