package model

import (
	"sort"
	"time"
)

// App is a single listed item in a marketplace search result.
// Apps are tracked across snapshots by Name, which acts as the primary key
// because the marketplace exposes no stable numeric identifier.
type App struct {
	// Name is the display name of the app. Unique within a snapshot.
	Name string `json:"name"`

	// URL is the app's listing page, with tracking parameters removed.
	URL string `json:"url"`

	// Ad reports whether the listing was a sponsored placement.
	// Ads are excluded from ranking.
	Ad bool `json:"ad"`

	// BuiltForShopify reports whether the listing carried the
	// "Built for Shopify" badge.
	BuiltForShopify bool `json:"bfs"`

	// Rank is the 1-based position among organic (non-ad) results in page
	// order. Zero means unranked: ads always have Rank 0, and so do apps
	// whose position is unknown.
	Rank int `json:"rank"`
}

// Ranked reports whether the app carries a real page-derived rank.
func (a App) Ranked() bool {
	return a.Rank > 0
}

// Snapshot is one point-in-time capture of the ranked listing for a search
// query. A new Snapshot is created on every run; it is compared against the
// most recently persisted Snapshot and then replaces it.
type Snapshot struct {
	// Query is the marketplace search term this listing was captured for.
	Query string `json:"query"`

	// CapturedAt is when the listing was fetched.
	CapturedAt time.Time `json:"captured_at"`

	// Apps holds all listed items in page order, ads included.
	Apps []App `json:"apps"`
}

// NewSnapshot creates an empty, well-formed Snapshot for the given query.
// An empty Snapshot is the recovery value when no prior state exists:
// every current app then looks "new", which is the desired degraded behavior.
func NewSnapshot(query string) *Snapshot {
	return &Snapshot{
		Query: query,
		Apps:  []App{},
	}
}

// Organic returns the non-ad apps in rank order.
func (s *Snapshot) Organic() []App {
	organic := make([]App, 0, len(s.Apps))
	for _, a := range s.Apps {
		if !a.Ad {
			organic = append(organic, a)
		}
	}
	sort.SliceStable(organic, func(i, j int) bool {
		return organic[i].Rank < organic[j].Rank
	})
	return organic
}

// TopN returns the first n organic apps by rank.
func (s *Snapshot) TopN(n int) []App {
	organic := s.Organic()
	if len(organic) > n {
		organic = organic[:n]
	}
	return organic
}

// Ranks returns a map from app name to rank for all ranked organic apps.
// Apps without a real rank are omitted.
func (s *Snapshot) Ranks() map[string]int {
	ranks := make(map[string]int, len(s.Apps))
	for _, a := range s.Apps {
		if !a.Ad && a.Ranked() {
			ranks[a.Name] = a.Rank
		}
	}
	return ranks
}
