// Package recipelist keeps the paginated recipe buckets behind the browse,
// profile and map screens, plus the GeoJSON projection of the main bucket.
package recipelist

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/onnwee/tastemap/internal/metrics"
	"github.com/onnwee/tastemap/internal/recipe"
)

// CountryAll is the country filter's "no filter" sentinel. It maps to an
// empty query param on the wire.
const CountryAll = "All"

// Filters drives the main bucket. Mutations replace the value wholesale and
// never trigger a fetch on their own.
type Filters struct {
	Q         string
	Country   string
	DishTypes []string

	// Optional proximity constraint on the main listing.
	NearLat *float64
	NearLng *float64
	MaxKm   float64
}

// DefaultFilters returns the initial filter state.
func DefaultFilters() Filters {
	return Filters{Country: CountryAll}
}

func (f Filters) clone() Filters {
	out := f
	out.DishTypes = append([]string(nil), f.DishTypes...)
	if f.NearLat != nil {
		lat := *f.NearLat
		out.NearLat = &lat
	}
	if f.NearLng != nil {
		lng := *f.NearLng
		out.NearLng = &lng
	}
	return out
}

// params renders the filters into list query params.
func (f Filters) params(limit int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if f.Q != "" {
		q.Set("q", f.Q)
	}
	if f.Country != "" && f.Country != CountryAll {
		q.Set("country", f.Country)
	}
	if len(f.DishTypes) > 0 {
		q.Set("dishTypes", strings.Join(f.DishTypes, ","))
	}
	if f.NearLat != nil && f.NearLng != nil {
		q.Set("nearLat", strconv.FormatFloat(*f.NearLat, 'f', -1, 64))
		q.Set("nearLng", strconv.FormatFloat(*f.NearLng, 'f', -1, 64))
		if f.MaxKm > 0 {
			q.Set("maxKm", strconv.FormatFloat(f.MaxKm, 'f', -1, 64))
		}
	}
	return q
}

// Bucket is one independently loaded slice of the recipe catalog.
type Bucket struct {
	Items       []recipe.CardPreview
	NextCursor  string
	HasNextPage bool
	Loading     bool
	Err         error
}

func (b Bucket) clone() Bucket {
	out := b
	out.Items = append([]recipe.CardPreview(nil), b.Items...)
	return out
}

const (
	bucketMain   = "main"
	bucketNear   = "near"
	bucketMine   = "mine"
	bucketLiked  = "liked"
	bucketAuthor = "author"
)

// Options configures a Store.
type Options struct {
	// Limit is the page size for paginated buckets.
	Limit int
	// NearKm and NearLimit bound the transient near bucket.
	NearKm    float64
	NearLimit int

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Store owns every recipe bucket. All methods are safe for concurrent use;
// accessors return copies.
type Store struct {
	api       *recipe.API
	metrics   *metrics.Metrics
	logger    *slog.Logger
	limit     int
	nearKm    float64
	nearLimit int

	mu       sync.Mutex
	filters  Filters
	main     Bucket
	near     Bucket
	nearOpen bool
	mine     Bucket
	liked    Bucket
	byAuthor map[string]*Bucket
	features *geojson.FeatureCollection
}

func New(api *recipe.API, opts Options) *Store {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.NearKm <= 0 {
		opts.NearKm = 10
	}
	if opts.NearLimit <= 0 {
		opts.NearLimit = 8
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:       api,
		metrics:   opts.Metrics,
		logger:    logger,
		limit:     opts.Limit,
		nearKm:    opts.NearKm,
		nearLimit: opts.NearLimit,
		filters:   DefaultFilters(),
		byAuthor:  map[string]*Bucket{},
		features:  geojson.NewFeatureCollection(),
	}
}

// Filters returns a copy of the current filter state.
func (s *Store) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.clone()
}

// SetFilters replaces the filter state wholesale. The main bucket keeps its
// items until the next fetch.
func (s *Store) SetFilters(f Filters) {
	s.mu.Lock()
	s.filters = f.clone()
	s.mu.Unlock()
}

// SetQuery replaces the free-text filter.
func (s *Store) SetQuery(q string) {
	s.mu.Lock()
	s.filters.Q = q
	s.mu.Unlock()
}

// SetCountry replaces the country filter. CountryAll clears it.
func (s *Store) SetCountry(country string) {
	s.mu.Lock()
	s.filters.Country = country
	s.mu.Unlock()
}

// SetDishTypes replaces the dish-type tag set.
func (s *Store) SetDishTypes(tags []string) {
	s.mu.Lock()
	s.filters.DishTypes = append([]string(nil), tags...)
	s.mu.Unlock()
}

// Main returns a copy of the main bucket.
func (s *Store) Main() Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.main.clone()
}

// FetchFirstPage loads page one of the main bucket under the current
// filters, replacing any prior items. When first pages race, the last one to
// resolve wins.
func (s *Store) FetchFirstPage(ctx context.Context) error {
	s.mu.Lock()
	s.main.Loading = true
	s.main.Err = nil
	query := s.filters.params(s.limit)
	s.mu.Unlock()

	page, err := s.api.List(ctx, query)

	s.mu.Lock()
	s.main.Loading = false
	if err != nil {
		// A failed first page empties the list; a failed next page keeps
		// what was already shown.
		s.main.Items = nil
		s.main.NextCursor = ""
		s.main.HasNextPage = false
		s.main.Err = err
		s.rebuildFeaturesLocked()
		s.mu.Unlock()
		s.logger.Warn("list fetch failed", "bucket", bucketMain, "error", err)
		return err
	}
	s.main.Items = page.Items
	s.main.NextCursor = page.NextCursor
	s.main.HasNextPage = page.HasNextPage
	s.rebuildFeaturesLocked()
	s.mu.Unlock()

	s.countFetch(bucketMain, "first")
	return nil
}

// FetchNextPage appends the next page of the main bucket. It is a no-op when
// no cursor is pending.
func (s *Store) FetchNextPage(ctx context.Context) error {
	s.mu.Lock()
	if !s.main.HasNextPage || s.main.NextCursor == "" || s.main.Loading {
		s.mu.Unlock()
		return nil
	}
	s.main.Loading = true
	s.main.Err = nil
	query := s.filters.params(s.limit)
	query.Set("cursor", s.main.NextCursor)
	s.mu.Unlock()

	page, err := s.api.List(ctx, query)

	s.mu.Lock()
	s.main.Loading = false
	if err != nil {
		s.main.Err = err
		s.mu.Unlock()
		s.logger.Warn("list fetch failed", "bucket", bucketMain, "error", err)
		return err
	}
	s.main.Items = append(s.main.Items, page.Items...)
	s.main.NextCursor = page.NextCursor
	s.main.HasNextPage = page.HasNextPage
	s.rebuildFeaturesLocked()
	s.mu.Unlock()

	s.countFetch(bucketMain, "next")
	return nil
}

// OpenNear loads the transient near bucket around the given point with the
// configured radius and limit. Every open fetches fresh; the near bucket is
// never paginated.
func (s *Store) OpenNear(ctx context.Context, lat, lng float64) error {
	s.mu.Lock()
	s.nearOpen = true
	s.near = Bucket{Loading: true}
	nearKm, nearLimit := s.nearKm, s.nearLimit
	s.mu.Unlock()

	query := url.Values{}
	query.Set("limit", strconv.Itoa(nearLimit))
	query.Set("nearLat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("nearLng", strconv.FormatFloat(lng, 'f', -1, 64))
	query.Set("maxKm", strconv.FormatFloat(nearKm, 'f', -1, 64))

	page, err := s.api.List(ctx, query)

	s.mu.Lock()
	if !s.nearOpen {
		// Closed while the fetch was in flight; drop the result.
		s.mu.Unlock()
		return nil
	}
	s.near.Loading = false
	if err != nil {
		s.near.Err = err
		s.mu.Unlock()
		return err
	}
	s.near.Items = page.Items
	s.mu.Unlock()

	s.countFetch(bucketNear, "first")
	return nil
}

// CloseNear discards the near bucket.
func (s *Store) CloseNear() {
	s.mu.Lock()
	s.nearOpen = false
	s.near = Bucket{}
	s.mu.Unlock()
}

// Near returns a copy of the near bucket and whether it is open.
func (s *Store) Near() (Bucket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.near.clone(), s.nearOpen
}

// FetchMine loads or advances the signed-in user's own bucket.
func (s *Store) FetchMine(ctx context.Context, authorID string, next bool) error {
	return s.fetchAuthorBucket(ctx, &s.mine, bucketMine, authorID, next)
}

// Mine returns a copy of the signed-in user's bucket.
func (s *Store) Mine() Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mine.clone()
}

// FetchLiked loads or advances the liked bucket.
func (s *Store) FetchLiked(ctx context.Context, next bool) error {
	s.mu.Lock()
	cursor := ""
	if next {
		if !s.liked.HasNextPage || s.liked.NextCursor == "" || s.liked.Loading {
			s.mu.Unlock()
			return nil
		}
		cursor = s.liked.NextCursor
	}
	s.liked.Loading = true
	s.liked.Err = nil
	s.mu.Unlock()

	page, err := s.api.ListLiked(ctx, s.limit, cursor)

	s.mu.Lock()
	s.liked.Loading = false
	if err != nil {
		s.liked.Err = err
		s.mu.Unlock()
		return err
	}
	if next {
		s.liked.Items = append(s.liked.Items, page.Items...)
	} else {
		s.liked.Items = page.Items
	}
	s.liked.NextCursor = page.NextCursor
	s.liked.HasNextPage = page.HasNextPage
	s.mu.Unlock()

	s.countFetch(bucketLiked, pageLabel(next))
	return nil
}

// Liked returns a copy of the liked bucket.
func (s *Store) Liked() Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liked.clone()
}

// FetchByAuthor loads or advances the bucket for one author, creating it on
// first use. Buckets are kept for the life of the store.
func (s *Store) FetchByAuthor(ctx context.Context, authorID string, next bool) error {
	s.mu.Lock()
	b, ok := s.byAuthor[authorID]
	if !ok {
		b = &Bucket{}
		s.byAuthor[authorID] = b
	}
	s.mu.Unlock()
	return s.fetchAuthorBucket(ctx, b, bucketAuthor, authorID, next)
}

// ByAuthor returns a copy of one author's bucket and whether it has been
// created.
func (s *Store) ByAuthor(authorID string) (Bucket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byAuthor[authorID]
	if !ok {
		return Bucket{}, false
	}
	return b.clone(), true
}

// fetchAuthorBucket is the shared load path for mine and per-author buckets.
// The bucket pointer is owned by the store and guarded by its lock.
func (s *Store) fetchAuthorBucket(ctx context.Context, b *Bucket, name, authorID string, next bool) error {
	s.mu.Lock()
	cursor := ""
	if next {
		if !b.HasNextPage || b.NextCursor == "" || b.Loading {
			s.mu.Unlock()
			return nil
		}
		cursor = b.NextCursor
	}
	b.Loading = true
	b.Err = nil
	s.mu.Unlock()

	query := url.Values{}
	query.Set("limit", strconv.Itoa(s.limit))
	query.Set("authorId", authorID)
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	page, err := s.api.List(ctx, query)

	s.mu.Lock()
	b.Loading = false
	if err != nil {
		b.Err = err
		s.mu.Unlock()
		return err
	}
	if next {
		b.Items = append(b.Items, page.Items...)
	} else {
		b.Items = page.Items
	}
	b.NextCursor = page.NextCursor
	b.HasNextPage = page.HasNextPage
	s.mu.Unlock()

	s.countFetch(name, pageLabel(next))
	return nil
}

// Features returns the GeoJSON projection of the main bucket: one Point
// feature per located item, in item order, with id and title properties.
func (s *Store) Features() *geojson.FeatureCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.features
}

// rebuildFeaturesLocked recomputes the projection from scratch after any
// mutation of the main items. The collection is replaced, never patched, and
// holds exactly one feature per item in item order; items without a stored
// point project to the zero point.
func (s *Store) rebuildFeaturesLocked() {
	fc := geojson.NewFeatureCollection()
	for _, item := range s.main.Items {
		var pt orb.Point
		if item.Point != nil {
			pt = orb.Point{item.Point.Coordinates[0], item.Point.Coordinates[1]}
		}
		f := geojson.NewFeature(pt)
		f.Properties["id"] = item.ID
		f.Properties["title"] = item.Title
		fc.Append(f)
	}
	s.features = fc
}

func (s *Store) countFetch(bucket, page string) {
	if s.metrics != nil {
		s.metrics.IncListFetch(bucket, page)
	}
}

func pageLabel(next bool) string {
	if next {
		return "next"
	}
	return "first"
}
