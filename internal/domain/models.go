package domain

// Domain contains the entities produced by one harvest run.

// Cover is a scraped newspaper front page.
type Cover struct {
	ID   string     `json:"id"`
	Name string     `json:"nome"`
	URL  string     `json:"url"`
	News []NewsItem `json:"news,omitempty"`
}

// NewsItem is a story extracted from a cover by the model.
type NewsItem struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary,omitempty"`
	Category string `json:"category,omitempty"`
}

// Digest categories.
const (
	DigestNational = "national"
	DigestSports   = "sports"
)

// DigestEntry is one cross-source top story of the day.
type DigestEntry struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Sources  []string `json:"sources"`
	Category string   `json:"category"`
}

// NewCover builds a cover whose id is derived from the display name.
func NewCover(name, url string) Cover {
	return Cover{
		ID:   Slugify(name),
		Name: name,
		URL:  url,
	}
}

// AttachNews assigns news to covers by display name, falling back to slug
// equality. Each cover receives at most one entry and each entry is used at
// most once. It returns the number of covers that received news.
func AttachNews(covers []Cover, news map[string][]NewsItem) int {
	if len(covers) == 0 || len(news) == 0 {
		return 0
	}

	bySlug := make(map[string]string, len(news))
	for name := range news {
		bySlug[Slugify(name)] = name
	}

	used := make(map[string]struct{}, len(news))
	attached := 0
	for i := range covers {
		key, ok := "", false
		if _, exact := news[covers[i].Name]; exact {
			key, ok = covers[i].Name, true
		} else if name, found := bySlug[covers[i].ID]; found {
			key, ok = name, true
		}
		if !ok {
			continue
		}
		if _, taken := used[key]; taken {
			continue
		}
		items := news[key]
		if len(items) == 0 {
			continue
		}
		used[key] = struct{}{}
		covers[i].News = append([]NewsItem(nil), items...)
		attached++
	}
	return attached
}
