package crawler

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/joaobzao/capas-harvester/internal/catalog"
	"github.com/joaobzao/capas-harvester/internal/domain"
	"github.com/joaobzao/capas-harvester/internal/logger"
	"github.com/joaobzao/capas-harvester/pkg/providers"
)

const (
	maxHTMLBodyBytes = 4 << 20 // 4 MiB

	// UnknownName is used when a cover link carries no image alt text.
	UnknownName = "desconhecido"

	fallbackHeading = "Outros"
)

var (
	coverLinkMarkers = []string{"/capa/", "/covers/"}
	coverImageMarker = "covers"
)

// Candidate is a cover link found on the homepage.
type Candidate struct {
	Name    string
	PageURL string
}

// SectionLinks groups the candidates found under one homepage heading.
type SectionLinks struct {
	Heading    string
	Candidates []Candidate
}

// Scraper extracts covers from the provider homepage and cover pages.
type Scraper struct {
	site *providers.Site
	log  logger.Logger
}

// NewScraper creates a new Scraper for the given site and logger.
func NewScraper(site *providers.Site, log logger.Logger) *Scraper {
	if site == nil {
		site = providers.NewSite(providers.DefaultProvider(), nil)
	}
	return &Scraper{site: site, log: logger.Ensure(log)}
}

// Scrape fetches the homepage, visits every candidate cover page one at a
// time and returns the covers grouped by canonical section key, in homepage
// order. A homepage failure is returned as an error; failures on single
// cover pages are logged and the cover is skipped.
func (s *Scraper) Scrape(ctx context.Context) (*domain.Sections, error) {
	cfg := s.site.Provider()

	body, err := s.site.FetchHomepage(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch homepage: %w", err)
	}
	body = s.truncate(body, cfg.BaseURL)

	sections, err := ParseHomepage(body, s.site.Resolve)
	if err != nil {
		return nil, fmt.Errorf("parse homepage: %w", err)
	}

	s.log.InfoObj("homepage parsed", "homepage_parsed", map[string]any{
		"provider_id": cfg.ID,
		"sections":    len(sections),
	})

	out := domain.NewSections()
	for _, sec := range sections {
		var covers []domain.Cover
		for _, cand := range sec.Candidates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			cover, err := s.resolveCover(ctx, cand)
			if err != nil {
				s.log.WarnObj("cover page scrape failed", "cover_error", map[string]any{
					"provider_id": cfg.ID,
					"section":     sec.Heading,
					"name":        cand.Name,
					"url":         cand.PageURL,
					"error":       err.Error(),
				})
				continue
			}

			s.log.DebugObj("cover found", "cover_found", map[string]any{
				"section": sec.Heading,
				"name":    cover.Name,
				"url":     cover.URL,
			})
			covers = append(covers, cover)
		}

		if len(covers) == 0 {
			continue
		}
		out.Append(catalog.CanonicalKey(sec.Heading), covers...)
	}

	return out, nil
}

// resolveCover fetches a cover page and builds the cover from its main image.
func (s *Scraper) resolveCover(ctx context.Context, cand Candidate) (domain.Cover, error) {
	body, err := s.site.FetchPage(ctx, cand.PageURL)
	if err != nil {
		return domain.Cover{}, fmt.Errorf("http fetch: %w", err)
	}
	body = s.truncate(body, cand.PageURL)

	imageURL, err := ParseCoverImage(body, s.site.Resolve)
	if err != nil {
		return domain.Cover{}, err
	}
	return domain.NewCover(cand.Name, imageURL), nil
}

func (s *Scraper) truncate(body []byte, url string) []byte {
	if len(body) <= maxHTMLBodyBytes {
		return body
	}
	s.log.InfoObj("html body truncated", "truncation", map[string]any{
		"url":      url,
		"original": len(body),
		"kept":     maxHTMLBodyBytes,
	})
	return body[:maxHTMLBodyBytes]
}

// ParseHomepage extracts the allowed sections and their cover links from the
// homepage HTML. resolve turns relative hrefs into absolute URLs.
func ParseHomepage(body []byte, resolve func(string) string) ([]SectionLinks, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var out []SectionLinks
	doc.Find("section").Each(func(_ int, section *goquery.Selection) {
		heading := fallbackHeading
		if h := section.Find("h2").First(); h.Length() > 0 {
			heading = strings.TrimSpace(h.Text())
		}
		if !catalog.IsAllowed(heading) {
			return
		}

		links := SectionLinks{Heading: heading}
		section.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			if !isCoverLink(href) {
				return
			}
			links.Candidates = append(links.Candidates, Candidate{
				Name:    linkName(link),
				PageURL: resolve(href),
			})
		})
		out = append(out, links)
	})

	return out, nil
}

// ParseCoverImage returns the first image on a cover page whose source points
// at the covers store.
func ParseCoverImage(body []byte, resolve func(string) string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var found string
	doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, _ := img.Attr("src")
		if strings.Contains(src, coverImageMarker) {
			found = resolve(src)
			return false
		}
		return true
	})

	if found == "" {
		return "", fmt.Errorf("no cover image on page")
	}
	return found, nil
}

func isCoverLink(href string) bool {
	for _, marker := range coverLinkMarkers {
		if strings.Contains(href, marker) {
			return true
		}
	}
	return false
}

// linkName reads the display name from the images inside a link; the last
// image carrying an alt attribute wins.
func linkName(link *goquery.Selection) string {
	name := UnknownName
	link.Find("img").Each(func(_ int, img *goquery.Selection) {
		if alt, ok := img.Attr("alt"); ok {
			name = alt
		}
	})
	return name
}
