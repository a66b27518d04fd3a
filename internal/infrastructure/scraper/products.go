package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
)

// ProductScraper crawls the products page of the source site and turns
// each product card into a draft article candidate.
type ProductScraper struct {
	client  *http.Client
	pageURL string
}

var _ ports.ArticleSource = (*ProductScraper)(nil)

// NewProductScraper wires an HTTP client; a nil client gets a default
// with a short timeout.
func NewProductScraper(client *http.Client, pageURL string) *ProductScraper {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ProductScraper{client: client, pageURL: pageURL}
}

// Fetch downloads the products page and extracts draft candidates.
func (s *ProductScraper) Fetch(ctx context.Context) ([]domain.Article, error) {
	if s.pageURL == "" {
		return nil, fmt.Errorf("scraper source url is not configured")
	}

	doc, err := s.fetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(s.pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %s: %w", s.pageURL, err)
	}
	origin := base.Scheme + "://" + base.Host

	var articles []domain.Article
	doc.Find("li.section-card-product__list").Each(func(i int, card *goquery.Selection) {
		article, ok := parseCard(card, origin)
		if ok {
			articles = append(articles, article)
		}
	})

	return articles, nil
}

func (s *ProductScraper) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsAgent/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func parseCard(card *goquery.Selection, origin string) (domain.Article, bool) {
	title := strings.TrimSpace(card.Find("h2").First().Text())
	if title == "" {
		return domain.Article{}, false
	}

	description := strings.TrimSpace(card.Find("p").First().Text())

	link, _ := card.Find("a[href]").First().Attr("href")
	link = absolutize(link, origin)

	imageURL, _ := card.Find("img.section-card-product__img-product").First().Attr("src")
	imageURL = absolutize(imageURL, origin)

	return domain.Article{
		Title:       title,
		Description: description,
		Content:     description,
		SourceURL:   link,
		ImageURL:    imageURL,
		Status:      domain.StatusDraft,
	}, true
}

func absolutize(ref, origin string) string {
	if ref == "" || strings.HasPrefix(ref, "http") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return origin + ref
}
