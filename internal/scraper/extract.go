// Package scraper fetches external photo pages and extracts the image URL,
// title and artist a post is built from.
package scraper

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrMissingElement is matched by every MissingElementError.
var ErrMissingElement = errors.New("required element not found")

// MissingElementError reports a selector that matched nothing usable.
type MissingElementError struct {
	Field    string
	Selector string
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("%s not found (selector %q)", e.Field, e.Selector)
}

func (e *MissingElementError) Is(target error) bool {
	return target == ErrMissingElement
}

// Selectors locate the three values on a photo page.
type Selectors struct {
	// ImagePrefix is the URL prefix of a <meta content="..."> holding the image.
	ImagePrefix string
	Title       string
	Artist      string
}

// DefaultSelectors match Flickr photo pages.
func DefaultSelectors() Selectors {
	return Selectors{
		ImagePrefix: "https://live.staticflickr.com/",
		Title:       "h1.photo-title",
		Artist:      "a.owner-name",
	}
}

// Result is what a post needs from the page.
type Result struct {
	Image  string `json:"image"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Extractor reads a Result out of an HTML document.
type Extractor struct {
	sel Selectors
}

// NewExtractor returns an Extractor; zero fields of sel take the defaults.
func NewExtractor(sel Selectors) *Extractor {
	def := DefaultSelectors()
	if sel.ImagePrefix == "" {
		sel.ImagePrefix = def.ImagePrefix
	}
	if sel.Title == "" {
		sel.Title = def.Title
	}
	if sel.Artist == "" {
		sel.Artist = def.Artist
	}
	return &Extractor{sel: sel}
}

func (e *Extractor) imageSelector() string {
	return fmt.Sprintf(`meta[content^=%q]`, e.sel.ImagePrefix)
}

// Extract parses r and returns the first match of each selector.
// Any miss yields a MissingElementError.
func (e *Extractor) Extract(r io.Reader) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	imgSel := e.imageSelector()
	image, _ := doc.Find(imgSel).First().Attr("content")
	image = strings.TrimSpace(image)
	if image == "" {
		return nil, &MissingElementError{Field: "image", Selector: imgSel}
	}

	title := strings.TrimSpace(doc.Find(e.sel.Title).First().Text())
	if title == "" {
		return nil, &MissingElementError{Field: "title", Selector: e.sel.Title}
	}

	artist := strings.TrimSpace(doc.Find(e.sel.Artist).First().Text())
	if artist == "" {
		return nil, &MissingElementError{Field: "artist", Selector: e.sel.Artist}
	}

	return &Result{Image: image, Title: title, Artist: artist}, nil
}
