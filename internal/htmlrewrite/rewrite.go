// Package htmlrewrite post-processes rendered HTML before it is archived.
package htmlrewrite

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// resourceSelector lists the elements whose resource references are made
// absolute so the archived snapshot still loads assets from the origin.
const resourceSelector = "img, video, iframe, source, link, script"

var resourceAttrs = []string{"src", "href", "data-src"}

// AbsolutizeResources rewrites src, href, and data-src attributes of resource
// elements to absolute URLs resolved against base. data:, javascript:, and
// fragment-only references are left unchanged.
func AbsolutizeResources(html []byte, base string) ([]byte, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	// A <base href> changes how the browser resolved relative references.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if resolved, err := baseURL.Parse(strings.TrimSpace(href)); err == nil {
			baseURL = resolved
		}
	}

	doc.Find(resourceSelector).Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range resourceAttrs {
			val, ok := sel.Attr(attr)
			if !ok {
				continue
			}
			if abs, ok := resolve(baseURL, val); ok {
				sel.SetAttr(attr, abs)
			}
		}
	})

	out, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return []byte(out), nil
}

func resolve(base *url.URL, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	switch {
	case ref == "", strings.HasPrefix(ref, "#"):
		return "", false
	case strings.HasPrefix(lower, "data:"), strings.HasPrefix(lower, "javascript:"),
		strings.HasPrefix(lower, "blob:"), strings.HasPrefix(lower, "about:"):
		return "", false
	}
	u, err := base.Parse(ref)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
