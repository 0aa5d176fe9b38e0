package feedparser

import "regexp"

// Atom/RSS embed their hub and self links as <link rel="hub" href="..."/>
// elements; gofeed's normalized Feed.Links drops the rel attribute, so hub
// discovery falls back to scanning the raw body (spec.md §4.7 WebSub
// discovery, second bullet: "feed body link[rel=hub]").
var (
	hubLinkRe   = regexp.MustCompile(`<link[^>]+rel=["']hub["'][^>]*href=["']([^"']+)["']`)
	hubLinkRe2  = regexp.MustCompile(`<link[^>]+href=["']([^"']+)["'][^>]*rel=["']hub["']`)
	selfLinkRe  = regexp.MustCompile(`<link[^>]+rel=["']self["'][^>]*href=["']([^"']+)["']`)
	selfLinkRe2 = regexp.MustCompile(`<link[^>]+href=["']([^"']+)["'][^>]*rel=["']self["']`)
)

func scanHubLinks(body []byte) (hub, self string) {
	hub = firstMatch(body, hubLinkRe, hubLinkRe2)
	self = firstMatch(body, selfLinkRe, selfLinkRe2)
	return hub, self
}

func firstMatch(body []byte, patterns ...*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindSubmatch(body); m != nil {
			return string(m[1])
		}
	}
	return ""
}
