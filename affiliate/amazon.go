// Package affiliate rewrites Amazon product links so purchases carry the
// store's associate tag, and pulls what it can out of a product URL.
package affiliate

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const tagParam = "tag"

var (
	dpPattern        = regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})`)
	gpProductPattern = regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})`)
)

// ProductInfo is what can be read from a product URL without fetching it.
type ProductInfo struct {
	Name string
	ASIN string
}

// AddTag returns rawURL with the associate tag set. Links that do not
// point at Amazon are returned unchanged, as is everything when tag is
// empty.
func AddTag(rawURL, tag string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if tag == "" {
		return rawURL
	}

	// Short links redirect to the product page and keep the query string.
	if isShortLink(rawURL) {
		return appendTag(rawURL, tag)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return appendTag(rawURL, tag)
	}
	if !isAmazonHost(u.Hostname()) {
		return rawURL
	}

	q := u.Query()
	q.Set(tagParam, tag)
	u.RawQuery = q.Encode()
	return u.String()
}

// IsAmazonURL reports whether rawURL points at an Amazon storefront or
// one of its short-link domains.
func IsAmazonURL(rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	if isShortLink(rawURL) {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	return isAmazonHost(u.Hostname())
}

// ExtractProductInfo reads the ASIN and the human readable slug from an
// Amazon product URL. Missing parts come back empty.
func ExtractProductInfo(rawURL string) ProductInfo {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ProductInfo{}
	}

	var info ProductInfo
	if m := dpPattern.FindStringSubmatch(u.Path); m != nil {
		info.ASIN = strings.ToUpper(m[1])
	} else if m := gpProductPattern.FindStringSubmatch(u.Path); m != nil {
		info.ASIN = strings.ToUpper(m[1])
	}

	parts := strings.Split(u.Path, "/")
	nameIndex := -1
	for i, part := range parts {
		if part == "dp" || part == "product" {
			nameIndex = i - 1
			break
		}
	}
	if nameIndex >= 0 && parts[nameIndex] != "" && parts[nameIndex] != "gp" {
		slug, err := url.PathUnescape(parts[nameIndex])
		if err != nil {
			slug = parts[nameIndex]
		}
		info.Name = titleCase(strings.ReplaceAll(slug, "-", " "))
	}

	return info
}

func isShortLink(rawURL string) bool {
	return strings.Contains(rawURL, "amzn.to/") || strings.Contains(rawURL, "a.co/")
}

func isAmazonHost(host string) bool {
	host = strings.ToLower(host)
	return strings.Contains(host, "amazon.") || strings.Contains(host, "amzn.")
}

func appendTag(rawURL, tag string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + tagParam + "=" + url.QueryEscape(tag)
}

// titleCase upper-cases the first letter of every word.
func titleCase(s string) string {
	runes := []rune(s)
	startOfWord := true
	for i, r := range runes {
		isWordRune := unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
		if isWordRune && startOfWord {
			runes[i] = unicode.ToUpper(r)
		}
		startOfWord = !isWordRune
	}
	return strings.TrimSpace(string(runes))
}
