package as1

import "strings"

// ObjectURLs returns an object's unique URLs, preserving order: the url
// field first, then the urls list.
func ObjectURLs(o *Object) []string {
	if o == nil {
		return nil
	}
	urls := make([]string, 0, 1+len(o.URLs))
	if o.URL != "" {
		urls = append(urls, o.URL)
	}
	for _, u := range o.URLs {
		if u.Value != "" {
			urls = append(urls, u.Value)
		}
	}
	return Uniquify(urls)
}

// URLs returns the url field of each object, skipping empties.
func URLs(objs []*Object) []string {
	urls := make([]string, 0, len(objs))
	for _, o := range objs {
		if o != nil && o.URL != "" {
			urls = append(urls, o.URL)
		}
	}
	return urls
}

// Uniquify removes duplicates from a sequence of strings, preserving order.
func Uniquify(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// DedupeURLs merges URLs that differ only by http vs https scheme or by a
// trailing slash. The https and longer variants win; first-seen order is
// kept.
func DedupeURLs(urls []string) []string {
	order := make([]string, 0, len(urls))
	best := make(map[string]string, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		key := urlKey(u)
		kept, ok := best[key]
		if !ok {
			order = append(order, key)
			best[key] = u
			continue
		}
		if betterURL(u, kept) {
			best[key] = u
		}
	}
	out := make([]string, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

func urlKey(u string) string {
	key := strings.TrimPrefix(u, "https://")
	key = strings.TrimPrefix(key, "http://")
	return strings.TrimSuffix(key, "/")
}

func betterURL(a, b string) bool {
	aHTTPS := strings.HasPrefix(a, "https://")
	bHTTPS := strings.HasPrefix(b, "https://")
	if aHTTPS != bHTTPS {
		return aHTTPS
	}
	return len(a) > len(b)
}
