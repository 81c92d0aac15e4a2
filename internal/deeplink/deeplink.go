// Package deeplink extracts session parameters from wallet URLs and strips
// them afterwards so a reload does not trigger the same session twice.
package deeplink

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// SessionKeys are the query parameters that may carry a session id, in
// priority order.
var SessionKeys = []string{"session", "code", "qr", "id"}

// scrubKeys are removed from a URL after capture.
var scrubKeys = append(append([]string{}, SessionKeys...), "intent", "source")

// DefaultSource is used when a link carries no source parameter.
const DefaultSource = "deeplink"

// Link is a session reference captured from a URL.
type Link struct {
	SessionID string
	Intent    string
	Source    string
}

// Capture reads a session reference from rawURL. The query string is checked
// first, then a query embedded in the fragment ("#/wallet?session=...").
// Pairs with bad escapes are skipped; the remaining pairs still count.
func Capture(rawURL string) (Link, bool) {
	base, frag, _ := strings.Cut(strings.TrimSpace(rawURL), "#")
	u, err := url.Parse(base)
	if err != nil {
		return Link{}, false
	}

	q := u.Query()
	link := Link{
		SessionID: sessionID(q),
		Intent:    q.Get("intent"),
		Source:    q.Get("source"),
	}

	if link.SessionID == "" {
		if _, hq, ok := strings.Cut(frag, "?"); ok {
			fq, _ := url.ParseQuery(hq)
			link.SessionID = sessionID(fq)
			if link.Intent == "" {
				link.Intent = fq.Get("intent")
			}
			if link.Source == "" {
				link.Source = fq.Get("source")
			}
		}
	}
	if link.SessionID == "" {
		return Link{}, false
	}

	link.Intent = strings.ToLower(strings.TrimSpace(link.Intent))
	link.Source = strings.ToLower(strings.TrimSpace(link.Source))
	if link.Source == "" {
		link.Source = DefaultSource
	}
	return link, true
}

func sessionID(q url.Values) string {
	for _, key := range SessionKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

// Scrub removes every session parameter from the query string and from a
// fragment-embedded query. Other pairs are kept verbatim and in order.
// Unparseable input is returned unchanged.
func Scrub(rawURL string) string {
	base, frag, hasFrag := strings.Cut(rawURL, "#")
	u, err := url.Parse(base)
	if err != nil {
		return rawURL
	}

	query, changed := dropKeys(u.RawQuery)
	if changed {
		u.RawQuery = query
		u.ForceQuery = false
	}
	if path, hq, ok := strings.Cut(frag, "?"); ok {
		if rest, fragChanged := dropKeys(hq); fragChanged {
			changed = true
			frag = path
			if rest != "" {
				frag += "?" + rest
			}
		}
	}

	if !changed {
		return rawURL
	}
	out := u.String()
	if hasFrag {
		out += "#" + frag
	}
	return out
}

// dropKeys removes the scrubbed keys from a raw query.
func dropKeys(raw string) (string, bool) {
	if raw == "" {
		return raw, false
	}
	pairs := strings.Split(raw, "&")
	kept := pairs[:0]
	changed := false
	for _, p := range pairs {
		key, _, _ := strings.Cut(p, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if slices.Contains(scrubKeys, key) {
			changed = true
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "&"), changed
}

// Build returns walletURL with the session id and intent attached, the shape
// relying parties encode into QR codes.
func Build(walletURL, sessionID, intent, source string) (string, error) {
	u, err := url.Parse(walletURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse wallet url: %w", err)
	}
	q := u.Query()
	q.Set("session", sessionID)
	if intent != "" {
		q.Set("intent", intent)
	}
	if source != "" {
		q.Set("source", source)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
