package web

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// robotsChecker consults and caches robots.txt verdicts per host. Any
// failure to retrieve or parse robots.txt is treated as permission, so a
// broken robots.txt never blocks enrichment.
type robotsChecker struct {
	fetcher *Fetcher

	mu    sync.Mutex
	rules map[string]*robotsRules
}

// robotsRules holds the Disallow prefixes that apply to this client.
type robotsRules struct {
	disallow []string
}

func newRobotsChecker(f *Fetcher) *robotsChecker {
	return &robotsChecker{
		fetcher: f,
		rules:   make(map[string]*robotsRules),
	}
}

// allowed reports whether the target path may be fetched.
func (r *robotsChecker) allowed(ctx context.Context, target *url.URL) bool {
	rules := r.rulesFor(ctx, target)
	if rules == nil {
		return true
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	for _, prefix := range rules.disallow {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

func (r *robotsChecker) rulesFor(ctx context.Context, target *url.URL) *robotsRules {
	host := target.Scheme + "://" + target.Host

	r.mu.Lock()
	rules, ok := r.rules[host]
	r.mu.Unlock()
	if ok {
		return rules
	}

	rules = r.retrieve(ctx, host)
	r.mu.Lock()
	r.rules[host] = rules
	r.mu.Unlock()
	return rules
}

// retrieve downloads and parses robots.txt. Returns nil (permissive) on
// any error or non-200 response.
func (r *robotsChecker) retrieve(ctx context.Context, host string) *robotsRules {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.fetcher.userAgent)

	resp, err := r.fetcher.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	return parseRobots(io.LimitReader(resp.Body, 64*1024), r.fetcher.userAgent)
}

// parseRobots extracts the Disallow prefixes from the agent group matching
// this client, falling back to the wildcard group.
func parseRobots(body io.Reader, userAgent string) *robotsRules {
	agentToken := strings.ToLower(userAgent)
	if i := strings.IndexAny(agentToken, "/ "); i > 0 {
		agentToken = agentToken[:i]
	}

	var wildcard, specific []string
	appliesWildcard, appliesSpecific := false, false
	inGroup := false

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			// Consecutive User-agent lines share one group; a new group
			// starts only after rule lines.
			if inGroup {
				appliesWildcard, appliesSpecific = false, false
				inGroup = false
			}
			agent := strings.ToLower(value)
			if agent == "*" {
				appliesWildcard = true
			} else if strings.Contains(agentToken, agent) {
				appliesSpecific = true
			}
		case "disallow":
			inGroup = true
			if value == "" {
				continue
			}
			if appliesSpecific {
				specific = append(specific, value)
			}
			if appliesWildcard {
				wildcard = append(wildcard, value)
			}
		default:
			inGroup = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil
	}

	if len(specific) > 0 {
		return &robotsRules{disallow: specific}
	}
	return &robotsRules{disallow: wildcard}
}
