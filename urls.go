package harvest

import (
	"net/url"
	"slices"
	"strings"
)

// URLPolicy restricts which listing URLs are accepted from user input.
type URLPolicy struct {
	Hosts  []string
	Paths  []string
	Params []string
}

// DefaultURLPolicy accepts detail pages of the supported dealer site.
var DefaultURLPolicy = URLPolicy{
	Hosts:  []string{"www.truck-no1.co.kr"},
	Paths:  []string{"/model/DetailView.asp"},
	Params: []string{"ShopNo", "MemberNo", "OnCarNo"},
}

// Check returns EINVALID if raw is not an acceptable listing URL.
// Empty Hosts or Paths accept any value.
func (p URLPolicy) Check(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return Errorf(EINVALID, "invalid URL format")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Errorf(EINVALID, "only http and https are allowed")
	}
	if len(p.Hosts) > 0 && !slices.Contains(p.Hosts, u.Hostname()) {
		return Errorf(EINVALID, "host not allowed, allowed hosts: %s", strings.Join(p.Hosts, ", "))
	}
	if len(p.Paths) > 0 && !slices.Contains(p.Paths, u.Path) {
		return Errorf(EINVALID, "path not allowed, allowed paths: %s", strings.Join(p.Paths, ", "))
	}
	q := u.Query()
	for _, param := range p.Params {
		if !q.Has(param) {
			return Errorf(EINVALID, "missing required parameter: %s", param)
		}
	}
	return nil
}

// URLCheck is the outcome of checking one line of user input.
type URLCheck struct {
	URL       string
	Valid     bool
	Duplicate bool
	Err       error
}

// CheckURLs checks each non-blank line of text against the policy.
// A valid URL seen earlier (case-insensitively) is marked Duplicate.
func CheckURLs(text string, policy URLPolicy) []URLCheck {
	var checks []URLCheck
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		check := URLCheck{URL: line}
		if err := policy.Check(line); err != nil {
			check.Err = err
		} else {
			check.Valid = true
			key := strings.ToLower(line)
			if seen[key] {
				check.Duplicate = true
				check.Err = Errorf(EINVALID, "duplicate URL")
			}
			seen[key] = true
		}
		checks = append(checks, check)
	}

	return checks
}

// ValidURLs returns the valid, non-duplicate URLs in input order.
func ValidURLs(checks []URLCheck) []string {
	var urls []string
	for _, c := range checks {
		if c.Valid && !c.Duplicate {
			urls = append(urls, c.URL)
		}
	}
	return urls
}
