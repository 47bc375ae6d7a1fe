package harvest

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

// Batch request limits.
const (
	MinInterRequestDelay = 100 * time.Millisecond
	MinPerRequestTimeout = time.Second
)

// BatchRequest describes one harvesting run.
type BatchRequest struct {
	URLs              []string
	InterRequestDelay time.Duration
	PerRequestTimeout time.Duration
}

// Validate returns EINVALID naming the first constraint that fails.
func (r *BatchRequest) Validate() error {
	if len(r.URLs) == 0 {
		return Errorf(EINVALID, "at least one URL required")
	}
	for i, u := range r.URLs {
		if err := ValidateURL(u); err != nil {
			return Errorf(EINVALID, "url %d: %s", i+1, ErrorMessage(err))
		}
	}
	if r.InterRequestDelay < MinInterRequestDelay {
		return Errorf(EINVALID, "inter-request delay must be at least %s, got %s", MinInterRequestDelay, r.InterRequestDelay)
	}
	if r.PerRequestTimeout < MinPerRequestTimeout {
		return Errorf(EINVALID, "per-request timeout must be at least %s, got %s", MinPerRequestTimeout, r.PerRequestTimeout)
	}
	return nil
}

// WithDefaults returns a copy of r with zero durations taken from tier.
func (r BatchRequest) WithDefaults(tier Tier) BatchRequest {
	if r.InterRequestDelay == 0 {
		r.InterRequestDelay = tier.InterRequestDelay
	}
	if r.PerRequestTimeout == 0 {
		r.PerRequestTimeout = tier.PerRequestTimeout
	}
	return r
}

type batchRequestJSON struct {
	URLs                []string `json:"urls"`
	InterRequestDelayMs int64    `json:"interRequestDelayMs,omitempty"`
	PerRequestTimeoutMs int64    `json:"perRequestTimeoutMs,omitempty"`
}

// MarshalJSON encodes durations as milliseconds.
func (r BatchRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(batchRequestJSON{
		URLs:                r.URLs,
		InterRequestDelayMs: r.InterRequestDelay.Milliseconds(),
		PerRequestTimeoutMs: r.PerRequestTimeout.Milliseconds(),
	})
}

// UnmarshalJSON decodes durations given in milliseconds.
func (r *BatchRequest) UnmarshalJSON(data []byte) error {
	var v batchRequestJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return Errorf(EINVALID, "invalid batch request: %v", err)
	}
	r.URLs = v.URLs
	r.InterRequestDelay = time.Duration(v.InterRequestDelayMs) * time.Millisecond
	r.PerRequestTimeout = time.Duration(v.PerRequestTimeoutMs) * time.Millisecond
	return nil
}

// BatchSummary counts the outcome of a run.
type BatchSummary struct {
	Total         int           `json:"total"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	ExecutionTime time.Duration `json:"-"`
}

// MarshalJSON adds executionTimeMs.
func (s BatchSummary) MarshalJSON() ([]byte, error) {
	type summary BatchSummary
	return json.Marshal(struct {
		summary
		ExecutionTimeMs int64 `json:"executionTimeMs"`
	}{summary(s), s.ExecutionTime.Milliseconds()})
}

// BatchResult holds one record per requested URL, in request order.
type BatchResult struct {
	ID      string       `json:"id,omitempty"`
	Records []*Listing   `json:"records"`
	Summary BatchSummary `json:"summary"`
}

// Summarize counts records by presence of an error.
func Summarize(records []*Listing, elapsed time.Duration) BatchSummary {
	s := BatchSummary{Total: len(records), ExecutionTime: elapsed}
	for _, r := range records {
		if r.Failed() {
			s.Failed++
		} else {
			s.Succeeded++
		}
	}
	return s
}

// Succeeded returns the records without an error.
func (r *BatchResult) Succeeded() []*Listing {
	var out []*Listing
	for _, l := range r.Records {
		if !l.Failed() {
			out = append(out, l)
		}
	}
	return out
}

// BatchProgress reports one recorded item.
type BatchProgress struct {
	URL       string
	Completed int
	Total     int
	Listing   *Listing
}

// BatchProgressFunc is called after each record is appended.
type BatchProgressFunc func(BatchProgress)

// Harvester runs batches.
type Harvester interface {
	// Run validates req, then fetches and extracts every URL in order.
	// Returns EINVALID without fetching when req is invalid. When ctx is
	// canceled the result is still complete (remaining URLs carry ECANCELED
	// records) and the returned error has code ECANCELED.
	Run(ctx context.Context, req BatchRequest, progress BatchProgressFunc) (*BatchResult, error)
}

// ValidateURL returns EINVALID unless raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return Errorf(EINVALID, "malformed URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Errorf(EINVALID, "URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return Errorf(EINVALID, "URL %q must be absolute", raw)
	}
	return nil
}
