// Package registry talks to the ClinicalTrials.gov v2 API: single-study
// detail fetches and the paginated search listing used by discovery.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNotFound reports that the registry has no study for the requested id.
var ErrNotFound = eris.New("registry: study not found")

// APIError is a non-200 response from the registry.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("registry: http %d from %s", e.StatusCode, e.URL)
}

// Options configures the registry client.
type Options struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client fetches study documents over HTTP. Failed requests are not retried
// here; a failed study stays pending and is picked up by the next batch run.
type Client struct {
	baseURL string
	ua      string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a registry client with rate limiting and a hard timeout.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://clinicaltrials.gov/api/v2"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "trials-etl/1.0"
	}
	return &Client{
		baseURL: opts.BaseURL,
		ua:      opts.UserAgent,
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
}

// Study fetches the full detail document for one study id.
func (c *Client) Study(ctx context.Context, studyID string) (*Document, error) {
	u := fmt.Sprintf("%s/studies/%s", c.baseURL, url.PathEscape(studyID))

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: fetch study %s", studyID)
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, eris.Wrapf(err, "registry: decode study %s", studyID)
	}
	return &doc, nil
}

// SearchQuery filters the study listing endpoint.
type SearchQuery struct {
	Condition     string
	Term          string
	OverallStatus string
}

// StudySummary is the slim study record returned by the listing endpoint.
type StudySummary struct {
	NCTID          string
	BriefTitle     string
	Organization   string
	OverallStatus  string
	LeadSponsor    string
	StartDate      string
	CompletionDate string
	BriefSummary   string
	HasResults     bool
}

// searchPage mirrors one page of the listing response.
type searchPage struct {
	Studies       []Document `json:"studies"`
	NextPageToken string     `json:"nextPageToken"`
}

// Search walks every page of the listing for the given query and returns all
// matching study summaries.
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]StudySummary, error) {
	var (
		out       []StudySummary
		pageToken string
	)

	for {
		u, err := c.searchURL(q, pageToken)
		if err != nil {
			return nil, err
		}

		body, err := c.get(ctx, u)
		if err != nil {
			return nil, eris.Wrap(err, "registry: search studies")
		}

		var page searchPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, eris.Wrap(err, "registry: decode search page")
		}

		for _, doc := range page.Studies {
			out = append(out, summarize(doc))
		}

		zap.L().Debug("registry: search page",
			zap.Int("studies", len(page.Studies)),
			zap.Bool("has_next", page.NextPageToken != ""),
		)

		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *Client) searchURL(q SearchQuery, pageToken string) (string, error) {
	u, err := url.Parse(c.baseURL + "/studies")
	if err != nil {
		return "", eris.Wrap(err, "registry: parse base url")
	}
	vals := u.Query()
	if q.Condition != "" {
		vals.Set("query.cond", q.Condition)
	}
	if q.Term != "" {
		vals.Set("query.term", q.Term)
	}
	if q.OverallStatus != "" {
		vals.Set("filter.overallStatus", q.OverallStatus)
	}
	if pageToken != "" {
		vals.Set("pageToken", pageToken)
	}
	u.RawQuery = vals.Encode()
	return u.String(), nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "do request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}
	return buf, nil
}

func summarize(doc Document) StudySummary {
	id := doc.ProtocolSection.IdentificationModule
	status := doc.ProtocolSection.StatusModule
	return StudySummary{
		NCTID:          id.NCTID,
		BriefTitle:     id.BriefTitle,
		Organization:   id.Organization.FullName,
		OverallStatus:  status.OverallStatus,
		LeadSponsor:    doc.ProtocolSection.SponsorModule.LeadSponsor.Name,
		StartDate:      status.StartDate.Date,
		CompletionDate: status.CompletionDate.Date,
		BriefSummary:   doc.ProtocolSection.DescriptionModule.BriefSummary,
		HasResults:     doc.HasResults,
	}
}
