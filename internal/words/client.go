package words

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const requestTimeout = 10 * time.Second

// Client - fetches candidate words from an external random-word API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	minLen     int
	maxLen     int
}

func NewClient(baseURL string, minLen, maxLen int) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
		minLen:     minLen,
		maxLen:     maxLen,
	}
}

// FetchCandidateWords - requests count words and returns the usable subset:
// uppercased, alphabetic, within the configured length bounds. A short (or
// empty) result is not an error by itself - the caller decides how sparse a
// puzzle it is willing to serve.
func (that *Client) FetchCandidateWords(ctx context.Context, count int) ([]string, error) {
	reqURL, err := url.Parse(that.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse word source url: %w", err)
	}

	query := reqURL.Query()
	query.Set("number", strconv.Itoa(count))
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build word source request: %w", err)
	}

	resp, err := that.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch words: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("word source returned status %d", resp.StatusCode)
	}

	var fetched []string
	if err = json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		return nil, fmt.Errorf("failed to decode word source response: %w", err)
	}

	return that.filter(fetched), nil
}

func (that *Client) filter(fetched []string) []string {
	usable := make([]string, 0, len(fetched))

	for _, word := range fetched {
		word = strings.ToUpper(strings.TrimSpace(word))
		if len(word) < that.minLen || len(word) > that.maxLen {
			continue
		}
		if !alphabetic(word) {
			continue
		}
		usable = append(usable, word)
	}

	return usable
}

func alphabetic(word string) bool {
	for _, r := range word {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return word != ""
}
