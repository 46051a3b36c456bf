package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/weathernews-agent/server/internal/agent/model"
	logx "github.com/weathernews-agent/server/pkg/logger"
)

const (
	NewsMissingKeyMessage = "⚠️ News API key is missing. Set NEWS_API_KEY in your .env file."
	NoNewsMessage         = "⚠️ No news available at the moment."

	maxArticles        = 5
	publishedAtLayout  = "2006-01-02 15:04"
	topHeadlinesPath   = "/v2/top-headlines"
	newsCountry        = "us"
	newsLanguage       = "en"
	articleSeparator   = "\n\n"
	defaultTitle       = "No title"
	defaultDescription = "No summary available."
	defaultSource      = "Unknown"
)

// topicCategories maps query keywords to NewsAPI categories. The first keyword
// found as a substring of the query wins, so order matters.
var topicCategories = []struct {
	keyword  string
	category string
}{
	{"sport", "sports"},
	{"sports", "sports"},
	{"tech", "technology"},
	{"technology", "technology"},
	{"business", "business"},
	{"politics", "general"},
	{"science", "science"},
	{"health", "health"},
	{"entertainment", "entertainment"},
	{"general", "general"},
}

// MatchCategory returns the NewsAPI category for a query, or "" when the
// query should be sent as a keyword search.
func MatchCategory(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, t := range topicCategories {
		if strings.Contains(q, t.keyword) {
			return t.category
		}
	}
	return ""
}

// NewsClient fetches top headlines from NewsAPI.
type NewsClient struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

func NewNewsClient(cfg model.NewsConfig) *NewsClient {
	return &NewsClient{
		client:  newHTTPClient(),
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
	}
}

type newsResponse struct {
	Status   string        `json:"status"`
	Message  string        `json:"message"`
	Articles []newsArticle `json:"articles"`
}

type newsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// GetNews returns up to five formatted headlines for query. Missing
// credentials, failures and empty results are reported as text.
func (n *NewsClient) GetNews(ctx context.Context, query string) string {
	if n.apiKey == "" {
		logx.Warn().Msg("news requested without NEWS_API_KEY")
		return NewsMissingKeyMessage
	}

	articles, err := n.fetch(ctx, query)
	if err != nil {
		logx.Warn().Err(err).Str("query", query).Msg("news fetch failed")
		return fmt.Sprintf("⚠️ Failed to fetch news: %v", err)
	}

	if len(articles) == 0 {
		if query != "" {
			logx.Debug().Str("query", query).Msg("no articles, falling back to top headlines")
			return n.GetNews(ctx, "")
		}
		return NoNewsMessage
	}

	if len(articles) > maxArticles {
		articles = articles[:maxArticles]
	}
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, formatArticle(a))
	}
	return strings.Join(out, articleSeparator)
}

func (n *NewsClient) fetch(ctx context.Context, query string) ([]newsArticle, error) {
	params := url.Values{
		"apiKey":   {n.apiKey},
		"pageSize": {fmt.Sprint(maxArticles)},
		"language": {newsLanguage},
		"country":  {newsCountry},
	}
	if category := MatchCategory(query); category != "" {
		params.Set("category", category)
	} else if q := strings.TrimSpace(query); q != "" {
		params.Set("q", q)
	}

	body, err := getJSON(ctx, n.client, n.baseURL, topHeadlinesPath, params)
	if err != nil {
		return nil, err
	}

	var resp newsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode news response: %w", err)
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("news api: %s", resp.Message)
	}
	return resp.Articles, nil
}

func formatArticle(a newsArticle) string {
	title := orDefault(a.Title, defaultTitle)
	description := orDefault(a.Description, defaultDescription)
	source := orDefault(a.Source.Name, defaultSource)

	return fmt.Sprintf(
		"📰 **Title:** %s\n%s\nSource: %s | Published: %s\n🔗 [Read full article](%s)\n",
		title, description, source, FormatPublished(a.PublishedAt), a.URL,
	)
}

// FormatPublished renders an ISO-8601 timestamp as "YYYY-MM-DD HH:MM" in its own
// offset (a trailing Z is UTC) and returns the input unchanged when it cannot be parsed.
func FormatPublished(raw string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(publishedAtLayout)
		}
	}
	return raw
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
