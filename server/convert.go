package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karlseguin/ccache/v3"
	"github.com/ravenscroftj/granary/server/as1"
	"github.com/ravenscroftj/granary/server/feed"
	"github.com/ravenscroftj/granary/server/mf2"
	"github.com/ravenscroftj/granary/server/microformats2"
	"github.com/ravenscroftj/granary/server/telemetry"
	"willnorris.com/go/microformats"
)

// maxFetchBytes caps remote page and request body reads
const maxFetchBytes = 5 << 20

// ConvertHandler serves the /convert endpoint: fetch or receive a source
// document, convert between formats, write the result.
type ConvertHandler struct {
	cfg    Config
	client *http.Client
	cache  *ccache.Cache[string] // url -> page body
	feeds  *feed.Parser
}

func NewConvertHandler(cfg Config) *ConvertHandler {
	return &ConvertHandler{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.Server.FetchTimeout) * time.Second,
		},
		cache: ccache.New(ccache.Configure[string]().MaxSize(cfg.Server.CacheSize)),
		feeds: feed.NewParser(),
	}
}

func (h *ConvertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	telemetry.Request(r, "convert [%s]", reqID)
	telemetry.Increment("convert_requests", 1)

	query := r.URL.Query()
	input := query.Get("input")
	if input == "" {
		input = "html"
	}
	output := query.Get("output")
	if output == "" {
		output = "as1"
	}

	srcURL := query.Get("url")
	var body string
	if r.Method == http.MethodPost {
		buf, err := io.ReadAll(io.LimitReader(r.Body, maxFetchBytes))
		if err != nil {
			h.fail(w, reqID, http.StatusBadRequest, fmt.Errorf("reading body: %w", err))
			return
		}
		body = string(buf)
	} else {
		if srcURL == "" {
			h.fail(w, reqID, http.StatusBadRequest, fmt.Errorf("missing url parameter"))
			return
		}
		fetched, err := h.fetchPage(r.Context(), srcURL)
		if err != nil {
			h.fail(w, reqID, http.StatusBadGateway, fmt.Errorf("fetching [%s]: %w", srcURL, err))
			return
		}
		body = fetched
	}

	activities, err := h.parse(r.Context(), input, body, srcURL, query.Get("id"))
	if err != nil {
		h.fail(w, reqID, http.StatusBadRequest, err)
		return
	}

	switch output {
	case "as1":
		writeJSON(w, "application/stream+json", itemsEnvelope{Items: activities})
	case "mf2-json":
		items := make([]*mf2.Item, 0, len(activities))
		for _, a := range activities {
			items = append(items, microformats2.ActivityToJSON(a, microformats2.DefaultJSONOptions()))
		}
		writeJSON(w, "application/mf2+json", mf2Envelope{Items: items})
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, microformats2.ActivitiesToHTML(activities))
	default:
		h.fail(w, reqID, http.StatusBadRequest, fmt.Errorf("unknown output format [%s]", output))
	}
}

func (h *ConvertHandler) parse(ctx context.Context, input, body, srcURL, fragmentID string) ([]*as1.Object, error) {
	switch input {
	case "html":
		return microformats2.HTMLToActivities(ctx, body, microformats2.ParseOptions{
			BaseURL: srcURL,
			ID:      fragmentID,
			Fetch:   h.fetchMF2,
		})
	case "mf2-json":
		return h.parseMF2JSON(ctx, body)
	case "feed":
		return h.feeds.Parse(strings.NewReader(body))
	}
	return nil, fmt.Errorf("unknown input format [%s]", input)
}

// parseMF2JSON accepts either a parser-style {"items": [...]} document or
// one bare item.
func (h *ConvertHandler) parseMF2JSON(ctx context.Context, body string) ([]*as1.Object, error) {
	var envelope struct {
		Items []*mf2.Item `json:"items"`
	}
	var items []*mf2.Item
	if err := json.Unmarshal([]byte(body), &envelope); err == nil && len(envelope.Items) > 0 {
		items = envelope.Items
	} else {
		var single mf2.Item
		if err := json.Unmarshal([]byte(body), &single); err != nil {
			return nil, fmt.Errorf("parsing mf2 json: %w", err)
		}
		items = []*mf2.Item{&single}
	}

	var activities []*as1.Object
	for _, item := range items {
		obj, err := microformats2.JSONToObject(ctx, item, microformats2.ObjectOptions{Fetch: h.fetchMF2})
		if err != nil {
			return nil, err
		}
		if obj == nil {
			continue
		}
		activities = append(activities, &as1.Object{Object: as1.ObjectList{obj}})
	}
	return activities, nil
}

// fetchPage fetches a remote page through the TTL cache.
func (h *ConvertHandler) fetchPage(ctx context.Context, pageURL string) (string, error) {
	ttl := time.Duration(h.cfg.Server.CacheTTL) * time.Second
	item, err := h.cache.Fetch(pageURL, ttl, func() (string, error) {
		return h.fetch(ctx, pageURL)
	})
	if err != nil {
		return "", err
	}
	return item.Value(), nil
}

func (h *ConvertHandler) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", h.cfg.Server.UserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("response code %d", resp.StatusCode)
	}

	buf, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", err
	}
	telemetry.Increment("pages_fetched", 1)
	return string(buf), nil
}

// fetchMF2 adapts the cached page fetcher for authorship resolution.
func (h *ConvertHandler) fetchMF2(ctx context.Context, pageURL string) (*mf2.Document, error) {
	body, err := h.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return microformats2.FromParsed(microformats.Parse(strings.NewReader(body), base)), nil
}

func (h *ConvertHandler) fail(w http.ResponseWriter, reqID string, status int, err error) {
	telemetry.Error(err, "convert [%s]", reqID)
	http.Error(w, err.Error(), status)
}

type itemsEnvelope struct {
	Items []*as1.Object `json:"items"`
}

type mf2Envelope struct {
	Items []*mf2.Item `json:"items"`
}

func writeJSON(w http.ResponseWriter, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		telemetry.Error(err, "encoding response")
	}
}
