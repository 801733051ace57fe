package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
	"queueWatch/internal/shared/normalization"
)

const (
	DefaultProviderURL    = "https://xcx.zhufuguihuoguo.com/api/item/lists"
	DefaultProviderSearch = "禹悦汇"
	DefaultTargetStoreID  = 19

	providerSuccessCode = 1
)

// ProviderConfig configures the store list endpoint of the queue provider.
type ProviderConfig struct {
	URL           string
	Search        string
	TargetStoreID int64
	Timeout       time.Duration
	Client        *http.Client
}

// ProviderClient implements port.SourceFetcher against the provider's store search endpoint.
type ProviderClient struct {
	rest     *RESTClient
	timeout  time.Duration
	search   string
	targetID int64
}

var _ port.SourceFetcher = (*ProviderClient)(nil)

func NewProviderClient(cfg ProviderConfig) *ProviderClient {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = DefaultProviderURL
	}
	search := cfg.Search
	if strings.TrimSpace(search) == "" {
		search = DefaultProviderSearch
	}
	target := cfg.TargetStoreID
	if target <= 0 {
		target = DefaultTargetStoreID
	}
	return &ProviderClient{
		rest:     NewRESTClient(url, cfg.Timeout, cfg.Client),
		timeout:  timeoutOrDefault(cfg.Timeout),
		search:   search,
		targetID: target,
	}
}

type providerEnvelope struct {
	Code any               `json:"code"`
	Msg  string            `json:"msg"`
	Time any               `json:"time"`
	Data []json.RawMessage `json:"data"`
}

type providerEntryID struct {
	ID any `json:"id"`
}

// FetchTargetStore issues one search request and returns the target store's record.
func (c *ProviderClient) FetchTargetStore(ctx context.Context) (*domain.StoreRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.rest.NewJSONRequest(ctx, http.MethodPost, "", map[string]string{"search": c.search})
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", port.ErrSourceUnavailable, err)
	}
	slog.Debug("provider request", slog.String("url", req.URL.String()))

	res, err := c.rest.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", port.ErrSourceUnavailable, err)
	}
	defer res.Body.Close()

	body, err := readBody(res)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", port.ErrSourceUnavailable, err)
	}
	slog.Debug("provider response", slog.Int("status", res.StatusCode), slog.Int("bytes", len(body)))
	if !isSuccessStatus(res.StatusCode) {
		return nil, fmt.Errorf("%w: unexpected status %d: %s", port.ErrSourceUnavailable, res.StatusCode, truncateBody(body))
	}

	envelope, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	if code, ok := normalization.AsInt(envelope.Code); !ok || code != providerSuccessCode {
		return nil, fmt.Errorf("%w: provider code %v: %s", port.ErrSourceUnavailable, envelope.Code, strings.TrimSpace(envelope.Msg))
	}

	for i, entry := range envelope.Data {
		var peek providerEntryID
		if err := json.Unmarshal(entry, &peek); err != nil {
			slog.Debug("provider entry skipped", slog.Int("index", i), slog.Any("error", err))
			continue
		}
		id, ok := normalization.AsInt(peek.ID)
		if !ok || int64(id) != c.targetID {
			continue
		}
		record, err := domain.DecodeStoreRecord(entry)
		if err != nil {
			return nil, err
		}
		return &record, nil
	}
	return nil, fmt.Errorf("%w: id %d among %d stores", port.ErrStoreNotFound, c.targetID, len(envelope.Data))
}

func decodeEnvelope(body []byte) (*providerEnvelope, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var envelope providerEnvelope
	if err := decoder.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", domain.ErrMalformedSourceData, err)
	}
	return &envelope, nil
}
