package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
	"queueWatch/internal/shared/auth"
)

const (
	DefaultRemoteURL = "http://localhost:3000/api/collect"

	RemoteAuthStatic = "static"
	RemoteAuthJWT    = "jwt"

	batchEndpoint = "batch"
)

// RemoteSinkConfig configures the authenticated write endpoint of the durable store service.
type RemoteSinkConfig struct {
	URL      string
	Secret   string
	AuthMode string
	Timeout  time.Duration
	TokenTTL time.Duration
	Client   *http.Client
}

// RemoteSink posts snapshots to the store service. It never retries; the
// local log is the recovery source.
type RemoteSink struct {
	rest    *RESTClient
	timeout time.Duration
	secret  string
	signer  *auth.TokenSigner
}

func NewRemoteSink(cfg RemoteSinkConfig) (*RemoteSink, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = DefaultRemoteURL
	}
	sink := &RemoteSink{
		rest:    NewRESTClient(url, cfg.Timeout, cfg.Client),
		timeout: timeoutOrDefault(cfg.Timeout),
		secret:  strings.TrimSpace(cfg.Secret),
	}
	switch mode := strings.ToLower(strings.TrimSpace(cfg.AuthMode)); mode {
	case "", RemoteAuthStatic:
	case RemoteAuthJWT:
		sink.signer = auth.NewTokenSigner(sink.secret, cfg.TokenTTL)
	default:
		return nil, fmt.Errorf("unsupported remote auth mode %q", cfg.AuthMode)
	}
	return sink, nil
}

// Enabled reports whether a credential is configured.
func (s *RemoteSink) Enabled() bool {
	return s.secret != ""
}

func (s *RemoteSink) URL() string {
	return s.rest.URL("")
}

type remoteResponse struct {
	Success    *bool  `json:"success"`
	Error      string `json:"error"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
}

// Send writes one snapshot to the remote endpoint.
func (s *RemoteSink) Send(ctx context.Context, snapshot domain.Snapshot) error {
	_, err := s.post(ctx, "", strconv.FormatInt(snapshot.StoreID, 10), snapshot)
	return err
}

// SendBatch writes snapshots through the batch endpoint and returns the server's counts.
func (s *RemoteSink) SendBatch(ctx context.Context, snapshots []domain.Snapshot) (port.InsertResult, error) {
	if len(snapshots) == 0 {
		return port.InsertResult{}, nil
	}
	payload := struct {
		Snapshots []domain.Snapshot `json:"snapshots"`
	}{Snapshots: snapshots}
	res, err := s.post(ctx, batchEndpoint, "migration", payload)
	if err != nil {
		return port.InsertResult{}, err
	}
	return port.InsertResult{Inserted: res.Inserted, Duplicates: res.Duplicates}, nil
}

// InsertBatch lets the remote endpoint serve as a migration target.
func (s *RemoteSink) InsertBatch(ctx context.Context, snapshots []domain.Snapshot) (port.InsertResult, error) {
	return s.SendBatch(ctx, snapshots)
}

func (s *RemoteSink) post(ctx context.Context, endpoint, subject string, payload any) (*remoteResponse, error) {
	if !s.Enabled() {
		return nil, port.ErrRemoteDisabled
	}
	token, err := s.credential(subject)
	if err != nil {
		return nil, fmt.Errorf("%w: sign token: %w", port.ErrRemote, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := s.rest.NewJSONRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", port.ErrRemote, err)
	}
	req.Header.Set("Authorization", auth.BearerHeader(token))

	res, err := s.rest.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", port.ErrRemote, err)
	}
	defer res.Body.Close()

	body, err := readBody(res)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", port.ErrRemote, err)
	}

	var decoded remoteResponse
	decodeErr := json.Unmarshal(body, &decoded)
	if !isSuccessStatus(res.StatusCode) {
		message := truncateBody(body)
		if decodeErr == nil && decoded.Error != "" {
			message = decoded.Error
		}
		return nil, fmt.Errorf("%w: status %d: %s", port.ErrRemote, res.StatusCode, message)
	}
	if decodeErr == nil && decoded.Success != nil && !*decoded.Success {
		return nil, fmt.Errorf("%w: %s", port.ErrRemote, firstNonEmpty(decoded.Error, "request rejected"))
	}
	return &decoded, nil
}

func (s *RemoteSink) credential(subject string) (string, error) {
	if s.signer == nil {
		return s.secret, nil
	}
	return s.signer.Sign(subject)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
