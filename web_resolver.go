package ddns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultIPServiceURL is queried by the default resolver.
const DefaultIPServiceURL = "https://api.ipify.org?format=json"

// resolveTimeout bounds a single lookup even when the caller's context has no deadline.
const resolveTimeout = 15 * time.Second

// WebResolver constructs a resolver which asks an external web service for our public IP address.
//
// The service must speak http, return status "200 OK",
// and reply with a JSON object carrying the address in its "ip" field, e.g. {"ip":"203.0.113.7"}.
// All other responses are considered an error.
//
// The address is returned as reported; it is not parsed or checked for an address family.
func WebResolver(serviceURL string) (Resolver, error) {
	u, err := url.Parse(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing URL: %w", err)
	}
	return &webResolver{serviceURL: u, logger: discard}, nil
}

type webResolver struct {
	httpClient *http.Client
	serviceURL *url.URL
	logger     *logrus.Entry
}

type ipResponse struct {
	IP *string `json:"ip"`
}

func (wr *webResolver) SetLogger(logger *logrus.Entry) {
	wr.logger = logger.WithField("component", "resolver")
}

func (wr *webResolver) SetHTTPClient(httpClient *http.Client) {
	wr.httpClient = httpClient
}

// Resolve implements ddns.Resolver.
func (wr *webResolver) Resolve(ctx context.Context) (string, error) {
	if wr.serviceURL == nil {
		return "", errors.New("no external IP lookup service was provided")
	}

	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wr.serviceURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	httpclient := wr.httpClient
	if httpclient == nil {
		httpclient = DefaultHTTPClient
	}

	wr.logger.Debugf("looking up public IP at %s", wr.serviceURL)
	resp, err := httpclient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http request returned %s", resp.Status)
	}

	var body ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("error decoding response body: %w", err)
	}
	if body.IP == nil {
		return "", errors.New("response body has no \"ip\" field")
	}
	wr.logger.Debugf("public IP is %s", *body.IP)
	return *body.IP, nil
}
