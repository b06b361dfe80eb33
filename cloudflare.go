package ddns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloudflare/cloudflare-go"
	"github.com/sirupsen/logrus"
)

// DefaultAPIBaseURL is the root of the Cloudflare v4 API.
const DefaultAPIBaseURL = "https://api.cloudflare.com/client/v4"

func newCloudflareUpdater(token string) (*cloudflareUpdater, error) {
	if token == "" {
		return nil, errors.New("API token cannot be empty")
	}
	return &cloudflareUpdater{
		baseURL: DefaultAPIBaseURL,
		token:   token,
		logger:  discard,
	}, nil
}

// cloudflareUpdater implements ddns.Updater.
//
// It overwrites an existing record by ID with a PUT to the dns_records endpoint.
// It never creates records.
type cloudflareUpdater struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logrus.Entry

	// strict makes a provider-rejected update return a *ProviderError instead of only being logged.
	strict bool
}

// RecordResponse is Cloudflare's reply to a record update.
// Success is nil when the reply had no "success" field, i.e. it was not a Cloudflare response.
type RecordResponse struct {
	Success  *bool                 `json:"success"`
	Errors   []ResponseMessage     `json:"errors"`
	Messages []ResponseMessage     `json:"messages"`
	Result   *cloudflare.DNSRecord `json:"result"`
}

// ResponseMessage is one entry of the errors or messages list in a Cloudflare response.
// The API sends {"code":...,"message":...} objects; plain strings are accepted too.
type ResponseMessage struct {
	Code    int
	Message string
}

func (m *ResponseMessage) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = ResponseMessage{Message: s}
		return nil
	}
	var info cloudflare.ResponseInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return fmt.Errorf("unexpected response message %s: %w", b, err)
	}
	*m = ResponseMessage{Code: info.Code, Message: info.Message}
	return nil
}

func (m ResponseMessage) String() string {
	if m.Code == 0 {
		return m.Message
	}
	return fmt.Sprintf("%d: %s", m.Code, m.Message)
}

// ProviderError reports an update that reached Cloudflare and was answered with "success": false.
type ProviderError struct {
	ZoneID   string
	RecordID string
	Errors   []ResponseMessage
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("cloudflare rejected update of record %s in zone %s: [%s]", e.RecordID, e.ZoneID, joinMessages(e.Errors))
}

func joinMessages(msgs []ResponseMessage) string {
	s := make([]string, len(msgs))
	for i, m := range msgs {
		s[i] = m.String()
	}
	return strings.Join(s, "; ")
}

func (cf *cloudflareUpdater) recordURL(zoneID, recordID string) string {
	return fmt.Sprintf("%s/zones/%s/dns_records/%s",
		strings.TrimSuffix(cf.baseURL, "/"),
		url.PathEscape(zoneID),
		url.PathEscape(recordID),
	)
}

// UpdateRecord implements ddns.Updater.
//
// Only failures to complete the exchange are returned:
// the request could not be sent or the reply was not a Cloudflare response.
// A reply with "success": false is logged and, unless the updater is strict, treated as done.
func (cf *cloudflareUpdater) UpdateRecord(ctx context.Context, zoneID, recordID string, record Record) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("error encoding record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, cf.recordURL(zoneID, recordID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cf.token)
	req.Header.Set("Content-Type", "application/json")

	httpclient := cf.httpClient
	if httpclient == nil {
		httpclient = DefaultHTTPClient
	}

	resp, err := httpclient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	// Cloudflare answers rejected updates with a 4xx status and the same envelope,
	// so the status code is not checked here.
	var result RecordResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("error decoding response (%s): %w", resp.Status, err)
	}
	if result.Success == nil {
		return fmt.Errorf("error decoding response (%s): no \"success\" field", resp.Status)
	}

	if *result.Success {
		entry := cf.logger.WithField("record_id", recordID)
		if result.Result != nil {
			entry = entry.WithField("content", result.Result.Content)
		}
		entry.Info("DNS record updated successfully")
		return nil
	}

	perr := &ProviderError{ZoneID: zoneID, RecordID: recordID, Errors: result.Errors}
	cf.logger.WithFields(logrus.Fields{
		"record_id": recordID,
		"errors":    joinMessages(result.Errors),
	}).Error("failed to update DNS record")
	if cf.strict {
		return perr
	}
	return nil
}

func (cf *cloudflareUpdater) SetLogger(logger *logrus.Entry) {
	cf.logger = logger.WithField("component", "updater")
}

func (cf *cloudflareUpdater) SetHTTPClient(httpClient *http.Client) {
	cf.httpClient = httpClient
}
