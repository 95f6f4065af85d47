package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lyyti/internal"
	"lyyti/internal/config"
)

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type lookupRequest struct {
	Q string `json:"q"`
}

type lookupResponse struct {
	Results []licenceItem `json:"results"`
}

type licenceItem struct {
	LicenceID    json.RawMessage `json:"LicenceId"`
	Firstname    string          `json:"Firstname"`
	Surname      string          `json:"Surname"`
	DOB          string          `json:"DOB"`
	Organization struct {
		Name      string `json:"Name"`
		NameShort string `json:"NameShort"`
	} `json:"Organization"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.LicenseRegistryTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.LicenseRegistryRateRPS),
	}
}

// Lookup queries the registry for a license id. It returns nil when the
// registry yields anything other than exactly one candidate.
func (c *Client) Lookup(ctx context.Context, licenseID string) (*internal.LicenseRecord, error) {
	if strings.TrimSpace(c.cfg.LicenseRegistryURL) == "" {
		return nil, errors.New("missing LICENSE_REGISTRY_URL")
	}

	payload, err := json.Marshal(lookupRequest{Q: licenseID})
	if err != nil {
		return nil, err
	}

	if err := c.limiter.WaitTurn(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.LicenseRegistryURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.LicenseRegistryCookie != "" {
		req.Header.Set("Cookie", c.cfg.LicenseRegistryCookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("license registry request: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("license registry error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out lookupResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("license registry response: %w", err)
	}
	if len(out.Results) != 1 {
		return nil, nil
	}

	item := out.Results[0]
	return &internal.LicenseRecord{
		LicenceID: rawScalar(item.LicenceID),
		Firstname: item.Firstname,
		Surname:   item.Surname,
		DOB:       item.DOB,
		Organization: internal.Organization{
			Name:      item.Organization.Name,
			NameShort: item.Organization.NameShort,
		},
	}, nil
}

// rawScalar renders a JSON string or number as plain text.
func rawScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
