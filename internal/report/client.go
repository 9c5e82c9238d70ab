package report

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/varalys/cmdguard/internal/types"
)

// ClientConfig is read from the environment so that the API key never shows
// up in process listings.
type ClientConfig struct {
	// Env: CMDGUARD_REPORT_URL
	URL string `envconfig:"REPORT_URL" validate:"required,url"`
	// Env: CMDGUARD_API_KEY
	APIKey  string        `envconfig:"API_KEY" validate:"required"`
	Timeout time.Duration `envconfig:"REPORT_TIMEOUT" default:"5s" validate:"gt=0"`
}

// ErrReportingDisabled is returned by LoadClientConfig when no URL is set.
var ErrReportingDisabled = errors.New("reporting disabled")

var validate = validator.New()

// LoadClientConfig reads CMDGUARD_* variables.
func LoadClientConfig() (ClientConfig, error) {
	var c ClientConfig
	if err := envconfig.Process("cmdguard", &c); err != nil {
		return ClientConfig{}, fmt.Errorf("load report settings from environment: %w", err)
	}
	if c.URL == "" {
		return ClientConfig{}, ErrReportingDisabled
	}
	return c, nil
}

// Client posts detections to a remote collector. Only the SHA-256 of the
// command and the detector/severity pairs leave the machine; finding messages
// quote parts of the command and are not sent.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid report settings: %w", err)
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}, nil
}

type Detection struct {
	CommandSHA256 string          `json:"commandSha256"`
	Findings      []ReportFinding `json:"findings"`
	Blocked       bool            `json:"blocked"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       string          `json:"version,omitempty"`
}

type ReportFinding struct {
	Detector string         `json:"detectorId"`
	Severity types.Severity `json:"severity"`
}

// HashCommand returns the hex SHA-256 of the command text.
func HashCommand(cmd string) string {
	sum := sha256.Sum256([]byte(cmd))
	return hex.EncodeToString(sum[:])
}

// NewDetection builds the payload for one analyzed command.
func NewDetection(cmd string, findings []types.Finding, blocked bool, version string) Detection {
	d := Detection{
		CommandSHA256: HashCommand(cmd),
		Findings:      make([]ReportFinding, 0, len(findings)),
		Blocked:       blocked,
		Timestamp:     time.Now().UTC(),
		Version:       version,
	}
	for _, f := range findings {
		d.Findings = append(d.Findings, ReportFinding{Detector: f.Detector, Severity: f.Severity})
	}
	return d
}

// Send posts d. Callers treat any error as non-fatal.
func (c *Client) Send(ctx context.Context, d Detection) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode detection: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send detection: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send detection: unexpected status %s", resp.Status)
	}
	return nil
}
