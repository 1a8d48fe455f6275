package media

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
)

// CloudinaryConfig holds the media host account.
type CloudinaryConfig struct {
	BaseURL   string
	CloudName string
	APIKey    string
	APISecret string
}

// Cloudinary is a Store backed by the Cloudinary upload API.
type Cloudinary struct {
	http   *httpclient.Client
	cfg    CloudinaryConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewCloudinary creates a Cloudinary store with the default resilient client.
func NewCloudinary(cfg CloudinaryConfig, logger *slog.Logger) *Cloudinary {
	hc := httpclient.DefaultConfig("cloudinary", cfg.BaseURL)
	hc.Timeout = 60 * time.Second
	return NewCloudinaryWithClient(httpclient.New(hc, logger), cfg, logger)
}

// NewCloudinaryWithClient creates a Cloudinary store on an existing client.
func NewCloudinaryWithClient(client *httpclient.Client, cfg CloudinaryConfig, logger *slog.Logger) *Cloudinary {
	return &Cloudinary{http: client, cfg: cfg, now: time.Now, logger: logger}
}

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

// Upload sends the file as a signed multipart upload.
func (c *Cloudinary) Upload(ctx context.Context, input *UploadInput) (*UploadResult, error) {
	params := map[string]string{
		"folder":    input.Folder,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range c.signed(params) {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write upload field %s: %w", k, err)
		}
	}
	part, err := mw.CreateFormFile("file", input.FileName)
	if err != nil {
		return nil, fmt.Errorf("create upload part: %w", err)
	}
	if _, err := io.Copy(part, input.Data); err != nil {
		return nil, fmt.Errorf("copy upload data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload"), &body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out uploadResponse
	if err := c.http.Send(req, &out); err != nil {
		return nil, fmt.Errorf("upload %s: %w", input.FileName, err)
	}

	c.logger.InfoContext(ctx, "media uploaded",
		slog.String("key", out.PublicID),
		slog.String("folder", input.Folder),
	)
	return &UploadResult{Key: out.PublicID, URL: out.SecureURL}, nil
}

type destroyResponse struct {
	Result string `json:"result"`
}

// Delete removes the object. A key the host does not know is NotFound.
func (c *Cloudinary) Delete(ctx context.Context, key string) error {
	params := map[string]string{
		"public_id": key,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	form := url.Values{}
	for k, v := range c.signed(params) {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("destroy"), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build destroy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var out destroyResponse
	if err := c.http.Send(req, &out); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	switch out.Result {
	case "ok":
		c.logger.InfoContext(ctx, "media deleted", slog.String("key", key))
		return nil
	case "not found":
		return apperrors.NotFound("media", key)
	default:
		return fmt.Errorf("delete %s: unexpected result %q", key, out.Result)
	}
}

func (c *Cloudinary) endpoint(action string) string {
	return c.http.URL(fmt.Sprintf("/v1_1/%s/image/%s", c.cfg.CloudName, action))
}

// signed returns params plus api_key and signature. The signature is the
// SHA-1 hex of the params sorted by name, joined as k=v&k=v, followed by the
// API secret.
func (c *Cloudinary) signed(params map[string]string) map[string]string {
	out := make(map[string]string, len(params)+2)
	for k, v := range params {
		out[k] = v
	}
	out["signature"] = Sign(params, c.cfg.APISecret)
	out["api_key"] = c.cfg.APIKey
	return out
}

// Sign computes the upload API request signature.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
