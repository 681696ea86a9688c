package pkg

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	BaseURL   string // 默认 https://api.cloudinary.com

	UploadPreset string
	UploadFolder string // 默认 hood-link/posts
}

// CloudinaryClient 签发前端直传所需签名，并删除远端图片
type CloudinaryClient struct {
	http *resty.Client
	cfg  CloudinaryConfig
	now  func() time.Time
}

type destroyResult struct {
	Result string `json:"result"`
}

func NewCloudinaryClient(cfg CloudinaryConfig) *CloudinaryClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloudinary.com"
	}
	if cfg.UploadFolder == "" {
		cfg.UploadFolder = "hood-link/posts"
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json")
	return &CloudinaryClient{http: client, cfg: cfg, now: time.Now}
}

// Destroy 删除图片；"not found" 视为成功
func (c *CloudinaryClient) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	ts := strconv.FormatInt(c.now().Unix(), 10)
	var out destroyResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"public_id": publicID,
			"timestamp": ts,
			"api_key":   c.cfg.APIKey,
			"signature": c.sign(map[string]string{"public_id": publicID, "timestamp": ts}),
		}).
		SetResult(&out).
		Post(fmt.Sprintf("/v1_1/%s/image/destroy", c.cfg.CloudName))
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("cloudinary destroy: status %d", resp.StatusCode())
	}
	if out.Result != "ok" && out.Result != "not found" {
		return fmt.Errorf("cloudinary destroy: result %q", out.Result)
	}
	return nil
}

// UploadSignature 前端直传 Cloudinary 时带上的参数
type UploadSignature struct {
	CloudName    string `json:"cloudName"`
	APIKey       string `json:"apiKey"`
	Timestamp    int64  `json:"timestamp"`
	Signature    string `json:"signature"`
	UploadPreset string `json:"upload_preset,omitempty"`
	Folder       string `json:"folder"`
}

// SignUpload folder 为空时用配置的默认目录
func (c *CloudinaryClient) SignUpload(folder string) UploadSignature {
	if folder == "" {
		folder = c.cfg.UploadFolder
	}
	ts := c.now().Unix()
	params := map[string]string{
		"timestamp": strconv.FormatInt(ts, 10),
		"folder":    folder,
	}
	if c.cfg.UploadPreset != "" {
		params["upload_preset"] = c.cfg.UploadPreset
	}
	return UploadSignature{
		CloudName:    c.cfg.CloudName,
		APIKey:       c.cfg.APIKey,
		Timestamp:    ts,
		Signature:    c.sign(params),
		UploadPreset: c.cfg.UploadPreset,
		Folder:       folder,
	}
}

// sign 参数按字母序拼接后追加 secret 做 SHA-1
func (c *CloudinaryClient) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.cfg.APISecret))
	return hex.EncodeToString(sum[:])
}
