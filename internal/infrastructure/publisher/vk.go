package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"NewsAgent/internal/config"
	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
)

const (
	vkAPIBase    = "https://api.vk.com/method"
	vkAPIVersion = "5.199"
)

// VKPublisher posts articles to a community wall. Photo posts take the
// three-step route: obtain an upload server, upload the image bytes,
// save the wall photo, then attach it to the post.
type VKPublisher struct {
	accessToken string
	groupID     int64
	apiBase     string
	client      *http.Client
	logger      *slog.Logger
}

var _ ports.Publisher = (*VKPublisher)(nil)

// NewVKPublisher registers the community token and group id.
func NewVKPublisher(cfg config.VKConfig, logger *slog.Logger) *VKPublisher {
	return &VKPublisher{
		accessToken: cfg.AccessToken,
		groupID:     cfg.GroupID,
		apiBase:     vkAPIBase,
		client:      &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
	}
}

// Name identifies the channel inside publish reports.
func (p *VKPublisher) Name() string {
	return "vk"
}

// Configured reports whether both token and group are present.
func (p *VKPublisher) Configured() bool {
	return p.accessToken != "" && p.groupID != 0
}

// Publish posts the article on the group wall and returns the post id.
// A failed photo upload degrades the post to text-only.
func (p *VKPublisher) Publish(ctx context.Context, article domain.Article) (string, error) {
	if !p.Configured() {
		return "", fmt.Errorf("vk publisher is not configured")
	}

	var attachment string
	if article.ImageURL != "" {
		uploaded, err := p.uploadWallPhoto(ctx, article.ImageURL)
		if err != nil {
			p.warn("photo upload failed, posting text only", "image_url", article.ImageURL, "error", err)
		} else {
			attachment = uploaded
		}
	}

	params := url.Values{}
	params.Set("owner_id", strconv.FormatInt(-p.groupID, 10))
	params.Set("from_group", "1")
	params.Set("message", formatVKMessage(article))
	if attachment != "" {
		params.Set("attachments", attachment)
	}

	var result struct {
		PostID int64 `json:"post_id"`
	}
	if err := p.call(ctx, "wall.post", params, &result); err != nil {
		return "", fmt.Errorf("wall.post: %w", err)
	}
	if result.PostID == 0 {
		return "", fmt.Errorf("wall.post returned no post id")
	}

	return strconv.FormatInt(result.PostID, 10), nil
}

func (p *VKPublisher) uploadWallPhoto(ctx context.Context, imageURL string) (string, error) {
	var server struct {
		UploadURL string `json:"upload_url"`
	}
	params := url.Values{}
	params.Set("group_id", strconv.FormatInt(p.groupID, 10))
	if err := p.call(ctx, "photos.getWallUploadServer", params, &server); err != nil {
		return "", fmt.Errorf("get upload server: %w", err)
	}
	if server.UploadURL == "" {
		return "", fmt.Errorf("empty upload url")
	}

	image, err := p.downloadImage(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}

	uploaded, err := p.uploadImage(ctx, server.UploadURL, image)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	saveParams := url.Values{}
	saveParams.Set("group_id", strconv.FormatInt(p.groupID, 10))
	saveParams.Set("server", strconv.Itoa(uploaded.Server))
	saveParams.Set("photo", uploaded.Photo)
	saveParams.Set("hash", uploaded.Hash)

	var saved []struct {
		ID      int64 `json:"id"`
		OwnerID int64 `json:"owner_id"`
	}
	if err := p.call(ctx, "photos.saveWallPhoto", saveParams, &saved); err != nil {
		return "", fmt.Errorf("save wall photo: %w", err)
	}
	if len(saved) == 0 {
		return "", fmt.Errorf("save wall photo returned no photos")
	}

	return fmt.Sprintf("photo%d_%d", saved[0].OwnerID, saved[0].ID), nil
}

func (p *VKPublisher) downloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image host returned %s", resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}

type vkUploadResult struct {
	Server int    `json:"server"`
	Photo  string `json:"photo"`
	Hash   string `json:"hash"`
}

func (p *VKPublisher) uploadImage(ctx context.Context, uploadURL string, image []byte) (vkUploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("photo", "photo.jpg")
	if err != nil {
		return vkUploadResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return vkUploadResult{}, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return vkUploadResult{}, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return vkUploadResult{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return vkUploadResult{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return vkUploadResult{}, fmt.Errorf("upload host returned %s", resp.Status)
	}

	var result vkUploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return vkUploadResult{}, fmt.Errorf("decode upload response: %w", err)
	}

	return result, nil
}

func (p *VKPublisher) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	form := url.Values{}
	for key, values := range params {
		for _, value := range values {
			form.Add(key, value)
		}
	}
	form.Set("access_token", p.accessToken)
	form.Set("v", vkAPIVersion)

	endpoint := fmt.Sprintf("%s/%s", strings.TrimSuffix(p.apiBase, "/"), method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vk returned %s", resp.Status)
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
		Error    *struct {
			Code    int    `json:"error_code"`
			Message string `json:"error_msg"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("vk error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}

	if out == nil || envelope.Response == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Response, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

func formatVKMessage(article domain.Article) string {
	parts := []string{article.Title}

	body := article.Description
	if body == "" {
		body = article.Content
	}
	if body != "" {
		parts = append(parts, body)
	}

	if article.SourceURL != "" {
		parts = append(parts, article.SourceURL)
	}

	return strings.Join(parts, "\n\n")
}

func (p *VKPublisher) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
