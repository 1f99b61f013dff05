// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package canvas

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// maxImageHeader is how much of a response is read to find the image
// dimensions.
const maxImageHeader = 1 << 20

// HTTPImageLoader resolves image sources over HTTP and reads only their
// headers to learn the natural size. Relative sources are resolved
// against BaseURL; data URLs are decoded in place.
type HTTPImageLoader struct {
	Client  *http.Client
	BaseURL string
}

// NewHTTPImageLoader creates a loader with a bounded client timeout.
func NewHTTPImageLoader(baseURL string, timeout time.Duration) *HTTPImageLoader {
	return &HTTPImageLoader{
		Client:  &http.Client{Timeout: timeout},
		BaseURL: baseURL,
	}
}

// LoadImage fetches src and decodes its dimensions.
func (l *HTTPImageLoader) LoadImage(ctx context.Context, src string) (ImageInfo, error) {
	if strings.HasPrefix(src, "data:") {
		return decodeDataURL(src)
	}

	target, err := l.resolve(src)
	if err != nil {
		return ImageInfo{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("build image request: %w", err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ImageInfo{}, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	return decodeConfig(io.LimitReader(resp.Body, maxImageHeader))
}

func (l *HTTPImageLoader) resolve(src string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse image src: %w", err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if l.BaseURL == "" {
		return "", fmt.Errorf("relative image src %q without base url", src)
	}
	base, err := url.Parse(l.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse image base url: %w", err)
	}
	return base.ResolveReference(u).String(), nil
}

func decodeDataURL(src string) (ImageInfo, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return ImageInfo{}, fmt.Errorf("malformed data url")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return decodeConfig(strings.NewReader(payload))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("decode data url: %w", err)
	}
	return decodeConfig(bytes.NewReader(data))
}

func decodeConfig(r io.Reader) (ImageInfo, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("decode image header: %w", err)
	}
	return ImageInfo{Width: cfg.Width, Height: cfg.Height}, nil
}
