package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type assetResponse struct {
	URL string `json:"url"`
}

// UploadAsset streams body to PUT {base}/assets/{name} and returns the URL the
// backend stored it under. size may be -1 when unknown.
func (c *Client) UploadAsset(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &Error{Code: KindValidation, Message: "asset name is required"}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	status, resp, err := c.do(ctx, fasthttp.MethodPut, "/assets/"+url.PathEscape(name), uuid.NewString(), func(req *fasthttp.Request) {
		req.Header.SetContentType(contentType)
		req.SetBodyStream(body, int(size))
	})
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", decodeError(status, resp)
	}
	var out assetResponse
	if err := json.Unmarshal(resp, &out); err != nil || out.URL == "" {
		return "", &Error{Code: KindInternal, Message: fmt.Sprintf("decode asset response: %q", resp), Status: status, Err: err}
	}
	return out.URL, nil
}
