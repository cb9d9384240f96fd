package certificate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Uploader sends a certificate image to the application backend.
type Uploader interface {
	Upload(ctx context.Context, id string, png []byte) (UploadResult, error)
}

// HTTPUploader posts certificates as multipart forms to a fixed endpoint.
// Only a single attempt is made.
type HTTPUploader struct {
	url    string
	client *http.Client
}

var _ Uploader = (*HTTPUploader)(nil)

func NewHTTPUploader(url string, timeout time.Duration) *HTTPUploader {
	return &HTTPUploader{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (u *HTTPUploader) body(id string, png []byte) (*bytes.Buffer, string, error) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="certificate"; filename="%s"`, quoteEscaper.Replace(ImageName(id)))},
		"Content-Type":        {"image/png"},
	})
	if err != nil {
		return nil, "", errors.Wrap(err, "creating certificate part")
	}
	if _, err = part.Write(png); err != nil {
		return nil, "", errors.Wrap(err, "writing certificate part")
	}
	if err = w.WriteField("certificateId", id); err != nil {
		return nil, "", errors.Wrap(err, "writing certificateId field")
	}
	if err = w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "closing multipart body")
	}
	return body, w.FormDataContentType(), nil
}

func (u *HTTPUploader) Upload(ctx context.Context, id string, png []byte) (UploadResult, error) {
	body, contentType, err := u.body(id, png)
	if err != nil {
		return nil, &UploadError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, body)
	if err != nil {
		return nil, &UploadError{Err: errors.Wrap(err, "creating upload request")}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	res, err := u.client.Do(req)
	if err != nil {
		return nil, &UploadError{Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, &UploadError{StatusCode: res.StatusCode}
	}

	var result UploadResult
	if err = json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, &UploadError{StatusCode: res.StatusCode, Err: errors.Wrap(err, "decoding upload response")}
	}
	if result == nil {
		return nil, &UploadError{StatusCode: res.StatusCode, Err: errors.New("empty upload response")}
	}
	return result, nil
}
