package media

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const cloudinaryBaseURL = "https://api.cloudinary.com/v1_1"

// CloudinaryStore uploads to Cloudinary with signed requests. Asset IDs have
// the form "<resource_type>/<public_id>" so Delete can address the right API.
type CloudinaryStore struct {
	client    *resty.Client
	cloudName string
	apiKey    string
	apiSecret string
	now       func() time.Time
}

type cloudinaryUploadResponse struct {
	PublicID     string `json:"public_id"`
	SecureURL    string `json:"secure_url"`
	ResourceType string `json:"resource_type"`
}

type cloudinaryDestroyResponse struct {
	Result string `json:"result"`
}

type cloudinaryError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) *CloudinaryStore {
	return &CloudinaryStore{
		client:    resty.New().SetBaseURL(cloudinaryBaseURL + "/" + cloudName).SetTimeout(5 * time.Minute),
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		now:       time.Now,
	}
}

func (s *CloudinaryStore) Upload(ctx context.Context, filename string, r io.Reader) (Asset, error) {
	ts := strconv.FormatInt(s.now().Unix(), 10)

	var res cloudinaryUploadResponse
	var apiErr cloudinaryError
	resp, err := s.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, r).
		SetFormData(map[string]string{
			"api_key":   s.apiKey,
			"timestamp": ts,
			"signature": s.sign("timestamp=" + ts),
		}).
		SetResult(&res).
		SetError(&apiErr).
		Post("/auto/upload")
	if err != nil {
		return Asset{}, errors.Wrap(err, "cloudinary upload")
	}
	if resp.IsError() {
		return Asset{}, errors.Errorf("cloudinary upload failed (%d): %s", resp.StatusCode(), apiErr.Error.Message)
	}

	return Asset{ID: res.ResourceType + "/" + res.PublicID, URL: res.SecureURL}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, id string) error {
	resourceType, publicID, ok := strings.Cut(id, "/")
	if !ok || publicID == "" {
		return errors.Errorf("invalid cloudinary asset id %q", id)
	}
	ts := strconv.FormatInt(s.now().Unix(), 10)

	var res cloudinaryDestroyResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"public_id": publicID,
			"api_key":   s.apiKey,
			"timestamp": ts,
			"signature": s.sign(fmt.Sprintf("public_id=%s&timestamp=%s", publicID, ts)),
		}).
		SetResult(&res).
		Post("/" + resourceType + "/destroy")
	if err != nil {
		return errors.Wrap(err, "cloudinary destroy")
	}
	if resp.IsError() {
		return errors.Errorf("cloudinary destroy failed (%d): %s", resp.StatusCode(), resp.String())
	}
	// "not found" means the asset is already gone
	if res.Result != "ok" && res.Result != "not found" {
		return errors.Errorf("cloudinary destroy returned %q", res.Result)
	}
	return nil
}

func (s *CloudinaryStore) sign(params string) string {
	sum := sha1.Sum([]byte(params + s.apiSecret))
	return hex.EncodeToString(sum[:])
}
