// Package uploads stores case attachments with the image hosting provider.
package uploads

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/casework"
	"github.com/linesmerrill/legal-case-api/config"
)

// Attachment kinds, matching the link fields on messages and documents
const (
	KindImage = "image"
	KindPDF   = "pdf"
	KindVideo = "video"
)

// Result describes a stored file
type Result struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Kind     string `json:"kind"`
	Bytes    int    `json:"bytes"`
}

// Uploader stores a file and returns where it can be fetched from
// go generate: mockery --name Uploader
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, filename string) (*Result, error)
}

// Signature lets a browser upload straight to the provider
type Signature struct {
	Timestamp string `json:"timestamp"`
	Signature string `json:"signature"`
	APIKey    string `json:"apiKey"`
	CloudName string `json:"cloudName"`
	Folder    string `json:"folder"`
}

// Cloudinary is the Uploader backed by a Cloudinary account
type Cloudinary struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
}

// NewCloudinary builds the uploader from the cloudinary credentials in conf
func NewCloudinary(conf *config.Config) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(conf.CloudinaryCloudName, conf.CloudinaryAPIKey, conf.CloudinaryAPISecret)
	if err != nil {
		return nil, errors.Wrap(err, "configure cloudinary")
	}
	return &Cloudinary{
		cld:       cld,
		cloudName: conf.CloudinaryCloudName,
		apiKey:    conf.CloudinaryAPIKey,
		apiSecret: conf.CloudinaryAPISecret,
		folder:    conf.CloudinaryFolder,
	}, nil
}

// Upload sends file to Cloudinary under the configured folder
func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, filename string) (*Result, error) {
	const op = "upload"
	kind := AttachmentKind(filename)
	resourceType := "auto"
	if kind == KindPDF {
		// pdfs are served as raw files so they open in the browser viewer
		resourceType = "raw"
	}
	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       c.folder,
		ResourceType: resourceType,
	})
	if err != nil {
		return nil, casework.NewUploadError(op, errors.Wrapf(err, "upload %s", filename))
	}
	if resp.Error.Message != "" {
		return nil, casework.NewUploadError(op, errors.Errorf("upload %s: %s", filename, resp.Error.Message))
	}
	zap.S().Debugw("uploaded attachment",
		"publicId", resp.PublicID,
		"kind", kind,
		"bytes", resp.Bytes)
	return &Result{
		URL:      resp.SecureURL,
		PublicID: resp.PublicID,
		Kind:     kind,
		Bytes:    resp.Bytes,
	}, nil
}

// SignUpload signs a direct browser upload into the configured folder
func (c *Cloudinary) SignUpload(now time.Time) (*Signature, error) {
	if c.apiSecret == "" {
		return nil, casework.NewUploadError("signUpload", errors.New("cloudinary api secret is not configured"))
	}
	timestamp := strconv.FormatInt(now.Unix(), 10)

	// parameters sorted by name, joined, then the secret appended
	h := sha1.New()
	h.Write([]byte("folder=" + c.folder + "&timestamp=" + timestamp + c.apiSecret))
	signature := hex.EncodeToString(h.Sum(nil))

	return &Signature{
		Timestamp: timestamp,
		Signature: signature,
		APIKey:    c.apiKey,
		CloudName: c.cloudName,
		Folder:    c.folder,
	}, nil
}

// AttachmentKind classifies a file by its extension
func AttachmentKind(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return KindPDF
	case ".mp4", ".mov", ".webm", ".mkv", ".avi":
		return KindVideo
	}
	return KindImage
}
