package handlers

import (
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/uploads"
)

// attachments larger than this are rejected before reaching the provider
const maxUploadBytes = 25 << 20

// UploadSigner signs direct browser uploads
type UploadSigner interface {
	SignUpload(now time.Time) (*uploads.Signature, error)
}

// Upload exported for testing purposes
type Upload struct {
	Uploader uploads.Uploader
	Signer   UploadSigner
}

// UploadHandler stores the multipart "file" field and returns its hosted url, ready to
// be attached to evidence or registered as a document
func (u Upload) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if u.Uploader == nil {
		config.ErrorStatus("failed to upload file", http.StatusServiceUnavailable, w, errors.New("uploads are not configured"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		config.ErrorStatus("failed to read upload", http.StatusBadRequest, w, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		config.ErrorStatus("failed to read upload", http.StatusBadRequest, w, err)
		return
	}
	defer file.Close()

	result, err := u.Uploader.Upload(r.Context(), file, header.Filename)
	if err != nil {
		writeCaseworkError("failed to upload file", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// SignatureHandler generates a signature for Cloudinary uploads
func (u Upload) SignatureHandler(w http.ResponseWriter, r *http.Request) {
	if u.Signer == nil {
		config.ErrorStatus("failed to sign upload", http.StatusServiceUnavailable, w, errors.New("uploads are not configured"))
		return
	}
	signature, err := u.Signer.SignUpload(time.Now())
	if err != nil {
		writeCaseworkError("failed to sign upload", w, err)
		return
	}
	writeJSON(w, http.StatusOK, signature)
}
