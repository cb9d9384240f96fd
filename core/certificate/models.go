package certificate

import (
	"context"
	"strings"
	"time"

	"github.com/trezcool/masomo-certs/core"
)

const (
	keyPrefix   = "certificate_"
	dataKeySufx = "_data"
)

// Fields are the caller-supplied display fields of a certificate.
// The JSON names are the local storage wire format; do not rename them.
type Fields struct {
	UserName      string `json:"userName"`
	CourseName    string `json:"courseName"`
	IssueDate     string `json:"issueDate"`
	CertificateID string `json:"certificateId"`
	ShareLink     string `json:"shareLink"`
}

// Record is the combined view of the two local storage entries of a certificate.
type Record struct {
	ID string `json:"id"`
	Fields
	Image    string    `json:"image,omitempty"` // PNG data URL
	StoredAt time.Time `json:"storedAt"`
}

// ImageKey is the storage key of the encoded certificate image.
func ImageKey(id string) string { return keyPrefix + id }

// DataKey is the storage key of the serialized certificate fields.
func DataKey(id string) string { return keyPrefix + id + dataKeySufx }

// DocumentName is the file name of an exported certificate document.
func DocumentName(id string) string { return "certificate-" + id + ".pdf" }

// ImageName is the file name of an uploaded certificate image.
func ImageName(id string) string { return "certificate-" + id + ".png" }

// idFromImageKey extracts the certificate ID from an image key.
// Data keys and unrelated keys are rejected.
func idFromImageKey(key string) (string, bool) {
	if !strings.HasPrefix(key, keyPrefix) || strings.HasSuffix(key, dataKeySufx) {
		return "", false
	}
	return strings.TrimPrefix(key, keyPrefix), true
}

// ValidateID rejects IDs that cannot be stored without clobbering another certificate.
func ValidateID(id string) error {
	if strings.HasSuffix(id, dataKeySufx) {
		return core.NewValidationError(ErrReservedID, core.FieldError{Field: "certificateId", Error: ErrReservedID.Error()})
	}
	return nil
}

func idFromDataKey(key string) (string, bool) {
	if !strings.HasPrefix(key, keyPrefix) || !strings.HasSuffix(key, dataKeySufx) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(key, keyPrefix), dataKeySufx), true
}

// Item is a single local storage entry.
type Item struct {
	Key      string
	Value    string
	StoredAt time.Time // set by the store
}

// Store is an ephemeral key-value store scoped to the local user, à la browser localStorage.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns ErrItemNotFound if key is not set.
	Get(ctx context.Context, key string) (Item, error)
	// Set writes all items or none. It returns ErrQuotaExceeded when the store would outgrow its quota.
	Set(ctx context.Context, items ...Item) error
	// Remove deletes all keys or none. Missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error
	// Keys returns every key in the store enumeration order.
	Keys(ctx context.Context) ([]string, error)
}

// UploadResult is the decoded JSON body of a successful upload.
type UploadResult map[string]interface{}

// UploadOutcome is the result of uploading one certificate during a batch upload.
type UploadOutcome struct {
	ID     string       `json:"id"`
	Result UploadResult `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}
