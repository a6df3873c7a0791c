package review

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"verichain/internal/models"
)

// docDigestFields is the fixed metadata subset covered by the document hash.
// Field order is fixed by the struct, and the JSON encoding of a struct is
// deterministic, so the digest is reproducible by any verifier holding the
// same record.
type docDigestFields struct {
	FileLocation string `json:"fileLocation"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	UserID       string `json:"userId"`
	UploadDate   string `json:"uploadDate"`
}

// ComputeDocHash returns the hex SHA-256 digest anchoring a document: the
// file location plus the identifying metadata. Recomputing with the same
// inputs always yields the same digest; changing any covered field changes it.
func ComputeDocHash(doc *models.Document) string {
	fields := docDigestFields{
		FileLocation: doc.FileLocation,
		Name:         doc.Name,
		Type:         doc.Type,
		UserID:       doc.OwnerID,
		UploadDate:   doc.UploadDate.UTC().Format(time.RFC3339Nano),
	}

	// Marshal of a flat string struct cannot fail.
	canonical, _ := json.Marshal(fields)
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
