package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"verichain/internal/models"
)

func baseDoc() *models.Document {
	return &models.Document{
		ID:           "doc-1",
		OwnerID:      "owner-1",
		Name:         "deed.pdf",
		Type:         "property",
		UploadDate:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		FileLocation: "blobs/doc-1",
	}
}

func TestComputeDocHashDeterministic(t *testing.T) {
	a := ComputeDocHash(baseDoc())
	b := ComputeDocHash(baseDoc())
	require.Equal(t, a, b)
	require.Len(t, a, 64) // hex SHA-256
}

func TestComputeDocHashSensitiveToEachField(t *testing.T) {
	reference := ComputeDocHash(baseDoc())

	mutations := map[string]func(d *models.Document){
		"fileLocation": func(d *models.Document) { d.FileLocation = "blobs/doc-2" },
		"name":         func(d *models.Document) { d.Name = "title.pdf" },
		"type":         func(d *models.Document) { d.Type = "identity" },
		"userId":       func(d *models.Document) { d.OwnerID = "owner-2" },
		"uploadDate":   func(d *models.Document) { d.UploadDate = d.UploadDate.Add(time.Second) },
	}
	for field, mutate := range mutations {
		t.Run(field, func(t *testing.T) {
			doc := baseDoc()
			mutate(doc)
			require.NotEqual(t, reference, ComputeDocHash(doc))
		})
	}
}

func TestComputeDocHashIgnoresTimezoneSpelling(t *testing.T) {
	utc := baseDoc()

	shifted := baseDoc()
	shifted.UploadDate = shifted.UploadDate.In(time.FixedZone("UTC+2", 2*60*60))

	// Same instant, different zone representation: the digest normalizes to UTC.
	require.Equal(t, ComputeDocHash(utc), ComputeDocHash(shifted))
}
