package infra

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore uploads images through the Cloudinary SDK and returns the
// HTTPS URL of the stored asset.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
	err error
}

// NewCloudinaryStore keeps a construction error around so a bad credential
// set surfaces on the first upload instead of aborting startup.
func NewCloudinaryStore(cloudName, apiKey, apiSecret string) *CloudinaryStore {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	return &CloudinaryStore{cld: cld, err: err}
}

// Subir uploads the file at ruta into carpeta under publicID.
func (c *CloudinaryStore) Subir(ctx context.Context, carpeta, publicID, ruta string) (string, error) {
	if c.err != nil {
		return "", fmt.Errorf("cloudinary: config: %w", c.err)
	}
	f, err := os.Open(ruta)
	if err != nil {
		return "", fmt.Errorf("cloudinary: open file: %w", err)
	}
	defer f.Close()

	resp, err := c.cld.Upload.Upload(ctx, f, uploader.UploadParams{
		PublicID:  publicID,
		Folder:    carpeta,
		Overwrite: api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary: upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: upload rejected: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary: empty secure_url")
	}
	return resp.SecureURL, nil
}
