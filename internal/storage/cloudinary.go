package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(url, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, name string, content []byte) (UploadResult, error) {
	res, err := c.cld.Upload.Upload(ctx, bytes.NewReader(content), uploader.UploadParams{
		PublicID:     name,
		Folder:       c.folder,
		ResourceType: "raw",
		Tags:         []string{"legal_document"},
	})
	if err != nil {
		return UploadResult{Message: err.Error()}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return UploadResult{Message: res.Error.Message}, nil
	}
	return UploadResult{
		Success:  true,
		URL:      res.SecureURL,
		PublicID: res.PublicID,
		Message:  "uploaded",
	}, nil
}
