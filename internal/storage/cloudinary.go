package storage

import (
	"context"
	"time"

	"github.com/cloudinary/cloudinary-go"
	"github.com/cloudinary/cloudinary-go/api/uploader"

	"philabasket/internal/config"
)

const uploadTimeout = 40 * time.Second

func client() (*cloudinary.Cloudinary, error) {
	return cloudinary.NewFromParams(
		config.AppEnv.CloudinaryCloudName,
		config.AppEnv.CloudinaryAPIKey,
		config.AppEnv.CloudinaryAPISecret,
	)
}

// UploadImage pushes a file (multipart file, reader or local path) to the CDN
// and returns the hosted URL plus the public ID needed for later deletion.
func UploadImage(input interface{}) (uploader.UploadResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	cld, err := client()
	if err != nil {
		return uploader.UploadResult{}, err
	}

	res, err := cld.Upload.Upload(ctx, input, uploader.UploadParams{
		Folder: config.AppEnv.CloudinaryFolder,
	})
	if err != nil {
		return uploader.UploadResult{}, err
	}

	return *res, nil
}

// DeleteImage removes a previously uploaded asset by its public ID.
func DeleteImage(publicID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	cld, err := client()
	if err != nil {
		return err
	}

	_, err = cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}
