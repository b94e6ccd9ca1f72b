package imagebuilder

import (
	"context"
	"io"

	"github.com/Backblaze/blazer/b2"

	"forgecd.dev/core/model"
)

// RemoteResourceFetcher reads resource packages from a Backblaze B2
// bucket instead of local disk, the optional backend of spec.md's
// resource_package_configs (A.3.3). It mirrors
// services/cloud_service.go's DownloadFile, which opens a bucket
// Reader and streams it via io.Copy, but returns the reader directly
// instead of writing to a local file first.
type RemoteResourceFetcher struct {
	accountID      string
	applicationKey string
	bucketName     string
	basePath       string
}

// NewRemoteResourceFetcher builds a fetcher bound to one B2 bucket.
func NewRemoteResourceFetcher(accountID, applicationKey, bucketName, basePath string) *RemoteResourceFetcher {
	return &RemoteResourceFetcher{
		accountID:      accountID,
		applicationKey: applicationKey,
		bucketName:     bucketName,
		basePath:       basePath,
	}
}

// Open returns a reader over {basePath}/{packageID}.tar.gz in the
// configured bucket.
func (f *RemoteResourceFetcher) Open(ctx context.Context, packageID string) (io.ReadCloser, error) {
	client, err := b2.NewClient(ctx, f.accountID, f.applicationKey, b2.UserAgent("forgecd"))
	if err != nil {
		return nil, model.Wrap(model.KindInvalidResource, "connecting to B2", err)
	}
	bucket, err := client.Bucket(ctx, f.bucketName)
	if err != nil {
		return nil, model.Wrap(model.KindInvalidResource, "opening B2 bucket "+f.bucketName, err)
	}

	objectPath := f.basePath + "/" + packageID + ".tar.gz"
	obj := bucket.Object(objectPath)
	return obj.NewReader(ctx), nil
}
