package imagebuilder

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"forgecd.dev/core/model"
)

// ResourcePackageSource resolves a resource package id to a gzipped tar
// stream. LocalResourceSource reads from disk; RemoteResourceFetcher
// (resources_remote.go) reads from Backblaze B2 when configured.
type ResourcePackageSource interface {
	Open(ctx context.Context, packageID string) (io.ReadCloser, error)
}

// LocalResourceSource reads resource packages as {baseDir}/{id}.tar.gz,
// the default backend when B2 isn't configured (A.3.3).
type LocalResourceSource struct {
	BaseDir string
}

func (l LocalResourceSource) Open(_ context.Context, packageID string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(l.BaseDir, packageID+".tar.gz"))
	if err != nil {
		return nil, model.Wrap(model.KindInvalidResource, "opening resource package "+packageID, err)
	}
	return f, nil
}

// injectResources extracts every configured resource package into its
// target_path under contextDir, compression-handled the way
// services/compression_service.go's CompressData/DecompressData wrap
// compress/gzip, guarding against path traversal the way
// bx/build/builder.go's extractArchive must for untrusted tarballs.
func (b *Builder) injectResources(ctx context.Context, contextDir string, packages []model.ResourcePackageConfig) error {
	if len(packages) == 0 {
		return nil
	}

	source := b.resourceSource()
	for _, pkg := range packages {
		if err := b.injectOne(ctx, contextDir, source, pkg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) resourceSource() ResourcePackageSource {
	if b.remoteResources != nil {
		return b.remoteResources
	}
	return LocalResourceSource{BaseDir: filepath.Join(b.workDir, "resource-packages")}
}

func (b *Builder) injectOne(ctx context.Context, contextDir string, source ResourcePackageSource, pkg model.ResourcePackageConfig) error {
	rc, err := source.Open(ctx, pkg.PackageID)
	if err != nil {
		return err
	}
	defer rc.Close()

	gz, err := gzip.NewReader(rc)
	if err != nil {
		return model.Wrap(model.KindInvalidResource, "decompressing resource package "+pkg.PackageID, err)
	}
	defer gz.Close()

	destRoot := filepath.Join(contextDir, pkg.TargetPath)
	cleanedDestRoot := filepath.Clean(contextDir)
	if !isWithin(cleanedDestRoot, filepath.Clean(destRoot)) {
		return model.NewError(model.KindInvalidResource, "target_path escapes build context: "+pkg.TargetPath)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Wrap(model.KindInvalidResource, "reading resource package "+pkg.PackageID, err)
		}
		if err := writeTarEntry(hdr, tr, destRoot); err != nil {
			return err
		}
	}
	return nil
}

func isWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}
