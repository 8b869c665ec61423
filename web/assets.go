// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

//go:embed static templates
var defaultAssets embed.FS

const gcsPrefix = "gs://"

// AssetSource is an opened static asset bundle
type AssetSource struct {
	FS     fs.FS
	client *storage.Client
}

// Close releases the storage client, if any
func (a *AssetSource) Close() error {
	if a == nil || a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

// OpenAssets opens the asset bundle named by source: a local directory, a
// gs://bucket/prefix location, or the built-in assets when empty
func OpenAssets(
	ctx context.Context,
	source string,
	credentialsFile string,
	logger *slog.Logger,
) (*AssetSource, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if source == "" {
		sub, err := fs.Sub(defaultAssets, "static")
		if err != nil {
			return nil, err
		}
		return &AssetSource{FS: sub}, nil
	}
	if strings.HasPrefix(source, gcsPrefix) {
		bucket, prefix, err := ParseGCSSource(source)
		if err != nil {
			return nil, err
		}
		var opts []option.ClientOption
		if credentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating storage client: %w", err)
		}
		logger.Info(
			"serving assets from bucket",
			"component", "web",
			"bucket", bucket,
			"prefix", prefix,
		)
		return &AssetSource{
			FS: &gcsFS{
				bucket:  client.Bucket(bucket),
				prefix:  prefix,
				timeout: 30 * time.Second,
			},
			client: client,
		}, nil
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("opening asset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset source %s is not a directory", source)
	}
	logger.Info("serving assets from directory", "component", "web", "dir", source)
	return &AssetSource{FS: os.DirFS(source)}, nil
}

// ParseGCSSource splits gs://bucket/prefix into its bucket and object
// prefix. A non-empty prefix always ends in a slash.
func ParseGCSSource(source string) (string, string, error) {
	rest, ok := strings.CutPrefix(source, gcsPrefix)
	if !ok {
		return "", "", fmt.Errorf("not a gs:// location: %s", source)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("no bucket in %s", source)
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return bucket, prefix, nil
}

// gcsFS reads assets from a bucket. Objects are buffered whole so the file
// server can seek.
type gcsFS struct {
	bucket  *storage.BucketHandle
	prefix  string
	timeout time.Duration
}

func (g *gcsFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()
	r, err := g.bucket.Object(g.prefix + name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			err = fs.ErrNotExist
		}
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return &memFile{
		Reader: bytes.NewReader(data),
		info: memFileInfo{
			name:    path.Base(name),
			size:    int64(len(data)),
			modTime: r.Attrs.LastModified,
		},
	}, nil
}

type memFile struct {
	*bytes.Reader
	info memFileInfo
}

func (f *memFile) Stat() (fs.FileInfo, error) {
	return f.info, nil
}

func (f *memFile) Close() error {
	return nil
}

type memFileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (i memFileInfo) Name() string       { return i.name }
func (i memFileInfo) Size() int64        { return i.size }
func (i memFileInfo) Mode() fs.FileMode  { return 0o444 }
func (i memFileInfo) ModTime() time.Time { return i.modTime }
func (i memFileInfo) IsDir() bool        { return false }
func (i memFileInfo) Sys() any           { return nil }
