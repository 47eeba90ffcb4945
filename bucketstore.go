package gridshift

import (
	"context"
	"fmt"
	"io"

	"gocloud.dev/blob"
)

// BucketStore serves grid files from a gocloud blob bucket (local
// directory, memory, GCS, S3 ... depending on the driver registered by the
// program).
type BucketStore struct {
	Bucket *blob.Bucket
}

// OpenBucketStore opens the bucket at a gocloud URL such as
// "file:///srv/grids" or "gs://bucket/prefix". The caller owns the bucket
// and closes it with Close.
func OpenBucketStore(ctx context.Context, url string) (*BucketStore, error) {
	b, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %s: %w", url, err)
	}
	return &BucketStore{Bucket: b}, nil
}

func (s *BucketStore) Open(ctx context.Context, name string) (File, error) {
	ok, err := s.Bucket.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGridNotFound, name)
	}
	return &bucketFile{ctx: ctx, bucket: s.Bucket, key: name}, nil
}

// Close closes the underlying bucket.
func (s *BucketStore) Close() error { return s.Bucket.Close() }

type bucketFile struct {
	ctx    context.Context
	bucket *blob.Bucket
	key    string
}

func (f *bucketFile) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	r, err := f.bucket.NewRangeReader(f.ctx, f.key, off, int64(len(p)), nil)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	n, err := io.ReadFull(r, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

func (f *bucketFile) Close() error { return nil }
