package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/kode4food/flowchart/internal/store"
	"github.com/kode4food/flowchart/pkg/api"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// Blob keeps lesson snapshots in a gocloud.dev bucket, supporting S3, GCS,
// Azure Blob Storage, local files, and memory
type Blob struct {
	bucket *blob.Bucket
	prefix string
}

const keySuffix = ".json"

var (
	ErrLessonNotFound = errors.New("archived lesson not found")
	ErrDecodeLesson   = errors.New("could not decode archived lesson")
)

// NewBlob opens the bucket at bucketURL. Keys are written below prefix
func NewBlob(ctx context.Context, bucketURL, prefix string) (*Blob, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &Blob{bucket: bucket, prefix: prefix}, nil
}

// Export writes a lesson snapshot, replacing any earlier archive of it
func (b *Blob) Export(ctx context.Context, l *api.Lesson) error {
	if l.ID == "" {
		return store.ErrEmptyLessonID
	}
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return b.bucket.WriteAll(ctx, b.keyFor(l.ID), data, &blob.WriterOptions{
		ContentType: "application/json",
	})
}

// Import reads an archived lesson snapshot
func (b *Blob) Import(
	ctx context.Context, id api.LessonID,
) (*api.Lesson, error) {
	data, err := b.bucket.ReadAll(ctx, b.keyFor(id))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrLessonNotFound, id)
		}
		return nil, err
	}

	var res api.Lesson
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeLesson, err)
	}
	res.ID = id
	return &res, nil
}

// Delete removes an archived lesson. Removing a missing one succeeds
func (b *Blob) Delete(ctx context.Context, id api.LessonID) error {
	err := b.bucket.Delete(ctx, b.keyFor(id))
	if err != nil && gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

// Lessons lists the ids of every archived lesson
func (b *Blob) Lessons(ctx context.Context) ([]api.LessonID, error) {
	var res []api.LessonID
	iter := b.bucket.List(&blob.ListOptions{Prefix: b.prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		if obj.IsDir || !strings.HasSuffix(obj.Key, keySuffix) {
			continue
		}
		id := strings.TrimPrefix(obj.Key, b.prefix)
		res = append(res, api.LessonID(strings.TrimSuffix(id, keySuffix)))
	}
}

func (b *Blob) Close() error {
	return b.bucket.Close()
}

func (b *Blob) keyFor(id api.LessonID) string {
	return b.prefix + string(id) + keySuffix
}
