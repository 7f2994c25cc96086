package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"enterprise-docs-qa/models"
)

// GridFSStore serves documents from a MongoDB GridFS bucket. The GridFS
// filename is the object key.
type GridFSStore struct {
	bucket *gridfs.Bucket
}

func NewGridFSStore(client *mongo.Client, dbName, bucketName string) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(
		client.Database(dbName),
		options.GridFSBucket().SetName(bucketName),
	)
	if err != nil {
		return nil, fmt.Errorf("opening GridFS bucket: %w", err)
	}
	return &GridFSStore{bucket: bucket}, nil
}

type gridFSFile struct {
	Name       string             `bson:"filename"`
	Length     int64              `bson:"length"`
	UploadDate primitive.DateTime `bson:"uploadDate"`
}

func (s *GridFSStore) ListByExtension(ctx context.Context, extensions []string) ([]models.DocumentInfo, error) {
	cursor, err := s.bucket.Find(bson.M{})
	if err != nil {
		return nil, fmt.Errorf("listing GridFS files: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.DocumentInfo
	for cursor.Next(ctx) {
		var f gridFSFile
		if err := cursor.Decode(&f); err != nil {
			return nil, fmt.Errorf("decoding GridFS file entry: %w", err)
		}
		if !HasExtension(f.Name, extensions) {
			continue
		}
		docs = append(docs, models.DocumentInfo{
			Key:          f.Name,
			Size:         f.Length,
			LastModified: f.UploadDate.Time(),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating GridFS files: %w", err)
	}
	return docs, nil
}

func (s *GridFSStore) GetContent(ctx context.Context, key string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.bucket.DownloadToStreamByName(key, &buf); err != nil {
		return nil, fmt.Errorf("downloading %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

func (s *GridFSStore) MaterializeToLocalFile(ctx context.Context, key string) (string, error) {
	tmp, err := os.CreateTemp("", "doc-*"+path.Ext(key))
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := s.bucket.DownloadToStreamByName(key, tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("downloading %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
