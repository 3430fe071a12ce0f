package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"vmp-edtech-backend/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const photoBucket = "evidencias"

type gridFSPhotoStore struct {
	db     *mongo.Database
	bucket *gridfs.Bucket
}

// NewPhotoStore opens the GridFS bucket that holds evidence photos.
func NewPhotoStore(db *mongo.Database) (domain.PhotoStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(photoBucket))
	if err != nil {
		return nil, fmt.Errorf("failed to create GridFS bucket: %w", err)
	}
	return &gridFSPhotoStore{db: db, bucket: bucket}, nil
}

func (s *gridFSPhotoStore) Upload(ctx context.Context, file io.Reader, filename string, size int64, meta domain.PhotoMetadata) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	stored := fmt.Sprintf("evidencia_%d_%s%s", meta.UploadedBy, uuid.NewString(), ext)

	opts := options.GridFSUpload().SetMetadata(bson.M{
		"original_name": filename,
		"uploaded_by":   meta.UploadedBy,
		"task_id":       meta.TaskID,
		"course_id":     meta.CourseID,
		"content_type":  ContentTypeFor(filename),
		"size":          size,
	})

	if deadline, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetWriteDeadline(deadline); err != nil {
			return "", err
		}
	}
	id, err := s.bucket.UploadFromStream(stored, file, opts)
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return id.Hex(), nil
}

func (s *gridFSPhotoStore) Download(ctx context.Context, fileID string) (io.ReadCloser, *domain.PhotoInfo, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("photo %w", domain.ErrNotFound)
	}

	var doc struct {
		Filename   string    `bson:"filename"`
		Length     int64     `bson:"length"`
		UploadDate time.Time `bson:"uploadDate"`
		Metadata   bson.M    `bson:"metadata"`
	}
	err = s.db.Collection(photoBucket+".files").FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, fmt.Errorf("photo %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	contentType, _ := doc.Metadata["content_type"].(string)
	if contentType == "" {
		contentType = ContentTypeFor(doc.Filename)
	}

	stream, err := s.bucket.OpenDownloadStream(objectID)
	if err != nil {
		return nil, nil, fmt.Errorf("open photo: %w", err)
	}
	return stream, &domain.PhotoInfo{
		ID:          fileID,
		Filename:    doc.Filename,
		ContentType: contentType,
		Size:        doc.Length,
	}, nil
}

func (s *gridFSPhotoStore) Delete(ctx context.Context, fileID string) error {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return fmt.Errorf("photo %w", domain.ErrNotFound)
	}
	if err := s.bucket.DeleteContext(ctx, objectID); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("photo %w", domain.ErrNotFound)
		}
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// ContentTypeFor maps an image file name to its MIME type.
func ContentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
