package s3

import (
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rpi-ops/sd-backup/modules/backend/files"
	"github.com/rpi-ops/sd-backup/modules/logger"
)

type s3 struct {
	client     *minio.Client
	bucketName string
	backupPath string
	rateLimit  int64
	name       string
}

type Params struct {
	Name        string
	BucketName  string
	AccessKeyID string
	SecretKey   string
	Endpoint    string
	Secure      bool
	BackupPath  string
	RateLimit   int64
}

func Init(params Params) (*s3, error) {

	s3Client, err := minio.New(params.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(params.AccessKeyID, params.SecretKey, ""),
		Secure: params.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to init '%s' S3 storage. Error: %v ", params.Name, err)
	}

	return &s3{
		name:       params.Name,
		client:     s3Client,
		bucketName: params.BucketName,
		backupPath: params.BackupPath,
		rateLimit:  params.RateLimit,
	}, nil
}

// DeliveryBackup uploads the finished artifact, reading it through the
// configured disk rate limit.
func (s *s3) DeliveryBackup(logCh chan logger.LogRecord, deviceName, artifactPath string) error {

	source, err := files.GetLimitedFileReader(artifactPath, s.rateLimit)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	size, err := source.Size()
	if err != nil {
		return err
	}

	bucketPath := path.Join(s.backupPath, path.Base(artifactPath))

	_, err = s.client.PutObject(context.Background(), s.bucketName, bucketPath, source, size,
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return err
	}

	logCh <- logger.Log(deviceName, s.name).Infof("Successfully uploaded object '%s' in bucket %s", bucketPath, s.bucketName)
	return nil
}

func (s *s3) GetName() string {
	return s.name
}

func (s *s3) Close() error {
	return nil
}
