package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeUploadClient struct {
	puts []*s3.PutObjectInput
	body string
	err  error
}

func (f *fakeUploadClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = string(data)
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeUploadClient) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeUploadClient) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeUploadClient) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeUploadClient) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func TestS3StorageSave(t *testing.T) {
	client := &fakeUploadClient{}
	store := newS3Storage(client, Config{Bucket: "thumbs", PublicBaseURL: "https://cdn.example.com/"})

	location, err := store.Save(context.Background(), "/thumbnails/dQw4w9WgXcQ.jpg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if location != "https://cdn.example.com/thumbnails/dQw4w9WgXcQ.jpg" {
		t.Fatalf("unexpected location %q", location)
	}
	if len(client.puts) != 1 {
		t.Fatalf("expected one PutObject call, got %d", len(client.puts))
	}
	put := client.puts[0]
	if aws.ToString(put.Bucket) != "thumbs" || aws.ToString(put.Key) != "thumbnails/dQw4w9WgXcQ.jpg" {
		t.Fatalf("unexpected target %s/%s", aws.ToString(put.Bucket), aws.ToString(put.Key))
	}
	if aws.ToString(put.ContentType) != "image/jpeg" {
		t.Fatalf("unexpected content type %q", aws.ToString(put.ContentType))
	}
	if client.body != "jpeg-bytes" {
		t.Fatalf("unexpected body %q", client.body)
	}
}

func TestS3StorageSaveWithoutPublicURL(t *testing.T) {
	store := newS3Storage(&fakeUploadClient{}, Config{Bucket: "thumbs"})

	location, err := store.Save(context.Background(), "thumbnails/a.jpg", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if location != "thumbnails/a.jpg" {
		t.Fatalf("expected bare key, got %q", location)
	}
}

func TestS3StorageSaveErrors(t *testing.T) {
	store := newS3Storage(&fakeUploadClient{err: errors.New("boom")}, Config{Bucket: "thumbs"})

	if _, err := store.Save(context.Background(), "/", strings.NewReader("x")); err == nil {
		t.Fatal("expected empty key error")
	}
	if _, err := store.Save(context.Background(), "thumbnails/a.jpg", strings.NewReader("x")); err == nil {
		t.Fatal("expected upload error")
	}

	if _, err := NewS3Storage(context.Background(), Config{}); err == nil {
		t.Fatal("expected missing bucket error")
	}
}
