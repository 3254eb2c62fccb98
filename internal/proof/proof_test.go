package proof

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, input)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, input)
	return &s3.DeleteObjectOutput{}, nil
}

func testStore(client s3Client) *Store {
	return &Store{
		cfg:    Config{Bucket: "proofs-test"},
		client: client,
		logger: slog.Default(),
	}
}

func TestPutGeneratesFamilyScopedKey(t *testing.T) {
	fake := &fakeS3{}
	s := testStore(fake)

	key, err := s.Put(context.Background(), 42, []byte("jpeg bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.HasPrefix(key, "proofs/42/") {
		t.Errorf("key = %q, want proofs/42/ prefix", key)
	}

	if len(fake.puts) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(fake.puts))
	}
	put := fake.puts[0]
	if *put.Bucket != "proofs-test" || *put.Key != key {
		t.Errorf("upload = bucket %q key %q", *put.Bucket, *put.Key)
	}
	if *put.ContentType != "image/jpeg" {
		t.Errorf("content type = %q", *put.ContentType)
	}
	if *put.ContentLength != int64(len("jpeg bytes")) {
		t.Errorf("content length = %d", *put.ContentLength)
	}
}

func TestPutKeysAreUnique(t *testing.T) {
	fake := &fakeS3{}
	s := testStore(fake)

	k1, _ := s.Put(context.Background(), 1, []byte("a"), "image/png")
	k2, _ := s.Put(context.Background(), 1, []byte("a"), "image/png")
	if k1 == k2 {
		t.Errorf("two uploads got the same key %q", k1)
	}
}

func TestPutError(t *testing.T) {
	fake := &fakeS3{err: errors.New("bucket gone")}
	s := testStore(fake)

	if _, err := s.Put(context.Background(), 1, []byte("a"), "image/png"); err == nil {
		t.Fatal("expected error from failed upload")
	}
}

func TestDelete(t *testing.T) {
	fake := &fakeS3{}
	s := testStore(fake)

	if err := s.Delete(context.Background(), "proofs/1/some-key"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fake.deletes) != 1 || *fake.deletes[0].Key != "proofs/1/some-key" {
		t.Errorf("deletes = %+v", fake.deletes)
	}
}

func TestConfigEnabled(t *testing.T) {
	if (Config{}).Enabled() {
		t.Error("empty config should be disabled")
	}
	full := Config{Bucket: "b", AccessKey: "a", SecretKey: "s"}
	if !full.Enabled() {
		t.Error("complete config should be enabled")
	}
	if (Config{Bucket: "b"}).Enabled() {
		t.Error("config without credentials should be disabled")
	}
}
