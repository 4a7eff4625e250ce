package service

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeStorage records object operations in memory.
type fakeStorage struct {
	mu        sync.Mutex
	deleted   []string
	failKeys  map[string]bool
	presigned []string
	uploaded  map[string]bool
	headErr   error
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presigned = append(f.presigned, objectKey)
	return "https://storage.test/put/" + objectKey, nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/get/" + objectKey, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys[objectKey] {
		return errors.New("storage unavailable")
	}
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeStorage) ObjectExists(_ context.Context, objectKey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return false, f.headErr
	}
	return f.uploaded[objectKey], nil
}

// upload marks objectKey as if a client had PUT it.
func (f *fakeStorage) upload(objectKey string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploaded == nil {
		f.uploaded = map[string]bool{}
	}
	f.uploaded[objectKey] = true
}

func (f *fakeStorage) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// staticVerifier accepts exactly one password, or fails every check when err is set.
type staticVerifier struct {
	password string
	err      error
}

func (v staticVerifier) Verify(_ context.Context, password string) error {
	if v.err != nil {
		return v.err
	}
	if password != v.password {
		return ErrInvalidCredential
	}
	return nil
}
