// Package storagetest provides an in-memory storage.ImageStore.
package storagetest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"stuti/apperr"
	"stuti/storage"
)

type Memory struct {
	mu      sync.Mutex
	next    int
	objects map[string][]byte
	deleted []string

	// FailUpload makes every Upload fail with a file error.
	FailUpload bool
}

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}}
}

func (m *Memory) Upload(_ context.Context, dir string, img *storage.Image) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUpload {
		return "", apperr.Wrap(apperr.FailedUpload, fmt.Errorf("upload disabled"))
	}
	body, err := io.ReadAll(img.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.FailedUpload, err)
	}
	m.next++
	url := fmt.Sprintf("memory://%s/%d%s", dir, m.next, storage.Ext(img.Filename))
	m.objects[url] = body
	return url, nil
}

func (m *Memory) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[url]; !ok {
		return apperr.Newf(apperr.FailedDelete, "no object %q", url)
	}
	delete(m.objects, url)
	m.deleted = append(m.deleted, url)
	return nil
}

func (m *Memory) Has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[url]
	return ok
}

func (m *Memory) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// Recorder collects URLs queued for removal without deleting anything.
type Recorder struct {
	mu   sync.Mutex
	urls []string
}

func (r *Recorder) Enqueue(urls ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, urls...)
}

func (r *Recorder) URLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}
