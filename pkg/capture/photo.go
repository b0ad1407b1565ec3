// Package capture implements the capture strategies behind each page,
// exclusive ownership of the camera track, and the photo store that hands
// out releasable display references.
package capture

import (
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/focuscam/pkg/focus"
)

// Photo is one captured still.
type Photo struct {
	ID          uuid.UUID     `json:"id"`
	Page        string        `json:"page"`
	ContentType string        `json:"content_type"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Size        int           `json:"size"`
	CreatedAt   time.Time     `json:"created_at"`
	URL         string        `json:"url,omitempty"`
	Focus       *focus.Result `json:"focus,omitempty"`

	Data []byte `json:"-"`
}

// NewPhoto wraps encoded image bytes.
func NewPhoto(page, contentType string, data []byte, width, height int) *Photo {
	return &Photo{
		ID:          uuid.New(),
		Page:        page,
		ContentType: contentType,
		Width:       width,
		Height:      height,
		Size:        len(data),
		CreatedAt:   time.Now(),
		Data:        data,
	}
}

// DataURL returns the photo inline as a data: URL.
func (p *Photo) DataURL() string {
	return "data:" + p.ContentType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Store holds published photos and keeps at most one per page: publishing
// a new photo for a page releases that page's previous one.
type Store struct {
	prefix string

	mu     sync.RWMutex
	photos map[uuid.UUID]*Photo
	latest map[string]uuid.UUID
}

// NewStore creates a store whose references look like prefix+id.
func NewStore(prefix string) *Store {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{
		prefix: prefix,
		photos: make(map[uuid.UUID]*Photo),
		latest: make(map[string]uuid.UUID),
	}
}

// Publish makes p reachable and returns its reference URL. The page's
// previous photo, if any, is released.
func (s *Store) Publish(p *Photo) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.latest[p.Page]; ok {
		delete(s.photos, prev)
	}

	p.URL = s.prefix + p.ID.String()
	s.photos[p.ID] = p
	s.latest[p.Page] = p.ID
	return p.URL
}

// Get returns the photo for an id or reference URL.
func (s *Store) Get(ref string) (*Photo, bool) {
	id, ok := s.parse(ref)
	if !ok {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.photos[id]
	return p, ok
}

// Latest returns the current photo for a page.
func (s *Store) Latest(page string) (*Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.latest[page]
	if !ok {
		return nil, false
	}
	p, ok := s.photos[id]
	return p, ok
}

// Release drops a photo by id or reference URL. Releasing an unknown or
// already released reference is a no-op. It reports whether anything was
// released.
func (s *Store) Release(ref string) bool {
	id, ok := s.parse(ref)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.photos[id]
	if !ok {
		return false
	}
	delete(s.photos, id)
	if s.latest[p.Page] == id {
		delete(s.latest, p.Page)
	}
	return true
}

// ReleaseAll drops every photo, for teardown.
func (s *Store) ReleaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos = make(map[uuid.UUID]*Photo)
	s.latest = make(map[string]uuid.UUID)
}

// Len returns the number of live photos.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.photos)
}

func (s *Store) parse(ref string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimPrefix(ref, s.prefix))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
