package tool

import (
	"errors"
	"fmt"
	"sync"
)

var (
	errResultNotFound = errors.New("result not found or expired")
	errPageOutOfRange = errors.New("page out of range")
)

// paginationStore holds full handler result strings keyed by an opaque
// result_id, serving character-slice (not line-aware) pages of pageSize
// each. Entries live for the registry's lifetime.
type paginationStore struct {
	mu       sync.Mutex
	entries  map[string]string
	pageSize int
}

func newPaginationStore(pageSize int) *paginationStore {
	return &paginationStore{entries: make(map[string]string), pageSize: pageSize}
}

// paginate returns text unchanged if it fits in one page; otherwise it
// stores the full text under a fresh result_id and returns page 1 with the
// footer format read_more expects.
func (s *paginationStore) paginate(text string) string {
	if len(text) <= s.pageSize {
		return text
	}

	s.mu.Lock()
	id := newRandomID()
	s.entries[id] = text
	s.mu.Unlock()

	page1, total := s.render(text, 1)
	return appendFooter(page1, 1, total, id)
}

func (s *paginationStore) page(resultID string, page int) (string, error) {
	s.mu.Lock()
	text, exists := s.entries[resultID]
	s.mu.Unlock()
	if !exists {
		return "", errResultNotFound
	}

	content, total := s.render(text, page)
	if page < 1 || page > total {
		return "", errPageOutOfRange
	}
	return appendFooter(content, page, total, resultID), nil
}

func (s *paginationStore) render(text string, page int) (string, int) {
	total := (len(text) + s.pageSize - 1) / s.pageSize
	if total == 0 {
		total = 1
	}
	if page < 1 || page > total {
		return "", total
	}

	start := (page - 1) * s.pageSize
	end := start + s.pageSize
	if end > len(text) {
		end = len(text)
	}
	return text[start:end], total
}

func (s *paginationStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]string)
}

func appendFooter(content string, page, total int, resultID string) string {
	return fmt.Sprintf("%s\n\n[Page %d/%d] — call read_more(result_id=%s, page=K) for more", content, page, total, resultID)
}
