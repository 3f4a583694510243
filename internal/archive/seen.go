package archive

import "sync"

// SeenFiles is the set of file names already routed for upload in the
// current batch. It only grows. One instance belongs to one batch run.
type SeenFiles struct {
	mu    sync.Mutex
	names map[string]struct{}
}

func NewSeenFiles() *SeenFiles {
	return &SeenFiles{names: make(map[string]struct{})}
}

// Claim adds name and reports true if it was not present yet.
func (s *SeenFiles) Claim(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; ok {
		return false
	}
	s.names[name] = struct{}{}
	return true
}

func (s *SeenFiles) Contains(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.names[name]
	return ok
}

func (s *SeenFiles) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}
