package suggest

// State is the per-session collection of suggestion files, keyed by
// document path. One State exists per suggestion session (one provider
// request) and is discarded wholesale on cancel, apply, or a new request.
type State struct {
	files map[string]*File
	order []string // insertion order, for deterministic iteration
}

// NewState creates an empty suggestion state
func NewState() *State {
	return &State{files: make(map[string]*File)}
}

// File returns the suggestion file for path, creating it lazily
func (s *State) File(path string) *File {
	if f, ok := s.files[path]; ok {
		return f
	}
	f := NewFile(path)
	s.files[path] = f
	s.order = append(s.order, path)
	return f
}

// Lookup returns the suggestion file for path, or nil if none exists
func (s *State) Lookup(path string) *File {
	return s.files[path]
}

// Files returns all suggestion files in insertion order
func (s *State) Files() []*File {
	files := make([]*File, 0, len(s.files))
	for _, path := range s.order {
		files = append(files, s.files[path])
	}
	return files
}

// Validate drops files that no longer hold any groups
func (s *State) Validate() {
	order := s.order[:0]
	for _, path := range s.order {
		if len(s.files[path].Groups()) == 0 {
			delete(s.files, path)
			continue
		}
		order = append(order, path)
	}
	s.order = order
}

// HasSuggestions reports whether any file holds at least one group
func (s *State) HasSuggestions() bool {
	for _, f := range s.files {
		if len(f.Groups()) > 0 {
			return true
		}
	}
	return false
}

// Clear discards all files
func (s *State) Clear() {
	s.files = make(map[string]*File)
	s.order = nil
}
