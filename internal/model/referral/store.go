package referral

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Store exposes the referral directory to HTTP handlers.
type Store interface {
	Directory() Directory
	FindTherapist(id string) (Therapist, bool)
}

// MemoryStore implements Store with an in-memory copy of a directory.
type MemoryStore struct {
	dir Directory
}

// NewMemoryStore returns a MemoryStore holding a copy of dir.
func NewMemoryStore(dir Directory) *MemoryStore {
	return &MemoryStore{dir: cloneDirectory(dir)}
}

// LoadFile reads a YAML directory from path.
func LoadFile(path string) (*MemoryStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read referral file %s", path)
	}

	var dir Directory
	if err := yaml.Unmarshal(raw, &dir); err != nil {
		return nil, errors.Wrapf(err, "parse referral file %s", path)
	}
	if len(dir.Hotlines) == 0 && len(dir.Therapists) == 0 {
		return nil, errors.Errorf("referral file %s lists no hotlines or therapists", path)
	}
	return NewMemoryStore(dir), nil
}

// Directory returns a copy of the stored directory.
func (s *MemoryStore) Directory() Directory {
	return cloneDirectory(s.dir)
}

// FindTherapist looks a therapist up by identifier.
func (s *MemoryStore) FindTherapist(id string) (Therapist, bool) {
	for _, item := range s.dir.Therapists {
		if item.ID == id {
			return item, true
		}
	}
	return Therapist{}, false
}

func cloneDirectory(dir Directory) Directory {
	return Directory{
		Hotlines:   append([]Hotline(nil), dir.Hotlines...),
		Therapists: append([]Therapist(nil), dir.Therapists...),
	}
}
