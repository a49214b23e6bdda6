package wizard

import (
	"github.com/google/uuid"
	"github.com/saple-ai/saple-cli/internal/api"
)

// StagedFile is a file selected locally but not uploaded yet.
type StagedFile struct {
	Name string
	Size int64
	Data []byte
}

// Status is the lifecycle position of a staging entry.
type Status int

const (
	StatusStaged Status = iota
	StatusPersisted
	StatusDeleting
)

func (s Status) String() string {
	switch s {
	case StatusStaged:
		return "staged"
	case StatusPersisted:
		return "persisted"
	case StatusDeleting:
		return "deleting"
	default:
		return "unknown"
	}
}

// Entry is one training file in the staging area. Staged entries carry
// Local; persisted and deleting entries carry Remote.
type Entry struct {
	ID     string
	Status Status
	Local  StagedFile
	Remote api.File
}

// Name returns the display name of the file.
func (e Entry) Name() string {
	if e.Status == StatusStaged {
		return e.Local.Name
	}
	return e.Remote.Name
}

// Size returns the file size in bytes.
func (e Entry) Size() int64 {
	if e.Status == StatusStaged {
		return e.Local.Size
	}
	return e.Remote.Size
}

// Staging holds staged and persisted files in one ordered list keyed by
// client-generated ids. It is not safe for concurrent use; the Controller
// guards it.
type Staging struct {
	entries []Entry
}

// NewStaging returns a staging area seeded with already persisted files.
func NewStaging(persisted []api.File) *Staging {
	s := &Staging{}
	for _, f := range persisted {
		s.AddPersisted(f)
	}
	return s
}

// Stage appends a local file and returns its entry id.
func (s *Staging) Stage(f StagedFile) string {
	id := uuid.NewString()
	s.entries = append(s.entries, Entry{ID: id, Status: StatusStaged, Local: f})
	return id
}

// AddPersisted appends a server-confirmed file.
func (s *Staging) AddPersisted(f api.File) string {
	id := uuid.NewString()
	s.entries = append(s.entries, Entry{ID: id, Status: StatusPersisted, Remote: f})
	return id
}

// Unstage removes a staged entry. Persisted entries are never removed here.
func (s *Staging) Unstage(id string) bool {
	i := s.index(id)
	if i < 0 || s.entries[i].Status != StatusStaged {
		return false
	}
	s.removeAt(i)
	return true
}

// ClearStaged removes every staged entry and returns them.
func (s *Staging) ClearStaged() []StagedFile {
	var cleared []StagedFile
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.Status == StatusStaged {
			cleared = append(cleared, e.Local)
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return cleared
}

// MarkDeleting flags the persisted entry for fileID as being deleted and
// returns its entry id.
func (s *Staging) MarkDeleting(fileID string) (string, bool) {
	for i, e := range s.entries {
		if e.Status == StatusPersisted && e.Remote.ID == fileID {
			s.entries[i].Status = StatusDeleting
			return e.ID, true
		}
	}
	return "", false
}

// Restore returns a deleting entry to persisted.
func (s *Staging) Restore(id string) {
	if i := s.index(id); i >= 0 && s.entries[i].Status == StatusDeleting {
		s.entries[i].Status = StatusPersisted
	}
}

// Remove drops an entry regardless of status.
func (s *Staging) Remove(id string) {
	if i := s.index(id); i >= 0 {
		s.removeAt(i)
	}
}

// Staged returns a copy of the staged entries in selection order.
func (s *Staging) Staged() []Entry {
	return s.filter(func(e Entry) bool { return e.Status == StatusStaged })
}

// Persisted returns persisted entries, including those being deleted.
func (s *Staging) Persisted() []Entry {
	return s.filter(func(e Entry) bool { return e.Status != StatusStaged })
}

// PersistedCount counts entries confirmed by the server and not being deleted.
func (s *Staging) PersistedCount() int {
	n := 0
	for _, e := range s.entries {
		if e.Status == StatusPersisted {
			n++
		}
	}
	return n
}

// Entries returns a copy of every entry.
func (s *Staging) Entries() []Entry {
	return s.filter(func(Entry) bool { return true })
}

func (s *Staging) filter(keep func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Staging) index(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Staging) removeAt(i int) {
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
}
