package store

import (
	"path/filepath"
	"sync"

	"forgecd.dev/core/model"
)

// HostStore is the JSON-file-backed directory of deploy targets a
// Deploy Task's {host_type, host_name} resolves against, per spec.md
// §3 ("deploy tasks reference host records by name, weak"). There is
// no dedicated endpoint for this in spec.md §6; it is the minimum
// ambient plumbing C9 needs to resolve an ssh target to a real address.
type HostStore struct {
	dir string

	mu      sync.RWMutex
	byTypeName map[string]string // "type/name" -> host_id
	locks   map[string]*sync.Mutex
}

// NewHostStore loads the hosts/ directory under dataDir.
func NewHostStore(dataDir string) (*HostStore, error) {
	s := &HostStore{
		dir:        filepath.Join(dataDir, "hosts"),
		byTypeName: make(map[string]string),
		locks:      make(map[string]*sync.Mutex),
	}
	ids, err := listJSONFiles(s.dir)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		var h model.DeployHost
		if err := readJSON(s.path(id), &h); err != nil {
			continue
		}
		s.byTypeName[key(h.Type, h.Name)] = h.HostID
	}
	return s, nil
}

func key(t model.HostType, name string) string { return string(t) + "/" + name }

func (s *HostStore) path(id string) string { return filepath.Join(s.dir, id+".json") }

func (s *HostStore) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Get loads one host by id.
func (s *HostStore) Get(id string) (*model.DeployHost, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	var h model.DeployHost
	if err := readJSON(s.path(id), &h); err != nil {
		return nil, model.Wrap(model.KindNotFound, "host not found: "+id, err)
	}
	return &h, nil
}

// Resolve looks up a host by its (type, name) pair, the key a deploy
// target names in spec.md §4.9 step 1.
func (s *HostStore) Resolve(hostType model.HostType, name string) (*model.DeployHost, error) {
	s.mu.RLock()
	id, ok := s.byTypeName[key(hostType, name)]
	s.mu.RUnlock()
	if !ok {
		return nil, model.NewError(model.KindHostNotFound, "no host registered for "+string(hostType)+"/"+name)
	}
	return s.Get(id)
}

// List returns every registered host.
func (s *HostStore) List() ([]*model.DeployHost, error) {
	ids, err := listJSONFiles(s.dir)
	if err != nil {
		return nil, err
	}
	out := make([]*model.DeployHost, 0, len(ids))
	for _, id := range ids {
		h, err := s.Get(id)
		if err != nil {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// Create persists a new host record.
func (s *HostStore) Create(h *model.DeployHost) error {
	l := s.lockFor(h.HostID)
	l.Lock()
	defer l.Unlock()

	if err := writeJSONAtomic(s.path(h.HostID), h); err != nil {
		return model.Wrap(model.KindInternal, "writing host", err)
	}
	s.mu.Lock()
	s.byTypeName[key(h.Type, h.Name)] = h.HostID
	s.mu.Unlock()
	return nil
}

// Update overwrites an existing host record.
func (s *HostStore) Update(h *model.DeployHost) error {
	l := s.lockFor(h.HostID)
	l.Lock()
	defer l.Unlock()

	if err := writeJSONAtomic(s.path(h.HostID), h); err != nil {
		return model.Wrap(model.KindInternal, "writing host", err)
	}
	s.mu.Lock()
	s.byTypeName[key(h.Type, h.Name)] = h.HostID
	s.mu.Unlock()
	return nil
}

// Delete removes a host record.
func (s *HostStore) Delete(id string) error {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	var h model.DeployHost
	if err := readJSON(s.path(id), &h); err == nil {
		s.mu.Lock()
		delete(s.byTypeName, key(h.Type, h.Name))
		s.mu.Unlock()
	}
	if err := removeIfExists(s.path(id)); err != nil {
		return model.Wrap(model.KindInternal, "deleting host", err)
	}
	return nil
}
