// Package stores provides file-backed and in-memory implementations of
// the credential store and known-servers list collaborators. The
// file-backed variants keep YAML under a config directory; hosts with a
// platform secret vault can substitute their own [magnus.CredentialStore].
package stores

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Triumph-Tech/magnus"
)

type credentialEntry struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// FileCredentialStore persists credentials keyed by server base URL in a
// single YAML file written with owner-only permissions.
type FileCredentialStore struct {
	path string
	mu   sync.Mutex
}

var _ magnus.CredentialStore = (*FileCredentialStore)(nil)

func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

func (s *FileCredentialStore) Get(serverURL string) (magnus.Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return magnus.Credentials{}, false, err
	}
	entry, ok := entries[serverURL]
	if !ok {
		return magnus.Credentials{}, false, nil
	}
	return magnus.Credentials{Username: entry.Username, Password: entry.Password}, true, nil
}

func (s *FileCredentialStore) Set(serverURL string, creds magnus.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries[serverURL] = credentialEntry{Username: creds.Username, Password: creds.Password}
	return s.save(entries)
}

func (s *FileCredentialStore) Delete(serverURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	delete(entries, serverURL)
	return s.save(entries)
}

func (s *FileCredentialStore) load() (map[string]credentialEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]credentialEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	entries := map[string]credentialEntry{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *FileCredentialStore) save(entries map[string]credentialEntry) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// FileServerListStore persists the ordered known-servers list as a YAML
// sequence.
type FileServerListStore struct {
	path string
	mu   sync.Mutex
}

var _ magnus.ServerListStore = (*FileServerListStore)(nil)

func NewFileServerListStore(path string) *FileServerListStore {
	return &FileServerListStore{path: path}
}

func (s *FileServerListStore) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var servers []string
	if err := yaml.Unmarshal(data, &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

func (s *FileServerListStore) Save(servers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(servers)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// MemoryCredentialStore is an in-process credential store for tests and
// embedding hosts that manage persistence themselves.
type MemoryCredentialStore struct {
	mu      sync.Mutex
	entries map[string]magnus.Credentials
}

var _ magnus.CredentialStore = (*MemoryCredentialStore)(nil)

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{entries: map[string]magnus.Credentials{}}
}

func (s *MemoryCredentialStore) Get(serverURL string) (magnus.Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, ok := s.entries[serverURL]
	return creds, ok, nil
}

func (s *MemoryCredentialStore) Set(serverURL string, creds magnus.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[serverURL] = creds
	return nil
}

func (s *MemoryCredentialStore) Delete(serverURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, serverURL)
	return nil
}

// MemoryServerListStore is an in-process known-servers list.
type MemoryServerListStore struct {
	mu      sync.Mutex
	servers []string
}

var _ magnus.ServerListStore = (*MemoryServerListStore)(nil)

func NewMemoryServerListStore(servers ...string) *MemoryServerListStore {
	return &MemoryServerListStore{servers: servers}
}

func (s *MemoryServerListStore) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.servers))
	copy(out, s.servers)
	return out, nil
}

func (s *MemoryServerListStore) Save(servers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servers = make([]string, len(servers))
	copy(s.servers, servers)
	return nil
}
