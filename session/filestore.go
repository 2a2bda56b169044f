package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const keyInfo = "partner-dashboard session file v1"

var _ Store = (*FileStore)(nil)

// FileStore persists remember-me sessions to an encrypted file. Sessions
// without RememberMe stay in memory and never touch the disk.
type FileStore struct {
	mu     sync.Mutex
	path   string
	aead   cipher.AEAD
	memory *Session
}

// NewFileStore derives the file key from secret and stores sessions at path
func NewFileStore(path, secret string) (*FileStore, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("[session NewFileStore] failed to derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("[session NewFileStore] failed to create cipher: %w", err)
	}

	return &FileStore{path: path, aead: aead}, nil
}

// Path returns the location of the session file
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get() (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.memory != nil {
		return *f.memory, nil
	}

	sealed, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("[session FileStore.Get] failed to read session file: %w", err)
	}

	if len(sealed) < f.aead.NonceSize() {
		return Session{}, fmt.Errorf("[session FileStore.Get] session file is truncated")
	}
	nonce, ciphertext := sealed[:f.aead.NonceSize()], sealed[f.aead.NonceSize():]
	plain, err := f.aead.Open(nil, nonce, ciphertext, []byte(f.path))
	if err != nil {
		return Session{}, fmt.Errorf("[session FileStore.Get] failed to decrypt session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(plain, &s); err != nil {
		return Session{}, fmt.Errorf("[session FileStore.Get] failed to decode session: %w", err)
	}
	return s, nil
}

func (f *FileStore) Set(s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !s.RememberMe {
		f.memory = &s
		return f.removeFile()
	}
	f.memory = nil

	plain, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("[session FileStore.Set] failed to encode session: %w", err)
	}

	nonce := make([]byte, f.aead.NonceSize(), f.aead.NonceSize()+len(plain)+f.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("[session FileStore.Set] failed to generate nonce: %w", err)
	}
	sealed := f.aead.Seal(nonce, nonce, plain, []byte(f.path))

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("[session FileStore.Set] failed to create session directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0600); err != nil {
		return fmt.Errorf("[session FileStore.Set] failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("[session FileStore.Set] failed to replace session file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memory = nil
	return f.removeFile()
}

func (f *FileStore) removeFile() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("[session FileStore] failed to remove session file: %w", err)
	}
	return nil
}
