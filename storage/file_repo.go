package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/telco-console/internal/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	sealedMagic = "TCS1"
	saltSize    = 16
	hkdfInfo    = "telco-console session file"
)

var _ Repo = (*FileRepo)(nil)

// FileRepo keeps all values in a single JSON document on disk. Writes go to a
// temporary file that is renamed over the original, so a crash never leaves a
// half written session behind. With a passphrase the document is sealed with
// XChaCha20-Poly1305 under a key derived by HKDF-SHA256 from the passphrase
// and a per-write random salt.
type FileRepo struct {
	path       string
	passphrase []byte
	mu         sync.Mutex
}

type FileRepoOption func(*FileRepo)

func WithPassphrase(passphrase string) FileRepoOption {
	return func(r *FileRepo) {
		if passphrase != "" {
			r.passphrase = []byte(passphrase)
		}
	}
}

func NewFileRepo(path string, options ...FileRepoOption) *FileRepo {
	r := &FileRepo{path: path}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *FileRepo) Load(_ context.Context, keys ...string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.read()
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := all[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (r *FileRepo) Save(_ context.Context, values map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.read()
	if err != nil {
		return err
	}
	for k, v := range values {
		all[k] = v
	}
	return r.write(all)
}

func (r *FileRepo) Delete(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.read()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(all, k)
	}
	return r.write(all)
}

func (r *FileRepo) read() (map[string]string, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileRepo read] %w", err)
	}

	if bytes.HasPrefix(data, []byte(sealedMagic)) {
		if data, err = r.open(data); err != nil {
			return nil, err
		}
	}

	values := make(map[string]string)
	if len(bytes.TrimSpace(data)) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("[FileRepo read] decode %s: %w", r.path, err)
	}
	return values, nil
}

func (r *FileRepo) write(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("[FileRepo write] encode: %w", err)
	}
	if r.passphrase != nil {
		if data, err = r.seal(data); err != nil {
			return err
		}
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[FileRepo write] mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("[FileRepo write] temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo write] write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo write] sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileRepo write] close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("[FileRepo write] chmod: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("[FileRepo write] rename: %w", err)
	}
	return nil
}

func (r *FileRepo) key(salt []byte) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, r.passphrase, salt, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("[FileRepo key] %w", err)
	}
	return key, nil
}

// seal layout: magic | salt | nonce | ciphertext
func (r *FileRepo) seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("[FileRepo seal] salt: %w", err)
	}
	key, err := r.key(salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("[FileRepo seal] %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("[FileRepo seal] nonce: %w", err)
	}

	out := make([]byte, 0, len(sealedMagic)+saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, sealedMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, []byte(sealedMagic)), nil
}

func (r *FileRepo) open(data []byte) ([]byte, error) {
	if r.passphrase == nil {
		return nil, fmt.Errorf("[FileRepo open] %s: no passphrase configured: %w", r.path, apperrors.ErrSealed)
	}
	body := data[len(sealedMagic):]
	if len(body) < saltSize+chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("[FileRepo open] %s: truncated: %w", r.path, apperrors.ErrSealed)
	}
	salt, rest := body[:saltSize], body[saltSize:]
	nonce, ciphertext := rest[:chacha20poly1305.NonceSizeX], rest[chacha20poly1305.NonceSizeX:]

	key, err := r.key(salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("[FileRepo open] %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(sealedMagic))
	if err != nil {
		return nil, fmt.Errorf("[FileRepo open] %s: %w", r.path, apperrors.ErrSealed)
	}
	return plaintext, nil
}
