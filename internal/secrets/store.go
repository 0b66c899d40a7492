// Package secrets keeps remote API tokens out of the plain-text config file.
// Tokens live in a per-user file (0600), sealed with AES-GCM under a key
// derived from the user and OS. That hides them from casual reads only; it
// is not a keychain.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bytedance/sonic"
)

// ErrNotFound is returned when no token is stored for an endpoint.
var ErrNotFound = errors.New("secrets: token not found")

const fileName = "tokens.json"

type tokenFile struct {
	Tokens map[string]string `json:"tokens"` // endpoint -> base64(ciphertext)
}

// Store is a token file in Dir. The zero value uses the user config dir.
type Store struct {
	Dir string
}

// Put stores token for endpoint, replacing any previous one.
func (s Store) Put(endpoint, token string) error {
	if endpoint = norm(endpoint); endpoint == "" {
		return fmt.Errorf("secrets: endpoint required")
	}
	path, err := s.path()
	if err != nil {
		return err
	}
	tf, err := load(path)
	if err != nil {
		return err
	}
	ct, err := seal([]byte(token))
	if err != nil {
		return err
	}
	tf.Tokens[endpoint] = base64.StdEncoding.EncodeToString(ct)
	return save(path, tf)
}

// Get returns the token stored for endpoint.
func (s Store) Get(endpoint string) (string, error) {
	if endpoint = norm(endpoint); endpoint == "" {
		return "", ErrNotFound
	}
	path, err := s.path()
	if err != nil {
		return "", err
	}
	tf, err := load(path)
	if err != nil {
		return "", err
	}
	enc, ok := tf.Tokens[endpoint]
	if !ok {
		return "", ErrNotFound
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("secrets: decode: %w", err)
	}
	pt, err := open(raw)
	if err != nil {
		return "", fmt.Errorf("secrets: open: %w", err)
	}
	return string(pt), nil
}

// Delete forgets the token for endpoint.
func (s Store) Delete(endpoint string) error {
	path, err := s.path()
	if err != nil {
		return err
	}
	tf, err := load(path)
	if err != nil {
		return err
	}
	delete(tf.Tokens, norm(endpoint))
	return save(path, tf)
}

func (s Store) path() (string, error) {
	dir := s.Dir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "flowdesk")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func load(path string) (tokenFile, error) {
	tf := tokenFile{Tokens: map[string]string{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return tf, nil
	}
	if err != nil {
		return tf, err
	}
	if err := sonic.Unmarshal(data, &tf); err != nil {
		return tf, fmt.Errorf("secrets: parse %s: %w", path, err)
	}
	if tf.Tokens == nil {
		tf.Tokens = map[string]string{}
	}
	return tf, nil
}

func save(path string, tf tokenFile) error {
	data, err := sonic.ConfigStd.MarshalIndent(tf, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func norm(endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(endpoint), "/")
}

func masterKey() []byte {
	sum := sha256.Sum256([]byte(fmt.Sprintf("flowdesk-%s-%s", runtime.GOOS, os.Getenv("USER"))))
	return sum[:]
}

func gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(masterKey())
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func seal(plain []byte) ([]byte, error) {
	aead, err := gcm()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

func open(ciphertext []byte) ([]byte, error) {
	aead, err := gcm()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, body := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	return aead.Open(nil, nonce, body, nil)
}
