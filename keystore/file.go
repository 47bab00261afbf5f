package keystore

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

var ErrWrongPassword = errors.New("wrong keystore password")

// scrypt parameters, the interactive-login preset.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	saltSize     = 16
	fileMode     = 0o600
	fileDirMode  = 0o700
	keyFileVerV1 = 1
)

// File is the on-disk shape of an encrypted key.
type File struct {
	Version    int    `json:"version"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	CoinType   uint32 `json:"coinType"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
	CreatedAt  string `json:"createdAt"`
}

func deriveKey(password string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
}

// Save encrypts mnemonic with password and writes it to path.
// It refuses to overwrite an existing file.
func Save(path, name, mnemonic, password, bech32Prefix string, coinType uint32) (*Key, error) {
	key, err := FromMnemonic(name, mnemonic, bech32Prefix, coinType)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	secret, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(secret)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	file := File{
		Version:    keyFileVerV1,
		Name:       name,
		Address:    key.Address(),
		CoinType:   coinType,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(aead.Seal(nil, nonce, []byte(mnemonic), []byte(name))),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), fileDirMode); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create keystore file: %w", err)
	}
	defer func() {
		_ = out.Close()
	}()
	if _, err := out.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write keystore file: %w", err)
	}
	return key, nil
}

// ReadFile reads the public part of a keystore file without decrypting it.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("failed to parse keystore file %s: %w", path, err)
	}
	if file.Version != keyFileVerV1 {
		return File{}, fmt.Errorf("unsupported keystore version %d", file.Version)
	}
	return file, nil
}

// Open decrypts the key stored at path.
func Open(path, password, bech32Prefix string) (*Key, error) {
	file, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	if info, err := os.Stat(path); err == nil && info.Mode().Perm()&0o077 != 0 {
		log.Warn().Str("path", path).Str("mode", info.Mode().Perm().String()).Msg("Keystore file is readable by other users")
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, fmt.Errorf("corrupt keystore salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(file.Nonce)
	if err != nil {
		return nil, fmt.Errorf("corrupt keystore nonce: %w", err)
	}
	cipherText, err := base64.StdEncoding.DecodeString(file.CipherText)
	if err != nil {
		return nil, fmt.Errorf("corrupt keystore cipher text: %w", err)
	}

	secret, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(secret)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, errors.New("corrupt keystore nonce size")
	}
	mnemonic, err := aead.Open(nil, nonce, cipherText, []byte(file.Name))
	if err != nil {
		return nil, ErrWrongPassword
	}

	return FromMnemonic(file.Name, string(mnemonic), bech32Prefix, file.CoinType)
}
