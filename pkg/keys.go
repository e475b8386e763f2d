package ada

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/scrypt"
)

// Encrypted key blob layout: magic | salt | nonce | AES-256-GCM ciphertext.
// Signing keys only ever exist decrypted inside a transaction WorkDir.
var keyBlobMagic = []byte("AWK1")

const (
	keySaltSize  = 16
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	aesGCMKeyLen = 32
)

func deriveKey(password string, salt []byte) ([]byte, error) {
	// hash the password first so scrypt input length is uniform
	sum := sha256.Sum256([]byte(password))
	return scrypt.Key(sum[:], salt, scryptN, scryptR, scryptP, aesGCMKeyLen)
}

// EncryptKey seals key material under a password.
func EncryptKey(plaintext []byte, password string) ([]byte, error) {
	salt := make([]byte, keySaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, NewErr(UnknownError, "cannot generate salt: %v", err)
	}
	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, NewErr(UnknownError, "key derivation failed: %v", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, NewErr(UnknownError, "cipher init failed: %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, NewErr(UnknownError, "cipher init failed: %v", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, NewErr(UnknownError, "cannot generate nonce: %v", err)
	}
	blob := append([]byte{}, keyBlobMagic...)
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = gcm.Seal(blob, nonce, plaintext, nil)
	return blob, nil
}

// DecryptKey opens a blob produced by EncryptKey. A wrong password and
// corrupted material are indistinguishable; both report KeyDecryption
// so callers can prompt for re-entry instead of retrying the node.
func DecryptKey(blob []byte, password string) ([]byte, error) {
	if len(blob) < len(keyBlobMagic)+keySaltSize || string(blob[:len(keyBlobMagic)]) != string(keyBlobMagic) {
		return nil, NewErr(KeyDecryption, "not an encrypted key blob")
	}
	rest := blob[len(keyBlobMagic):]
	salt := rest[:keySaltSize]
	rest = rest[keySaltSize:]
	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, NewErr(UnknownError, "key derivation failed: %v", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, NewErr(UnknownError, "cipher init failed: %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, NewErr(UnknownError, "cipher init failed: %v", err)
	}
	if len(rest) < gcm.NonceSize() {
		return nil, NewErr(KeyDecryption, "encrypted key blob truncated")
	}
	nonce := rest[:gcm.NonceSize()]
	plaintext, err := gcm.Open(nil, nonce, rest[gcm.NonceSize():], nil)
	if err != nil {
		return nil, NewErr(KeyDecryption, "cannot decrypt key material (wrong password?)")
	}
	return plaintext, nil
}
