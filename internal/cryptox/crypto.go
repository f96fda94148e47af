// Package cryptox implements the crypto vault: per-store symmetric key
// management on top of the platform secure vault, and the string cipher
// used by the encrypted key-value store.
//
// The storage representation of an encrypted value is
//
//	base64(iv) + ":" + base64(ciphertext)
//
// AES-256-CBC with PKCS#7 padding and a fresh random IV per call. The
// delimiter cannot occur inside either base64 half, so a stored value
// without it is malformed by definition.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/notevault/notevault/internal/common"
)

const (
	// KeySize selects AES-256.
	KeySize = 32

	// Delimiter joins the IV and ciphertext encodings in a stored blob.
	Delimiter = ":"
)

// Encrypt encrypts plaintext under key and returns the iv:ciphertext
// blob. A new random IV is generated per call and never reused.
func Encrypt(plaintext string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrEncryptionFailure, err)
	}

	iv, err := common.GenerateRandBytes(aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrEncryptionFailure, err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(iv) + Delimiter +
		base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. A blob without both halves around the
// delimiter, or with undecodable or misaligned halves, fails with
// ErrMalformedCiphertext; a padding failure after decryption (wrong key
// or tampered data) fails with ErrEncryptionFailure.
func Decrypt(blob string, key []byte) (string, error) {
	parts := strings.SplitN(blob, Delimiter, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("%w: missing iv or ciphertext", common.ErrMalformedCiphertext)
	}

	iv, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: decoding iv: %v", common.ErrMalformedCiphertext, err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: decoding ciphertext: %v", common.ErrMalformedCiphertext, err)
	}
	if len(iv) != aes.BlockSize || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: bad block alignment", common.ErrMalformedCiphertext)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrEncryptionFailure, err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrEncryptionFailure, err)
	}
	return string(unpadded), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding byte %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return data[:len(data)-n], nil
}
