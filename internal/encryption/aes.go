package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
)

// EncryptCBC encrypts plaintext with AES-CBC under the given key and IV,
// applying PKCS#7 padding, and returns the ciphertext base64-encoded for
// transport. A fresh cipher context is built per call so concurrent callers
// never share mutable state.
func EncryptCBC(key, iv, plaintext []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", ErrCrypto)
	}
	if len(iv) != block.BlockSize() {
		return "", fmt.Errorf("iv length: %w", ErrCrypto)
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptCBC is the inverse of EncryptCBC. Padding and structure failures all
// collapse into ErrCrypto so callers cannot distinguish them.
func DecryptCBC(key, iv []byte, ciphertextB64 string) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", ErrCrypto)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("iv length: %w", ErrCrypto)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", ErrCrypto)
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("ciphertext length: %w", ErrCrypto)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return pkcs7Unpad(plaintext, block.BlockSize())
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("padding structure: %w", ErrCrypto)
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, fmt.Errorf("padding value: %w", ErrCrypto)
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("padding bytes: %w", ErrCrypto)
		}
	}
	return data[:len(data)-padding], nil
}
