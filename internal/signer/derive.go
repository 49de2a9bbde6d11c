package signer

import (
	"crypto/sha512"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/pbkdf2"
)

// DefaultDerivationPath is the standard Ethereum account path.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

const (
	// BIP39: seed = PBKDF2(mnemonic, "mnemonic"+passphrase, 2048, 64, SHA512)
	pbkdf2Iterations = 2048
	pbkdf2KeyLength  = 64

	hardenedOffset = 0x80000000
)

// mnemonicToSeed converts a BIP39 mnemonic into the 512-bit wallet seed.
func mnemonicToSeed(mnemonic, passphrase string) []byte {
	return pbkdf2.Key(
		[]byte(mnemonic),
		[]byte("mnemonic"+passphrase),
		pbkdf2Iterations,
		pbkdf2KeyLength,
		sha512.New,
	)
}

// derivePrivateKey derives the 32-byte private key at the given BIP44 path.
// The caller must zeroize the returned bytes after use.
func derivePrivateKey(seed []byte, path string) ([]byte, error) {
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	indices, err := parseBIP44Path(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse BIP44 path")
	}

	key := masterKey
	for _, index := range indices {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	return key.Key, nil
}

// parseBIP44Path parses a path like "m/44'/60'/0'/0/0" into child indices.
func parseBIP44Path(path string) ([]uint32, error) {
	if len(path) == 0 || path[0] != 'm' {
		return nil, errors.Errorf("invalid BIP44 path: %s", path)
	}

	path = strings.TrimPrefix(path, "m")
	path = strings.TrimPrefix(path, "/")

	parts := strings.Split(path, "/")
	indices := make([]uint32, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			return nil, errors.Errorf("empty path segment in %s", path)
		}

		hardened := strings.HasSuffix(part, "'")
		part = strings.TrimSuffix(part, "'")

		var index uint32
		if _, err := fmt.Sscanf(part, "%d", &index); err != nil {
			return nil, errors.Errorf("invalid path segment: %s", part)
		}

		if hardened {
			index += hardenedOffset
		}

		indices = append(indices, index)
	}

	return indices, nil
}
