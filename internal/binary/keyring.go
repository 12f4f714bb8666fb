package binary

import (
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// LoadKeyring reads OpenPGP public keys from one or more files, armored or
// binary, and returns them as a single keyring.
func LoadKeyring(paths ...string) (openpgp.EntityList, error) {
	var keyring openpgp.EntityList

	for _, path := range paths {
		entities, err := loadKeyringFile(path)
		if err != nil {
			return nil, fmt.Errorf("load keyring %s: %w", path, err)
		}
		keyring = append(keyring, entities...)
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

func loadKeyringFile(path string) (openpgp.EntityList, error) {
	keyringFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		// Try reading as non-armored keyring
		if _, err := keyringFile.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind keyring: %w", err)
		}
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	return keyring, nil
}
