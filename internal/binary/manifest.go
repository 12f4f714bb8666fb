package binary

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

//go:embed manifest.json
var embeddedManifest []byte

// Manifest maps a release version to the SHA-256 digests of its archives,
// keyed by lower-case hex digest with the archive file name as value.
type Manifest map[string]map[string]string

// DefaultManifest returns the manifest compiled into the binary.
func DefaultManifest() (Manifest, error) {
	return ParseManifest(bytes.NewReader(embeddedManifest))
}

// LoadManifest reads a manifest file. An empty path returns DefaultManifest.
func LoadManifest(path string) (Manifest, error) {
	if path == "" {
		return DefaultManifest()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	return ParseManifest(f)
}

// ParseManifest decodes a JSON manifest.
func ParseManifest(r io.Reader) (Manifest, error) {
	m := Manifest{}
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// HasVersion reports whether the manifest lists any archive for version.
func (m Manifest) HasVersion(version string) bool {
	_, ok := m[version]
	return ok
}

// Checksum returns the trusted digest of fileName within version.
func (m Manifest) Checksum(version, fileName string) (string, bool) {
	for sum, name := range m[version] {
		if name == fileName {
			return sum, true
		}
	}
	return "", false
}

// Merge replaces the entries for version with sums.
func (m Manifest) Merge(version string, sums map[string]string) {
	entry := make(map[string]string, len(sums))
	for sum, name := range sums {
		entry[strings.ToLower(sum)] = name
	}
	m[version] = entry
}

// Versions returns the listed versions in lexical order.
func (m Manifest) Versions() []string {
	versions := make([]string, 0, len(m))
	for v := range m {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// Save writes the manifest as indented JSON.
func (m Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(path, bytes.NewReader(data), 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ImportManifest checks a detached OpenPGP signature over an upstream
// release manifest (sha256sum format) and returns the archive digests it
// lists for version. Nothing is parsed unless the signature verifies against
// keyring.
func ImportManifest(manifestTxt, signature io.Reader, keyring openpgp.EntityList, version string) (map[string]string, error) {
	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	data, err := io.ReadAll(manifestTxt)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	sig, err := io.ReadAll(signature)
	if err != nil {
		return nil, fmt.Errorf("read signature: %w", err)
	}

	// Try armored first
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	if err != nil {
		_, err = openpgp.CheckDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("verify signature: %w", err)
	}

	sums, err := parseChecksums(bytes.NewReader(data), version)
	if err != nil {
		return nil, err
	}
	if len(sums) == 0 {
		return nil, fmt.Errorf("manifest lists no archives for v%s", version)
	}

	return sums, nil
}

// parseChecksums reads "digest  filename" lines and keeps release archives
// of version.
func parseChecksums(r io.Reader, version string) (map[string]string, error) {
	sums := make(map[string]string)
	marker := "-v" + version

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		sum := strings.ToLower(parts[0])
		name := strings.TrimPrefix(parts[1], "*")

		if !isArchive(name) || !strings.Contains(name, marker) {
			continue
		}
		if b, err := hex.DecodeString(sum); err != nil || len(b) != 32 {
			continue
		}

		sums[sum] = name
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}

	return sums, nil
}

func isArchive(name string) bool {
	return strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".zip")
}
