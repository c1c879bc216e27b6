package gecco

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// WriteChecksum computes the md5 digest of the model artifact at path and
// writes it next to it as path.md5. The model is always fully written
// before the checksum, so a missing or stale checksum marks a torn write.
func WriteChecksum(path string) error {
	digest, err := fileDigest(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path+".md5", []byte(digest+"\n"), 0644)
}

// VerifyChecksum compares the artifact at path against its recorded md5.
func VerifyChecksum(path string) error {
	want, err := os.ReadFile(path + ".md5")
	if err != nil {
		return fmt.Errorf("failed to read model checksum: %w", err)
	}

	got, err := fileDigest(path)
	if err != nil {
		return err
	}
	if got != strings.TrimSpace(string(want)) {
		return fmt.Errorf("model %s does not match its checksum; the artifact may be corrupt", path)
	}
	return nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := md5.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
