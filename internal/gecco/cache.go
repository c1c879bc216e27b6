package gecco

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
)

// AnnotationCache stores hmmsearch results in a bolt file so that
// re-annotating the same proteins against the same library is free. One
// bucket per HMM library; keys are digests of the protein batch.
type AnnotationCache struct {
	db *bolt.DB
}

// OpenAnnotationCache opens (or creates) the cache file at path.
func OpenAnnotationCache(path string) (*AnnotationCache, error) {
	db, err := bolt.Open(path, 0644, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation cache %s: %w", path, err)
	}
	return &AnnotationCache{db: db}, nil
}

// Close releases the cache file.
func (c *AnnotationCache) Close() error {
	return c.db.Close()
}

// Get looks up the cached hits for a protein batch digest.
func (c *AnnotationCache) Get(hmmID, digest string) ([]DomainHit, bool, error) {
	var raw []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(hmmID))
		if bucket == nil {
			return nil
		}
		if v := bucket.Get([]byte(digest)); v != nil {
			raw = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil || raw == nil {
		return nil, false, err
	}

	var hits []DomainHit
	if err := json.Unmarshal(raw, &hits); err != nil {
		// a corrupt entry is re-searched rather than fatal
		return nil, false, nil
	}
	return hits, true, nil
}

// Put stores the hits for a protein batch digest.
func (c *AnnotationCache) Put(hmmID, digest string, hits []DomainHit) error {
	raw, err := json.Marshal(hits)
	if err != nil {
		return err
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(hmmID))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(digest), raw)
	})
}

// proteinDigest fingerprints a protein batch by its ids and sequences.
func proteinDigest(records []FastaRecord) string {
	hasher := sha256.New()
	for _, r := range records {
		hasher.Write([]byte(r.ID))
		hasher.Write([]byte{0})
		hasher.Write([]byte(r.Seq))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
