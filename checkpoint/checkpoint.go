// checkpoint provides Cache, which stores compressed alignments (or any
// JSON serializable value) in a bolt database.
package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// MAIN is the bucket name for all the values.
var MAIN = []byte("main")

// entry is a stored value.
type entry struct {
	Saved time.Time
	Data  json.RawMessage
}

// Cache stores values by key. A nil *Cache does nothing: nothing is
// saved and nothing is found.
type Cache struct {
	db *bolt.DB
}

// Open opens (or creates) a cache database.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// Key computes a cache key from the input, e.g. file contents and the
// options used to read it.
func Key(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return []byte(hex.EncodeToString(h.Sum(nil)))
}

// Save serializes v and stores it.
func (c *Cache) Save(key []byte, v interface{}) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Error("Error serializing cache value", err)
		return err
	}
	b, err := json.Marshal(entry{Saved: time.Now(), Data: data})
	if err != nil {
		return err
	}
	if err = SaveData(c.db, key, b); err != nil {
		log.Error("Error saving cache value", err)
	}
	return err
}

// Load reads a value stored with key into v. found is false if there
// is no such value.
func (c *Cache) Load(key []byte, v interface{}) (found bool, err error) {
	if c == nil {
		return false, nil
	}
	b, err := LoadData(c.db, key)
	if err != nil || b == nil {
		return false, err
	}
	var e entry
	if err = json.Unmarshal(b, &e); err != nil {
		return false, err
	}
	if err = json.Unmarshal(e.Data, v); err != nil {
		return false, err
	}
	log.Noticef("Found cached value (saved %v)", e.Saved.Format(time.RFC3339))
	return true, nil
}

// Delete removes a value.
func (c *Cache) Delete(key []byte) error {
	if c == nil {
		return nil
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}
		return b.Delete(key)
	})
}

// SaveData saves values in bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	err := db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}

		err = b.Put(key, data)
		return err
	})
	return err
}

// LoadData loads data from bolt database. The result is nil if the key
// is not found.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}

		// v is only valid inside the transaction
		if v := b.Get(key); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
