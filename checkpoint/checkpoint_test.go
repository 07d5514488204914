package checkpoint

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/op/go-logging"
)

func init() {
	logging.SetLevel(logging.ERROR, "checkpoint")
}

type value struct {
	Names []string
	Freqs []int
}

func TestCache(tst *testing.T) {
	path := filepath.Join(tst.TempDir(), "cache.db")
	c, err := Open(path)
	if err != nil {
		tst.Fatal(err)
	}

	key := Key([]byte(">a\nACGT\n"), []byte("DNA"))
	var v value
	if found, err := c.Load(key, &v); found || err != nil {
		tst.Error("Found a value in an empty cache:", found, err)
	}

	saved := value{Names: []string{"a", "b"}, Freqs: []int{3, 1}}
	if err := c.Save(key, saved); err != nil {
		tst.Fatal(err)
	}
	if err := c.Close(); err != nil {
		tst.Fatal(err)
	}

	c, err = Open(path)
	if err != nil {
		tst.Fatal(err)
	}
	defer c.Close()
	found, err := c.Load(key, &v)
	if !found || err != nil {
		tst.Fatal("Value not found:", err)
	}
	if len(v.Names) != 2 || v.Names[1] != "b" || v.Freqs[0] != 3 {
		tst.Errorf("Wrong value: %+v", v)
	}

	if err := c.Delete(key); err != nil {
		tst.Fatal(err)
	}
	if found, _ := c.Load(key, &v); found {
		tst.Error("Value found after delete")
	}
}

func TestData(tst *testing.T) {
	c, err := Open(filepath.Join(tst.TempDir(), "data.db"))
	if err != nil {
		tst.Fatal(err)
	}
	defer c.Close()
	if err := SaveData(c.db, []byte("k"), []byte("value")); err != nil {
		tst.Fatal(err)
	}
	data, err := LoadData(c.db, []byte("k"))
	if err != nil || !bytes.Equal(data, []byte("value")) {
		tst.Errorf("Wrong data: %q (%v)", data, err)
	}
	if data, _ := LoadData(c.db, []byte("missing")); data != nil {
		tst.Error("Expected nil for a missing key")
	}
}

func TestNil(tst *testing.T) {
	var c *Cache
	if err := c.Save([]byte("k"), 1); err != nil {
		tst.Error(err)
	}
	var v int
	if found, err := c.Load([]byte("k"), &v); found || err != nil {
		tst.Error("Nil cache should find nothing")
	}
	if err := c.Close(); err != nil {
		tst.Error(err)
	}
}

func TestKey(tst *testing.T) {
	a := Key([]byte("ab"), []byte("c"))
	if !bytes.Equal(a, Key([]byte("ab"), []byte("c"))) {
		tst.Error("Key is not deterministic")
	}
	if bytes.Equal(a, Key([]byte("a"), []byte("bc"))) {
		tst.Error("Key ignores part boundaries")
	}
	if len(a) != 64 {
		tst.Error("Wrong key length:", len(a))
	}
}
