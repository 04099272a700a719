package dataset

import (
	"bytes"
	"embed"
	"io/fs"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	ordersFile = "orders.yaml"
	usersFile  = "users.yaml"
)

//go:embed data/*.yaml
var embedded embed.FS

var builtin = sync.OnceValues(func() (*Dataset, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
})

// Default returns the built-in dataset: orders O001..O010 and users
// USER01..USER05.
func Default() (*Dataset, error) { return builtin() }

// Load reads orders.yaml and users.yaml from dir.
func Load(dir string) (*Dataset, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads orders.yaml and users.yaml from fsys.
func LoadFS(fsys fs.FS) (*Dataset, error) {
	var orders []Order
	if err := decodeFile(fsys, ordersFile, &orders); err != nil {
		return nil, err
	}
	var users []User
	if err := decodeFile(fsys, usersFile, &users); err != nil {
		return nil, err
	}
	d, err := New(orders, users)
	if err != nil {
		return nil, errors.Wrap(err, "invalid dataset")
	}
	return d, nil
}

func decodeFile(fsys fs.FS, name string, out any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return errors.Wrapf(err, "read %s", name)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s", name)
	}
	return nil
}
