package scoring

import (
	"fmt"
	"path/filepath"
)

// Store is the persistence backend contract. FileStore implements it
// directly; internal/chkv.Store implements it against ClickHouse.
type Store interface {
	SaveNormal(name string, c *NormalCore) error
	SaveRelational(name string, c *RelationalCore) error
	SaveFiltering(name string, c *FilteringCore) error
	LoadNormal(name string) (*NormalCore, error)
	LoadRelational(name string) (*RelationalCore, error)
	LoadFiltering(name string) (*FilteringCore, error)
}

// FileStore persists named cores as gob files under Dir, one file per
// (name, variant) pair.
type FileStore struct {
	Dir string
}

func (s FileStore) path(name, variant string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s.%s.gob", name, variant))
}

func (s FileStore) SaveNormal(name string, c *NormalCore) error {
	return c.Dump(s.path(name, "normal"))
}

func (s FileStore) SaveRelational(name string, c *RelationalCore) error {
	return c.Dump(s.path(name, "relational"))
}

func (s FileStore) SaveFiltering(name string, c *FilteringCore) error {
	return c.Dump(s.path(name, "filtering"))
}

func (s FileStore) LoadNormal(name string) (*NormalCore, error) {
	return LoadNormalCore(s.path(name, "normal"))
}

func (s FileStore) LoadRelational(name string) (*RelationalCore, error) {
	return LoadRelationalCore(s.path(name, "relational"))
}

func (s FileStore) LoadFiltering(name string) (*FilteringCore, error) {
	return LoadFilteringCore(s.path(name, "filtering"))
}
