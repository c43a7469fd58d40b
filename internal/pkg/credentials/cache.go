/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credentials

import (
	"time"

	"github.com/bluele/gcache"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/identity"
)

// Source locates the credentials of one user.
type Source struct {
	MspID    string
	CertPath string
	KeyPath  string
}

// Credentials is an identity and the signer for its private key.
type Credentials struct {
	Identity *identity.X509Identity
	Sign     identity.Sign
}

// Cache loads credentials once per Source and serves them from memory until
// they expire.
type Cache struct {
	loader Loader
	cache  gcache.Cache
}

// NewCache creates a Cache holding at most size users, or any number when
// size is zero. Entries expire after ttl unless ttl is zero.
func NewCache(loader Loader, size int, ttl time.Duration) *Cache {
	c := &Cache{loader: loader}

	builder := gcache.New(size)
	if size > 0 {
		builder = builder.LRU()
	}
	if ttl > 0 {
		builder = builder.Expiration(ttl)
	}
	c.cache = builder.LoaderFunc(func(key interface{}) (interface{}, error) {
		return c.load(key.(Source))
	}).Build()

	return c
}

func (c *Cache) load(src Source) (*Credentials, error) {
	id, err := c.loader.LoadIdentity(src.CertPath, src.MspID)
	if err != nil {
		return nil, err
	}
	sign, err := c.loader.LoadSigner(src.KeyPath)
	if err != nil {
		return nil, err
	}
	logger.Debugw("Cached credentials", "mspID", src.MspID)
	return &Credentials{Identity: id, Sign: sign}, nil
}

// Get returns the credentials for src, loading them on first use. Failed
// loads are not cached.
func (c *Cache) Get(src Source) (*Credentials, error) {
	value, err := c.cache.Get(src)
	if err != nil {
		return nil, err
	}
	return value.(*Credentials), nil
}

// Len returns the number of cached users.
func (c *Cache) Len() int {
	return c.cache.Len()
}

// Purge removes all cached credentials.
func (c *Cache) Purge() {
	c.cache.Purge()
}
