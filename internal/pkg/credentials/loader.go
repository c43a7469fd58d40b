/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credentials loads the X.509 identity and private key a client uses
// to sign transactions.
package credentials

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperledger/fabric-asset-gateway/common/flogging"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/identity"
	"github.com/pkg/errors"
)

var logger = flogging.MustGetLogger("credentials")

// ErrCredentialNotFound is returned when a credential directory holds no
// usable file.
var ErrCredentialNotFound = errors.New("no credential files found")

// Selection decides which file is used when a credential directory holds more
// than one candidate.
type Selection int

const (
	// SelectFirst uses the first file in lexical order.
	SelectFirst Selection = iota
	// SelectStrict requires exactly one candidate file.
	SelectStrict
)

func (s Selection) String() string {
	switch s {
	case SelectFirst:
		return "first"
	case SelectStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// ParseSelection converts a configured selection name.
func ParseSelection(name string) (Selection, error) {
	switch strings.ToLower(name) {
	case "", "first":
		return SelectFirst, nil
	case "strict":
		return SelectStrict, nil
	default:
		return SelectFirst, errors.Errorf("unknown credential selection '%s'", name)
	}
}

// Loader reads credentials from the file system. A path may name a file or a
// directory; directories are scanned according to Selection.
type Loader struct {
	Selection Selection
}

// LoadIdentity reads the certificate at certPath and pairs it with mspID. The
// certificate bytes are not validated.
func (l Loader) LoadIdentity(certPath, mspID string) (*identity.X509Identity, error) {
	file, err := l.resolve(certPath)
	if err != nil {
		return nil, gateway.NewError(gateway.CredentialNotFound, "load identity", err)
	}

	certificate, err := os.ReadFile(file)
	if err != nil {
		return nil, gateway.NewError(gateway.CredentialNotFound, "load identity", errors.Wrapf(err, "failed to read certificate %s", file))
	}

	logger.Debugw("Loaded identity", "mspID", mspID, "file", file)
	return identity.NewX509Identity(mspID, certificate), nil
}

// LoadSigner reads the private key at keyPath and returns a signing function
// for it.
func (l Loader) LoadSigner(keyPath string) (identity.Sign, error) {
	file, err := l.resolve(keyPath)
	if err != nil {
		return nil, gateway.NewError(gateway.CredentialNotFound, "load signer", err)
	}

	pemBytes, err := os.ReadFile(file)
	if err != nil {
		return nil, gateway.NewError(gateway.CredentialNotFound, "load signer", errors.Wrapf(err, "failed to read private key %s", file))
	}

	key, err := ParsePrivateKeyPEM(pemBytes)
	if err != nil {
		return nil, gateway.NewError(gateway.InvalidKeyMaterial, "load signer", errors.WithMessagef(err, "invalid private key %s", file))
	}

	sign, err := NewPrivateKeySign(key)
	if err != nil {
		return nil, gateway.NewError(gateway.InvalidKeyMaterial, "load signer", errors.WithMessagef(err, "invalid private key %s", file))
	}

	logger.Debugw("Loaded signer", "file", file)
	return sign, nil
}

// LoadIdentity reads the first certificate in certDir.
func LoadIdentity(certDir, mspID string) (*identity.X509Identity, error) {
	return Loader{}.LoadIdentity(certDir, mspID)
}

// LoadSigner reads the first private key in keystoreDir.
func LoadSigner(keystoreDir string) (identity.Sign, error) {
	return Loader{}.LoadSigner(keystoreDir)
}

func (l Loader) resolve(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to access credential path %s", path)
	}
	if !info.IsDir() {
		return path, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read credential directory %s", path)
	}

	var candidates []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		full := filepath.Join(path, entry.Name())
		// follow symlinks
		fi, err := os.Stat(full)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, full)
	}

	switch {
	case len(candidates) == 0:
		return "", errors.WithMessagef(ErrCredentialNotFound, "directory %s", path)
	case len(candidates) == 1:
		return candidates[0], nil
	case l.Selection == SelectStrict:
		return "", errors.WithMessagef(ErrCredentialNotFound, "directory %s holds %d candidate files and exactly one is required", path, len(candidates))
	default:
		logger.Warnf("Directory %s holds %d candidate files; using %s", path, len(candidates), filepath.Base(candidates[0]))
		return candidates[0], nil
	}
}
