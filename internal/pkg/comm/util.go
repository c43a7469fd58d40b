/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package comm

import (
	"crypto/x509"
	"encoding/pem"

	"github.com/pkg/errors"
)

// AddPemToCertPool adds PEM-encoded certs to a cert pool. Input without a
// single certificate is an error.
func AddPemToCertPool(pemCerts []byte, pool *x509.CertPool) error {
	certs, err := pemToX509Certs(pemCerts)
	if err != nil {
		return err
	}
	if len(certs) == 0 {
		return errors.New("no PEM encoded certificates found")
	}
	for _, cert := range certs {
		pool.AddCert(cert)
	}
	return nil
}

// parse PEM-encoded certs
func pemToX509Certs(pemCerts []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate

	// it's possible that multiple certs are encoded
	for len(pemCerts) > 0 {
		var block *pem.Block
		block, pemCerts = pem.Decode(pemCerts)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse certificate")
		}

		certs = append(certs, cert)
	}

	return certs, nil
}
