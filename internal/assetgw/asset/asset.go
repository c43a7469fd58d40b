/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package asset exposes the operations of the basic asset transfer
// chaincode as a Go service backed by a gateway session.
package asset

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidInput is the cause of errors reporting a malformed request.
var ErrInvalidInput = errors.New("invalid input")

// Asset is an asset as exchanged with API callers. Numeric attributes are
// carried as decimal strings and passed to the chaincode unchanged.
type Asset struct {
	ID    string `json:"id"`
	Color string `json:"color"`
	Size  string `json:"size"`
	Owner string `json:"owner"`
	Value string `json:"value"`
}

// fieldAliases maps lower-cased JSON keys to asset attributes. The chaincode
// names the value AppraisedValue.
var fieldAliases = map[string]string{
	"id":             "id",
	"color":          "color",
	"size":           "size",
	"owner":          "owner",
	"value":          "value",
	"appraisedvalue": "value",
}

// UnmarshalJSON accepts the field names used by API callers and by the
// chaincode, in any letter case. Numbers are rendered as decimal strings.
func (a *Asset) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(ErrInvalidInput, err.Error())
	}

	fields := map[string]*string{
		"id":    &a.ID,
		"color": &a.Color,
		"size":  &a.Size,
		"owner": &a.Owner,
		"value": &a.Value,
	}
	for key, value := range raw {
		name, ok := fieldAliases[strings.ToLower(key)]
		if !ok {
			continue
		}
		s, err := scalarString(value)
		if err != nil {
			return errors.Wrapf(ErrInvalidInput, "field %s: %s", key, err)
		}
		*fields[name] = s
	}
	return nil
}

func scalarString(raw json.RawMessage) (string, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var v interface{}
	if err := decoder.Decode(&v); err != nil {
		return "", err
	}
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		return "", errors.Errorf("expected a string or number, got %s", string(raw))
	}
}

// Validate checks that the asset can be written to the ledger.
func (a Asset) Validate() error {
	if a.ID == "" {
		return errors.Wrap(ErrInvalidInput, "asset id is required")
	}
	return nil
}

func (a Asset) args() []string {
	return []string{a.ID, a.Color, a.Size, a.Owner, a.Value}
}

// Transfer moves an asset to a new owner.
type Transfer struct {
	ID       string `json:"id"`
	NewOwner string `json:"newOwner"`
}

func (t Transfer) Validate() error {
	if t.ID == "" {
		return errors.Wrap(ErrInvalidInput, "asset id is required")
	}
	if t.NewOwner == "" {
		return errors.Wrap(ErrInvalidInput, "new owner is required")
	}
	return nil
}

// Normalize decodes an asset returned by the chaincode.
func Normalize(data []byte) (*Asset, error) {
	var a Asset
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.WithMessage(err, "unexpected asset returned by chaincode")
	}
	return &a, nil
}

// NormalizeList decodes a list of assets returned by the chaincode. An empty
// result is an empty list.
func NormalizeList(data []byte) ([]Asset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Asset{}, nil
	}
	assets := []Asset{}
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, errors.WithMessage(err, "unexpected asset list returned by chaincode")
	}
	if assets == nil {
		return []Asset{}, nil
	}
	return assets, nil
}
