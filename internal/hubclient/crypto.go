// SPDX-License-Identifier: AGPL-3.0-or-later
// gateway - Federated pub/sub/RPC namespace gateway
// Copyright (C) 2026 The rocon-go Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package hubclient

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/rocon-go/gateway/internal/connection"
)

// rsaKeyBits is generous for a payload this small (two short strings per
// flip); registration happens once per hub connect, not per tick, so the
// extra keygen cost is not on any hot path.
const rsaKeyBits = 2048

// generateKeyPair creates a fresh RSA keypair for one hub registration. A
// new keypair is minted every time register_gateway runs (including after
// reconnect, §4.9) rather than reused across hubs.
func generateKeyPair() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate RSA keypair: %w", err)
	}
	return key, nil
}

// marshalPublicKey encodes pub as the PEM bytes stored in a gateway's
// public_key field (§3, §6).
func marshalPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return pem.EncodeToMemory(block), nil
}

// unmarshalPublicKey reverses marshalPublicKey.
func unmarshalPublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("decode public key: not PEM encoded")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not RSA")
	}
	return rsaPub, nil
}

// encryptConnection encrypts conn's sensitive fields (type_info,
// transport_uri) to pub. type, name and node stay in cleartext so the
// receiver can key by rule without decrypting (§4.2, §6).
func encryptConnection(conn connection.Connection, pub *rsa.PublicKey) (connection.EncryptedConnection, error) {
	encTypeInfo, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, []byte(conn.TypeInfo), nil)
	if err != nil {
		return connection.EncryptedConnection{}, fmt.Errorf("encrypt type_info: %w", err)
	}
	encTransport, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, []byte(conn.TransportURI), nil)
	if err != nil {
		return connection.EncryptedConnection{}, fmt.Errorf("encrypt transport_uri: %w", err)
	}
	return connection.EncryptedConnection{
		Type:                  conn.Type,
		Name:                  conn.Name,
		NodeURI:               conn.NodeURI,
		EncryptedTypeInfo:     encTypeInfo,
		EncryptedTransportURI: encTransport,
	}, nil
}

// decryptConnection reverses encryptConnection using priv.
func decryptConnection(ec connection.EncryptedConnection, priv *rsa.PrivateKey) (connection.Connection, error) {
	typeInfo, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ec.EncryptedTypeInfo, nil)
	if err != nil {
		return connection.Connection{}, fmt.Errorf("decrypt type_info: %w", err)
	}
	transportURI, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ec.EncryptedTransportURI, nil)
	if err != nil {
		return connection.Connection{}, fmt.Errorf("decrypt transport_uri: %w", err)
	}
	return connection.Connection{
		Type:         ec.Type,
		Name:         ec.Name,
		NodeURI:      ec.NodeURI,
		TypeInfo:     string(typeInfo),
		TransportURI: string(transportURI),
	}, nil
}
