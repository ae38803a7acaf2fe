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

package connection

import (
	"encoding/json"
	"fmt"
)

// Serialize produces the deterministic wire form of a Connection stored in
// a hub's advertisements/flip_ins sets. JSON field order is fixed by the
// Connection's struct field order in connection.go, so two gateways always produce byte-identical encodings
// for equal Connections — the round-trip-exactness invariant (I1) depends on
// this, not on any particular byte format.
func Serialize(c Connection) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("serialize connection: %w", err)
	}
	return b, nil
}

// Deserialize reverses Serialize.
func Deserialize(data []byte) (Connection, error) {
	var c Connection
	if err := json.Unmarshal(data, &c); err != nil {
		return Connection{}, fmt.Errorf("deserialize connection: %w", err)
	}
	return c, nil
}

// debugEntry is the narrower shape used for the hub's flips/pulls debug
// sets: [target_gateway, name, type, node].
type debugEntry struct {
	TargetGateway string         `json:"target_gateway"`
	Name          string         `json:"name"`
	Type          ConnectionType `json:"type"`
	Node          string         `json:"node"`
}

// SerializeRule encodes a debug-only flip/pull entry.
func SerializeRule(targetGateway, name string, t ConnectionType, node string) ([]byte, error) {
	b, err := json.Marshal(debugEntry{TargetGateway: targetGateway, Name: name, Type: t, Node: node})
	if err != nil {
		return nil, fmt.Errorf("serialize rule entry: %w", err)
	}
	return b, nil
}

// DeserializeRule reverses SerializeRule.
func DeserializeRule(data []byte) (targetGateway, name string, t ConnectionType, node string, err error) {
	var d debugEntry
	if err = json.Unmarshal(data, &d); err != nil {
		return "", "", "", "", fmt.Errorf("deserialize rule entry: %w", err)
	}
	return d.TargetGateway, d.Name, d.Type, d.Node, nil
}

// FlipStatus is the state of an inbound flip offer (§3 invariant I2).
type FlipStatus string

const (
	FlipPending  FlipStatus = "pending"
	FlipAccepted FlipStatus = "accepted"
	FlipBlocked  FlipStatus = "blocked"
)

// FlipInEntry is the wire shape of one entry in a gateway's flip_ins set:
// (status, source_gateway, encrypted_connection).
type FlipInEntry struct {
	Status              FlipStatus          `json:"status"`
	SourceGateway       string              `json:"source_gateway"`
	EncryptedConnection EncryptedConnection `json:"encrypted_connection"`
}

// EncryptedConnection carries a Connection whose TypeInfo and TransportURI
// have been encrypted to a specific gateway's public key; Type and Name stay
// in cleartext so the receiver can key by rule without decrypting.
type EncryptedConnection struct {
	Type                  ConnectionType `json:"type"`
	Name                  string         `json:"name"`
	NodeURI               string         `json:"node_uri"`
	EncryptedTypeInfo     []byte         `json:"encrypted_type_info"`
	EncryptedTransportURI []byte         `json:"encrypted_transport_uri"`
}

// SerializeFlipIn encodes a FlipInEntry for storage in a hub's flip_ins set.
func SerializeFlipIn(e FlipInEntry) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("serialize flip_in entry: %w", err)
	}
	return b, nil
}

// DeserializeFlipIn reverses SerializeFlipIn.
func DeserializeFlipIn(data []byte) (FlipInEntry, error) {
	var e FlipInEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return FlipInEntry{}, fmt.Errorf("deserialize flip_in entry: %w", err)
	}
	return e, nil
}
