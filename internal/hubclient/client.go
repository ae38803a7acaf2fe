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
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/rocon-go/gateway/internal/config"
	"github.com/rocon-go/gateway/internal/connection"
	"github.com/rocon-go/gateway/internal/gatewayerrors"
	"github.com/rocon-go/gateway/internal/kv"
	"github.com/rocon-go/gateway/internal/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// publicKeyPollInterval is how often SendFlipRequest re-checks for a
// remote's public_key while waiting for it to appear.
const publicKeyPollInterval = 200 * time.Millisecond

// FlipOffer is a decrypted inbound flip: a Connection offered by Source,
// still carrying whatever status it had when read.
type FlipOffer struct {
	Source     string
	Connection connection.Connection
}

// Client owns one logical connection to one hub: the gateway's directory
// entry on that hub, its personal pub/sub channel, and its RSA keypair for
// that registration (§4.2).
type Client struct {
	mu sync.Mutex

	kv kv.KV
	ps pubsub.PubSub
	sub pubsub.Subscription

	hub config.Hub

	uniqueName string
	firewall   bool
	privateKey *rsa.PrivateKey

	registered bool
}

// New wraps an already-connected KV/PubSub pair as a hub Client. Tests pass
// shared in-memory backends here so multiple Clients can simulate gateways
// sharing one hub.
func New(kvStore kv.KV, ps pubsub.PubSub, hub config.Hub) *Client {
	return &Client{kv: kvStore, ps: ps, hub: hub}
}

// Connect dials a specific hub using the process-wide Redis credentials
// (password, OTLP instrumentation) but that hub's own host/port — each hub
// is its own Redis instance, so kv.MakeKV/pubsub.MakePubSub are called once
// per Client rather than once per process.
func Connect(ctx context.Context, cfg *config.Config, hub config.Hub) (*Client, error) {
	hubCfg := &config.Config{
		Redis: config.Redis{
			Enabled:  cfg.Redis.Enabled,
			Host:     hub.Host,
			Port:     hub.Port,
			Password: cfg.Redis.Password,
		},
		Metrics: cfg.Metrics,
	}
	kvStore, err := kv.MakeKV(ctx, hubCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gatewayerrors.ErrHubNotFound, err)
	}
	ps, err := pubsub.MakePubSub(ctx, hubCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gatewayerrors.ErrHubNotFound, err)
	}
	return New(kvStore, ps, hub), nil
}

// Hub returns the host/port this Client talks to.
func (c *Client) Hub() config.Hub {
	return c.hub
}

// UniqueName returns the server-assigned identity this gateway registered
// under, empty until RegisterGateway succeeds.
func (c *Client) UniqueName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uniqueName
}

// Subscription returns the Client's personal channel subscription, valid
// after RegisterGateway. Nothing in the engine or watcher reads from it; flip
// requests travel through the flip_ins set instead.
func (c *Client) Subscription() pubsub.Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub
}

// RegisterGateway adds this gateway to the hub's directory: picks a unique
// name (appending a short suffix if baseName collides), generates a fresh
// RSA keypair, writes firewall/ip/public_key, subscribes to the personal
// channel, and sets the keepalive :ping key.
func (c *Client) RegisterGateway(ctx context.Context, baseName string, firewall bool, ip string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	priv, err := generateKeyPair()
	if err != nil {
		return err
	}
	pubPEM, err := marshalPublicKey(&priv.PublicKey)
	if err != nil {
		return err
	}

	uniqueName, err := c.claimUniqueName(ctx, baseName)
	if err != nil {
		return err
	}

	if err := c.kv.SAdd(ctx, gatewaylistKey, []byte(gatewayMember(uniqueName))); err != nil {
		return hubErr(err)
	}
	firewallVal := "0"
	if firewall {
		firewallVal = "1"
	}
	if err := c.kv.Set(ctx, field(uniqueName, fieldFirewall), []byte(firewallVal)); err != nil {
		return hubErr(err)
	}
	if err := c.kv.Set(ctx, field(uniqueName, fieldIP), []byte(ip)); err != nil {
		return hubErr(err)
	}
	if err := c.kv.Set(ctx, field(uniqueName, fieldPublicKey), pubPEM); err != nil {
		return hubErr(err)
	}
	if err := c.refreshPing(ctx, uniqueName); err != nil {
		return err
	}

	c.uniqueName = uniqueName
	c.firewall = firewall
	c.privateKey = priv
	c.sub = c.ps.Subscribe(gatewayMember(uniqueName))
	c.registered = true
	return nil
}

// claimUniqueName tries baseName, then baseName_<suffix> until the hub's
// gatewaylist doesn't already contain it.
func (c *Client) claimUniqueName(ctx context.Context, baseName string) (string, error) {
	candidate := baseName
	for attempt := 0; attempt < 16; attempt++ {
		exists, err := c.kv.SIsMember(ctx, gatewaylistKey, []byte(gatewayMember(candidate)))
		if err != nil {
			return "", hubErr(err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%s", baseName, randomSuffix())
	}
	return "", fmt.Errorf("could not find a free gateway name derived from %q after 16 attempts", baseName)
}

func randomSuffix() string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// UnregisterGateway deletes every key under this gateway's namespace and
// removes it from the gatewaylist. Safe to call on an already-dead hub:
// errors are logged, not returned, so shutdown always proceeds (§4.2, §5).
func (c *Client) UnregisterGateway(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.registered {
		return
	}

	if c.sub != nil {
		_ = c.sub.Close()
	}

	match := fmt.Sprintf("rocon:%s:*", c.uniqueName)
	var cursor uint64
	for {
		keys, next, err := c.kv.Scan(ctx, cursor, match, 100)
		if err != nil {
			slog.Warn("hubclient: scan during unregister failed, hub may be dead", "hub", c.uniqueName, "error", err)
			break
		}
		for _, key := range keys {
			if err := c.kv.Delete(ctx, key); err != nil {
				slog.Warn("hubclient: delete during unregister failed", "key", key, "error", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if err := c.kv.SRem(ctx, gatewaylistKey, []byte(gatewayMember(c.uniqueName))); err != nil {
		slog.Warn("hubclient: removing self from gatewaylist failed", "hub", c.uniqueName, "error", err)
	}
	c.registered = false
}

// Advertise adds conn to this gateway's advertisements set.
func (c *Client) Advertise(ctx context.Context, conn connection.Connection) error {
	c.mu.Lock()
	name := c.uniqueName
	c.mu.Unlock()
	data, err := connection.Serialize(conn)
	if err != nil {
		return err
	}
	if err := c.kv.SAdd(ctx, field(name, fieldAdvertisements), data); err != nil {
		return hubErr(err)
	}
	return nil
}

// Unadvertise removes conn from this gateway's advertisements set.
func (c *Client) Unadvertise(ctx context.Context, conn connection.Connection) error {
	c.mu.Lock()
	name := c.uniqueName
	c.mu.Unlock()
	data, err := connection.Serialize(conn)
	if err != nil {
		return err
	}
	if err := c.kv.SRem(ctx, field(name, fieldAdvertisements), data); err != nil {
		return hubErr(err)
	}
	return nil
}

// PostFlipDetails records one outbound flip in the (debug-only) flips set.
func (c *Client) PostFlipDetails(ctx context.Context, target, name string, t connection.ConnectionType, node string) error {
	return c.postDebugEntry(ctx, fieldFlips, target, name, t, node)
}

// RemoveFlipDetails reverses PostFlipDetails.
func (c *Client) RemoveFlipDetails(ctx context.Context, target, name string, t connection.ConnectionType, node string) error {
	return c.removeDebugEntry(ctx, fieldFlips, target, name, t, node)
}

// PostPullDetails records one pull in the (debug-only) pulls set.
func (c *Client) PostPullDetails(ctx context.Context, target, name string, t connection.ConnectionType, node string) error {
	return c.postDebugEntry(ctx, fieldPulls, target, name, t, node)
}

// RemovePullDetails reverses PostPullDetails.
func (c *Client) RemovePullDetails(ctx context.Context, target, name string, t connection.ConnectionType, node string) error {
	return c.removeDebugEntry(ctx, fieldPulls, target, name, t, node)
}

func (c *Client) postDebugEntry(ctx context.Context, setField, target, name string, t connection.ConnectionType, node string) error {
	c.mu.Lock()
	self := c.uniqueName
	c.mu.Unlock()
	data, err := connection.SerializeRule(target, name, t, node)
	if err != nil {
		return err
	}
	if err := c.kv.SAdd(ctx, field(self, setField), data); err != nil {
		return hubErr(err)
	}
	return nil
}

func (c *Client) removeDebugEntry(ctx context.Context, setField, target, name string, t connection.ConnectionType, node string) error {
	c.mu.Lock()
	self := c.uniqueName
	c.mu.Unlock()
	data, err := connection.SerializeRule(target, name, t, node)
	if err != nil {
		return err
	}
	if err := c.kv.SRem(ctx, field(self, setField), data); err != nil {
		return hubErr(err)
	}
	return nil
}

// ListRemoteGatewayNames returns every gateway name on the hub except this
// one.
func (c *Client) ListRemoteGatewayNames(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	self := c.uniqueName
	c.mu.Unlock()

	members, err := c.kv.SMembers(ctx, gatewaylistKey)
	if err != nil {
		return nil, hubErr(err)
	}
	out := make([]string, 0, len(members))
	for _, m := range members {
		name := gatewayNameFromMember(string(m))
		if name != self {
			out = append(out, name)
		}
	}
	return out, nil
}

// MatchesRemoteGatewayName returns every remote gateway name matching the
// anchored regular expression pattern.
func (c *Client) MatchesRemoteGatewayName(ctx context.Context, pattern string) ([]string, error) {
	names, err := c.ListRemoteGatewayNames(ctx)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(anchorPattern(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid gateway name pattern %q: %w", pattern, err)
	}
	out := names[:0:0]
	for _, name := range names {
		if re.MatchString(name) {
			out = append(out, name)
		}
	}
	return out, nil
}

func anchorPattern(pattern string) string {
	if pattern == "" {
		pattern = ".*"
	}
	if pattern[0] != '^' {
		pattern = "^" + pattern
	}
	if pattern[len(pattern)-1] != '$' {
		pattern += "$"
	}
	return pattern
}

// RemoteGatewayInfo reads a full directory snapshot for a remote gateway.
func (c *Client) RemoteGatewayInfo(ctx context.Context, name string) (GatewayDirectoryEntry, error) {
	present, err := c.kv.SIsMember(ctx, gatewaylistKey, []byte(gatewayMember(name)))
	if err != nil {
		return GatewayDirectoryEntry{}, hubErr(err)
	}
	if !present {
		return GatewayDirectoryEntry{}, gatewayerrors.ErrGatewayUnavailable
	}

	entry := GatewayDirectoryEntry{Name: name, Available: true}

	if b, err := c.kv.Get(ctx, field(name, fieldFirewall)); err == nil {
		entry.Firewall = string(b) == "1"
	}
	if b, err := c.kv.Get(ctx, field(name, fieldIP)); err == nil {
		entry.IP = string(b)
	}
	if b, err := c.kv.Get(ctx, field(name, fieldPublicKey)); err == nil {
		entry.PublicKey = b
	}

	if members, err := c.kv.SMembers(ctx, field(name, fieldAdvertisements)); err == nil {
		for _, m := range members {
			conn, err := connection.Deserialize(m)
			if err != nil {
				slog.Warn("hubclient: dropping malformed advertisement", "gateway", name, "error", err)
				continue
			}
			entry.PublicInterface = append(entry.PublicInterface, conn)
		}
	}
	entry.Flips = c.readDebugSet(ctx, name, fieldFlips)
	entry.Pulls = c.readDebugSet(ctx, name, fieldPulls)

	if members, err := c.kv.SMembers(ctx, field(name, fieldFlipIns)); err == nil {
		for _, m := range members {
			fi, err := connection.DeserializeFlipIn(m)
			if err != nil {
				slog.Warn("hubclient: dropping malformed flip_in", "gateway", name, "error", err)
				continue
			}
			entry.FlipIns = append(entry.FlipIns, fi)
		}
	}

	if b, err := c.kv.Get(ctx, field(name, fieldTimeSinceLastSeen)); err == nil {
		if n, err := strconv.Atoi(string(b)); err == nil {
			entry.TimeSinceLastSeen = n
		}
	}
	entry.Latency = LatencyStats{
		Min:  readFloat(ctx, c.kv, field(name, fieldLatencyMin)),
		Avg:  readFloat(ctx, c.kv, field(name, fieldLatencyAvg)),
		Max:  readFloat(ctx, c.kv, field(name, fieldLatencyMax)),
		Mdev: readFloat(ctx, c.kv, field(name, fieldLatencyMdev)),
	}

	return entry, nil
}

func (c *Client) readDebugSet(ctx context.Context, name, setField string) []DebugEntry {
	members, err := c.kv.SMembers(ctx, field(name, setField))
	if err != nil {
		return nil
	}
	out := make([]DebugEntry, 0, len(members))
	for _, m := range members {
		target, n, t, node, err := connection.DeserializeRule(m)
		if err != nil {
			continue
		}
		out = append(out, DebugEntry{TargetGateway: target, Name: n, Type: t, Node: node})
	}
	return out
}

func readFloat(ctx context.Context, store kv.KV, key string) float64 {
	b, err := store.Get(ctx, key)
	if err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0
	}
	return f
}

// GetRemoteConnectionState returns a remote gateway's advertised Connections
// grouped by type.
func (c *Client) GetRemoteConnectionState(ctx context.Context, name string) (map[connection.ConnectionType][]connection.Connection, error) {
	entry, err := c.RemoteGatewayInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make(map[connection.ConnectionType][]connection.Connection)
	for _, conn := range entry.PublicInterface {
		out[conn.Type] = append(out[conn.Type], conn)
	}
	return out, nil
}

// GetRemoteGatewayFirewallFlag returns whether a remote gateway refuses
// inbound flips.
func (c *Client) GetRemoteGatewayFirewallFlag(ctx context.Context, name string) (bool, error) {
	present, err := c.kv.SIsMember(ctx, gatewaylistKey, []byte(gatewayMember(name)))
	if err != nil {
		return false, hubErr(err)
	}
	if !present {
		return false, gatewayerrors.ErrGatewayUnavailable
	}
	b, err := c.kv.Get(ctx, field(name, fieldFirewall))
	if err != nil {
		return false, gatewayerrors.ErrGatewayUnavailable
	}
	return string(b) == "1", nil
}

// LocalAdvertisements reads this gateway's own advertisements back from the
// hub, used by the engine to reconcile the public interface when it is
// connected to more than one hub (§11 supplemented feature).
func (c *Client) LocalAdvertisements(ctx context.Context) ([]connection.Connection, error) {
	c.mu.Lock()
	name := c.uniqueName
	c.mu.Unlock()
	members, err := c.kv.SMembers(ctx, field(name, fieldAdvertisements))
	if err != nil {
		return nil, hubErr(err)
	}
	out := make([]connection.Connection, 0, len(members))
	for _, m := range members {
		conn, err := connection.Deserialize(m)
		if err != nil {
			continue
		}
		out = append(out, conn)
	}
	return out, nil
}

// PublishNetworkStatistics writes latency and wireless quality fields and
// always refreshes the :ping keepalive key (§4.2).
func (c *Client) PublishNetworkStatistics(ctx context.Context, stats NetworkStatistics) error {
	c.mu.Lock()
	name := c.uniqueName
	c.mu.Unlock()

	writes := map[string]string{
		fieldLatencyMin:       strconv.FormatFloat(stats.Latency.Min, 'f', -1, 64),
		fieldLatencyAvg:       strconv.FormatFloat(stats.Latency.Avg, 'f', -1, 64),
		fieldLatencyMax:       strconv.FormatFloat(stats.Latency.Max, 'f', -1, 64),
		fieldLatencyMdev:      strconv.FormatFloat(stats.Latency.Mdev, 'f', -1, 64),
		fieldNetInfoAvailable: strconv.FormatBool(stats.Wireless.InfoAvailable),
		fieldNetType:          stats.Wireless.NetworkType,
		fieldWirelessBitrate:  strconv.FormatFloat(stats.Wireless.Bitrate, 'f', -1, 64),
		fieldWirelessQuality:  strconv.FormatFloat(stats.Wireless.Quality, 'f', -1, 64),
		fieldWirelessSignal:   strconv.FormatFloat(stats.Wireless.SignalLevel, 'f', -1, 64),
		fieldWirelessNoise:    strconv.FormatFloat(stats.Wireless.NoiseLevel, 'f', -1, 64),
	}
	for suffix, value := range writes {
		if err := c.kv.Set(ctx, field(name, suffix), []byte(value)); err != nil {
			return hubErr(err)
		}
	}
	return c.refreshPing(ctx, name)
}

func (c *Client) refreshPing(ctx context.Context, name string) error {
	if err := c.kv.Set(ctx, pingKey(name), []byte("1")); err != nil {
		return hubErr(err)
	}
	if err := c.kv.Expire(ctx, pingKey(name), MaxTTL); err != nil {
		return hubErr(err)
	}
	return nil
}

// SendFlipRequest encrypts conn to remote's public key and posts a pending
// flip_in entry, per §4.2's flip protocol. It polls for the remote's
// public_key until it appears or timeout elapses.
func (c *Client) SendFlipRequest(ctx context.Context, remote string, conn connection.Connection, timeout time.Duration) error {
	ctx, span := otel.Tracer("gateway").Start(ctx, "hubclient.SendFlipRequest",
		trace.WithAttributes(attribute.String("remote", remote), attribute.String("connection", conn.Name)))
	defer span.End()

	c.mu.Lock()
	self := c.uniqueName
	c.mu.Unlock()

	deadline := time.Now().Add(timeout)
	var pubPEM []byte
	for {
		b, err := c.kv.Get(ctx, field(remote, fieldPublicKey))
		if err == nil && len(b) > 0 {
			pubPEM = b
			break
		}
		if time.Now().After(deadline) {
			return gatewayerrors.ErrPublicKeyTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(publicKeyPollInterval):
		}
	}

	pub, err := unmarshalPublicKey(pubPEM)
	if err != nil {
		return fmt.Errorf("remote %s public key invalid: %w", remote, err)
	}
	enc, err := encryptConnection(conn, pub)
	if err != nil {
		return err
	}
	entry := connection.FlipInEntry{
		Status:              connection.FlipPending,
		SourceGateway:       self,
		EncryptedConnection: enc,
	}
	data, err := connection.SerializeFlipIn(entry)
	if err != nil {
		return err
	}
	if err := c.kv.SAdd(ctx, field(remote, fieldFlipIns), data); err != nil {
		return hubErr(err)
	}
	return nil
}

// SendUnflipRequest removes any flip_in entry we previously posted at remote
// whose cleartext (type, name, node) matches rule.
func (c *Client) SendUnflipRequest(ctx context.Context, remote string, rule connection.Rule) error {
	c.mu.Lock()
	self := c.uniqueName
	c.mu.Unlock()

	members, err := c.kv.SMembers(ctx, field(remote, fieldFlipIns))
	if err != nil {
		return hubErr(err)
	}
	for _, m := range members {
		entry, err := connection.DeserializeFlipIn(m)
		if err != nil {
			continue
		}
		if entry.SourceGateway != self {
			continue
		}
		cleartext := connection.Connection{
			Type:    entry.EncryptedConnection.Type,
			Name:    entry.EncryptedConnection.Name,
			NodeURI: entry.EncryptedConnection.NodeURI,
		}
		ok, err := rule.Matches(cleartext)
		if err != nil {
			return err
		}
		if ok {
			if err := c.kv.SRem(ctx, field(remote, fieldFlipIns), m); err != nil {
				return hubErr(err)
			}
		}
	}
	return nil
}

// GetUnblockedFlippedInConnections reads this gateway's own flip_ins,
// filters out blocked offers, and decrypts the rest with our private key.
func (c *Client) GetUnblockedFlippedInConnections(ctx context.Context) ([]FlipOffer, error) {
	c.mu.Lock()
	self := c.uniqueName
	priv := c.privateKey
	c.mu.Unlock()

	members, err := c.kv.SMembers(ctx, field(self, fieldFlipIns))
	if err != nil {
		return nil, hubErr(err)
	}
	out := make([]FlipOffer, 0, len(members))
	for _, m := range members {
		entry, err := connection.DeserializeFlipIn(m)
		if err != nil {
			slog.Warn("hubclient: dropping malformed flip_in", "gateway", self, "error", err)
			continue
		}
		if entry.Status == connection.FlipBlocked {
			continue
		}
		dec, err := decryptConnection(entry.EncryptedConnection, priv)
		if err != nil {
			slog.Warn("hubclient: could not decrypt flip_in", "gateway", self, "source", entry.SourceGateway, "error", err)
			continue
		}
		out = append(out, FlipOffer{Source: entry.SourceGateway, Connection: dec})
	}
	return out, nil
}

// UpdateFlipRequestStatus locates the flip_in entry from source describing
// conn, removes it, and re-adds it under the new status. The entry is
// re-encrypted to our own public key on every rewrite: we are the only
// reader of our own flip_ins, so this is a storage convention, not an
// exchange with anyone else (see the Open Question this resolves in
// DESIGN.md). Returns whether a matching entry was found.
func (c *Client) UpdateFlipRequestStatus(ctx context.Context, source string, conn connection.Connection, status connection.FlipStatus) (bool, error) {
	c.mu.Lock()
	self := c.uniqueName
	priv := c.privateKey
	c.mu.Unlock()

	members, err := c.kv.SMembers(ctx, field(self, fieldFlipIns))
	if err != nil {
		return false, hubErr(err)
	}
	for _, m := range members {
		entry, err := connection.DeserializeFlipIn(m)
		if err != nil {
			continue
		}
		if entry.SourceGateway != source {
			continue
		}
		dec, err := decryptConnection(entry.EncryptedConnection, priv)
		if err != nil {
			continue
		}
		if dec.Type != conn.Type || dec.Name != conn.Name || dec.NodeURI != conn.NodeURI {
			continue
		}

		if err := c.kv.SRem(ctx, field(self, fieldFlipIns), m); err != nil {
			return false, hubErr(err)
		}
		reEnc, err := encryptConnection(dec, &priv.PublicKey)
		if err != nil {
			return false, err
		}
		newEntry := connection.FlipInEntry{Status: status, SourceGateway: source, EncryptedConnection: reEnc}
		data, err := connection.SerializeFlipIn(newEntry)
		if err != nil {
			return false, err
		}
		if err := c.kv.SAdd(ctx, field(self, fieldFlipIns), data); err != nil {
			return false, hubErr(err)
		}
		return true, nil
	}
	return false, nil
}

// Close releases this Client's KV/PubSub resources without touching the
// hub's directory state (use UnregisterGateway first for a clean leave).
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub != nil {
		_ = c.sub.Close()
	}
	kvErr := c.kv.Close()
	psErr := c.ps.Close()
	if kvErr != nil {
		return kvErr
	}
	return psErr
}

func hubErr(err error) error {
	return fmt.Errorf("%w: %v", gatewayerrors.ErrHubConnectionLost, err)
}
