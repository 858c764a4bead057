// Package environment implements the role-parameterized policy object
// that spec.md calls the Environment: protocol constants, preset role
// tunings, and the process-wide singleton services every connection
// shares.
//
// Go has no associated-constants-on-trait mechanism to mirror the
// reference's compile-time trait generics, so — per spec.md §9's own
// design note — Config is a runtime struct carrying every constant as a
// field, generic only over the network parameter.
package environment

import (
	"fmt"
	"net/netip"

	"github.com/aleonet/snarkos-network/chain"
	"github.com/aleonet/snarkos-network/nodetype"
)

// Default protocol-wide constants (spec.md §4.3), shared by every
// preset unless a role explicitly overrides one.
const (
	DefaultMessageVersion          = 12
	DefaultHeartbeatInSecs         = 9
	DefaultConnectionTimeoutMillis = 500
	DefaultPingSleepInSecs         = 60
	DefaultRadioSilenceInSecs      = 210
	DefaultFailureExpiryTimeInSecs = 7200
	DefaultMaximumConnectionFailures = 3
	DefaultMaximumCandidatePeers   = 10_000
	DefaultMaximumMessageSize      = 128 * 1024 * 1024
	DefaultMaximumBlockRequest     = 250
	DefaultMaximumNumberOfFailures = 1024
)

func init() {
	if DefaultConnectionTimeoutMillis > DefaultHeartbeatInSecs*1000 {
		panic("environment: CONNECTION_TIMEOUT_IN_MILLIS must not exceed HEARTBEAT_IN_SECS*1000")
	}
}

// trialBootstrapPeers is the hard-coded bootstrap list embedded in every
// "Trial" preset (spec.md §6).
var trialBootstrapPeers = []string{
	"144.126.219.193:4132", "165.232.145.194:4132", "143.198.164.241:4132", "188.166.7.13:4132",
	"167.99.40.226:4132", "159.223.124.150:4132", "137.184.192.155:4132", "147.182.213.228:4132",
	"137.184.202.162:4132", "159.223.118.35:4132", "161.35.106.91:4132", "157.245.133.62:4132",
	"143.198.166.150:4132",
}

// defaultSyncNodes is the non-trial bootstrap sync node (spec.md §6).
var defaultSyncNodes = []string{"127.0.0.1:4135"}

// Config is the runtime form of the reference Environment trait: every
// protocol constant as a field, fixed at construction time by one of
// the preset constructors below.
type Config[N chain.Network] struct {
	Network N

	NodeType         nodetype.NodeType
	MessageVersion   uint32
	CoinbaseIsPublic bool

	BeaconNodes []string
	SyncNodes   []string

	HeartbeatInSecs           uint64
	ConnectionTimeoutMillis   uint64
	PingSleepInSecs           uint64
	RadioSilenceInSecs        uint64
	FailureExpiryTimeInSecs   uint64
	MinimumNumberOfPeers      int
	MaximumNumberOfPeers      int
	MaximumConnectionFailures uint32
	MaximumCandidatePeers     int
	MaximumMessageSize        int
	MaximumBlockRequest       uint32
	MaximumNumberOfFailures   int

	beaconNodes *addrSet
	syncNodes   *addrSet
}

// DefaultNodePort returns 4130 + the network's numeric id.
func (c *Config[N]) DefaultNodePort() uint16 {
	return 4130 + c.Network.ID()
}

// DefaultRPCPort returns 3030 + the network's numeric id.
func (c *Config[N]) DefaultRPCPort() uint16 {
	return 3030 + c.Network.ID()
}

// BeaconAddrs lazily parses and caches BeaconNodes as socket addresses.
// A malformed literal is a build-time-reviewable bug (the list is
// hard-coded in this package), so it panics on first access rather than
// threading a parse error through every caller.
func (c *Config[N]) BeaconAddrs() map[netip.AddrPort]struct{} {
	if c.beaconNodes == nil {
		c.beaconNodes = mustParseAddrSet(c.BeaconNodes)
	}
	return c.beaconNodes.m
}

// SyncAddrs lazily parses and caches SyncNodes as socket addresses.
func (c *Config[N]) SyncAddrs() map[netip.AddrPort]struct{} {
	if c.syncNodes == nil {
		c.syncNodes = mustParseAddrSet(c.SyncNodes)
	}
	return c.syncNodes.m
}

type addrSet struct {
	m map[netip.AddrPort]struct{}
}

func mustParseAddrSet(literals []string) *addrSet {
	m := make(map[netip.AddrPort]struct{}, len(literals))
	for _, lit := range literals {
		ap, err := netip.ParseAddrPort(lit)
		if err != nil {
			panic(fmt.Sprintf("environment: malformed bootstrap address %q: %v", lit, err))
		}
		m[ap] = struct{}{}
	}
	return &addrSet{m: m}
}

func base[N chain.Network](network N, nt nodetype.NodeType) *Config[N] {
	return &Config[N]{
		Network:          network,
		NodeType:         nt,
		MessageVersion:   DefaultMessageVersion,
		CoinbaseIsPublic: false,

		BeaconNodes: nil,
		SyncNodes:   append([]string(nil), defaultSyncNodes...),

		HeartbeatInSecs:           DefaultHeartbeatInSecs,
		ConnectionTimeoutMillis:   DefaultConnectionTimeoutMillis,
		PingSleepInSecs:           DefaultPingSleepInSecs,
		RadioSilenceInSecs:        DefaultRadioSilenceInSecs,
		FailureExpiryTimeInSecs:   DefaultFailureExpiryTimeInSecs,
		MaximumConnectionFailures: DefaultMaximumConnectionFailures,
		MaximumCandidatePeers:     DefaultMaximumCandidatePeers,
		MaximumMessageSize:        DefaultMaximumMessageSize,
		MaximumBlockRequest:       DefaultMaximumBlockRequest,
		MaximumNumberOfFailures:   DefaultMaximumNumberOfFailures,
	}
}

func trial[N chain.Network](network N, nt nodetype.NodeType) *Config[N] {
	c := base(network, nt)
	c.SyncNodes = append([]string(nil), trialBootstrapPeers...)
	return c
}

// NewClient returns the Client preset: a standard full node.
func NewClient[N chain.Network](network N) *Config[N] {
	c := base(network, nodetype.Client)
	c.MinimumNumberOfPeers = 2
	c.MaximumNumberOfPeers = 21
	return c
}

// NewMiner returns the Miner preset.
func NewMiner[N chain.Network](network N) *Config[N] {
	c := base(network, nodetype.Miner)
	c.CoinbaseIsPublic = true
	c.MinimumNumberOfPeers = 1
	c.MaximumNumberOfPeers = 21
	return c
}

// NewOperator returns the Operator preset: a mining pool operator with
// a large fan-in of workers.
func NewOperator[N chain.Network](network N) *Config[N] {
	c := base(network, nodetype.Operator)
	c.CoinbaseIsPublic = true
	c.MinimumNumberOfPeers = 1
	c.MaximumNumberOfPeers = 1000
	return c
}

// NewProver returns the Prover preset.
func NewProver[N chain.Network](network N) *Config[N] {
	c := base(network, nodetype.Prover)
	c.CoinbaseIsPublic = true
	c.MinimumNumberOfPeers = 1
	c.MaximumNumberOfPeers = 21
	return c
}

// NewSyncNode returns the SyncNode preset: a faster heartbeat and a
// much larger peer ceiling, for serving historical blocks at scale.
func NewSyncNode[N chain.Network](network N) *Config[N] {
	c := base(network, nodetype.Sync)
	c.MinimumNumberOfPeers = 35
	c.MaximumNumberOfPeers = 1024
	c.HeartbeatInSecs = 5
	return c
}

// NewClientTrial returns the ClientTrial preset, bootstrapped from the
// hard-coded trial peer list.
func NewClientTrial[N chain.Network](network N) *Config[N] {
	c := trial(network, nodetype.Client)
	c.MinimumNumberOfPeers = 11
	c.MaximumNumberOfPeers = 31
	return c
}

// NewMinerTrial returns the MinerTrial preset.
func NewMinerTrial[N chain.Network](network N) *Config[N] {
	c := trial(network, nodetype.Miner)
	c.CoinbaseIsPublic = true
	c.MinimumNumberOfPeers = 11
	c.MaximumNumberOfPeers = 21
	return c
}

// NewOperatorTrial returns the OperatorTrial preset.
func NewOperatorTrial[N chain.Network](network N) *Config[N] {
	c := trial(network, nodetype.Operator)
	c.CoinbaseIsPublic = true
	c.MinimumNumberOfPeers = 11
	c.MaximumNumberOfPeers = 1000
	return c
}

// NewProverTrial returns the ProverTrial preset.
func NewProverTrial[N chain.Network](network N) *Config[N] {
	c := trial(network, nodetype.Prover)
	c.CoinbaseIsPublic = true
	c.MinimumNumberOfPeers = 11
	c.MaximumNumberOfPeers = 21
	return c
}
