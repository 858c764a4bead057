// Package wire implements the message taxonomy and its binary codec:
// the fifteen variants of spec.md §3 and the length-delimited framing
// of spec.md §4.2.
package wire

import (
	"net/netip"

	"github.com/aleonet/snarkos-network/chain"
	"github.com/aleonet/snarkos-network/data"
	"github.com/aleonet/snarkos-network/nodetype"
	"github.com/aleonet/snarkos-network/status"
)

// Message is implemented by every wire variant. Concrete types are kept
// as plain structs rather than a single sum type switching on an
// interface{} payload, the same way the eth and snap subprotocols in
// go-ethereum model each packet as its own type rather than a giant
// enum.
type Message interface {
	// ID returns the variant's wire identifier.
	ID() ID
}

// ForkState is Pong's tri-state fork indicator. The reference encoding
// is intentionally asymmetric with a typical boolean (None -> 0,
// Some(true) -> 1, Some(false) -> 2); this is preserved verbatim per
// spec.md §9's open question, for continuity with the protocol it
// describes.
type ForkState uint8

const (
	ForkUnknown ForkState = iota
	ForkYes
	ForkNo
)

// BlockRequest requests blocks in the inclusive height range
// [StartHeight, EndHeight].
type BlockRequest struct {
	StartHeight uint32
	EndHeight   uint32
}

func (BlockRequest) ID() ID { return BlockRequestID }

// BlockResponse carries a single requested block.
type BlockResponse struct {
	Block data.Deferred[chain.Block]
}

func (BlockResponse) ID() ID { return BlockResponseID }

// ChallengeRequest is the first message sent when establishing a
// connection, advertising the sender's protocol version and chain
// state.
type ChallengeRequest struct {
	Version          uint32
	ForkDepth        uint32
	NodeType         nodetype.NodeType
	Status           status.State
	ListenerPort     uint16
	Nonce            uint64
	CumulativeWeight [16]byte // little-endian u128
}

func (ChallengeRequest) ID() ID { return ChallengeRequestID }

// ChallengeResponse answers a ChallengeRequest with the sender's
// current block header.
type ChallengeResponse struct {
	Header data.Deferred[chain.BlockHeader]
}

func (ChallengeResponse) ID() ID { return ChallengeResponseID }

// Disconnect announces an intentional disconnection. It carries no
// payload.
type Disconnect struct{}

func (Disconnect) ID() ID { return DisconnectID }

// PeerRequest asks a peer to share its known peer addresses. It
// carries no payload.
type PeerRequest struct{}

func (PeerRequest) ID() ID { return PeerRequestID }

// PeerResponse answers a PeerRequest with an ordered list of peer
// addresses.
type PeerResponse struct {
	Peers []netip.AddrPort
}

func (PeerResponse) ID() ID { return PeerResponseID }

// Ping is sent periodically to a connected peer to exchange liveness
// and chain-state information.
type Ping struct {
	Version   uint32
	ForkDepth uint32
	NodeType  nodetype.NodeType
	Status    status.State
	BlockHash chain.Hash
	Header    data.Deferred[chain.BlockHeader]
}

func (Ping) ID() ID { return PingID }

// Pong answers a Ping, reporting whether the sender believes it is on
// a fork and attaching its block locators.
type Pong struct {
	IsFork   ForkState
	Locators data.Deferred[chain.BlockLocators]
}

func (Pong) ID() ID { return PongID }

// UnconfirmedBlock announces a newly produced block that has not yet
// been confirmed by the network.
type UnconfirmedBlock struct {
	Height    uint32
	BlockHash chain.Hash
	Block     data.Deferred[chain.Block]
}

func (UnconfirmedBlock) ID() ID { return UnconfirmedBlockID }

// UnconfirmedTransaction announces a transaction that has not yet been
// included in a block.
type UnconfirmedTransaction struct {
	Transaction chain.Transaction
}

func (UnconfirmedTransaction) ID() ID { return UnconfirmedTransactionID }

// PoolRegister registers a worker's payout address with a pool
// operator.
type PoolRegister struct {
	Address chain.Address
}

func (PoolRegister) ID() ID { return PoolRegisterID }

// PoolRequest hands a worker a block template to prove against, along
// with the reduced difficulty the pool expects of its shares.
type PoolRequest struct {
	ShareDifficulty uint64
	Template        data.Deferred[chain.BlockTemplate]
}

func (PoolRequest) ID() ID { return PoolRequestID }

// PoolResponse returns a worker's completed proof of succinct work.
type PoolResponse struct {
	Address chain.Address
	Nonce   chain.PoSWNonce
	Proof   data.Deferred[chain.PoSWProof]
}

func (PoolResponse) ID() ID { return PoolResponseID }

// Unused is a reserved sentinel variant. It carries no payload.
type Unused struct{}

func (Unused) ID() ID { return UnusedID }
