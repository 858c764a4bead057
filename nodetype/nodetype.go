// Package nodetype defines the role a node advertises to its peers
// during the handshake.
package nodetype

// NodeType enumerates the roles a node can run as. Ping and
// ChallengeRequest wire-encode it as a little-endian uint32.
type NodeType uint8

const (
	// Client is a standard full node that does not mine or prove.
	Client NodeType = iota
	// Miner crafts and proposes new blocks.
	Miner
	// Beacon is a well-known, highly available bootstrap node. No
	// preset currently ships a non-empty beacon list; the role still
	// exists because peers may advertise it at runtime.
	Beacon
	// Sync specializes in serving historical blocks to catching-up
	// peers.
	Sync
	// Operator runs a mining pool, fanning out PoolRequest/PoolResponse
	// traffic to many provers.
	Operator
	// Prover performs proof-of-succinct-work for a pool operator.
	Prover
)

// String implements fmt.Stringer.
func (t NodeType) String() string {
	switch t {
	case Client:
		return "Client"
	case Miner:
		return "Miner"
	case Beacon:
		return "Beacon"
	case Sync:
		return "Sync"
	case Operator:
		return "Operator"
	case Prover:
		return "Prover"
	default:
		return "Unknown"
	}
}
