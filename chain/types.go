package chain

// Hash is a 32-byte content hash, used for block hashes, transaction ids
// and transactions roots. It is fixed-size so it can be copied into and out of message
// frames without a length prefix.
type Hash [32]byte

// Address is a placeholder for an account/miner address. The real type
// carries curve points and view keys; only its fixed wire width matters
// here.
type Address [32]byte

// PoSWNonce accompanies a PoolResponse's proof of succinct work.
type PoSWNonce [32]byte

// Block is a placeholder for a full block: enough structure to be a
// realistic RLP payload without pulling in consensus or proof code.
type Block struct {
	Height       uint32
	PreviousHash Hash
	Header       BlockHeader
	Transactions []Transaction
}

// BlockHeader is a placeholder for a block header.
type BlockHeader struct {
	PreviousHash      Hash
	TransactionsRoot  Hash
	Height            uint32
	Timestamp         uint64
	CumulativeWeight  []byte // big.Int-sized weight, kept opaque here
}

// Transaction is a placeholder for a confirmed or unconfirmed
// transaction.
type Transaction struct {
	ID      Hash
	Payload []byte
}

// Locator pairs a block height with its hash, one entry of a sparse
// ancestor index.
type Locator struct {
	Height uint32
	Hash   Hash
}

// BlockLocators is a sparse index of ancestor block hashes, used to find
// the last common ancestor with a peer during Pong/fork reconciliation.
// Entries thin out towards the genesis block the way a real locator set
// would; RLP has no native map type, so the index is carried as an
// ordered slice rather than map[uint32]Hash.
type BlockLocators struct {
	Locators []Locator
}

// BlockTemplate is a placeholder for the work a mining pool hands out to
// its workers.
type BlockTemplate struct {
	PreviousHash     Hash
	Height           uint32
	Difficulty       uint64
	TransactionsRoot Hash
}

// PoSWProof is a placeholder for a proof of succinct work.
type PoSWProof struct {
	ProofBytes []byte
}
