package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/aleonet/snarkos-network/chain"
	"github.com/aleonet/snarkos-network/data"
	"github.com/aleonet/snarkos-network/nodetype"
	"github.com/aleonet/snarkos-network/status"
)

// idHeaderSize is the length of the little-endian id prefix within a
// frame's payload.
const idHeaderSize = 2

// lengthHeaderSize is the length of the little-endian payload-length
// prefix at the start of every frame.
const lengthHeaderSize = 4

// Encode writes msg's frame — the 4-byte length prefix, the 2-byte id,
// and the variant-specific payload — into a single byte slice.
func Encode(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(make([]byte, lengthHeaderSize))

	var idBytes [idHeaderSize]byte
	binary.LittleEndian.PutUint16(idBytes[:], uint16(msg.ID()))
	buf.Write(idBytes[:])

	if err := encodeData(&buf, msg); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[:lengthHeaderSize], uint32(len(out)-lengthHeaderSize))
	return out, nil
}

// Decoder decodes frames off a growing byte buffer, returning at most
// one message per call to Decode. It holds no connection state beyond
// the size ceiling, so it is safe to share a Decoder across
// connections (each connection should still own its own buffer).
type Decoder struct {
	// MaxMessageSize bounds the declared payload length, rejecting
	// oversized frames before the payload region is ever read.
	MaxMessageSize int
}

// NewDecoder returns a Decoder enforcing maxMessageSize.
func NewDecoder(maxMessageSize int) *Decoder {
	return &Decoder{MaxMessageSize: maxMessageSize}
}

// Decode attempts to pull one message out of buf. It returns (nil, nil)
// when buf does not yet hold a complete frame — the caller should read
// more bytes and retry. On ErrFrameTooLarge, buf is left untouched (the
// reference decoder never advances past a frame it refuses to
// allocate). On any other error, the offending frame is still consumed
// from buf, matching the reference decoder's "advance regardless of
// decode outcome" behavior for frames that did arrive in full.
func (d *Decoder) Decode(buf *bytes.Buffer) (Message, error) {
	b := buf.Bytes()
	if len(b) < lengthHeaderSize {
		return nil, nil
	}

	length := int(binary.LittleEndian.Uint32(b[:lengthHeaderSize]))
	if length > d.MaxMessageSize {
		return nil, ErrFrameTooLarge
	}

	if len(b) < lengthHeaderSize+length {
		return nil, nil
	}

	payload := b[lengthHeaderSize : lengthHeaderSize+length]
	msg, err := decodeFrame(payload)
	buf.Next(lengthHeaderSize + length)
	return msg, err
}

// decodeFrame parses a single frame's payload (id + variant data) into
// a Message.
func decodeFrame(payload []byte) (Message, error) {
	if len(payload) < idHeaderSize {
		return nil, fmt.Errorf("%w: payload shorter than id header", ErrInvalidMessage)
	}
	id := ID(binary.LittleEndian.Uint16(payload[:idHeaderSize]))
	return decodeData(id, payload[idHeaderSize:])
}

func encodeData(buf *bytes.Buffer, msg Message) error {
	switch m := msg.(type) {
	case BlockRequest:
		var b [8]byte
		binary.LittleEndian.PutUint32(b[0:4], m.StartHeight)
		binary.LittleEndian.PutUint32(b[4:8], m.EndHeight)
		buf.Write(b[:])
		return nil

	case BlockResponse:
		return m.Block.EncodeInto(buf)

	case ChallengeRequest:
		return encodeChallengeRequest(buf, m)

	case ChallengeResponse:
		return m.Header.EncodeInto(buf)

	case Disconnect:
		return nil

	case PeerRequest:
		return nil

	case PeerResponse:
		return encodePeerResponse(buf, m)

	case Ping:
		return encodePing(buf, m)

	case Pong:
		return encodePong(buf, m)

	case UnconfirmedBlock:
		return encodeUnconfirmedBlock(buf, m)

	case UnconfirmedTransaction:
		return rlp.Encode(buf, m.Transaction)

	case PoolRegister:
		buf.Write(m.Address[:])
		return nil

	case PoolRequest:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], m.ShareDifficulty)
		buf.Write(b[:])
		return m.Template.EncodeInto(buf)

	case PoolResponse:
		buf.Write(m.Address[:])
		buf.Write(m.Nonce[:])
		return m.Proof.EncodeInto(buf)

	case Unused:
		return nil

	default:
		return fmt.Errorf("wire: unknown message type %T", msg)
	}
}

func decodeData(id ID, payload []byte) (Message, error) {
	switch id {
	case BlockRequestID:
		if len(payload) != 8 {
			return nil, fmt.Errorf("%w: BlockRequest wants 8 bytes, got %d", ErrInvalidMessage, len(payload))
		}
		return BlockRequest{
			StartHeight: binary.LittleEndian.Uint32(payload[0:4]),
			EndHeight:   binary.LittleEndian.Uint32(payload[4:8]),
		}, nil

	case BlockResponseID:
		return BlockResponse{Block: data.FromBuffer[chain.Block](clone(payload))}, nil

	case ChallengeRequestID:
		return decodeChallengeRequest(payload)

	case ChallengeResponseID:
		return ChallengeResponse{Header: data.FromBuffer[chain.BlockHeader](clone(payload))}, nil

	case DisconnectID:
		if len(payload) != 0 {
			return nil, fmt.Errorf("%w: Disconnect carries no payload, got %d bytes", ErrInvalidMessage, len(payload))
		}
		return Disconnect{}, nil

	case PeerRequestID:
		if len(payload) != 0 {
			return nil, fmt.Errorf("%w: PeerRequest carries no payload, got %d bytes", ErrInvalidMessage, len(payload))
		}
		return PeerRequest{}, nil

	case PeerResponseID:
		return decodePeerResponse(payload)

	case PingID:
		return decodePing(payload)

	case PongID:
		return decodePong(payload)

	case UnconfirmedBlockID:
		return decodeUnconfirmedBlock(payload)

	case UnconfirmedTransactionID:
		var tx chain.Transaction
		if err := rlp.DecodeBytes(payload, &tx); err != nil {
			return nil, fmt.Errorf("%w: UnconfirmedTransaction: %v", ErrInvalidMessage, err)
		}
		return UnconfirmedTransaction{Transaction: tx}, nil

	case PoolRegisterID:
		if len(payload) != 32 {
			return nil, fmt.Errorf("%w: PoolRegister wants 32 bytes, got %d", ErrInvalidMessage, len(payload))
		}
		var addr chain.Address
		copy(addr[:], payload)
		return PoolRegister{Address: addr}, nil

	case PoolRequestID:
		if len(payload) < 8 {
			return nil, fmt.Errorf("%w: PoolRequest wants at least 8 bytes, got %d", ErrInvalidMessage, len(payload))
		}
		return PoolRequest{
			ShareDifficulty: binary.LittleEndian.Uint64(payload[0:8]),
			Template:        data.FromBuffer[chain.BlockTemplate](clone(payload[8:])),
		}, nil

	case PoolResponseID:
		return decodePoolResponse(payload)

	default:
		// Covers the reserved Unused id (14) and any id >= 15: the
		// reference decoder's deserialize match has no arm for 14
		// either, so it falls through to the same "invalid id" error
		// as a genuinely unknown id.
		return nil, fmt.Errorf("%w: unknown message id %d", ErrInvalidMessage, id)
	}
}

func encodeChallengeRequest(buf *bytes.Buffer, m ChallengeRequest) error {
	var b [42]byte
	binary.LittleEndian.PutUint32(b[0:4], m.Version)
	binary.LittleEndian.PutUint32(b[4:8], m.ForkDepth)
	binary.LittleEndian.PutUint32(b[8:12], uint32(m.NodeType))
	binary.LittleEndian.PutUint32(b[12:16], uint32(m.Status))
	binary.LittleEndian.PutUint16(b[16:18], m.ListenerPort)
	binary.LittleEndian.PutUint64(b[18:26], m.Nonce)
	copy(b[26:42], m.CumulativeWeight[:])
	buf.Write(b[:])
	return nil
}

func decodeChallengeRequest(payload []byte) (Message, error) {
	if len(payload) != 42 {
		return nil, fmt.Errorf("%w: ChallengeRequest wants 42 bytes, got %d", ErrInvalidMessage, len(payload))
	}
	m := ChallengeRequest{
		Version:      binary.LittleEndian.Uint32(payload[0:4]),
		ForkDepth:    binary.LittleEndian.Uint32(payload[4:8]),
		NodeType:     nodetype.NodeType(binary.LittleEndian.Uint32(payload[8:12])),
		Status:       status.State(binary.LittleEndian.Uint32(payload[12:16])),
		ListenerPort: binary.LittleEndian.Uint16(payload[16:18]),
		Nonce:        binary.LittleEndian.Uint64(payload[18:26]),
	}
	copy(m.CumulativeWeight[:], payload[26:42])
	return m, nil
}

func encodePeerResponse(buf *bytes.Buffer, m PeerResponse) error {
	addrs := make([]string, len(m.Peers))
	for i, p := range m.Peers {
		addrs[i] = p.String()
	}
	return rlp.Encode(buf, addrs)
}

func decodePeerResponse(payload []byte) (Message, error) {
	var addrs []string
	if err := rlp.DecodeBytes(payload, &addrs); err != nil {
		return nil, fmt.Errorf("%w: PeerResponse: %v", ErrInvalidMessage, err)
	}
	peers := make([]netip.AddrPort, len(addrs))
	for i, a := range addrs {
		ap, err := netip.ParseAddrPort(a)
		if err != nil {
			return nil, fmt.Errorf("%w: PeerResponse entry %q: %v", ErrInvalidMessage, a, err)
		}
		peers[i] = ap
	}
	return PeerResponse{Peers: peers}, nil
}

// pingPrefixSize is the eager prefix of a Ping message: version(4) +
// fork_depth(4) + node_type(4) + status(4) + block_hash(32).
const pingPrefixSize = 48

func encodePing(buf *bytes.Buffer, m Ping) error {
	var b [pingPrefixSize]byte
	binary.LittleEndian.PutUint32(b[0:4], m.Version)
	binary.LittleEndian.PutUint32(b[4:8], m.ForkDepth)
	binary.LittleEndian.PutUint32(b[8:12], uint32(m.NodeType))
	binary.LittleEndian.PutUint32(b[12:16], uint32(m.Status))
	copy(b[16:48], m.BlockHash[:])
	buf.Write(b[:])
	return m.Header.EncodeInto(buf)
}

func decodePing(payload []byte) (Message, error) {
	if len(payload) < pingPrefixSize {
		return nil, fmt.Errorf("%w: Ping wants at least %d bytes, got %d", ErrInvalidMessage, pingPrefixSize, len(payload))
	}
	m := Ping{
		Version:   binary.LittleEndian.Uint32(payload[0:4]),
		ForkDepth: binary.LittleEndian.Uint32(payload[4:8]),
		NodeType:  nodetype.NodeType(binary.LittleEndian.Uint32(payload[8:12])),
		Status:    status.State(binary.LittleEndian.Uint32(payload[12:16])),
	}
	copy(m.BlockHash[:], payload[16:48])
	m.Header = data.FromBuffer[chain.BlockHeader](clone(payload[pingPrefixSize:]))
	return m, nil
}

func encodePong(buf *bytes.Buffer, m Pong) error {
	buf.WriteByte(byte(m.IsFork))
	return m.Locators.EncodeInto(buf)
}

func decodePong(payload []byte) (Message, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("%w: Pong wants at least 1 byte, got 0", ErrInvalidMessage)
	}
	switch payload[0] {
	case byte(ForkUnknown), byte(ForkYes), byte(ForkNo):
	default:
		return nil, fmt.Errorf("%w: Pong is-fork discriminant %d out of range", ErrInvalidMessage, payload[0])
	}
	return Pong{
		IsFork:   ForkState(payload[0]),
		Locators: data.FromBuffer[chain.BlockLocators](clone(payload[1:])),
	}, nil
}

func encodeUnconfirmedBlock(buf *bytes.Buffer, m UnconfirmedBlock) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], m.Height)
	buf.Write(b[:])
	buf.Write(m.BlockHash[:])
	return m.Block.EncodeInto(buf)
}

func decodeUnconfirmedBlock(payload []byte) (Message, error) {
	if len(payload) < 36 {
		return nil, fmt.Errorf("%w: UnconfirmedBlock wants at least 36 bytes, got %d", ErrInvalidMessage, len(payload))
	}
	m := UnconfirmedBlock{
		Height: binary.LittleEndian.Uint32(payload[0:4]),
	}
	copy(m.BlockHash[:], payload[4:36])
	m.Block = data.FromBuffer[chain.Block](clone(payload[36:]))
	return m, nil
}

func decodePoolResponse(payload []byte) (Message, error) {
	if len(payload) < 64 {
		return nil, fmt.Errorf("%w: PoolResponse wants at least 64 bytes, got %d", ErrInvalidMessage, len(payload))
	}
	var m PoolResponse
	copy(m.Address[:], payload[0:32])
	copy(m.Nonce[:], payload[32:64])
	m.Proof = data.FromBuffer[chain.PoSWProof](clone(payload[64:]))
	return m, nil
}

// clone copies b so a decoded Deferred buffer never aliases the
// connection's receive buffer, which is reused and overwritten as more
// frames arrive.
func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
