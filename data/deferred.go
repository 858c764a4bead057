// Package data implements the deferred payload container: a two-state
// holder that lets expensive payloads (blocks, headers, proofs) arrive
// off the wire as opaque bytes and be decoded lazily, off the network
// reactor's goroutine, the way github.com/ethereum/go-ethereum/rlp.RawValue
// lets eth/66 handlers defer re-encoding of already-RLP-encoded bodies.
package data

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/aleonet/snarkos-network/workerpool"
)

// Deferred holds a payload of type T that is either already decoded, or
// still sitting in its encoded form. A Deferred created from a buffer is
// observable as a decoded T only through DecodeBlocking/DecodeAsync, and the
// buffer is retained verbatim until a caller asks for the object form.
type Deferred[T any] struct {
	object T
	buffer []byte
	// decoded distinguishes a zero-value object (buffer == nil, object
	// is T's zero value) from the encoded-empty-buffer case.
	decoded bool
}

// FromObject wraps an already-decoded value.
func FromObject[T any](v T) Deferred[T] {
	return Deferred[T]{object: v, decoded: true}
}

// FromBuffer wraps an opaque buffer purported to be the RLP encoding of
// T. The buffer is not copied; callers must not mutate it afterwards.
func FromBuffer[T any](buf []byte) Deferred[T] {
	return Deferred[T]{buffer: buf}
}

// IsDecoded reports whether the container already holds an in-memory
// object, as opposed to an undecoded buffer.
func (d Deferred[T]) IsDecoded() bool {
	return d.decoded
}

// Buffer returns the raw encoded bytes, if this Deferred was constructed
// from a buffer and never decoded. It returns false for object-backed
// containers, since those have no canonical encoded form until encoded.
func (d Deferred[T]) Buffer() ([]byte, bool) {
	if d.decoded {
		return nil, false
	}
	return d.buffer, true
}

// DecodeBlocking returns the owned value, deserializing synchronously if
// the container is still encoded.
func (d Deferred[T]) DecodeBlocking() (T, error) {
	if d.decoded {
		return d.object, nil
	}
	var v T
	if err := rlp.DecodeBytes(d.buffer, &v); err != nil {
		return v, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

// DecodeAsync returns the same result as DecodeBlocking, but for an
// encoded container it dispatches the deserialization onto pool so the
// caller's goroutine (typically the network reactor) is never blocked
// on CPU-bound work. It surfaces a "dedicated deserialization failed"
// error if the worker cannot be scheduled or panics.
func (d Deferred[T]) DecodeAsync(ctx context.Context, pool *workerpool.Pool) (T, error) {
	if d.decoded {
		return d.object, nil
	}

	type result struct {
		v   T
		err error
	}
	out := make(chan result, 1)

	job := func() {
		defer func() {
			if r := recover(); r != nil {
				out <- result{err: fmt.Errorf("dedicated deserialization failed: %v", r)}
			}
		}()
		var v T
		err := rlp.DecodeBytes(d.buffer, &v)
		out <- result{v: v, err: err}
	}

	if err := pool.Submit(job); err != nil {
		var zero T
		return zero, fmt.Errorf("dedicated deserialization failed: %w", err)
	}

	select {
	case r := <-out:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// EncodeInto writes the serialized form of the payload to w: for an
// object-backed container this performs the RLP encoding, for a
// buffer-backed container it writes the held buffer verbatim, making
// encode(decode(bytes)) bit-identical to bytes.
func (d Deferred[T]) EncodeInto(w io.Writer) error {
	if !d.decoded {
		_, err := w.Write(d.buffer)
		return err
	}
	if err := rlp.Encode(w, d.object); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return nil
}

// EncodeAsync returns the serialized bytes, dispatching the
// serialization of an object-backed container onto pool. Buffer-backed
// containers return their held buffer directly, without touching the
// pool.
func (d Deferred[T]) EncodeAsync(ctx context.Context, pool *workerpool.Pool) ([]byte, error) {
	if !d.decoded {
		return d.buffer, nil
	}

	type result struct {
		b   []byte
		err error
	}
	out := make(chan result, 1)

	job := func() {
		defer func() {
			if r := recover(); r != nil {
				out <- result{err: fmt.Errorf("dedicated serialization failed: %v", r)}
			}
		}()
		b, err := rlp.EncodeToBytes(d.object)
		out <- result{b: b, err: err}
	}

	if err := pool.Submit(job); err != nil {
		return nil, fmt.Errorf("dedicated serialization failed: %w", err)
	}

	select {
	case r := <-out:
		return r.b, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
