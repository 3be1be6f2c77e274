// Copyright 2023 The Go Authors. All rights reserved.  Use of this source code
// is governed by a BSD-style license that can be found at
// https://go.googlesource.com/go/+/refs/heads/master/LICENSE.

package mipsrt

import (
	"math/bits"
)

// A RandomStream produces the integers behind the guest's random services.
// Streams are only used with the runtime lock held.
type RandomStream interface {
	Int31() int32
}

// streams maps guest stream ids to generators. Ids without a registered
// stream share the default one.
type streams struct {
	def  RandomStream
	byID map[int32]RandomStream
}

func newStreams(def RandomStream) *streams {
	return &streams{
		def:  def,
		byID: make(map[int32]RandomStream),
	}
}

func (s *streams) get(id int32) RandomStream {
	if r, ok := s.byID[id]; ok {
		return r
	}
	return s.def
}

func (s *streams) set(id int32, r RandomStream) {
	if r == nil {
		delete(s.byID, id)
		return
	}
	s.byID[id] = r
}

// fastStream is a wyrand-style generator: one 64-bit word of state, a
// 128-bit multiply per draw.
type fastStream struct {
	state uint64
}

// NewFastStream returns a fast 64-bit generator. Its outputs are
// non-negative like the C library's but follow a different sequence.
func NewFastStream(seed uint64) RandomStream {
	return &fastStream{state: seed}
}

func (f *fastStream) fastrand64() uint64 {
	f.state += 0xa0761d6478bd642f
	hi, lo := bits.Mul64(f.state, f.state^0xe7037ed1a0b428db)
	return hi ^ lo
}

func (f *fastStream) Int31() int32 {
	return int32(f.fastrand64() >> 33)
}
