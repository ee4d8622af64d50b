// Copyright 2020 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package protocheck defines checkers over protocol messages.
//
// Protocol messages carry internal state that defeats naive structural
// comparison, so facts about them should use semantic equality:
//
//	def.Assert(producesMsg, protocheck.EqualTo(want))
//
// EqualTo is also registered in the checker registry under the name
// "proto-equal-to".
package protocheck

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"

	"github.com/aspineon/factual/check"
)

type equalTo struct {
	want proto.Message
}

var _ check.Checker = equalTo{}

// EqualTo matches any message semantically equal to want, per
// proto.Equal: same message type, same field values, unknown fields and
// internal state disregarded.
func EqualTo(want proto.Message) check.Checker {
	return equalTo{want: want}
}

func (c equalTo) Matches(actual interface{}) bool {
	m, ok := actual.(proto.Message)
	return ok && proto.Equal(m, c.want)
}

func (c equalTo) String() string {
	return fmt.Sprintf("proto-equal-to(%s <%s>)",
		c.want.ProtoReflect().Descriptor().FullName(),
		prototext.MarshalOptions{}.Format(c.want))
}

// Diff explains a mismatch between actual and the wanted message in
// protocmp terms; it returns "" when the values are equal or actual is
// not a message.
func (c equalTo) Diff(actual interface{}) string {
	m, ok := actual.(proto.Message)
	if !ok {
		return fmt.Sprintf("%T is not a proto.Message", actual)
	}
	return cmp.Diff(c.want, m, protocmp.Transform())
}

func init() {
	check.Register("proto-equal-to", func(args ...interface{}) (check.Checker, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("proto-equal-to: got %d arguments, want 1", len(args))
		}
		m, ok := args[0].(proto.Message)
		if !ok {
			return nil, fmt.Errorf("proto-equal-to: got %T, want proto.Message", args[0])
		}
		return EqualTo(m), nil
	})
}
