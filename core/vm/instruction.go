// Copyright 2015 The go-core Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

package vm

// Instruction is the fixed-width 32-bit word format from spec.md §4.2:
// a single opcode byte plus three operand bytes, re-decoded under
// alternate views (ABx, AsBx, sAx) depending on the opcode.
type Instruction uint32

func EncodeABC(op OpCode, a, b, c uint8) Instruction {
	return Instruction(uint32(op) | uint32(a)<<8 | uint32(b)<<16 | uint32(c)<<24)
}

func EncodeABx(op OpCode, a uint8, bx uint16) Instruction {
	return Instruction(uint32(op) | uint32(a)<<8 | uint32(bx)<<16)
}

func EncodeAsBx(op OpCode, a uint8, sbx int16) Instruction {
	return Instruction(uint32(op) | uint32(a)<<8 | uint32(uint16(sbx))<<16)
}

func EncodeSAx(op OpCode, sax int32) Instruction {
	// sAx packs a signed 24-bit offset into the top three bytes.
	u := uint32(sax) & 0x00FFFFFF
	return Instruction(uint32(op) | u<<8)
}

func (i Instruction) OpCode() OpCode { return OpCode(i & 0xFF) }
func (i Instruction) A() uint8       { return uint8(i >> 8) }
func (i Instruction) B() uint8       { return uint8(i >> 16) }
func (i Instruction) C() uint8       { return uint8(i >> 24) }

func (i Instruction) Bx() uint16 { return uint16(i >> 16) }

func (i Instruction) SBx() int16 { return int16(uint16(i >> 16)) }

// SAx decodes the signed 24-bit operand packed into bits [8:32).
func (i Instruction) SAx() int32 {
	u := uint32(i) >> 8
	if u&0x00800000 != 0 {
		u |= 0xFF000000 // sign-extend
	}
	return int32(u)
}
