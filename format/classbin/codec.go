// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classbin

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"
	"time"

	"github.com/classify-go/classify/classref"
)

func writeVarUint(w *bufio.Writer, v uint64) error {
	for v >= 0x80 {
		if err := w.WriteByte(byte(v) | 0x80); err != nil {
			return err
		}
		v >>= 7
	}
	return w.WriteByte(byte(v))
}

func readVarUint(r *bufio.Reader) (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}

func writeString(w *bufio.Writer, s string) error {
	buf := []byte(s)
	for _, b := range buf {
		if b == 0xff {
			if _, err := w.Write([]byte{0xff, 0x01}); err != nil {
				return err
			}
			continue
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{0xff, 0x00})
	return err
}

func readString(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b != 0xff {
			buf = append(buf, b)
			continue
		}
		esc, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if esc == 0x00 {
			return string(buf), nil
		}
		if esc == 0x01 {
			buf = append(buf, 0xff)
			continue
		}
		return "", fmt.Errorf("classbin: invalid string escape 0xff %#x", esc)
	}
}

func writeDecimal(w *bufio.Writer, d classref.Decimal) error {
	r := d.Rat
	if r == nil {
		r = new(big.Rat)
	}
	neg := r.Sign() < 0
	if err := w.WriteByte(boolByte(neg)); err != nil {
		return err
	}
	num := new(big.Int).Abs(r.Num())
	den := r.Denom()
	if err := writeBigInt(w, num); err != nil {
		return err
	}
	return writeBigInt(w, den)
}

func writeBigInt(w *bufio.Writer, n *big.Int) error {
	b := n.Bytes()
	if err := writeVarUint(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBigInt(r *bufio.Reader) (*big.Int, error) {
	n, err := readVarUint(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(buf), nil
}

func readDecimal(r *bufio.Reader) (classref.Decimal, error) {
	sign, err := r.ReadByte()
	if err != nil {
		return classref.Decimal{}, err
	}
	num, err := readBigInt(r)
	if err != nil {
		return classref.Decimal{}, err
	}
	den, err := readBigInt(r)
	if err != nil {
		return classref.Decimal{}, err
	}
	if sign != 0 {
		num = new(big.Int).Neg(num)
	}
	if den.Sign() == 0 {
		den = big.NewInt(1)
	}
	return classref.NewDecimal(new(big.Rat).SetFrac(num, den)), nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func writeFixed(w *bufio.Writer, v classref.SimpleValue) error {
	switch v.Kind {
	case classref.KindUint8:
		return w.WriteByte(v.AsUint8())
	case classref.KindInt8:
		return w.WriteByte(byte(v.AsInt8()))
	case classref.KindInt16:
		return writeLE(w, uint16(v.AsInt16()), 2)
	case classref.KindUint16:
		return writeLE(w, v.AsUint16(), 2)
	case classref.KindChar:
		return writeLE(w, uint16(v.AsChar()), 2)
	case classref.KindInt32:
		return writeLE(w, uint32(v.AsInt32()), 4)
	case classref.KindUint32:
		return writeLE(w, v.AsUint32(), 4)
	case classref.KindInt64:
		return writeLE(w, uint64(v.AsInt64()), 8)
	case classref.KindUint64:
		return writeLE(w, v.AsUint64(), 8)
	case classref.KindFloat32:
		return writeLE(w, math.Float32bits(v.AsFloat32()), 4)
	case classref.KindFloat64:
		return writeLE(w, math.Float64bits(v.AsFloat64()), 8)
	case classref.KindDateTime:
		ticks := dateTimeTicks(v.AsDateTime())
		return writeLE(w, uint64(ticks), 8)
	}
	return fmt.Errorf("classbin: no fixed-width encoding for %s", v.Kind)
}

func writeLE(w *bufio.Writer, v interface{}, width int) error {
	var buf [8]byte
	switch width {
	case 2:
		binary.LittleEndian.PutUint16(buf[:2], v.(uint16))
		_, err := w.Write(buf[:2])
		return err
	case 4:
		binary.LittleEndian.PutUint32(buf[:4], v.(uint32))
		_, err := w.Write(buf[:4])
		return err
	case 8:
		binary.LittleEndian.PutUint64(buf[:8], v.(uint64))
		_, err := w.Write(buf[:8])
		return err
	}
	_, err := w.Write([]byte{v.(byte)})
	return err
}

func readFixed(r *bufio.Reader, t tag) (classref.SimpleValue, error) {
	switch t {
	case tagByte:
		b, err := r.ReadByte()
		return classref.Uint8(b), err
	case tagSByte:
		b, err := r.ReadByte()
		return classref.Int8(int8(b)), err
	case tagShort:
		buf := make([]byte, 2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return classref.SimpleValue{}, err
		}
		return classref.Int16(int16(binary.LittleEndian.Uint16(buf))), nil
	case tagUShort:
		buf := make([]byte, 2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return classref.SimpleValue{}, err
		}
		return classref.Uint16(binary.LittleEndian.Uint16(buf)), nil
	case tagInt:
		buf := make([]byte, 4)
		if _, err := io.ReadFull(r, buf); err != nil {
			return classref.SimpleValue{}, err
		}
		return classref.Int32(int32(binary.LittleEndian.Uint32(buf))), nil
	case tagUInt:
		buf := make([]byte, 4)
		if _, err := io.ReadFull(r, buf); err != nil {
			return classref.SimpleValue{}, err
		}
		return classref.Uint32(binary.LittleEndian.Uint32(buf)), nil
	case tagLong:
		buf := make([]byte, 8)
		if _, err := io.ReadFull(r, buf); err != nil {
			return classref.SimpleValue{}, err
		}
		return classref.Int64(int64(binary.LittleEndian.Uint64(buf))), nil
	case tagULong:
		buf := make([]byte, 8)
		if _, err := io.ReadFull(r, buf); err != nil {
			return classref.SimpleValue{}, err
		}
		return classref.Uint64(binary.LittleEndian.Uint64(buf)), nil
	case tagFloat:
		buf := make([]byte, 4)
		if _, err := io.ReadFull(r, buf); err != nil {
			return classref.SimpleValue{}, err
		}
		return classref.Float32(math.Float32frombits(binary.LittleEndian.Uint32(buf))), nil
	case tagDouble:
		buf := make([]byte, 8)
		if _, err := io.ReadFull(r, buf); err != nil {
			return classref.SimpleValue{}, err
		}
		return classref.Float64(math.Float64frombits(binary.LittleEndian.Uint64(buf))), nil
	case tagDateTime:
		buf := make([]byte, 8)
		if _, err := io.ReadFull(r, buf); err != nil {
			return classref.SimpleValue{}, err
		}
		return classref.DateTime(dateTimeFromTicks(int64(binary.LittleEndian.Uint64(buf)))), nil
	}
	return classref.SimpleValue{}, fmt.Errorf("classbin: tag %#x is not fixed-width", t)
}

var ticksEpoch = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)

func dateTimeTicks(t time.Time) int64 {
	return (t.Unix()-ticksEpoch.Unix())*10_000_000 + int64(t.Nanosecond())/100
}

func dateTimeFromTicks(ticks int64) time.Time {
	return time.Unix(ticksEpoch.Unix()+ticks/10_000_000, (ticks%10_000_000)*100).UTC()
}
