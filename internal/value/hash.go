package value

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"
)

// HashKey is a 128-bit structural hash of an argument list.
type HashKey [16]byte

// Hash hashes the values structurally: equal lists hash equally and
// integral numbers hash the same regardless of how they were produced.
func Hash(vals []Value) HashKey {
	h := fnv.New128a()
	writeUint(h, uint64(len(vals)))
	for _, v := range vals {
		hashValue(h, v)
	}
	var out HashKey
	copy(out[:], h.Sum(nil))
	return out
}

func hashValue(h hash.Hash, v Value) {
	h.Write([]byte(v.Type()))
	h.Write([]byte{0})
	switch v := v.(type) {
	case *Number:
		f := v.Value
		if f == 0 {
			f = 0 // fold -0
		}
		writeUint(h, math.Float64bits(f))
	case *String:
		writeString(h, v.Value)
	case *Bool:
		if v.Value {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case *Null:
	case *Currency:
		writeString(h, v.Raw)
	case *Path:
		writeString(h, v.Value)
	case *PathPattern:
		writeString(h, v.Value)
	case *Array:
		writeUint(h, uint64(len(v.Elements)))
		for _, el := range v.Elements {
			hashValue(h, el)
		}
	case *Object:
		keys := v.Keys()
		writeUint(h, uint64(len(keys)))
		for _, k := range keys {
			writeString(h, k)
			hashValue(h, v.Pairs[k])
		}
	case *Table:
		names := v.ColumnNames()
		writeUint(h, uint64(len(names)))
		for _, n := range names {
			writeString(h, n)
		}
		rows := v.Rows()
		writeUint(h, uint64(len(rows)))
		for _, r := range rows {
			for _, cell := range r {
				hashValue(h, cell)
			}
		}
	case *Function:
		writeString(h, v.Name)
	case *RowIndex:
		hashValue(h, v.Table)
	}
}

func writeUint(h hash.Hash, n uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	h.Write(buf[:])
}

func writeString(h hash.Hash, s string) {
	writeUint(h, uint64(len(s)))
	h.Write([]byte(s))
}
