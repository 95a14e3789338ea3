// Package deflate implements RFC 1951 decompression from scratch. The PDF
// FlateDecode filter needs only inflate, never deflate, and the engine avoids
// compress/flate so that the bit-level behaviour (and its failure modes) is
// fully under our control rather than hidden behind the standard library.
package deflate

import (
	"errors"
	"fmt"
)

// Error values returned by Decode, one per distinct way a DEFLATE stream
// can be malformed.
var (
	ErrInvalidBlockType   = errors.New("deflate: invalid block type")
	ErrInvalidSymbol      = errors.New("deflate: invalid huffman symbol")
	ErrRepeatUnderflow    = errors.New("deflate: code-length repeat with no preceding symbol")
	ErrRepeatOverflow     = errors.New("deflate: code-length repeat past the end of the table")
	ErrBackrefUnderflow   = errors.New("deflate: back-reference distance exceeds decoded output")
	ErrLenNlenMismatch    = errors.New("deflate: NLEN is not the one's complement of LEN")
	ErrUnexpectedEOF      = errors.New("deflate: bit stream ended before the final block")
)

// bitReader reads a DEFLATE bit stream: bits within a byte are consumed
// least-significant-bit first, and multi-bit fields (other than Huffman
// codes) are assembled LSB-first as well.
type bitReader struct {
	src     []byte
	bytePos int
	bitPos  uint // 0..7, next bit to read within src[bytePos]
}

func newBitReader(src []byte) *bitReader {
	return &bitReader{src: src}
}

func (r *bitReader) readBit() (uint32, error) {
	if r.bytePos >= len(r.src) {
		return 0, ErrUnexpectedEOF
	}
	bit := (uint32(r.src[r.bytePos]) >> r.bitPos) & 1
	r.bitPos++
	if r.bitPos == 8 {
		r.bitPos = 0
		r.bytePos++
	}
	return bit, nil
}

// readBits reads n bits (n <= 32) LSB-first and assembles them into an
// integer with the first bit read as the least significant.
func (r *bitReader) readBits(n uint) (uint32, error) {
	var v uint32
	for i := uint(0); i < n; i++ {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		v |= b << i
	}
	return v, nil
}

// align discards any partially-consumed byte, moving to the next byte
// boundary, as required before a Type 0 block.
func (r *bitReader) align() {
	if r.bitPos != 0 {
		r.bitPos = 0
		r.bytePos++
	}
}

func (r *bitReader) readByte() (byte, error) {
	if r.bytePos >= len(r.src) {
		return 0, ErrUnexpectedEOF
	}
	b := r.src[r.bytePos]
	r.bytePos++
	return b, nil
}

// huffTable is a canonical Huffman decode table (RFC 1951 §3.2.2): a flat
// array indexed by maxLen bits read (peeked, not yet consumed) off the bit
// stream in bit-reversed order, each slot storing the decoded symbol and
// its true code length.
type huffTable struct {
	maxLen uint
	// table[code] = (symbol<<5 | length); length 0 means unused.
	table []uint32
}

func reverseBits(v uint32, n uint) uint32 {
	var r uint32
	for i := uint(0); i < n; i++ {
		r = (r << 1) | (v & 1)
		v >>= 1
	}
	return r
}

// buildHuffman constructs a canonical Huffman table from a slice of code
// lengths indexed by symbol (0 meaning the symbol is unused), following the
// standard "smallest code per length" canonical assignment.
func buildHuffman(lengths []int) (*huffTable, error) {
	var maxLen int
	for _, l := range lengths {
		if l > maxLen {
			maxLen = l
		}
	}
	if maxLen == 0 {
		return &huffTable{maxLen: 0, table: nil}, nil
	}

	lenCounts := make([]int, maxLen+1)
	for _, l := range lengths {
		if l > 0 {
			lenCounts[l]++
		}
	}

	nextCode := make([]int, maxLen+1)
	code := 0
	for l := 1; l <= maxLen; l++ {
		code = (code + lenCounts[l-1]) << 1
		nextCode[l] = code
	}

	size := 1 << uint(maxLen)
	table := make([]uint32, size)

	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		c := nextCode[l]
		nextCode[l]++
		rev := reverseBits(uint32(c), uint(l))
		// An l-bit code, when read as maxLen bits, matches every index whose
		// low l bits equal rev (the high maxLen-l bits are don't-care).
		stride := 1 << uint(l)
		entry := uint32(sym)<<5 | uint32(l)
		for idx := int(rev); idx < size; idx += stride {
			table[idx] = entry
		}
	}

	return &huffTable{maxLen: uint(maxLen), table: table}, nil
}

// decodeSymbol reads one Huffman-coded symbol using a fast fixed-width
// table peek, falling back to a bit-by-bit walk when fewer than maxLen
// bits remain in the stream.
func decodeSymbol(r *bitReader, h *huffTable) (int, error) {
	if h.maxLen == 0 {
		return 0, ErrInvalidSymbol
	}

	remaining := (len(r.src)-r.bytePos)*8 - int(r.bitPos)
	if remaining >= int(h.maxLen) {
		save := *r
		peek, err := r.readBits(h.maxLen)
		if err != nil {
			return 0, err
		}
		entry := h.table[peek]
		length := entry & 0x1f
		if length == 0 {
			return 0, ErrInvalidSymbol
		}
		*r = save
		if _, err := r.readBits(uint(length)); err != nil {
			return 0, err
		}
		return int(entry >> 5), nil
	}

	// Slow path: read one bit at a time, matching against the table with
	// the bits read so far right-padded with zero.
	var acc uint32
	var nbits uint
	for nbits < h.maxLen {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		acc |= b << nbits
		nbits++
		entry := h.table[acc]
		length := entry & 0x1f
		if length != 0 && uint(length) == nbits {
			return int(entry >> 5), nil
		}
	}
	return 0, ErrInvalidSymbol
}

var fixedLitLenLengths = func() []int {
	l := make([]int, 288)
	for i := 0; i <= 143; i++ {
		l[i] = 8
	}
	for i := 144; i <= 255; i++ {
		l[i] = 9
	}
	for i := 256; i <= 279; i++ {
		l[i] = 7
	}
	for i := 280; i <= 287; i++ {
		l[i] = 8
	}
	return l
}()

var fixedDistLengths = func() []int {
	l := make([]int, 30)
	for i := range l {
		l[i] = 5
	}
	return l
}()

// fixedLitLen and fixedDist are built lazily, once, the first time a Type 1
// block is seen; Decode is single-threaded so a plain package-level cache
// needs no synchronization.
var (
	fixedLitLen *huffTable
	fixedDist   *huffTable
)

func getFixedTables() (*huffTable, *huffTable) {
	if fixedLitLen == nil {
		fixedLitLen, _ = buildHuffman(fixedLitLenLengths)
		fixedDist, _ = buildHuffman(fixedDistLengths)
	}
	return fixedLitLen, fixedDist
}

var lengthBase = [29]int{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}
var lengthExtraBits = [29]uint{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}
var distBase = [30]int{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145,
	8193, 12289, 16385, 24577,
}
var distExtraBits = [30]uint{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

var codeLengthOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// Decode inflates a raw RFC 1951 stream (no zlib/gzip framing) and returns
// the decompressed bytes.
func Decode(src []byte) ([]byte, error) {
	r := newBitReader(src)
	var out []byte

	for {
		final, err := r.readBits(1)
		if err != nil {
			return nil, err
		}
		btype, err := r.readBits(2)
		if err != nil {
			return nil, err
		}

		switch btype {
		case 0:
			out, err = decodeStored(r, out)
		case 1:
			litLen, dist := getFixedTables()
			out, err = decodeHuffmanBlock(r, out, litLen, dist)
		case 2:
			var litLen, dist *huffTable
			litLen, dist, err = readDynamicTables(r)
			if err == nil {
				out, err = decodeHuffmanBlock(r, out, litLen, dist)
			}
		default:
			err = ErrInvalidBlockType
		}
		if err != nil {
			return nil, err
		}

		if final == 1 {
			return out, nil
		}
	}
}

func decodeStored(r *bitReader, out []byte) ([]byte, error) {
	r.align()
	lo, err := r.readByte()
	if err != nil {
		return nil, err
	}
	hi, err := r.readByte()
	if err != nil {
		return nil, err
	}
	nlo, err := r.readByte()
	if err != nil {
		return nil, err
	}
	nhi, err := r.readByte()
	if err != nil {
		return nil, err
	}
	length := int(lo) | int(hi)<<8
	nlength := int(nlo) | int(nhi)<<8
	if nlength != (^length & 0xffff) {
		return nil, ErrLenNlenMismatch
	}
	for i := 0; i < length; i++ {
		b, err := r.readByte()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func decodeHuffmanBlock(r *bitReader, out []byte, litLen, dist *huffTable) ([]byte, error) {
	for {
		sym, err := decodeSymbol(r, litLen)
		if err != nil {
			return nil, err
		}
		switch {
		case sym < 256:
			out = append(out, byte(sym))
		case sym == 256:
			return out, nil
		default:
			idx := sym - 257
			if idx >= len(lengthBase) {
				return nil, ErrInvalidSymbol
			}
			extra, err := r.readBits(lengthExtraBits[idx])
			if err != nil {
				return nil, err
			}
			length := lengthBase[idx] + int(extra)

			distSym, err := decodeSymbol(r, dist)
			if err != nil {
				return nil, err
			}
			if distSym >= len(distBase) {
				return nil, ErrInvalidSymbol
			}
			distExtra, err := r.readBits(distExtraBits[distSym])
			if err != nil {
				return nil, err
			}
			distance := distBase[distSym] + int(distExtra)

			if distance > len(out) {
				return nil, ErrBackrefUnderflow
			}
			start := len(out) - distance
			for i := 0; i < length; i++ {
				out = append(out, out[start+i])
			}
		}
	}
}

func readDynamicTables(r *bitReader) (litLen, dist *huffTable, err error) {
	hlit, err := r.readBits(5)
	if err != nil {
		return nil, nil, err
	}
	hdist, err := r.readBits(5)
	if err != nil {
		return nil, nil, err
	}
	hclen, err := r.readBits(4)
	if err != nil {
		return nil, nil, err
	}

	nLit := int(hlit) + 257
	nDist := int(hdist) + 1
	nClen := int(hclen) + 4

	clLengths := make([]int, 19)
	for i := 0; i < nClen; i++ {
		v, err := r.readBits(3)
		if err != nil {
			return nil, nil, err
		}
		clLengths[codeLengthOrder[i]] = int(v)
	}
	clTable, err := buildHuffman(clLengths)
	if err != nil {
		return nil, nil, err
	}

	total := nLit + nDist
	allLengths := make([]int, 0, total)
	for len(allLengths) < total {
		sym, err := decodeSymbol(r, clTable)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case sym <= 15:
			allLengths = append(allLengths, sym)
		case sym == 16:
			if len(allLengths) == 0 {
				return nil, nil, ErrRepeatUnderflow
			}
			rep, err := r.readBits(2)
			if err != nil {
				return nil, nil, err
			}
			prev := allLengths[len(allLengths)-1]
			for i := 0; i < int(rep)+3; i++ {
				if len(allLengths) >= total {
					return nil, nil, ErrRepeatOverflow
				}
				allLengths = append(allLengths, prev)
			}
		case sym == 17:
			rep, err := r.readBits(3)
			if err != nil {
				return nil, nil, err
			}
			for i := 0; i < int(rep)+3; i++ {
				if len(allLengths) >= total {
					return nil, nil, ErrRepeatOverflow
				}
				allLengths = append(allLengths, 0)
			}
		case sym == 18:
			rep, err := r.readBits(7)
			if err != nil {
				return nil, nil, err
			}
			for i := 0; i < int(rep)+11; i++ {
				if len(allLengths) >= total {
					return nil, nil, ErrRepeatOverflow
				}
				allLengths = append(allLengths, 0)
			}
		default:
			return nil, nil, fmt.Errorf("%w: code-length symbol %d", ErrInvalidSymbol, sym)
		}
	}

	litLen, err = buildHuffman(allLengths[:nLit])
	if err != nil {
		return nil, nil, err
	}
	dist, err = buildHuffman(allLengths[nLit : nLit+nDist])
	if err != nil {
		return nil, nil, err
	}
	return litLen, dist, nil
}
