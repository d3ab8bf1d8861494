package reader

import (
	"bytes"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/lvillar/pdftpl/object"
)

// DecodeStream applies the filter chain of s and returns the decoded bytes.
func DecodeStream(s object.Stream) ([]byte, error) {
	return decodeStream(s)
}

// decodeStream applies the filter chain specified in the stream dictionary to decompress data.
func decodeStream(s object.Stream) ([]byte, error) {
	data := s.Data
	filter := s.Dict["Filter"]

	if filter == nil {
		return data, nil
	}

	var filters []object.Name
	switch f := filter.(type) {
	case object.Name:
		filters = []object.Name{f}
	case object.Array:
		for _, item := range f {
			n, ok := item.(object.Name)
			if !ok {
				return nil, fmt.Errorf("reader: filter array contains non-name: %T", item)
			}
			filters = append(filters, n)
		}
	default:
		return nil, fmt.Errorf("reader: unexpected filter type: %T", filter)
	}

	var err error
	for i, f := range filters {
		data, err = applyFilter(f, data, decodeParms(s.Dict, i))
		if err != nil {
			return nil, fmt.Errorf("reader: applying filter %s: %w", f, err)
		}
	}
	return data, nil
}

// decodeParms returns the /DecodeParms dictionary for the i-th filter.
func decodeParms(dict object.Dict, i int) object.Dict {
	switch p := dict["DecodeParms"].(type) {
	case object.Dict:
		if i == 0 {
			return p
		}
	case object.Array:
		if i < len(p) {
			if d, ok := p[i].(object.Dict); ok {
				return d
			}
		}
	}
	return nil
}

// applyFilter applies a single decompression filter to the data.
func applyFilter(name object.Name, data []byte, parms object.Dict) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		out, err := flateDecode(data)
		if err != nil {
			return nil, err
		}
		return applyPredictor(out, parms)
	case "ASCIIHexDecode", "AHx":
		return asciiHexDecode(data)
	case "ASCII85Decode", "A85":
		return ascii85Decode(data)
	default:
		return nil, fmt.Errorf("unsupported filter: %s", name)
	}
}

// flateDecode decompresses zlib/deflate encoded data.
func flateDecode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib init: %w", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		// Truncated streams are common; keep what was inflated.
		if buf.Len() > 0 && (err == io.ErrUnexpectedEOF) {
			return buf.Bytes(), nil
		}
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	return buf.Bytes(), nil
}

// applyPredictor reverses the PNG predictors (/Predictor >= 10) used mostly by
// cross-reference streams. TIFF predictor 2 is not supported.
func applyPredictor(data []byte, parms object.Dict) ([]byte, error) {
	if parms == nil {
		return data, nil
	}
	predictor, _ := parms.GetInt("Predictor")
	if predictor < 10 {
		if predictor == 2 {
			return nil, fmt.Errorf("TIFF predictor not supported")
		}
		return data, nil
	}

	columns := int64(1)
	if c, ok := parms.GetInt("Columns"); ok && c > 0 {
		columns = c
	}
	colors := int64(1)
	if c, ok := parms.GetInt("Colors"); ok && c > 0 {
		colors = c
	}
	bpc := int64(8)
	if b, ok := parms.GetInt("BitsPerComponent"); ok && b > 0 {
		bpc = b
	}

	bpp := int((colors*bpc + 7) / 8)
	rowLen := int((columns*colors*bpc + 7) / 8)
	if rowLen <= 0 {
		return nil, fmt.Errorf("invalid predictor row length")
	}

	var out bytes.Buffer
	prev := make([]byte, rowLen)
	for pos := 0; pos+rowLen+1 <= len(data); pos += rowLen + 1 {
		ft := data[pos]
		row := make([]byte, rowLen)
		copy(row, data[pos+1:pos+1+rowLen])
		for i := range row {
			var left, up, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prev[i-bpp]
			}
			up = prev[i]
			switch ft {
			case 0:
			case 1:
				row[i] += left
			case 2:
				row[i] += up
			case 3:
				row[i] += byte((int(left) + int(up)) / 2)
			case 4:
				row[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG filter type %d", ft)
			}
		}
		out.Write(row)
		prev = row
	}
	return out.Bytes(), nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// asciiHexDecode decodes ASCII hex-encoded data (terminated by '>').
func asciiHexDecode(data []byte) ([]byte, error) {
	var clean bytes.Buffer
	for _, b := range data {
		if b == '>' {
			break
		}
		if !isWhitespace(b) {
			clean.WriteByte(b)
		}
	}

	src := clean.Bytes()
	if len(src)%2 != 0 {
		src = append(src, '0')
	}

	dst := make([]byte, hex.DecodedLen(len(src)))
	_, err := hex.Decode(dst, src)
	if err != nil {
		return nil, fmt.Errorf("ascii hex decode: %w", err)
	}
	return dst, nil
}

// ascii85Decode decodes ASCII85-encoded data (terminated by "~>").
func ascii85Decode(data []byte) ([]byte, error) {
	end := bytes.Index(data, []byte("~>"))
	if end >= 0 {
		data = data[:end]
	}

	decoder := ascii85.NewDecoder(bytes.NewReader(data))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, decoder); err != nil {
		return nil, fmt.Errorf("ascii85 decode: %w", err)
	}
	return buf.Bytes(), nil
}
