package pdf

import (
	"fmt"

	"inkwell.dev/pdf/filter"
)

// DecodeStream applies s's /Filter pipeline to its raw bytes, populating and
// returning s.decoded. Repeated calls reuse the cached result. r is used to
// resolve indirect /Filter and /DecodeParms entries.
func DecodeStream(r Getter, s *Stream) ([]byte, error) {
	if s.hasDecoded {
		return s.decoded, nil
	}

	names, err := GetFilters(r, s.Dict)
	if err != nil {
		return nil, Wrap(err, "DecodeStream")
	}

	decoded, err := filter.Decode(s.Raw, names)
	if err != nil {
		return nil, Wrap(fmt.Errorf("stream filter pipeline: %w", err), "DecodeStream")
	}

	s.decoded = decoded
	s.hasDecoded = true
	return decoded, nil
}
