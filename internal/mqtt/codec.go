package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/oklog/ulid/v2"
)

// Encoding selects the wire format of published payloads.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingCBOR Encoding = "cbor"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes v in the given encoding. Anything other than CBOR is JSON.
func (e Encoding) Marshal(v any) ([]byte, error) {
	if e == EncodingCBOR {
		return encMode.Marshal(v)
	}
	return json.Marshal(v)
}

// Unmarshal decodes data produced by Marshal.
func (e Encoding) Unmarshal(data []byte, v any) error {
	if e == EncodingCBOR {
		return decMode.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// newID returns a ULID whose timestamp is t, so ids sort by event time.
// Times a ULID cannot hold (the zero time, anything before 1970) use the
// current time instead.
func newID(t time.Time) string {
	if t.Before(time.UnixMilli(0)) || ulid.Timestamp(t) > ulid.MaxTime() {
		t = time.Now()
	}
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}
