package diagfmt

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"shadec/internal/driver"
)

// WriteMsgpack encodes reports as a msgpack array. Diagnostics travel with
// each report; timings do not.
func WriteMsgpack(w io.Writer, reports []*driver.Report) error {
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	if err := enc.Encode(reports); err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}
	return nil
}

// ReadMsgpack decodes reports written by WriteMsgpack.
func ReadMsgpack(r io.Reader) ([]*driver.Report, error) {
	var reports []*driver.Report
	if err := msgpack.NewDecoder(r).Decode(&reports); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return reports, nil
}
