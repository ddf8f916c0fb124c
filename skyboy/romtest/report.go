package romtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-faster/jx"
)

// Summary counts results per status.
func Summary(results []Result) map[Status]int {
	counts := make(map[Status]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

// EncodeReport renders results as a JSON array.
func EncodeReport(results []Result) []byte {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, r := range results {
			r.encode(e)
		}
	})
	return e.Bytes()
}

func (r Result) encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("rom", func(e *jx.Encoder) { e.Str(r.ROM) })
		e.Field("title", func(e *jx.Encoder) { e.Str(r.Title) })
		e.Field("status", func(e *jx.Encoder) { e.Str(r.Status.String()) })
		e.Field("frames", func(e *jx.Encoder) { e.Int(r.Frames) })
		e.Field("duration_ms", func(e *jx.Encoder) { e.Int64(r.Duration.Milliseconds()) })
		e.Field("serial", func(e *jx.Encoder) { e.Str(r.Serial) })
		if r.Err != nil {
			e.Field("error", func(e *jx.Encoder) { e.Str(r.Err.Error()) })
		}
	})
}

// DecodeReport parses the output of EncodeReport. Errors come back as plain
// messages, unknown fields are skipped.
func DecodeReport(data []byte) ([]Result, error) {
	var results []Result
	d := jx.DecodeBytes(data)
	err := d.Arr(func(d *jx.Decoder) error {
		var r Result
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			return r.decodeField(d, key)
		}); err != nil {
			return err
		}
		results = append(results, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return results, nil
}

func (r *Result) decodeField(d *jx.Decoder, key string) error {
	var err error
	switch key {
	case "rom":
		r.ROM, err = d.Str()
	case "title":
		r.Title, err = d.Str()
	case "status":
		var name string
		if name, err = d.Str(); err == nil {
			r.Status, err = parseStatus(name)
		}
	case "frames":
		r.Frames, err = d.Int()
	case "duration_ms":
		var ms int64
		if ms, err = d.Int64(); err == nil {
			r.Duration = time.Duration(ms) * time.Millisecond
		}
	case "serial":
		r.Serial, err = d.Str()
	case "error":
		var msg string
		if msg, err = d.Str(); err == nil {
			r.Err = errors.New(msg)
		}
	default:
		err = d.Skip()
	}
	return err
}
