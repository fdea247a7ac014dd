package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/kode4food/tremor"
)

type (
	// Options control how a catalog file is decoded
	Options struct {
		Logger   *zap.Logger
		Location *time.Location
		Encoding Encoding
		Comma    rune
	}

	// Result is the outcome of reading a catalog file. Events are sorted
	// by timestamp and carry their source row index as ID
	Result struct {
		Events  []tremor.Event
		Columns Columns
		Rows    int
		Dropped int
	}

	// Encoding names the character set of the input
	Encoding string
)

const (
	EncodingAuto     Encoding = ""
	EncodingUTF8     Encoding = "utf-8"
	EncodingShiftJIS Encoding = "shift_jis"
)

const sniffSize = 64 * 1024

// Error messages
var (
	ErrNoHeader       = errors.New("catalog has no header row")
	ErrMissingColumn  = errors.New("required column not found")
	ErrUnknownEncoder = errors.New("unknown encoding")
)

// ReadCSV decodes an earthquake catalog. Columns are located by header
// name. Rows whose timestamp or coordinates cannot be read are dropped
func ReadCSV(r io.Reader, o Options) (*Result, error) {
	log := o.logger()
	in, err := decode(r, o.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	if o.Comma != 0 {
		cr.Comma = o.Comma
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, err
	}

	cols := IdentifyColumns(header)
	if err := checkColumns(cols); err != nil {
		return nil, err
	}
	log.Debug("identified columns", zap.Any("columns", cols.names(header)))

	res := &Result{Columns: cols}
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		res.Rows++

		ev, err := cols.event(rec, o.Location)
		if err != nil {
			res.Dropped++
			log.Debug("dropped row",
				zap.Int("row", row),
				zap.Error(err),
			)
			continue
		}
		ev.ID = tremor.EventID(row)
		res.Events = append(res.Events, ev)
	}

	sort.SliceStable(res.Events, func(i, j int) bool {
		return res.Events[i].Timestamp.Before(res.Events[j].Timestamp)
	})
	log.Info("read catalog",
		zap.Int("rows", res.Rows),
		zap.Int("events", len(res.Events)),
		zap.Int("dropped", res.Dropped),
	)
	return res, nil
}

// LoadCatalog reads the file at path and builds a Catalog over extent. A
// zero extent is replaced by the span of the events read
func LoadCatalog(
	path string, extent tremor.Extent, o Options,
) (*tremor.Catalog, *Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	res, err := ReadCSV(f, o)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if extent == (tremor.Extent{}) {
		extent = res.Span()
	}
	cat, err := tremor.NewCatalog(res.Events, extent)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, res, nil
}

// Span is the extent from the first to the last event read
func (r *Result) Span() tremor.Extent {
	if len(r.Events) == 0 {
		return tremor.Extent{}
	}
	return tremor.NewExtent(
		r.Events[0].Timestamp, r.Events[len(r.Events)-1].Timestamp,
	)
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (c Columns) event(rec []string, loc *time.Location) (tremor.Event, error) {
	ts, err := ParseTimestamp(
		c.value(rec, FieldDate), c.value(rec, FieldTime), loc,
	)
	if err != nil {
		return tremor.Event{}, err
	}
	lat, err := ParseCoordinate(c.value(rec, FieldLatitude))
	if err != nil {
		return tremor.Event{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := ParseCoordinate(c.value(rec, FieldLongitude))
	if err != nil {
		return tremor.Event{}, fmt.Errorf("longitude: %w", err)
	}
	in, _ := tremor.ParseIntensity(c.value(rec, FieldIntensity))
	return tremor.Event{
		Timestamp: ts,
		Location:  c.value(rec, FieldLocation),
		Intensity: in,
		Latitude:  lat,
		Longitude: lon,
		Magnitude: ParseMagnitude(c.value(rec, FieldMagnitude)),
	}, nil
}

func (c Columns) names(header []string) map[string]string {
	res := make(map[string]string, len(c))
	for f, i := range c {
		res[f.String()] = header[i]
	}
	return res
}

func checkColumns(c Columns) error {
	if !c.Has(FieldDate) && !c.Has(FieldTime) {
		return fmt.Errorf("%w: %s", ErrMissingColumn, FieldDate)
	}
	for _, f := range []Field{FieldLatitude, FieldLongitude} {
		if !c.Has(f) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, f)
		}
	}
	return nil
}

func decode(r io.Reader, enc Encoding) (io.Reader, error) {
	switch enc {
	case EncodingUTF8:
		return r, nil
	case EncodingShiftJIS:
		return transform.NewReader(r, japanese.ShiftJIS.NewDecoder()), nil
	case EncodingAuto:
		br := bufio.NewReaderSize(r, sniffSize)
		head, _ := br.Peek(sniffSize)
		if validUTF8Prefix(head) {
			return br, nil
		}
		return transform.NewReader(br, japanese.ShiftJIS.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoder, enc)
	}
}

// validUTF8Prefix tolerates a rune cut off at the end of the buffer
func validUTF8Prefix(b []byte) bool {
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			return len(b) < utf8.UTFMax && !utf8.FullRune(b)
		}
		b = b[size:]
	}
	return true
}
