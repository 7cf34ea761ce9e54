// Command dsvcat reads delimiter-separated files and re-emits each row as a
// JSON value or as plain delimited text. Malformed rows are logged and
// skipped, which makes it handy for probing dirty data:
//
//	dsvcat -header -d ';' dump.csv.gz
//	dsvcat -format plain -out '|' < data.csv
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"

	"github.com/shapestone/shape-dsv/pkg/dsv"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	delimFlag    = flag.String("d", ",", "field delimiter, a single byte or \\t")
	headerFlag   = flag.Bool("header", false, "treat the first row as field names")
	flexibleFlag = flag.Bool("flexible", false, "accept rows with varying field counts")
	formatFlag   = flag.String("format", "json", "output format: json or plain")
	outFlag      = flag.String("out", "\t", "output delimiter for plain format")
	gzipFlag     = flag.Bool("gzip", false, "decompress inputs even without a .gz suffix")
	quietFlag    = flag.Bool("q", false, "suppress the summary log line")
)

func main() {
	flag.Parse()

	logger := log.NewLogfmtLogger(os.Stderr)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	delim, err := delimByte(*delimFlag)
	if err != nil {
		level.Error(logger).Log("msg", "invalid delimiter", "err", err)
		os.Exit(1)
	}
	if *formatFlag != "json" && *formatFlag != "plain" {
		level.Error(logger).Log("msg", "invalid format", "format", *formatFlag)
		os.Exit(1)
	}

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"-"}
	}

	out := bufio.NewWriter(os.Stdout)

	start := time.Now()
	var rows, fields, skipped int
	for _, path := range paths {
		n, f, s, err := catFile(logger, out, path, delim)
		rows += n
		fields += f
		skipped += s
		if err != nil {
			out.Flush()
			level.Error(logger).Log("msg", "read failed", "file", path, "err", err)
			os.Exit(1)
		}
	}
	if err := out.Flush(); err != nil {
		level.Error(logger).Log("msg", "write failed", "err", err)
		os.Exit(1)
	}
	if !*quietFlag {
		level.Info(logger).Log("msg", "done",
			"files", len(paths), "rows", rows, "fields", fields,
			"skipped", skipped, "duration", time.Since(start))
	}
}

// catFile streams one input through the reader and emits its rows. It
// returns the emitted row and field counts and the skipped row count; the
// error is non-nil only for failures that end the stream.
func catFile(logger log.Logger, out *bufio.Writer, path string, delim byte) (rows, fields, skipped int, err error) {
	in, closeIn, err := openInput(path)
	if err != nil {
		return 0, 0, 0, err
	}
	defer closeIn()

	r := dsv.NewReader(in).
		SetDelimiter(delim).
		SetFlexible(*flexibleFlag).
		SetHasHeader(*headerFlag).
		SetReuseRow(true)

	headers := r.Headers()
	enc := json.NewEncoder(out)

	for row, err := range r.All() {
		if err != nil {
			var mismatch *dsv.ColumnMismatchError
			switch {
			case errors.As(err, &mismatch):
				level.Warn(logger).Log("msg", "row skipped", "file", path,
					"line", mismatch.Line, "err", err)
				skipped++
			case errors.Is(err, dsv.ErrUnescapedQuote) || errors.Is(err, dsv.ErrUnexpectedQuote):
				level.Warn(logger).Log("msg", "row skipped", "file", path,
					"after_line", r.Line(), "err", err)
				skipped++
			default:
				return rows, fields, skipped, err
			}
			continue
		}
		if err := emit(enc, out, headers, row); err != nil {
			if errors.Is(err, dsv.ErrInvalidEncoding) {
				level.Warn(logger).Log("msg", "row skipped", "file", path,
					"line", r.Line(), "err", err)
				skipped++
				continue
			}
			return rows, fields, skipped, err
		}
		rows++
		fields += row.Len()
	}
	return rows, fields, skipped, nil
}

// emit writes one row in the selected output format.
func emit(enc *jsoniter.Encoder, out *bufio.Writer, headers []string, row *dsv.Row) error {
	fields, err := row.Fields()
	if err != nil {
		return err
	}
	if *formatFlag == "plain" {
		if _, err := out.WriteString(strings.Join(fields, *outFlag)); err != nil {
			return err
		}
		return out.WriteByte('\n')
	}
	if len(headers) > 0 {
		obj := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(fields) {
				obj[h] = fields[i]
			}
		}
		return enc.Encode(obj)
	}
	return enc.Encode(fields)
}

// openInput opens a path for reading, "-" meaning stdin. Inputs ending in
// .gz, or all inputs under -gzip, are transparently decompressed.
func openInput(path string) (io.Reader, func(), error) {
	var in io.Reader
	closeIn := func() {}
	if path == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		in = f
		closeIn = func() { f.Close() }
	}
	if !*gzipFlag && !strings.HasSuffix(path, ".gz") {
		return in, closeIn, nil
	}
	gz, err := gzip.NewReader(in)
	if err != nil {
		closeIn()
		return nil, nil, err
	}
	return gz, func() {
		gz.Close()
		closeIn()
	}, nil
}

// delimByte interprets the delimiter flag: a single byte, or the two
// characters \t for a tab.
func delimByte(s string) (byte, error) {
	if s == `\t` {
		return '\t', nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("want a single byte, got %q", s)
	}
	return s[0], nil
}
