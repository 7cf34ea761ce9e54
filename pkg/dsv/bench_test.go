package dsv

import (
	"io"
	"testing"
)

// Benchmark data sets
var (
	// Medium input: 1000 rows x 10 columns of unquoted data
	mediumDSV = generateDSV(1000, 10, false)

	// Quoted input: 1000 rows x 10 columns of quoted fields
	quotedDSV = generateDSV(1000, 10, true)

	// Mixed input: 1000 rows x 10 columns alternating quoted and unquoted
	mixedDSV = generateMixedDSV(1000, 10)
)

// generateDSV creates input with the given dimensions
func generateDSV(rows, cols int, quoted bool) []byte {
	var data []byte
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				data = append(data, ',')
			}
			if quoted {
				data = append(data, '"')
			}
			data = append(data, []byte("field")...)
			if quoted {
				data = append(data, '"')
			}
		}
		data = append(data, '\n')
	}
	return data
}

// generateMixedDSV creates input with alternating quoted/unquoted fields
func generateMixedDSV(rows, cols int) []byte {
	var data []byte
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				data = append(data, ',')
			}
			if c%2 == 0 {
				data = append(data, '"')
				data = append(data, []byte("quoted, field")...)
				data = append(data, '"')
			} else {
				data = append(data, []byte("unquoted")...)
			}
		}
		data = append(data, '\n')
	}
	return data
}

func benchmarkRead(b *testing.B, data []byte) {
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		r := FromBytes(data).SetReuseRow(true)
		for {
			row, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
			cols := row.BytesColumns()
			for {
				if _, ok := cols.Next(); !ok {
					break
				}
			}
		}
	}
}

// BenchmarkRead_Unquoted benchmarks reading plain rows
func BenchmarkRead_Unquoted(b *testing.B) {
	benchmarkRead(b, mediumDSV)
}

// BenchmarkRead_Quoted benchmarks reading fully quoted rows
func BenchmarkRead_Quoted(b *testing.B) {
	benchmarkRead(b, quotedDSV)
}

// BenchmarkRead_Mixed benchmarks reading mixed quoting
func BenchmarkRead_Mixed(b *testing.B) {
	benchmarkRead(b, mixedDSV)
}

// BenchmarkReadNoReuse benchmarks reading with fresh row buffers per call
func BenchmarkReadNoReuse(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(mediumDSV)))
	for i := 0; i < b.N; i++ {
		r := FromBytes(mediumDSV)
		for {
			_, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkFields benchmarks allocating field copies
func BenchmarkFields(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(mediumDSV)))
	for i := 0; i < b.N; i++ {
		r := FromBytes(mediumDSV).SetReuseRow(true)
		for {
			row, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
			if _, err := row.Fields(); err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkDecode benchmarks typed decoding into a flat struct
func BenchmarkDecode(b *testing.B) {
	type record struct {
		A, B, C, D, E string
		F, G, H, I, J string
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(mediumDSV)))
	for i := 0; i < b.N; i++ {
		r := FromBytes(mediumDSV).SetReuseRow(true)
		for {
			row, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
			var rec record
			if err := row.Decode(&rec); err != nil {
				b.Fatal(err)
			}
		}
	}
}
