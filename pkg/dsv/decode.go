package dsv

import (
	"encoding"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// Char decodes a field that must consist of exactly one character. Declare
// struct fields as dsv.Char to get the single-character rule; plain int32
// fields decode as numbers.
type Char rune

// Enum marks a closed string enumeration. A decoded field must match one of
// the variants exactly, case included; anything else is a DecodeError naming
// every candidate. A plain Enum type must have string kind and receives the
// matched variant.
//
// Example:
//
//	type Color string
//
//	func (Color) Variants() []string { return []string{"red", "green", "blue"} }
type Enum interface {
	Variants() []string
}

// VariantUnmarshaler is an Enum whose variants carry argument fields. After
// the tag field matches and is consumed, UnmarshalVariant pulls the
// variant's arguments from the same cursor, typically with cols.Next or
// DecodeColumns.
type VariantUnmarshaler interface {
	Enum
	UnmarshalVariant(tag string, cols *Columns) error
}

// Decode fills v, which must be a non-nil pointer, from the row's fields in
// order. Scalars consume one field each; structs and arrays consume one per
// element, in declaration order; a pointer marks an optional field; a slice
// consumes every remaining field. See the package documentation for the full
// set of rules.
//
// Failures carry the field's 1-indexed position and raw text as a
// DecodeError. Requesting more fields than the row has returns ErrEndOfRow.
func (r *Row) Decode(v any) error {
	cols, err := r.Columns()
	if err != nil {
		return err
	}
	return DecodeColumns(cols, v)
}

// DecodeColumns decodes the cursor's remaining fields into v, which must be
// a non-nil pointer. It is Row.Decode without the cursor construction,
// exported so VariantUnmarshaler implementations can decode their argument
// fields the same way.
func DecodeColumns(cols *Columns, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", v)
	}
	dec, err := decoderFor(rv.Type().Elem())
	if err != nil {
		return err
	}
	return dec(rv.Elem(), cols)
}

// DecodeAll reads every remaining row of r and decodes each into a T. It
// stops at end of input, or on the first error, returning the rows decoded
// up to that point alongside it.
//
// Example:
//
//	type point struct{ X, Y float64 }
//	points, err := dsv.DecodeAll[point](dsv.FromString("1,2\n3,4"))
func DecodeAll[T any](r *Reader) ([]T, error) {
	var out []T
	for {
		row, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		var v T
		if err := row.Decode(&v); err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

// fieldDecoder decodes fields from the cursor into dst.
type fieldDecoder func(dst reflect.Value, cols *Columns) error

// decoderCache maps reflect.Type to its compiled fieldDecoder.
var decoderCache sync.Map

func decoderFor(t reflect.Type) (fieldDecoder, error) {
	if d, ok := decoderCache.Load(t); ok {
		return d.(fieldDecoder), nil
	}
	d, err := compile(t)
	if err != nil {
		return nil, err
	}
	actual, _ := decoderCache.LoadOrStore(t, d)
	return actual.(fieldDecoder), nil
}

// lazyDecoder defers compilation to first use. Pointer and slice elements
// compile lazily so self-referential types terminate.
func lazyDecoder(t reflect.Type) fieldDecoder {
	var (
		once sync.Once
		dec  fieldDecoder
		err  error
	)
	return func(dst reflect.Value, cols *Columns) error {
		once.Do(func() { dec, err = decoderFor(t) })
		if err != nil {
			return err
		}
		return dec(dst, cols)
	}
}

var (
	charType            = reflect.TypeOf(Char(0))
	enumType            = reflect.TypeOf((*Enum)(nil)).Elem()
	variantType         = reflect.TypeOf((*VariantUnmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

var errNotOneChar = errors.New("expected exactly one character")

// compile builds a decoder for t. Interface checks run before the kind
// switch so enum and text-unmarshaling types win over their underlying
// representations.
func compile(t reflect.Type) (fieldDecoder, error) {
	switch pt := reflect.PointerTo(t); {
	case pt.Implements(variantType):
		return compileVariant(), nil
	case pt.Implements(enumType):
		return compileEnum(t)
	case t == charType:
		return decodeChar, nil
	case pt.Implements(textUnmarshalerType):
		return decodeText, nil
	}

	switch t.Kind() {
	case reflect.String:
		return decodeString, nil
	case reflect.Bool:
		return decodeBool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return compileInt(t.Bits()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return compileUint(t.Bits()), nil
	case reflect.Float32, reflect.Float64:
		return compileFloat(t.Bits()), nil
	case reflect.Pointer:
		return compileOptional(t), nil
	case reflect.Struct:
		return compileStruct(t)
	case reflect.Array:
		return compileArray(t)
	case reflect.Slice:
		return compileSlice(t), nil
	default:
		return nil, fmt.Errorf("cannot decode into %s", t)
	}
}

// nextField consumes one field and returns it with its 1-indexed position.
func nextField(cols *Columns) (string, int, error) {
	f, ok := cols.Next()
	if !ok {
		return "", 0, ErrEndOfRow
	}
	return f, cols.index(), nil
}

func decodeString(dst reflect.Value, cols *Columns) error {
	f, _, err := nextField(cols)
	if err != nil {
		return err
	}
	// The field is a view into the row buffer; the decoded value must not be.
	dst.SetString(strings.Clone(f))
	return nil
}

func decodeBool(dst reflect.Value, cols *Columns) error {
	f, pos, err := nextField(cols)
	if err != nil {
		return err
	}
	b, err := strconv.ParseBool(f)
	if err != nil {
		return &DecodeError{Column: pos, Value: strings.Clone(f), Err: err}
	}
	dst.SetBool(b)
	return nil
}

func compileInt(bits int) fieldDecoder {
	return func(dst reflect.Value, cols *Columns) error {
		f, pos, err := nextField(cols)
		if err != nil {
			return err
		}
		n, err := strconv.ParseInt(f, 10, bits)
		if err != nil {
			return &DecodeError{Column: pos, Value: strings.Clone(f), Err: err}
		}
		dst.SetInt(n)
		return nil
	}
}

func compileUint(bits int) fieldDecoder {
	return func(dst reflect.Value, cols *Columns) error {
		f, pos, err := nextField(cols)
		if err != nil {
			return err
		}
		n, err := strconv.ParseUint(f, 10, bits)
		if err != nil {
			return &DecodeError{Column: pos, Value: strings.Clone(f), Err: err}
		}
		dst.SetUint(n)
		return nil
	}
}

func compileFloat(bits int) fieldDecoder {
	return func(dst reflect.Value, cols *Columns) error {
		f, pos, err := nextField(cols)
		if err != nil {
			return err
		}
		n, err := strconv.ParseFloat(f, bits)
		if err != nil {
			return &DecodeError{Column: pos, Value: strings.Clone(f), Err: err}
		}
		dst.SetFloat(n)
		return nil
	}
}

func decodeChar(dst reflect.Value, cols *Columns) error {
	f, pos, err := nextField(cols)
	if err != nil {
		return err
	}
	c, size := utf8.DecodeRuneInString(f)
	if size == 0 || size != len(f) || (c == utf8.RuneError && size == 1) {
		return &DecodeError{Column: pos, Value: strings.Clone(f), Err: errNotOneChar}
	}
	dst.SetInt(int64(c))
	return nil
}

func decodeText(dst reflect.Value, cols *Columns) error {
	f, pos, err := nextField(cols)
	if err != nil {
		return err
	}
	um := dst.Addr().Interface().(encoding.TextUnmarshaler)
	if err := um.UnmarshalText([]byte(f)); err != nil {
		return &DecodeError{Column: pos, Value: strings.Clone(f), Err: err}
	}
	return nil
}

// compileOptional decodes a pointer target: an empty field is absent and
// leaves the pointer nil, and so does a field (or run of fields) the element
// decoder rejects. Either way the input is consumed; a failed attempt is not
// rewound.
func compileOptional(t reflect.Type) fieldDecoder {
	elem := t.Elem()
	dec := lazyDecoder(elem)
	return func(dst reflect.Value, cols *Columns) error {
		f, ok := cols.Peek()
		if !ok {
			return ErrEndOfRow
		}
		if f == "" {
			cols.Next()
			dst.SetZero()
			return nil
		}
		v := reflect.New(elem)
		if err := dec(v.Elem(), cols); err != nil {
			dst.SetZero()
			return nil
		}
		dst.Set(v)
		return nil
	}
}

// matchVariant finds the peeked tag among the variants and consumes it.
// The returned tag is the variant's own string, which outlives the row.
func matchVariant(cols *Columns, variants []string) (string, error) {
	f, ok := cols.Peek()
	if !ok {
		return "", ErrEndOfRow
	}
	for _, v := range variants {
		if f == v {
			cols.Next()
			return v, nil
		}
	}
	return "", &DecodeError{
		Column: cols.index() + 1,
		Value:  strings.Clone(f),
		Err:    fmt.Errorf("unknown variant, expected one of %s", strings.Join(variants, ", ")),
	}
}

func compileEnum(t reflect.Type) (fieldDecoder, error) {
	if t.Kind() != reflect.String {
		return nil, fmt.Errorf("enum type %s must have string kind or implement VariantUnmarshaler", t)
	}
	return func(dst reflect.Value, cols *Columns) error {
		e := dst.Addr().Interface().(Enum)
		tag, err := matchVariant(cols, e.Variants())
		if err != nil {
			return err
		}
		dst.SetString(tag)
		return nil
	}, nil
}

func compileVariant() fieldDecoder {
	return func(dst reflect.Value, cols *Columns) error {
		e := dst.Addr().Interface().(VariantUnmarshaler)
		tag, err := matchVariant(cols, e.Variants())
		if err != nil {
			return err
		}
		return e.UnmarshalVariant(tag, cols)
	}
}

func compileStruct(t reflect.Type) (fieldDecoder, error) {
	type structField struct {
		index int
		dec   fieldDecoder
	}
	var fields []structField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		dec, err := compile(f.Type)
		if err != nil {
			return nil, err
		}
		fields = append(fields, structField{index: i, dec: dec})
	}
	return func(dst reflect.Value, cols *Columns) error {
		for _, f := range fields {
			if err := f.dec(dst.Field(f.index), cols); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

func compileArray(t reflect.Type) (fieldDecoder, error) {
	dec, err := compile(t.Elem())
	if err != nil {
		return nil, err
	}
	n := t.Len()
	return func(dst reflect.Value, cols *Columns) error {
		for i := 0; i < n; i++ {
			if err := dec(dst.Index(i), cols); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

// compileSlice decodes the sequence tail: however many fields remain, that
// many elements.
func compileSlice(t reflect.Type) fieldDecoder {
	dec := lazyDecoder(t.Elem())
	return func(dst reflect.Value, cols *Columns) error {
		n := cols.Remaining()
		s := reflect.MakeSlice(t, n, n)
		for i := 0; i < n; i++ {
			if err := dec(s.Index(i), cols); err != nil {
				return err
			}
		}
		dst.Set(s)
		return nil
	}
}
