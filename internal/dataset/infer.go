package dataset

import (
	"math"
	"strconv"
	"strings"
)

var missingTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "<NA>": {},
}

func isMissingToken(v string) bool {
	_, ok := missingTokens[v]
	return ok
}

func parseBool(v string) (bool, bool) {
	switch v {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}

// columnBuilder accumulates raw cells for one column and decides its kind
// once every row has been seen.
type columnBuilder struct {
	name    string
	raw     []string
	numeric []float64
	numOK   bool
	boolOK  bool
	missing int
	opt     *Options
}

func newColumnBuilder(name string, opt *Options) *columnBuilder {
	return &columnBuilder{name: strings.TrimSpace(name), numOK: true, boolOK: true, opt: opt}
}

func (b *columnBuilder) add(cell string) {
	v := strings.TrimSpace(cell)
	if isMissingToken(v) {
		b.missing++
		b.raw = append(b.raw, "")
		b.numeric = append(b.numeric, math.NaN())
		b.boolOK = false
		return
	}
	b.raw = append(b.raw, v)
	if _, ok := parseBool(v); !ok {
		b.boolOK = false
	}
	if b.numOK {
		if x, ok := parseNumeric(v, b.opt); ok {
			b.numeric = append(b.numeric, x)
			return
		}
		b.numOK = false
	}
	b.numeric = append(b.numeric, math.NaN())
}

func (b *columnBuilder) build() *Column {
	nonMissing := len(b.raw) - b.missing
	switch {
	case nonMissing == 0:
		// all-missing columns read as float, like an empty numeric column
		return &Column{Name: b.name, Kind: Numeric, Num: b.numeric}
	case b.numOK:
		return &Column{Name: b.name, Kind: Numeric, Num: b.numeric}
	case b.boolOK:
		num := make([]float64, len(b.raw))
		for i, v := range b.raw {
			if t, _ := parseBool(v); t {
				num[i] = 1
			}
		}
		return &Column{Name: b.name, Kind: Boolean, Num: num}
	default:
		return &Column{Name: b.name, Kind: Categorical, Str: b.raw}
	}
}

func parseNumeric(s string, opt *Options) (float64, bool) {
	raw := strings.ReplaceAll(s, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	dec, thou := '.', rune(0)
	if opt != nil {
		if opt.DecimalSeparator != 0 {
			dec = opt.DecimalSeparator
		}
		thou = opt.ThousandsSeparator
	}
	if thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		if strings.Contains(raw, ".") && thou != '.' {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
