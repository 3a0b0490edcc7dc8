package fitsimg

import (
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"
)

// Lookup reads typed keyword values. It decouples WCS parsing from the FITS
// reader so headers can be assembled in memory.
type Lookup interface {
	Float(key string) (float64, bool)
	String(key string) (string, bool)
}

// MapHeader is an in-memory Lookup.
type MapHeader map[string]interface{}

// Float implements Lookup.
func (m MapHeader) Float(key string) (float64, bool) { return toFloat(m[key]) }

// String implements Lookup.
func (m MapHeader) String(key string) (string, bool) {
	s, ok := m[key].(string)
	return strings.TrimSpace(s), ok
}

type fitsHeader struct{ hdr *fitsio.Header }

func headerLookup(hdr *fitsio.Header) Lookup { return fitsHeader{hdr} }

func (h fitsHeader) Float(key string) (float64, bool) {
	card := h.hdr.Get(key)
	if card == nil {
		return 0, false
	}
	return toFloat(card.Value)
}

func (h fitsHeader) String(key string) (string, bool) {
	card := h.hdr.Get(key)
	if card == nil {
		return "", false
	}
	s, ok := card.Value.(string)
	return strings.TrimSpace(s), ok
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
