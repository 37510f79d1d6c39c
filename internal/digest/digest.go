// Package digest implements RFC 8785-class canonical JSON normalization and
// SHA-256 content digests used throughout the ledger substrate for
// deterministic equality and tamper detection.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
)

// CanonicalJSON produces a deterministic, compact UTF-8 serialization of
// value such that two JSON values that differ only in object key order or
// in integer-vs-float representation of whole numbers produce identical
// output. NaN and Infinity are rejected.
//
// Object keys are sorted by their UTF-16 code unit sequence (RFC 8785
// §3.2.3), which is not always identical to a byte-wise UTF-8 sort for
// characters outside the Basic Multilingual Plane.
func CanonicalJSON(value interface{}) (string, error) {
	normalized, err := normalize(value)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := writeCanonical(&sb, normalized); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ComputeDigest returns the lowercase-hex SHA-256 digest of value's
// canonical JSON serialization.
func ComputeDigest(value interface{}) (string, error) {
	canonical, err := CanonicalJSON(value)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:]), nil
}

func normalize(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, vv := range v {
			nv, err := normalize(vv)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, vv := range v {
			nv, err := normalize(vv)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case json.Number:
		return normalizeNumberString(v.String())
	case float64:
		if !isFinite(v) {
			return nil, aerr.InvalidCanonicalJSON("NaN/Infinity not permitted in canonical JSON")
		}
		if isIntegerValued(v) {
			return int64(v), nil
		}
		return v, nil
	case float32:
		return normalize(float64(v))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return v, nil
	default:
		return v, nil
	}
}

func normalizeNumberString(s string) (interface{}, error) {
	if !strings.ContainsAny(s, ".eE") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, aerr.InvalidCanonicalJSON("malformed number " + s)
	}
	if !isFinite(f) {
		return nil, aerr.InvalidCanonicalJSON("NaN/Infinity not permitted in canonical JSON")
	}
	if isIntegerValued(f) {
		return int64(f), nil
	}
	return f, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isIntegerValued(f float64) bool {
	return f == math.Trunc(f) && f >= -9223372036854775808 && f <= 9223372036854775807
}

func writeCanonical(sb *strings.Builder, value interface{}) error {
	switch v := value.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if v {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case string:
		b, err := json.Marshal(v)
		if err != nil {
			return aerr.Serialization(err)
		}
		sb.Write(b)
	case int64:
		sb.WriteString(strconv.FormatInt(v, 10))
	case int:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case float64:
		b, err := json.Marshal(v)
		if err != nil {
			return aerr.Serialization(err)
		}
		sb.Write(b)
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return lessUTF16(keys[i], keys[j])
		})
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return aerr.Serialization(err)
			}
			sb.Write(kb)
			sb.WriteByte(':')
			if err := writeCanonical(sb, v[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	case []interface{}:
		sb.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeCanonical(sb, elem); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	default:
		return aerr.InvalidCanonicalJSON(fmt.Sprintf("unsupported type %T", v))
	}
	return nil
}

// lessUTF16 compares a and b by their UTF-16 code unit sequences, per
// RFC 8785 §3.2.3. This differs from a plain UTF-8 byte comparison for
// characters outside the Basic Multilingual Plane and, more commonly in
// practice, whenever two strings share a byte-identical ASCII prefix but
// diverge at a non-ASCII character with a code point above U+FFFF.
func lessUTF16(a, b string) bool {
	au := utf16.Encode([]rune(a))
	bu := utf16.Encode([]rune(b))
	n := len(au)
	if len(bu) < n {
		n = len(bu)
	}
	for i := 0; i < n; i++ {
		if au[i] != bu[i] {
			return au[i] < bu[i]
		}
	}
	return len(au) < len(bu)
}

// DecodeJSON unmarshals raw JSON bytes into a generic value tree using
// json.Number for numeric literals, preserving the distinction between
// integer and fractional literals the way the canonicalization rules
// require.
func DecodeJSON(raw []byte) (interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, aerr.Serialization(err)
	}
	return v, nil
}
