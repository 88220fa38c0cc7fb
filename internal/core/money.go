// Package core provides the banking domain types and the amount and date
// parsing shared by every layer of the pipeline.
//
// This file contains the amount parser used for transaction records and for
// numeric column statistics.
package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// amountNumber matches the numeric prefix left after currency noise is stripped.
var amountNumber = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)`)

// ParseAmount converts a bank amount literal to a float64.
//
// Every "$", "," and "+" and all whitespace are removed first. A leading "-" on
// what remains marks the value negative; the sign is taken from that literal
// minus, never from the parsed magnitude. The numeric prefix of the rest is
// parsed as a float. NaN is returned when no number can be read.
//
// Examples:
//
//	ParseAmount("+$500")   -> 500
//	ParseAmount("-$2,500") -> -2500
//	ParseAmount("$0")      -> 0
//	ParseAmount("abc")     -> NaN
func ParseAmount(s string) float64 {
	s = stripAmountNoise(s)
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	digits := amountNumber.FindString(s)
	if digits == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return math.NaN()
	}
	if negative {
		return -v
	}
	return v
}

// IsAmount reports whether s parses to a number.
func IsAmount(s string) bool {
	return !math.IsNaN(ParseAmount(s))
}

func stripAmountNoise(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '$', r == ',', r == '+':
			return -1
		case unicode.IsSpace(r):
			return -1
		}
		return r
	}, s)
}
