package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

type valueState uint8

const (
	stateNull valueState = iota
	stateNumber
	stateString
)

// Value is a metric reading: null, a number or a string. The zero Value is
// null.
type Value struct {
	state valueState
	num   float64
	str   string
}

func Null() Value              { return Value{} }
func Number(v float64) Value   { return Value{state: stateNumber, num: v} }
func String(v string) Value    { return Value{state: stateString, str: v} }
func (v Value) IsNull() bool   { return v.state == stateNull }
func (v Value) IsNumber() bool { return v.state == stateNumber }
func (v Value) IsString() bool { return v.state == stateString }

// Float returns the numeric value, or false for null and strings.
func (v Value) Float() (float64, bool) {
	return v.num, v.state == stateNumber
}

func (v Value) Str() string {
	return v.str
}

// Format renders the value for the wire. Numbers use a fixed number of
// decimals so equal inputs always produce equal bytes. Null is empty.
func (v Value) Format(decimals int) string {
	switch v.state {
	case stateNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return "0"
		}
		return strconv.FormatFloat(v.num+0, 'f', decimals, 64)
	case stateString:
		return v.str
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.state {
	case stateNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case stateString:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	switch t := raw.(type) {
	case float64:
		*v = Number(t)
	case string:
		*v = String(t)
	default:
		*v = Null()
	}

	return nil
}
