// Package category derives the cyclical zodiac and element labels and the
// fixed color labels of the 49 pool numbers, and holds the relation tables
// between labels.
package category

import (
	"fmt"
	"strings"
	"time"
)

// Pool bounds.
const (
	MinNumber = 1
	MaxNumber = 49
	PoolSize  = MaxNumber
	// BigThreshold is the smallest "big" number.
	BigThreshold = 25
)

// Zodiac is the 12-way cyclical label.
type Zodiac uint8

// Zodiacs in cycle order.
const (
	Rat Zodiac = iota
	Ox
	Tiger
	Rabbit
	Dragon
	Snake
	Horse
	Goat
	Monkey
	Rooster
	Dog
	Pig
	ZodiacCount = 12
)

var zodiacNames = [ZodiacCount]string{
	"Rat", "Ox", "Tiger", "Rabbit", "Dragon", "Snake",
	"Horse", "Goat", "Monkey", "Rooster", "Dog", "Pig",
}

var zodiacLabels = [ZodiacCount]string{"鼠", "牛", "虎", "兔", "龍", "蛇", "馬", "羊", "猴", "雞", "狗", "豬"}

// simplified forms seen in upstream payloads.
var zodiacAliases = map[string]Zodiac{
	"龙": Dragon, "马": Horse, "鸡": Rooster, "猪": Pig,
}

func (z Zodiac) String() string {
	if !z.Valid() {
		return fmt.Sprintf("Zodiac(%d)", uint8(z))
	}
	return zodiacNames[z]
}

// Label returns the traditional single-character label.
func (z Zodiac) Label() string {
	if !z.Valid() {
		return "?"
	}
	return zodiacLabels[z]
}

// Valid reports whether z is one of the twelve zodiacs.
func (z Zodiac) Valid() bool { return z < ZodiacCount }

// ParseZodiac accepts an English name (case-insensitive) or a traditional or
// simplified single-character label.
func ParseZodiac(s string) (Zodiac, error) {
	s = strings.TrimSpace(s)
	for i := Zodiac(0); i < ZodiacCount; i++ {
		if strings.EqualFold(s, zodiacNames[i]) || s == zodiacLabels[i] {
			return i, nil
		}
	}
	if z, ok := zodiacAliases[s]; ok {
		return z, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownZodiac, s)
}

// Element is the 5-way cyclical label.
type Element uint8

// Elements.
const (
	Metal Element = iota
	Wood
	Water
	Fire
	Earth
	ElementCount = 5
)

var elementNames = [ElementCount]string{"Metal", "Wood", "Water", "Fire", "Earth"}
var elementLabels = [ElementCount]string{"金", "木", "水", "火", "土"}

func (e Element) String() string {
	if !e.Valid() {
		return fmt.Sprintf("Element(%d)", uint8(e))
	}
	return elementNames[e]
}

// Label returns the single-character label.
func (e Element) Label() string {
	if !e.Valid() {
		return "?"
	}
	return elementLabels[e]
}

// Valid reports whether e is one of the five elements.
func (e Element) Valid() bool { return e < ElementCount }

// Color is the fixed 3-way label.
type Color uint8

// Colors.
const (
	Red Color = iota
	Blue
	Green
	ColorCount = 3
)

var colorNames = [ColorCount]string{"Red", "Blue", "Green"}
var colorLabels = [ColorCount]string{"红", "蓝", "绿"}

func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Color(%d)", uint8(c))
	}
	return colorNames[c]
}

// Label returns the single-character label.
func (c Color) Label() string {
	if !c.Valid() {
		return "?"
	}
	return colorLabels[c]
}

// Code is the small numeric code used as a feature: red 1, blue 2, green 3.
func (c Color) Code() int { return int(c) + 1 }

// Valid reports whether c is one of the three colors.
func (c Color) Valid() bool { return c < ColorCount }

// ReferenceYear returns the cycle year t belongs to. The cycle turns over
// on February 5, so January and the first days of February count toward the
// previous year.
func ReferenceYear(t time.Time) int {
	y := t.Year()
	if t.Month() == time.January || (t.Month() == time.February && t.Day() < 5) {
		y--
	}
	return y
}

// InPool reports whether n is a valid pool number.
func InPool(n int) bool { return n >= MinNumber && n <= MaxNumber }

// MarshalText encodes the zodiac by English name.
func (z Zodiac) MarshalText() ([]byte, error) {
	if !z.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownZodiac, uint8(z))
	}
	return []byte(zodiacNames[z]), nil
}

// UnmarshalText accepts anything ParseZodiac accepts.
func (z *Zodiac) UnmarshalText(b []byte) error {
	v, err := ParseZodiac(string(b))
	if err != nil {
		return err
	}
	*z = v
	return nil
}
