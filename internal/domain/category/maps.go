package category

// nayin is the 30-entry element cycle; each entry covers two consecutive years
// of the 60-year cycle starting 1984.
var nayin = [30]Element{
	Metal, Fire, Wood, Earth, Metal, Fire, Water, Earth, Metal, Wood,
	Water, Earth, Fire, Wood, Water, Metal, Fire, Wood, Earth, Metal,
	Fire, Water, Earth, Metal, Wood, Water, Earth, Fire, Wood, Water,
}

var colorTable = func() [PoolSize + 1]Color {
	var t [PoolSize + 1]Color
	for n := range t {
		t[n] = Green
	}
	for _, n := range []int{1, 2, 7, 8, 12, 13, 18, 19, 23, 24, 29, 30, 34, 35, 40, 45, 46} {
		t[n] = Red
	}
	for _, n := range []int{3, 4, 9, 10, 14, 15, 20, 25, 26, 31, 36, 37, 41, 42, 47, 48} {
		t[n] = Blue
	}
	return t
}()

// Maps holds the three labels of every pool number for one reference year.
// It is a value type; index 0 is unused.
type Maps struct {
	RefYear int

	zodiac  [PoolSize + 1]Zodiac
	element [PoolSize + 1]Element
	color   [PoolSize + 1]Color
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// Build derives the maps for refYear. Number 1 carries the zodiac of
// refYear and each following number steps one zodiac back. The element of n
// is that of year refYear-n+1 in the 60-year cycle.
func Build(refYear int) Maps {
	m := Maps{RefYear: refYear}
	idx := mod(refYear-2020, ZodiacCount)
	for n := MinNumber; n <= MaxNumber; n++ {
		m.zodiac[n] = Zodiac(mod(idx-(n-1)%ZodiacCount, ZodiacCount))
		target := refYear - n + 1
		m.element[n] = nayin[mod(target-1984, 60)/2]
		m.color[n] = colorTable[n]
	}
	return m
}

// Zodiac returns the zodiac of n.
func (m *Maps) Zodiac(n int) Zodiac { return m.zodiac[n] }

// Element returns the element of n.
func (m *Maps) Element(n int) Element { return m.element[n] }

// Color returns the color of n.
func (m *Maps) Color(n int) Color { return m.color[n] }

// Numbers lists the pool numbers carrying zodiac z, ascending.
func (m *Maps) Numbers(z Zodiac) []int {
	var out []int
	for n := MinNumber; n <= MaxNumber; n++ {
		if m.zodiac[n] == z {
			out = append(out, n)
		}
	}
	return out
}

// ColorOf returns the fixed color of n without building maps.
func ColorOf(n int) Color { return colorTable[n] }
