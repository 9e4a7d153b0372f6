package category

// Relations holds the label relation tables. Build it with DefaultRelations.
type Relations struct {
	allied    [ZodiacCount][ZodiacCount]bool
	opposed   [ZodiacCount][ZodiacCount]bool
	clash     [ZodiacCount]Zodiac
	generates [ElementCount]Element
	restrains [ElementCount]Element
}

// DefaultRelations returns triad and pair harmony as allied, clash and harm
// as opposed, and the generating and restraining element cycles.
func DefaultRelations() Relations {
	var r Relations
	triads := [][3]Zodiac{
		{Rat, Dragon, Monkey},
		{Ox, Snake, Rooster},
		{Tiger, Horse, Dog},
		{Rabbit, Goat, Pig},
	}
	for _, t := range triads {
		for _, a := range t {
			for _, b := range t {
				if a != b {
					r.allied[a][b] = true
				}
			}
		}
	}
	pairs := [][2]Zodiac{{Rat, Ox}, {Tiger, Pig}, {Rabbit, Dog}, {Dragon, Rooster}, {Snake, Monkey}, {Horse, Goat}}
	for _, p := range pairs {
		r.allied[p[0]][p[1]] = true
		r.allied[p[1]][p[0]] = true
	}
	for z := Zodiac(0); z < ZodiacCount; z++ {
		c := (z + 6) % ZodiacCount
		r.clash[z] = c
		r.opposed[z][c] = true
	}
	harms := [][2]Zodiac{{Rat, Goat}, {Ox, Horse}, {Tiger, Snake}, {Rabbit, Dragon}, {Monkey, Pig}, {Dog, Rooster}}
	for _, h := range harms {
		r.opposed[h[0]][h[1]] = true
		r.opposed[h[1]][h[0]] = true
	}
	r.generates = [ElementCount]Element{Metal: Water, Water: Wood, Wood: Fire, Fire: Earth, Earth: Metal}
	r.restrains = [ElementCount]Element{Metal: Wood, Wood: Earth, Earth: Water, Water: Fire, Fire: Metal}
	return r
}

// ZodiacRelation is +1 when cand is allied with prev, -1 when opposed and 0
// otherwise. Alliance wins over opposition.
func (r *Relations) ZodiacRelation(prev, cand Zodiac) int {
	if !prev.Valid() || !cand.Valid() {
		return 0
	}
	switch {
	case r.allied[prev][cand]:
		return 1
	case r.opposed[prev][cand]:
		return -1
	}
	return 0
}

// ElementRelation is +1 when prev generates cand, -1 when prev restrains
// cand and 0 otherwise.
func (r *Relations) ElementRelation(prev, cand Element) int {
	if !prev.Valid() || !cand.Valid() {
		return 0
	}
	switch cand {
	case r.generates[prev]:
		return 1
	case r.restrains[prev]:
		return -1
	}
	return 0
}

// Clash returns the zodiac opposite z.
func (r *Relations) Clash(z Zodiac) Zodiac { return r.clash[z] }

// Generates returns the element e generates.
func (r *Relations) Generates(e Element) Element { return r.generates[e] }
