package aprs

// Default symbol: primary table, car.
const (
	DefaultTable = '/'
	DefaultGlyph = '>'
)

// Symbol selects the map icon of a report: Table is the symbol table or
// overlay character, Glyph the icon within it.
type Symbol struct {
	Table rune
	Glyph rune
}

// ParseSymbol splits a two-character symbol code into table and glyph.
// Any other input, including a single character, yields the default symbol.
func ParseSymbol(code string) Symbol {
	r := []rune(code)
	if len(r) != 2 {
		return Symbol{Table: DefaultTable, Glyph: DefaultGlyph}
	}
	return Symbol{Table: r[0], Glyph: r[1]}
}

// String returns the two-character code.
func (s Symbol) String() string {
	return string([]rune{s.Table, s.Glyph})
}
