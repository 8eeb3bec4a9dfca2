package effect

import "strings"

// Element is a damage element, also used for stain slots.
type Element string

const (
	ElementNone      Element = ""
	ElementPhysical  Element = "physical"
	ElementFire      Element = "fire"
	ElementIce       Element = "ice"
	ElementLightning Element = "lightning"
	ElementEarth     Element = "earth"
	ElementLight     Element = "light"
	ElementDark      Element = "dark"
	ElementVoid      Element = "void"
)

var elements = map[string]Element{
	"":          ElementNone,
	"none":      ElementNone,
	"physical":  ElementPhysical,
	"fire":      ElementFire,
	"ice":       ElementIce,
	"lightning": ElementLightning,
	"earth":     ElementEarth,
	"light":     ElementLight,
	"dark":      ElementDark,
	"void":      ElementVoid,
}

// ParseElement maps a data-file spelling to an Element.
func ParseElement(s string) (Element, bool) {
	e, ok := elements[strings.ToLower(strings.TrimSpace(s))]
	return e, ok
}

// StainElements are the elements a stain slot can hold.
var StainElements = []Element{ElementFire, ElementIce, ElementLightning, ElementEarth, ElementLight}
