package component

// Name is a scene-level label used by scripts and logs.
type Name struct {
	Value string
}

var NameComponent = NewComponent[Name]()
