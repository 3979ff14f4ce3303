package whisper

// VariantInfo is the static speed/accuracy metadata advertised for a model
// variant. Speed and accuracy are relative 1-5 scores.
type VariantInfo struct {
	Size     string `json:"size"`
	Speed    int    `json:"speed"`
	Accuracy int    `json:"accuracy"`
}

var catalog = map[string]VariantInfo{
	"tiny":   {Size: "39 MB", Speed: 5, Accuracy: 2},
	"base":   {Size: "74 MB", Speed: 4, Accuracy: 3},
	"small":  {Size: "244 MB", Speed: 3, Accuracy: 4},
	"medium": {Size: "769 MB", Speed: 2, Accuracy: 5},
}

var variantOrder = []string{"tiny", "base", "small", "medium"}

func KnownVariant(name string) bool {
	_, ok := catalog[name]
	return ok
}

func Variants() []string {
	out := make([]string, len(variantOrder))
	copy(out, variantOrder)
	return out
}

func Catalog() map[string]VariantInfo {
	out := make(map[string]VariantInfo, len(catalog))
	for k, v := range catalog {
		out[k] = v
	}
	return out
}
