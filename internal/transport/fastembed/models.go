package fastembed

// DefaultModel is the local model used when none is configured.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// knownDimensions lists the output size of each supported model.
var knownDimensions = map[string]int{
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-small-en":                      384,
	"BAAI/bge-base-en-v1.5":                  768,
	"BAAI/bge-base-en":                       768,
	"BAAI/bge-small-zh-v1.5":                 512,
	"sentence-transformers/all-MiniLM-L6-v2": 384,
	"fast-bge-small-en-v1.5":                 384,
	"fast-bge-small-en":                      384,
	"fast-bge-base-en-v1.5":                  768,
	"fast-bge-base-en":                       768,
	"fast-bge-small-zh-v1.5":                 512,
	"fast-all-MiniLM-L6-v2":                  384,
}

// ModelDimensions returns the embedding size of a supported model.
func ModelDimensions(model string) (int, bool) {
	if model == "" {
		model = DefaultModel
	}
	d, ok := knownDimensions[model]
	return d, ok
}

// Config holds local embedding settings.
type Config struct {
	Model     string
	CacheDir  string
	MaxLength int
	BatchSize int
}
