//go:build !cgo || !hyperscan

package prefilter

const engineName = "aho-corasick"

func newEngine(literals [][]byte) (engine, error) {
	return newAcEngine(literals), nil
}
