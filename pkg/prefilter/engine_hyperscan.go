//go:build cgo && hyperscan

package prefilter

const engineName = "hyperscan"

func newEngine(literals [][]byte) (engine, error) {
	return newHsEngine(literals)
}
