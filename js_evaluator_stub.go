//go:build !js_eval

package buildopts

// NewJSEvaluator is unavailable without the js_eval build tag.
func NewJSEvaluator(...JSEvaluatorOption) Evaluator {
	return nil
}

func isJSEvaluator(Evaluator) bool {
	return false
}
