package integration

import "context"

// resolveStep is one named attempt of a fallback chain. found=false hands
// over to the next step; an error stops the chain.
type resolveStep[T any] struct {
	name string
	try  func(ctx context.Context) (value T, found bool, err error)
}

// fallbackChain is an ordered list of named resolution steps
type fallbackChain[T any] []resolveStep[T]

// run tries the steps in order and returns the first value found with the
// name of the step that produced it. An empty name means no step matched.
func (c fallbackChain[T]) run(ctx context.Context) (T, string, error) {
	var zero T
	for _, s := range c {
		v, found, err := s.try(ctx)
		if err != nil {
			return zero, s.name, err
		}
		if found {
			return v, s.name, nil
		}
	}
	return zero, "", nil
}

// names lists the step names in order
func (c fallbackChain[T]) names() []string {
	out := make([]string, len(c))
	for i, s := range c {
		out[i] = s.name
	}
	return out
}
