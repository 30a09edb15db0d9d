package collectionutils

// Set is a membership index over comparable values.
type Set[T comparable] map[T]struct{}

// SetOf indexes items for constant time membership checks.
func SetOf[T comparable](items []T) Set[T] {
	s := make(Set[T], len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

func (s Set[T]) Contains(item T) bool {
	_, ok := s[item]
	return ok
}

// GetOrDefault returns m[key], or fallback when key is absent.
func GetOrDefault[K comparable, V any](m map[K]V, key K, fallback V) V {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}
