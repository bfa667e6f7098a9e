package interfaces

// NoiseFilter decides which page script errors are third-party noise
type NoiseFilter interface {
	// Ignore reports whether an uncaught page error should not fail a scenario
	Ignore(message, source string) bool
}
