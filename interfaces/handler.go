package interfaces

// Handler is a runnable command selected by the CLI layer.
type Handler interface {
	Run()
}
