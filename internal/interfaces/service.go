package interfaces

// Service is a surface exposing the controller to the outside world.
type Service interface {
	// Start begins serving in background.
	Start() error
	// Stop gracefully terminates the service.
	Stop()
}
