package ports

type Recorder interface {
	TenantCreated()
	KeyCollision()
	PairUpserted(created bool)
	AuthorizationFailed()
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) TenantCreated() {}
func (NopRecorder) KeyCollision() {}
func (NopRecorder) PairUpserted(bool) {}
func (NopRecorder) AuthorizationFailed() {}
