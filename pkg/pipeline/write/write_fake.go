package write

// WriteFake captures batches for tests.
type WriteFake struct {
	Batches []Batch
}

func (w *WriteFake) Write(batch Batch) error {
	w.Batches = append(w.Batches, batch)
	return nil
}

func NewWriteFake() *WriteFake {
	return &WriteFake{}
}
