package store

// Batch holds the rows one flush writes.
type Batch struct {
	Aggregates []*AggregateRecord
	Keys       []*KeyRecord
}

// Len returns the number of rows in b.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Aggregates) + len(b.Keys)
}

// Validate checks every row and returns the first invalid one's error.
func (b *Batch) Validate() error {
	if b == nil {
		return nil
	}
	for _, r := range b.Aggregates {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	for _, r := range b.Keys {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}
