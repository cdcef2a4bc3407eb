package streamteam

// SingleValueWrite configures one (value schema, destination store) pair
// for a StoreModule.
type SingleValueWrite struct {
	ValueSchema Schema
	Writer      singleValueWriter
}

// HistoryWrite configures one (value schema, destination history store)
// pair for a StoreModule.
type HistoryWrite struct {
	ValueSchema Schema
	Writer      historyWriter
}

// StoreModule applies its configured value schemas to the current element
// and writes the results to single-value and history stores, as a
// side-effecting pass-through sitting between filters and detectors.
// Forward defaults to true: the element is re-emitted for downstream
// processors unless explicitly swallowed.
type StoreModule struct {
	StoreName         string
	SingleValueWrites []SingleValueWrite
	HistoryWrites     []HistoryWrite
	Forward           bool
}

func (s *StoreModule) Name() string { return s.StoreName }

// Process implements Processor. All configured writes are attempted; the
// first schema-apply or write failure aborts the remaining writes and
// drops the element (§7: the engine never partially commits a
// derivation).
func (s *StoreModule) Process(matchID string, e Element) ([]Element, error) {
	for _, w := range s.SingleValueWrites {
		v, err := w.ValueSchema.Apply(e)
		if err != nil {
			return nil, err
		}
		if err := w.Writer.write(matchID, e, v); err != nil {
			return nil, err
		}
	}
	for _, w := range s.HistoryWrites {
		v, err := w.ValueSchema.Apply(e)
		if err != nil {
			return nil, err
		}
		if err := w.Writer.write(matchID, e, v); err != nil {
			return nil, err
		}
	}
	if s.Forward {
		return []Element{e}, nil
	}
	return nil, nil
}
