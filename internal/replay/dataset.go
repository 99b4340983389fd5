package replay

import "time"

// Dataset is the learner-facing batch iterator over a table. Next blocks
// until a full batch is admitted or the per-batch timeout expires.
type Dataset struct {
	table     *Table
	batchSize int
	timeout   time.Duration
}

func NewDataset(table *Table, batchSize int, timeout time.Duration) *Dataset {
	return &Dataset{table: table, batchSize: batchSize, timeout: timeout}
}

func (d *Dataset) BatchSize() int { return d.batchSize }

// Next returns the next batch. On ErrTimeout the partial batch sampled so
// far is returned with the error; on ErrTableClosed the run is over.
func (d *Dataset) Next() ([]Item, error) {
	return d.table.SampleBatch(d.batchSize, d.timeout)
}
