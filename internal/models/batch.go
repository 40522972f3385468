package models

// BatchStatus is the lifecycle state of a batch upload. A batch starts as
// BatchInitiated and moves exactly once to BatchCompleted or BatchFailed.
type BatchStatus string

const (
	BatchInitiated BatchStatus = "initiated"
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s BatchStatus) Terminal() bool {
	return s == BatchCompleted || s == BatchFailed
}

func (s BatchStatus) Valid() bool {
	return s == BatchInitiated || s.Terminal()
}

type Batch struct {
	ID     uint        `json:"id" gorm:"primaryKey"`
	Status BatchStatus `json:"status" gorm:"type:batch_status;not null;default:initiated"`
}

func (Batch) TableName() string { return "batch" }

// BatchMember links a sequence to the batch that inserted it.
type BatchMember struct {
	BatchID       uint `gorm:"column:batch_id;primaryKey;autoIncrement:false"`
	DNASequenceID uint `gorm:"column:dna_sequence_id;primaryKey;autoIncrement:false"`
}

func (BatchMember) TableName() string { return "dna_batch" }
