package meta

import (
	"time"

	"gorm.io/datatypes"
)

// CommitModel is the SQL projection of a core.Commit, used for searching
// history without walking the chain. The object store stays the source of
// truth; rows can always be rebuilt from it.
type CommitModel struct {
	Hash   string `gorm:"primaryKey;type:char(64)"`
	Parent string `gorm:"index;type:varchar(64);not null"` // "0" for genesis

	Title     string `gorm:"type:text"`
	Message   string `gorm:"type:text"`
	Timestamp int64  `gorm:"index"` // unix seconds, UTC

	// Files is the ordered name list, e.g. ["a.txt","b.txt"]
	Files datatypes.JSON

	Count int
	Size  int64

	CreatedAt time.Time
}

func (CommitModel) TableName() string {
	return "commits"
}
