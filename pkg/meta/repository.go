package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"minivcs/pkg/core"
	"minivcs/pkg/types"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCommitNotFound = errors.New("commit not found in metadata")

// Repository holds every SQL operation on commit metadata.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// IndexCommit projects c into the commits table. Re-indexing the same hash
// is a no-op.
func (r *Repository) IndexCommit(ctx context.Context, c *core.Commit) error {
	filesJSON, err := json.Marshal(c.Files)
	if err != nil {
		return fmt.Errorf("failed to marshal files: %w", err)
	}

	model := CommitModel{
		Hash:      c.ID().String(),
		Parent:    c.Parent.String(),
		Title:     c.Title,
		Message:   c.Message,
		Timestamp: c.Timestamp.Unix(),
		Files:     datatypes.JSON(filesJSON),
		Count:     c.Count,
		Size:      c.Size,
		CreatedAt: time.Now(),
	}

	err = r.db.GetConn().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hash"}},
			DoNothing: true,
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to index commit: %w", err)
	}
	return nil
}

func (r *Repository) GetCommit(ctx context.Context, hash types.Hash) (*CommitModel, error) {
	var commit CommitModel
	err := r.db.GetConn().WithContext(ctx).
		Where("hash = ?", hash.String()).
		First(&commit).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommitNotFound
	}
	if err != nil {
		return nil, err
	}
	return &commit, nil
}

// SearchCommits matches term against title and message, newest first.
func (r *Repository) SearchCommits(ctx context.Context, term string, limit int) ([]CommitModel, error) {
	pattern := "%" + escapeLike(term) + "%"

	var commits []CommitModel
	err := r.db.GetConn().WithContext(ctx).
		Where("title LIKE ? ESCAPE '\\' OR message LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("timestamp DESC").
		Limit(limit).
		Find(&commits).Error
	return commits, err
}

// FindCommitsWithFile lists commits whose file list contains name.
func (r *Repository) FindCommitsWithFile(ctx context.Context, name string, limit int) ([]CommitModel, error) {
	quoted, err := json.Marshal(name)
	if err != nil {
		return nil, err
	}
	pattern := "%" + escapeLike(string(quoted)) + "%"

	var commits []CommitModel
	err = r.db.GetConn().WithContext(ctx).
		Where("CAST(files AS TEXT) LIKE ? ESCAPE '\\'", pattern).
		Order("timestamp DESC").
		Limit(limit).
		Find(&commits).Error
	return commits, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
