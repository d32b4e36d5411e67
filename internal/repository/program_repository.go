package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Larrykj/School-App-sub001/internal/models"
)

// ProgramRepository handles persistence of program requirements.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// RequirementByProgram returns the graduation requirement for a program.
func (r *ProgramRepository) RequirementByProgram(ctx context.Context, programID string) (*models.ProgramRequirement, error) {
	const query = `SELECT id, program_id, total_credits_required, minimum_gpa
        FROM program_requirements WHERE program_id = $1`
	var requirement models.ProgramRequirement
	if err := r.db.GetContext(ctx, &requirement, query, programID); err != nil {
		return nil, err
	}
	return &requirement, nil
}
